package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const baseTemplate = "base"

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}

	// EmailTemplates holds the parsed e-mail templates, by name (file name without ext).
	// Every template is rendered inside the `_base` layout of the same ext.
	EmailTemplates struct {
		appName         string
		frontendBaseURL string
		text            map[string]*texttmpl.Template
		html            map[string]*htmltmpl.Template
	}
)

// ParseEmailTemplates parses every `*.txt` and `*.gohtml` file of `dir` in `fsys`.
// Files starting with `_` are layouts.
func ParseEmailTemplates(fsys fs.FS, dir string, conf *Config) (*EmailTemplates, error) {
	tmpls := &EmailTemplates{
		appName:         conf.AppName,
		frontendBaseURL: conf.FrontendBaseURL,
		text:            make(map[string]*texttmpl.Template),
		html:            make(map[string]*htmltmpl.Template),
	}
	strict := conf.Debug || conf.TestMode

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		base := path.Join(dir, "_base"+ext)

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.text[name] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.html[name] = tmpl
		}
	}
	return tmpls, nil
}

func (t *EmailTemplates) contextData(m *EmailMessage) ContextData {
	return ContextData{
		AppName:         t.appName,
		FrontendBaseURL: t.frontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent from BodyStr or the message template.
func (t *EmailTemplates) Render(m *EmailMessage) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" || t == nil {
		return nil
	}

	if tmpl, ok := t.text[m.TemplateName]; ok && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buff, baseTemplate, t.contextData(m)); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
		}
		m.TextContent = buff.String()
	}
	if tmpl, ok := t.html[m.TemplateName]; ok {
		var buff bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buff, baseTemplate, t.contextData(m)); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

// Attach base64 encodes the content of `r` as an attachment.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading attachment")
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return errors.Wrap(err, "encoding attachment")
	}
	_ = encoder.Close()

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
