package course

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

type Type string

const (
	TypeOpen   Type = "open"   // anyone can enroll
	TypePublic Type = "public" // anyone can enroll, with the password if the course has one
	TypeHidden Type = "hidden" // nobody can enroll
)

type EntryKind string

const (
	EntryFile  EntryKind = "file"
	EntryText  EntryKind = "text"
	EntryForum EntryKind = "forum"
)

type Access string

const (
	AccessAll      Access = "all"
	AccessTeachers Access = "teachers"
)

// Entry is one unit of section content. Only the fields of its kind are set:
//   file: FileRef, FileName
//   text: Text
//   forum: ForumRef
type Entry struct {
	ID       string    `json:"_id" bson:"_id"`
	Kind     EntryKind `json:"kind" bson:"kind"`
	Name     string    `json:"name" bson:"name"`
	Access   Access    `json:"access" bson:"access"`
	Text     string    `json:"text,omitempty" bson:"text,omitempty"`
	FileRef  string    `json:"fileRef,omitempty" bson:"fileRef,omitempty"`
	FileName string    `json:"fileName,omitempty" bson:"fileName,omitempty"`
	ForumRef string    `json:"forumRef,omitempty" bson:"forumRef,omitempty"`
}

func (e Entry) summary() Summary { return Summary{Name: e.Name, Kind: string(e.Kind)} }

type Section struct {
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description" bson:"description"`
	Entries     []Entry `json:"entries" bson:"entries"`
}

// Forum may be shared by several courses; it is deleted with the last course referencing it.
type Forum struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Description  string    `json:"description" bson:"description"`
	TeachersOnly bool      `json:"teachersOnly" bson:"teachersOnly"`
	CourseRefs   []string  `json:"courseRefs" bson:"courseRefs"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type Subscriber struct {
	User        string    `json:"user" bson:"user"`
	LastVisited time.Time `json:"lastVisited" bson:"lastVisited"`
}

type UpdateKind string

const (
	UpdateNewEntries       UpdateKind = "newEntries"
	UpdateDeletedEntries   UpdateKind = "deletedEntries"
	UpdateNewExercises     UpdateKind = "newExercises"
	UpdateDeletedExercises UpdateKind = "deletedExercises"
	UpdateNewInfo          UpdateKind = "newInfo"
)

// Summary describes an entry or exercise in the news log. It never references the document itself.
type Summary struct {
	Name string `json:"name" bson:"name"`
	Kind string `json:"kind" bson:"kind"`
}

const summaryKindExercise = "exercise"

// Update is an entry of the course news log.
// Entries is set for the entry kinds, Exercises for the exercise kinds, the names for newInfo.
type Update struct {
	Created   time.Time  `json:"created" bson:"created"`
	Kind      UpdateKind `json:"kind" bson:"kind"`
	Entries   []Summary  `json:"entries,omitempty" bson:"entries,omitempty"`
	Exercises []Summary  `json:"exercises,omitempty" bson:"exercises,omitempty"`
	OldName   string     `json:"oldName,omitempty" bson:"oldName,omitempty"`
	NewName   string     `json:"newName,omitempty" bson:"newName,omitempty"`
	NewAbout  string     `json:"newAbout,omitempty" bson:"newAbout,omitempty"`
}

// Course is the persisted course document. Password holds the bcrypt hash; use CourseView for clients.
type Course struct {
	ID              string       `json:"_id" bson:"_id"`
	Name            string       `json:"name" bson:"name"`
	About           string       `json:"about" bson:"about"`
	Type            Type         `json:"type" bson:"type"`
	HasPassword     bool         `json:"hasPassword" bson:"hasPassword"`
	Password        string       `json:"password,omitempty" bson:"password,omitempty"`
	Creator         string       `json:"creator" bson:"creator"`
	Teachers        []string     `json:"teachers" bson:"teachers"`
	InvitedTeachers []string     `json:"invitedTeachers" bson:"invitedTeachers"`
	Students        []string     `json:"students" bson:"students"`
	Subscribers     []Subscriber `json:"subscribers" bson:"subscribers"`
	Sections        []Section    `json:"sections" bson:"sections"`
	Exercises       []string     `json:"exercises" bson:"exercises"`
	Updates         []Update     `json:"updates" bson:"updates"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}

func (c *Course) SetPassword(pwd string) error {
	if pwd == "" {
		c.HasPassword = false
		c.Password = ""
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.HasPassword = true
	c.Password = string(hash)
	return nil
}

func (c *Course) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(pwd))
}

// Entries returns every entry of every section, in order.
func (c *Course) Entries() []Entry {
	var entries []Entry
	for _, s := range c.Sections {
		entries = append(entries, s.Entries...)
	}
	return entries
}

func (c *Course) subscriber(userID string) (int, bool) {
	for i, s := range c.Subscribers {
		if s.User == userID {
			return i, true
		}
	}
	return -1, false
}

// CourseView is a course as presented to one user.
type CourseView struct {
	ID              string       `json:"_id"`
	Name            string       `json:"name"`
	About           string       `json:"about"`
	Type            Type         `json:"type"`
	HasPassword     bool         `json:"hasPassword"`
	Creator         string       `json:"creator"`
	Teachers        []string     `json:"teachers"`
	InvitedTeachers []string     `json:"invitedTeachers,omitempty"`
	Students        []string     `json:"students"`
	Subscribers     []Subscriber `json:"subscribers,omitempty"`
	Sections        []Section    `json:"sections"`
	Exercises       []string     `json:"exercises"`
	Role            Role         `json:"role"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// NewView presents `c` to a user of role `role`: teacher-only entries, invitations and subscribers are
// only shown to teachers.
func NewView(c Course, role Role) CourseView {
	view := CourseView{
		ID:          c.ID,
		Name:        c.Name,
		About:       c.About,
		Type:        c.Type,
		HasPassword: c.HasPassword,
		Creator:     c.Creator,
		Teachers:    c.Teachers,
		Students:    c.Students,
		Sections:    c.Sections,
		Exercises:   c.Exercises,
		Role:        role,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if role.CanEdit() {
		view.InvitedTeachers = c.InvitedTeachers
		view.Subscribers = c.Subscribers
		return view
	}

	view.Sections = make([]Section, 0, len(c.Sections))
	for _, s := range c.Sections {
		sec := Section{Name: s.Name, Description: s.Description, Entries: make([]Entry, 0, len(s.Entries))}
		for _, e := range s.Entries {
			if e.Access != AccessTeachers {
				sec.Entries = append(sec.Entries, e)
			}
		}
		view.Sections = append(view.Sections, sec)
	}
	return view
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name     string `json:"name" validate:"required"`
	About    string `json:"about"`
	Type     Type   `json:"type" validate:"required,coursetype"`
	Password string `json:"password"`
}

func (nc *NewCourse) clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.About = core.CleanString(nc.About)
}
