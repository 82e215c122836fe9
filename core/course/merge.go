package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

// EditCourse is a course edit submitted by a teacher. Nil fields are left untouched; a non-nil
// Sections or Exercises list replaces the persisted one (an empty list removes everything).
// Documents without an id are created, documents with an id are merged onto the persisted ones.
type EditCourse struct {
	Name        *string        `json:"name" validate:"omitempty,min=1"`
	About       *string        `json:"about"`
	Type        *Type          `json:"type" validate:"omitempty,coursetype"`
	HasPassword *bool          `json:"hasPassword"`
	Password    *string        `json:"password"`
	Sections    []EditSection  `json:"sections" validate:"omitempty,dive"`
	Exercises   []EditExercise `json:"exercises" validate:"omitempty,dive"`
}

type EditSection struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Entries     []EditEntry `json:"entries" validate:"omitempty,dive"`
}

type EditEntry struct {
	ID       string     `json:"_id" validate:"omitempty,docid"`
	Kind     EntryKind  `json:"kind" validate:"required,entrykind"`
	Name     string     `json:"name" validate:"required"`
	Access   Access     `json:"access" validate:"omitempty,entryaccess"`
	Text     string     `json:"text"`
	FileRef  string     `json:"fileRef"`
	FileName string     `json:"fileName"`
	ForumRef string     `json:"forumRef" validate:"omitempty,docid"` // shares an existing forum (new entries only)
	Forum    *EditForum `json:"forum"`
}

type EditForum struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	TeachersOnly *bool  `json:"teachersOnly"`
}

type EditExercise struct {
	ID        string     `json:"_id" validate:"omitempty,docid"`
	Name      string     `json:"name" validate:"required_without=ID"`
	Available *bool      `json:"available"`
	Weight    *float64   `json:"weight" validate:"omitempty,min=0"`
	Deadline  *time.Time `json:"deadline"`
	Tasks     []EditTask `json:"tasks" validate:"omitempty,dive"`
}

type EditTask struct {
	ID             string                `json:"_id" validate:"omitempty,docid"`
	Kind           exercise.TaskKind     `json:"kind" validate:"required,taskkind"`
	Description    string                `json:"description"`
	Score          *float64              `json:"score" validate:"omitempty,min=0"`
	Options        []exercise.TaskOption `json:"options" validate:"omitempty,dive"`
	CorrectAnswer  *string               `json:"correctAnswer"`
	CorrectAnswers []string              `json:"correctAnswers"`
	OnlyFull       *bool                 `json:"onlyFull"`
}

func (ec *EditCourse) clean() {
	if ec.Name != nil {
		name := core.CleanString(*ec.Name)
		ec.Name = &name
	}
	if ec.About != nil {
		about := core.CleanString(*ec.About)
		ec.About = &about
	}
}

// MergeResult is the outcome of a committed merge. News holds the updates appended to the course log.
type MergeResult struct {
	Course  Course   `json:"-"`
	News    []Update `json:"news"`
	Cascade Cascade  `json:"cascade"`
}

// merge applies one EditCourse onto a persisted course. Every step runs inside the caller's transaction:
// diffs read the persisted state, then released documents are cascaded, then the remaining
// sub-documents are saved, and the course is saved last.
type merge struct {
	courses   Repository
	exercises exercise.Repository
	lifecycle *Lifecycle
	members   exercise.MembershipProvider

	course  Course
	userID  string
	edit    EditCourse
	now     time.Time
	cascade Cascade

	membership *exercise.Membership // loaded on first use
}

type entryDiff struct {
	persisted map[string]Entry
	deleted   []Entry
	added     []Summary // excludes teacher-only entries
}

type exerciseDiff struct {
	persisted map[string]exercise.Exercise
	attached  map[string]exercise.Exercise // taken from the exercise bank
	removed   []exercise.Exercise
	added     []Summary // available new exercises only
}

func (m *merge) run(ctx context.Context) (MergeResult, error) {
	ed, err := m.diffEntries()
	if err != nil {
		return MergeResult{}, err
	}
	xd, err := m.diffExercises(ctx)
	if err != nil {
		return MergeResult{}, err
	}
	news := m.buildNews(ed, xd)

	if err = m.releaseRemoved(ctx, ed, xd); err != nil {
		return MergeResult{}, err
	}
	sections, err := m.upsertSections(ctx, ed)
	if err != nil {
		return MergeResult{}, err
	}
	exercises, err := m.upsertExercises(ctx, xd)
	if err != nil {
		return MergeResult{}, err
	}

	c := m.course
	c.Sections = sections
	c.Exercises = exercises
	if err = m.mergeBasicFields(&c); err != nil {
		return MergeResult{}, err
	}
	c.Updates = append(c.Updates, news...)
	c.UpdatedAt = m.now
	if err = m.courses.SaveCourse(ctx, c); err != nil {
		return MergeResult{}, core.StorageError(err, "saving course")
	}
	return MergeResult{Course: c, News: news, Cascade: m.cascade}, nil
}

func (m *merge) diffEntries() (entryDiff, error) {
	d := entryDiff{persisted: make(map[string]Entry)}
	if m.edit.Sections == nil {
		return d, nil
	}
	for _, e := range m.course.Entries() {
		d.persisted[e.ID] = e
	}

	seen := make(map[string]bool)
	for _, s := range m.edit.Sections {
		for _, e := range s.Entries {
			if e.ID == "" {
				if e.Access != AccessTeachers {
					d.added = append(d.added, Summary{Name: e.Name, Kind: string(e.Kind)})
				}
				continue
			}
			old, ok := d.persisted[e.ID]
			if !ok {
				return entryDiff{}, core.NewBadRequestError(fmt.Sprintf("entry %s does not belong to this course", e.ID))
			}
			if seen[e.ID] {
				return entryDiff{}, core.NewBadRequestError(fmt.Sprintf("entry %s appears more than once", e.ID))
			}
			if old.Kind != e.Kind {
				return entryDiff{}, core.NewBadRequestError(fmt.Sprintf("cannot change the kind of entry %s", e.ID))
			}
			seen[e.ID] = true
		}
	}

	for _, e := range m.course.Entries() {
		if !seen[e.ID] {
			d.deleted = append(d.deleted, e)
		}
	}
	return d, nil
}

func (m *merge) diffExercises(ctx context.Context) (exerciseDiff, error) {
	d := exerciseDiff{
		persisted: make(map[string]exercise.Exercise),
		attached:  make(map[string]exercise.Exercise),
	}
	if m.edit.Exercises == nil {
		return d, nil
	}

	persisted := make([]exercise.Exercise, 0, len(m.course.Exercises))
	for _, id := range m.course.Exercises {
		ex, err := m.exercises.GetExercise(ctx, id)
		if core.IsNotFound(err) {
			continue // dangling reference, dropped on save
		} else if err != nil {
			return exerciseDiff{}, core.StorageError(err, "getting exercise")
		}
		persisted = append(persisted, ex)
		d.persisted[ex.ID] = ex
	}

	seen := make(map[string]bool)
	for _, e := range m.edit.Exercises {
		if e.ID == "" {
			if e.Available != nil && *e.Available {
				d.added = append(d.added, Summary{Name: core.CleanString(e.Name), Kind: summaryKindExercise})
			}
			continue
		}
		if seen[e.ID] {
			return exerciseDiff{}, core.NewBadRequestError(fmt.Sprintf("exercise %s appears more than once", e.ID))
		}
		seen[e.ID] = true
		if _, ok := d.persisted[e.ID]; ok {
			continue
		}
		ex, err := m.exercises.GetExercise(ctx, e.ID)
		if err != nil {
			return exerciseDiff{}, core.StorageError(err, "getting exercise "+e.ID)
		}
		if err = m.checkShared(ctx, ex.CourseRefs, "you do not teach any course using exercise "+ex.ID); err != nil {
			return exerciseDiff{}, err
		}
		d.attached[ex.ID] = ex

		available := ex.Available
		if e.Available != nil {
			available = *e.Available
		}
		if available {
			d.added = append(d.added, Summary{Name: ex.Name, Kind: summaryKindExercise})
		}
	}

	for _, ex := range persisted {
		if !seen[ex.ID] {
			d.removed = append(d.removed, ex)
		}
	}
	return d, nil
}

// checkShared allows taking a document from other courses only when the user teaches one of them.
func (m *merge) checkShared(ctx context.Context, courseRefs []string, msg string) error {
	if m.membership == nil {
		ms, err := m.members.Membership(ctx, m.userID)
		if err != nil {
			return err
		}
		m.membership = &ms
	}
	for _, ref := range courseRefs {
		if m.membership.Teaches(ref) {
			return nil
		}
	}
	return core.NewForbiddenError(msg)
}

func (m *merge) buildNews(ed entryDiff, xd exerciseDiff) []Update {
	var news []Update
	if len(ed.deleted) > 0 {
		summaries := make([]Summary, 0, len(ed.deleted))
		for _, e := range ed.deleted {
			summaries = append(summaries, e.summary())
		}
		news = append(news, Update{Created: m.now, Kind: UpdateDeletedEntries, Entries: summaries})
	}
	if len(ed.added) > 0 {
		news = append(news, Update{Created: m.now, Kind: UpdateNewEntries, Entries: ed.added})
	}
	if len(xd.removed) > 0 {
		summaries := make([]Summary, 0, len(xd.removed))
		for _, ex := range xd.removed {
			summaries = append(summaries, Summary{Name: ex.Name, Kind: summaryKindExercise})
		}
		news = append(news, Update{Created: m.now, Kind: UpdateDeletedExercises, Exercises: summaries})
	}
	if len(xd.added) > 0 {
		news = append(news, Update{Created: m.now, Kind: UpdateNewExercises, Exercises: xd.added})
	}

	newName, newAbout := m.course.Name, m.course.About
	if m.edit.Name != nil {
		newName = *m.edit.Name
	}
	if m.edit.About != nil {
		newAbout = *m.edit.About
	}
	if newName != m.course.Name || newAbout != m.course.About {
		news = append(news, Update{
			Created:  m.now,
			Kind:     UpdateNewInfo,
			OldName:  m.course.Name,
			NewName:  newName,
			NewAbout: newAbout,
		})
	}
	return news
}

// releaseRemoved cascades the entries and exercises dropped from the course.
func (m *merge) releaseRemoved(ctx context.Context, ed entryDiff, xd exerciseDiff) error {
	opts := DeleteOptions{RequesterID: m.userID, DeleteFiles: true}
	for _, e := range ed.deleted {
		cascade, err := m.lifecycle.DeleteEntry(ctx, m.course, e, opts)
		if err != nil {
			return errors.Wrapf(err, "deleting entry %s", e.ID)
		}
		m.cascade.add(cascade)
	}
	for _, ex := range xd.removed {
		cascade, err := m.lifecycle.ReleaseExercise(ctx, m.course.ID, ex)
		if err != nil {
			return errors.Wrapf(err, "releasing exercise %s", ex.ID)
		}
		m.cascade.add(cascade)
	}
	return nil
}

func (m *merge) upsertSections(ctx context.Context, ed entryDiff) ([]Section, error) {
	if m.edit.Sections == nil {
		return m.course.Sections, nil
	}

	sections := make([]Section, 0, len(m.edit.Sections))
	for _, es := range m.edit.Sections {
		sec := Section{
			Name:        core.CleanString(es.Name),
			Description: es.Description,
			Entries:     make([]Entry, 0, len(es.Entries)),
		}
		for _, ee := range es.Entries {
			var (
				entry Entry
				err   error
			)
			if ee.ID == "" {
				entry, err = m.newEntry(ctx, ee)
			} else {
				entry, err = m.mergeEntry(ctx, ed.persisted[ee.ID], ee)
			}
			if err != nil {
				return nil, err
			}
			sec.Entries = append(sec.Entries, entry)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func (m *merge) newEntry(ctx context.Context, ee EditEntry) (Entry, error) {
	entry := Entry{
		ID:     uuid.NewString(),
		Kind:   ee.Kind,
		Name:   core.CleanString(ee.Name),
		Access: ee.Access,
	}
	if entry.Access == "" {
		entry.Access = AccessAll
	}

	switch ee.Kind {
	case EntryText:
		entry.Text = ee.Text
	case EntryFile:
		entry.FileRef, entry.FileName = ee.FileRef, ee.FileName
	case EntryForum:
		forumRef, err := m.attachForum(ctx, ee)
		if err != nil {
			return Entry{}, err
		}
		entry.ForumRef = forumRef
	}
	return entry, nil
}

// attachForum creates the forum of a new entry, or adds the course to the shared forum it references.
func (m *merge) attachForum(ctx context.Context, ee EditEntry) (string, error) {
	var forum Forum
	if ee.ForumRef != "" {
		var err error
		if forum, err = m.courses.GetForum(ctx, ee.ForumRef); err != nil {
			return "", core.StorageError(err, "getting forum "+ee.ForumRef)
		}
		if err = m.checkShared(ctx, forum.CourseRefs, "you do not teach any course using forum "+forum.ID); err != nil {
			return "", err
		}
		forum.CourseRefs = core.AddString(forum.CourseRefs, m.course.ID)
	} else {
		forum = Forum{
			ID:         uuid.NewString(),
			Name:       core.CleanString(ee.Name),
			CourseRefs: []string{m.course.ID},
			CreatedAt:  m.now,
		}
	}
	applyForumEdit(&forum, ee.Forum)

	if err := m.courses.SaveForum(ctx, forum); err != nil {
		return "", core.StorageError(err, "saving forum")
	}
	return forum.ID, nil
}

func (m *merge) mergeEntry(ctx context.Context, old Entry, ee EditEntry) (Entry, error) {
	entry := old
	entry.Name = core.CleanString(ee.Name)
	if ee.Access != "" {
		entry.Access = ee.Access
	}

	switch old.Kind {
	case EntryText:
		entry.Text = ee.Text
	case EntryFile:
		if ee.FileRef != "" && ee.FileRef != old.FileRef {
			if old.FileRef != "" {
				m.cascade.Blobs = append(m.cascade.Blobs, old.FileRef) // replaced upload
			}
			entry.FileRef = ee.FileRef
		}
		if ee.FileName != "" {
			entry.FileName = ee.FileName
		}
	case EntryForum:
		if ee.Forum == nil || old.ForumRef == "" {
			break
		}
		forum, err := m.courses.GetForum(ctx, old.ForumRef)
		if err != nil {
			return Entry{}, core.StorageError(err, "getting forum "+old.ForumRef)
		}
		applyForumEdit(&forum, ee.Forum)
		if err = m.courses.SaveForum(ctx, forum); err != nil {
			return Entry{}, core.StorageError(err, "saving forum")
		}
	}
	return entry, nil
}

func applyForumEdit(forum *Forum, ef *EditForum) {
	if ef == nil {
		return
	}
	if name := core.CleanString(ef.Name); name != "" {
		forum.Name = name
	}
	if ef.Description != "" {
		forum.Description = ef.Description
	}
	if ef.TeachersOnly != nil {
		forum.TeachersOnly = *ef.TeachersOnly
	}
}

func (m *merge) upsertExercises(ctx context.Context, xd exerciseDiff) ([]string, error) {
	if m.edit.Exercises == nil {
		return m.course.Exercises, nil
	}

	ids := make([]string, 0, len(m.edit.Exercises))
	for _, ee := range m.edit.Exercises {
		var ex exercise.Exercise
		if ee.ID == "" {
			ex = exercise.Exercise{
				ID:           uuid.NewString(),
				Tasks:        []string{},
				CourseRefs:   []string{m.course.ID},
				Participants: []exercise.Participant{},
				CreatedAt:    m.now,
			}
		} else if persisted, ok := xd.persisted[ee.ID]; ok {
			ex = persisted
		} else {
			ex = xd.attached[ee.ID]
			ex.CourseRefs = core.AddString(ex.CourseRefs, m.course.ID)
		}
		applyExerciseEdit(&ex, ee)

		if ee.Tasks != nil {
			tasks, err := m.upsertTasks(ctx, ex, ee.Tasks)
			if err != nil {
				return nil, err
			}
			ex.Tasks = tasks
		}
		ex.UpdatedAt = m.now
		if err := m.exercises.SaveExercise(ctx, ex); err != nil {
			return nil, core.StorageError(err, "saving exercise")
		}
		ids = append(ids, ex.ID)
	}
	return ids, nil
}

func applyExerciseEdit(ex *exercise.Exercise, ee EditExercise) {
	if name := core.CleanString(ee.Name); name != "" {
		ex.Name = name
	}
	if ee.Available != nil {
		ex.Available = *ee.Available
	}
	if ee.Weight != nil {
		ex.Weight = *ee.Weight
	}
	if ee.Deadline != nil {
		deadline := ee.Deadline.UTC()
		ex.Deadline = &deadline
	}
}

// upsertTasks saves the tasks of `edits` for exercise `ex` and returns their ids in order.
// Tasks dropped from the exercise lose its reference and are deleted when orphaned.
func (m *merge) upsertTasks(ctx context.Context, ex exercise.Exercise, edits []EditTask) ([]string, error) {
	seen := make(map[string]bool)
	for _, et := range edits {
		if et.ID == "" {
			continue
		}
		if seen[et.ID] {
			return nil, core.NewBadRequestError(fmt.Sprintf("task %s appears more than once", et.ID))
		}
		seen[et.ID] = true
	}
	for _, taskID := range ex.Tasks {
		if seen[taskID] {
			continue
		}
		deleted, err := m.lifecycle.releaseTask(ctx, ex.ID, taskID)
		if err != nil {
			return nil, errors.Wrapf(err, "releasing task %s", taskID)
		}
		if deleted {
			m.cascade.Tasks = append(m.cascade.Tasks, taskID)
		}
	}

	ids := make([]string, 0, len(edits))
	for _, et := range edits {
		var task exercise.Task
		if et.ID == "" {
			task = exercise.Task{ID: uuid.NewString(), Kind: et.Kind, ExerciseRefs: []string{ex.ID}}
		} else {
			tasks, err := m.exercises.GetTasks(ctx, []string{et.ID})
			if err != nil {
				return nil, core.StorageError(err, "getting task "+et.ID)
			}
			task = tasks[0]
			if task.Kind != et.Kind {
				return nil, core.NewBadRequestError(fmt.Sprintf("cannot change the kind of task %s", et.ID))
			}
			task.ExerciseRefs = core.AddString(task.ExerciseRefs, ex.ID)
		}
		applyTaskEdit(&task, et)

		if err := m.exercises.SaveTask(ctx, task); err != nil {
			return nil, core.StorageError(err, "saving task")
		}
		ids = append(ids, task.ID)
	}
	return ids, nil
}

func applyTaskEdit(task *exercise.Task, et EditTask) {
	task.Description = et.Description
	if et.Score != nil {
		task.Score = *et.Score
	}
	if et.Options != nil {
		task.Options = et.Options
	}
	if et.CorrectAnswer != nil {
		task.CorrectAnswer = *et.CorrectAnswer
	}
	if et.CorrectAnswers != nil {
		task.CorrectAnswers = et.CorrectAnswers
	}
	if et.OnlyFull != nil {
		task.OnlyFull = *et.OnlyFull
	}

	// drop the fields of the other kinds
	switch task.Kind {
	case exercise.OneChoiceTask:
		task.CorrectAnswers, task.OnlyFull = nil, false
	case exercise.MultipleChoiceTask:
		task.CorrectAnswer = ""
	case exercise.TextTask:
		task.Options, task.CorrectAnswer, task.OnlyFull = nil, "", false
	}
}

func (m *merge) mergeBasicFields(c *Course) error {
	if m.edit.Name != nil {
		c.Name = *m.edit.Name
	}
	if m.edit.About != nil {
		c.About = *m.edit.About
	}
	if m.edit.Type != nil {
		c.Type = *m.edit.Type
	}

	switch {
	case m.edit.Password != nil && *m.edit.Password != "":
		if err := c.SetPassword(*m.edit.Password); err != nil {
			return errors.Wrap(err, "hashing course password")
		}
	case m.edit.HasPassword != nil && !*m.edit.HasPassword:
		_ = c.SetPassword("")
	}
	return nil
}
