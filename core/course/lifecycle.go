package course

import (
	"context"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

// Cascade lists the documents removed by a deletion. Blobs are only queued: they are deleted
// by Lifecycle.Flush once the transaction is committed.
type Cascade struct {
	Entries   []string `json:"entries,omitempty"`
	Forums    []string `json:"forums,omitempty"`
	Exercises []string `json:"exercises,omitempty"`
	Tasks     []string `json:"tasks,omitempty"`
	Blobs     []string `json:"blobs,omitempty"`
}

func (c *Cascade) add(other Cascade) {
	c.Entries = append(c.Entries, other.Entries...)
	c.Forums = append(c.Forums, other.Forums...)
	c.Exercises = append(c.Exercises, other.Exercises...)
	c.Tasks = append(c.Tasks, other.Tasks...)
	c.Blobs = append(c.Blobs, other.Blobs...)
}

func (c Cascade) Empty() bool {
	return len(c.Entries)+len(c.Forums)+len(c.Exercises)+len(c.Tasks)+len(c.Blobs) == 0
}

type DeleteOptions struct {
	RequesterID string
	DeleteFiles bool
}

// Lifecycle owns the reference counting of the documents shared between courses
// (forums, exercises, tasks): a shared document loses a reference and is deleted with the last one.
type Lifecycle struct {
	courses   Repository
	exercises exercise.Repository
	blobs     core.BlobScheduler
}

func NewLifecycle(courses Repository, exercises exercise.Repository, blobs core.BlobScheduler) *Lifecycle {
	return &Lifecycle{courses: courses, exercises: exercises, blobs: blobs}
}

// DeleteEntry releases the content of `entry` of course `c`. It does not remove the entry from the course.
func (lc *Lifecycle) DeleteEntry(ctx context.Context, c Course, entry Entry, opts DeleteOptions) (Cascade, error) {
	if !ResolveRole(c, opts.RequesterID).CanEdit() {
		return Cascade{}, core.NewForbiddenError("only teachers can delete course entries")
	}

	cascade := Cascade{Entries: []string{entry.ID}}
	switch entry.Kind {
	case EntryForum:
		if entry.ForumRef == "" {
			break
		}
		deleted, err := lc.releaseForum(ctx, c.ID, entry.ForumRef)
		if err != nil {
			return Cascade{}, err
		}
		if deleted {
			cascade.Forums = append(cascade.Forums, entry.ForumRef)
		}
	case EntryFile:
		if opts.DeleteFiles && entry.FileRef != "" {
			cascade.Blobs = append(cascade.Blobs, entry.FileRef)
		}
	}
	return cascade, nil
}

func (lc *Lifecycle) releaseForum(ctx context.Context, courseID, forumID string) (bool, error) {
	forum, err := lc.courses.GetForum(ctx, forumID)
	if core.IsNotFound(err) {
		return false, nil // already gone
	} else if err != nil {
		return false, core.StorageError(err, "getting forum")
	}

	forum.CourseRefs, _ = core.RemoveString(forum.CourseRefs, courseID)
	if len(forum.CourseRefs) == 0 {
		return true, core.StorageError(lc.courses.DeleteForum(ctx, forum.ID), "deleting forum")
	}
	return false, core.StorageError(lc.courses.SaveForum(ctx, forum), "saving forum")
}

// ReleaseExercise removes course `courseID` from the references of `ex`, deleting it with its last reference.
func (lc *Lifecycle) ReleaseExercise(ctx context.Context, courseID string, ex exercise.Exercise) (Cascade, error) {
	ex.CourseRefs, _ = core.RemoveString(ex.CourseRefs, courseID)
	if len(ex.CourseRefs) == 0 {
		return lc.DeleteExercise(ctx, ex)
	}
	if err := lc.exercises.SaveExercise(ctx, ex); err != nil {
		return Cascade{}, core.StorageError(err, "saving exercise")
	}
	return Cascade{}, nil
}

// DeleteExercise deletes `ex` with its attempts, and the tasks no other exercise uses.
func (lc *Lifecycle) DeleteExercise(ctx context.Context, ex exercise.Exercise) (Cascade, error) {
	var cascade Cascade
	for _, taskID := range ex.Tasks {
		deleted, err := lc.releaseTask(ctx, ex.ID, taskID)
		if err != nil {
			return Cascade{}, err
		}
		if deleted {
			cascade.Tasks = append(cascade.Tasks, taskID)
		}
	}
	if err := lc.exercises.DeleteAttemptsByExercise(ctx, ex.ID); err != nil {
		return Cascade{}, core.StorageError(err, "deleting attempts")
	}
	if err := lc.exercises.DeleteExercise(ctx, ex.ID); err != nil {
		return Cascade{}, core.StorageError(err, "deleting exercise")
	}
	cascade.Exercises = append(cascade.Exercises, ex.ID)
	return cascade, nil
}

// releaseTask removes exercise `exerciseID` from the references of task `taskID`, deleting it with its last reference.
func (lc *Lifecycle) releaseTask(ctx context.Context, exerciseID, taskID string) (bool, error) {
	tasks, err := lc.exercises.GetTasks(ctx, []string{taskID})
	if core.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, core.StorageError(err, "getting task")
	}

	task := tasks[0]
	task.ExerciseRefs, _ = core.RemoveString(task.ExerciseRefs, exerciseID)
	if len(task.ExerciseRefs) == 0 {
		return true, core.StorageError(lc.exercises.DeleteTask(ctx, task.ID), "deleting task")
	}
	return false, core.StorageError(lc.exercises.SaveTask(ctx, task), "saving task")
}

// Flush hands the blobs of `cascade` to the blob scheduler. Call it once the deletion is committed.
func (lc *Lifecycle) Flush(cascade Cascade) {
	if len(cascade.Blobs) > 0 && lc.blobs != nil {
		lc.blobs.Schedule(cascade.Blobs...)
	}
}
