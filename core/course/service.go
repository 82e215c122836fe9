package course

import (
	"context"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("course not found")
	ErrForumNotFound = core.NewNotFoundError("forum not found")
)

type (
	Repository interface {
		GetCourse(ctx context.Context, id string) (Course, error)
		SaveCourse(ctx context.Context, c Course) error
		DeleteCourse(ctx context.Context, id string) error
		// QueryCoursesByMember returns the courses `userID` created, teaches or studies in.
		QueryCoursesByMember(ctx context.Context, userID string) ([]Course, error)

		GetForum(ctx context.Context, id string) (Forum, error)
		SaveForum(ctx context.Context, forum Forum) error
		DeleteForum(ctx context.Context, id string) error
	}

	// UserService gives access to the users taking part in courses and to their notification inbox.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		Notify(ctx context.Context, userID string, n user.Notification) error
	}

	Service struct {
		repo       Repository
		exercises  exercise.Repository
		users      UserService
		tx         core.Transactor
		lifecycle  *Lifecycle
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
		now        func() time.Time
	}
)

var _ exercise.MembershipProvider = (*Service)(nil)

func NewService(
	repo Repository,
	exercises exercise.Repository,
	users UserService,
	tx core.Transactor,
	blobs core.BlobScheduler,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		exercises:  exercises,
		users:      users,
		tx:         tx,
		lifecycle:  NewLifecycle(repo, exercises, blobs),
		validate:   validate,
		translator: translator,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) Lifecycle() *Lifecycle { return svc.lifecycle }

func (svc *Service) getCourse(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, core.StorageError(err, "getting course")
	}
	return c, nil
}

// update loads course `courseID`, applies `fn` and saves the result, in one transaction.
func (svc *Service) update(ctx context.Context, courseID string, fn func(c *Course) error) (Course, error) {
	var res Course
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := svc.getCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if err = fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = svc.now()
		res = c
		return core.StorageError(svc.repo.SaveCourse(ctx, c), "saving course")
	})
	return res, err
}

// Membership returns the courses user `userID` takes part in, for resolving exercise roles.
func (svc *Service) Membership(ctx context.Context, userID string) (exercise.Membership, error) {
	m := exercise.NewMembership()
	courses, err := svc.repo.QueryCoursesByMember(ctx, userID)
	if err != nil {
		return m, core.StorageError(err, "querying courses")
	}
	for _, c := range courses {
		switch role := ResolveRole(c, userID); {
		case role.CanEdit():
			m.Add(c.ID, true)
		case role == RoleStudent:
			m.Add(c.ID, false)
		}
	}
	return m, nil
}

func (svc *Service) Create(ctx context.Context, userID string, nc NewCourse) (Course, error) {
	nc.clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, core.TranslateValidationErrors(err, svc.translator)
	}

	now := svc.now()
	c := Course{
		ID:              uuid.NewString(),
		Name:            nc.Name,
		About:           nc.About,
		Type:            nc.Type,
		Creator:         userID,
		Teachers:        []string{userID},
		InvitedTeachers: []string{},
		Students:        []string{},
		Subscribers:     []Subscriber{},
		Sections:        []Section{},
		Exercises:       []string{},
		Updates:         []Update{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.SetPassword(nc.Password); err != nil {
		return Course{}, errors.Wrap(err, "hashing course password")
	}
	if err := svc.repo.SaveCourse(ctx, c); err != nil {
		return Course{}, core.StorageError(err, "saving course")
	}
	return c, nil
}

// Get returns the course as seen by user `userID`. Hidden courses are only shown to their members.
func (svc *Service) Get(ctx context.Context, courseID, userID string) (CourseView, error) {
	c, err := svc.getCourse(ctx, courseID)
	if err != nil {
		return CourseView{}, err
	}
	role := ResolveRole(c, userID)
	if c.Type == TypeHidden && role == RoleNotEnrolled {
		return CourseView{}, core.NewForbiddenError("this course is hidden")
	}
	return NewView(c, role), nil
}

// Merge applies a teacher's edit to course `courseID` atomically; see EditCourse.
// Blobs released by the edit are deleted in the background once it is committed.
func (svc *Service) Merge(ctx context.Context, courseID, userID string, edit EditCourse) (MergeResult, error) {
	edit.clean()
	if err := svc.validate.Struct(edit); err != nil {
		return MergeResult{}, core.TranslateValidationErrors(err, svc.translator)
	}

	var res MergeResult
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := svc.getCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if !ResolveRole(c, userID).CanEdit() {
			return core.NewForbiddenError("only teachers can edit the course")
		}

		m := &merge{
			courses:   svc.repo,
			exercises: svc.exercises,
			lifecycle: svc.lifecycle,
			members:   svc,
			course:    c,
			userID:    userID,
			edit:      edit,
			now:       svc.now(),
		}
		res, err = m.run(ctx)
		return err
	})
	if err != nil {
		return MergeResult{}, err
	}

	svc.lifecycle.Flush(res.Cascade)
	return res, nil
}

// Delete removes a course with all its content. Only the creator can delete a course.
func (svc *Service) Delete(ctx context.Context, courseID, userID string) (Cascade, error) {
	var cascade Cascade
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := svc.getCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if ResolveRole(c, userID) != RoleCreator {
			return core.NewForbiddenError("only the creator can delete the course")
		}

		opts := DeleteOptions{RequesterID: userID, DeleteFiles: true}
		for _, e := range c.Entries() {
			res, err := svc.lifecycle.DeleteEntry(ctx, c, e, opts)
			if err != nil {
				return errors.Wrapf(err, "deleting entry %s", e.ID)
			}
			cascade.add(res)
		}
		for _, id := range c.Exercises {
			ex, err := svc.exercises.GetExercise(ctx, id)
			if core.IsNotFound(err) {
				continue
			} else if err != nil {
				return core.StorageError(err, "getting exercise")
			}
			res, err := svc.lifecycle.ReleaseExercise(ctx, c.ID, ex)
			if err != nil {
				return errors.Wrapf(err, "releasing exercise %s", id)
			}
			cascade.add(res)
		}
		return core.StorageError(svc.repo.DeleteCourse(ctx, c.ID), "deleting course")
	})
	if err != nil {
		return Cascade{}, err
	}

	svc.lifecycle.Flush(cascade)
	svc.logger.Info("course deleted", map[string]interface{}{
		"course": courseID, "exercises": len(cascade.Exercises), "forums": len(cascade.Forums), "blobs": len(cascade.Blobs),
	})
	return cascade, nil
}

// Enroll adds user `userID` to the students of the course. Public courses with a password require it.
func (svc *Service) Enroll(ctx context.Context, courseID, userID, password string) (Course, error) {
	return svc.update(ctx, courseID, func(c *Course) error {
		switch ResolveRole(*c, userID) {
		case RoleCreator, RoleTeacher, RoleStudent:
			return core.NewConflictError("you are already enrolled in this course")
		}

		switch c.Type {
		case TypeHidden:
			return core.NewForbiddenError("this course is hidden")
		case TypePublic:
			if c.HasPassword && c.CheckPassword(password) != nil {
				return core.NewForbiddenError("wrong course password")
			}
		}
		c.Students = core.AddString(c.Students, userID)
		return nil
	})
}

// Leave removes student `userID` from the course and its subscribers.
func (svc *Service) Leave(ctx context.Context, courseID, userID string) (Course, error) {
	return svc.update(ctx, courseID, func(c *Course) error {
		switch ResolveRole(*c, userID) {
		case RoleStudent:
		case RoleCreator:
			return core.NewForbiddenError("the creator cannot leave the course")
		default:
			return core.NewForbiddenError("you are not a student of this course")
		}
		c.Students, _ = core.RemoveString(c.Students, userID)
		if i, ok := c.subscriber(userID); ok {
			c.Subscribers = append(c.Subscribers[:i], c.Subscribers[i+1:]...)
		}
		return nil
	})
}

func (svc *Service) Subscribe(ctx context.Context, courseID, userID string) (Course, error) {
	return svc.update(ctx, courseID, func(c *Course) error {
		if !ResolveRole(*c, userID).IsMember() {
			return core.NewForbiddenError("only course members can subscribe")
		}
		if _, ok := c.subscriber(userID); !ok {
			c.Subscribers = append(c.Subscribers, Subscriber{User: userID, LastVisited: svc.now()})
		}
		return nil
	})
}

func (svc *Service) Unsubscribe(ctx context.Context, courseID, userID string) (Course, error) {
	return svc.update(ctx, courseID, func(c *Course) error {
		if !ResolveRole(*c, userID).IsMember() {
			return core.NewForbiddenError("only course members can unsubscribe")
		}
		if i, ok := c.subscriber(userID); ok {
			c.Subscribers = append(c.Subscribers[:i], c.Subscribers[i+1:]...)
		}
		return nil
	})
}

// News returns the updates subscriber `userID` has not seen yet, newest first, and marks them seen.
func (svc *Service) News(ctx context.Context, courseID, userID string) ([]Update, error) {
	var news []Update
	_, err := svc.update(ctx, courseID, func(c *Course) error {
		i, ok := c.subscriber(userID)
		if !ok {
			return core.NewForbiddenError("you are not subscribed to this course")
		}
		lastVisited := c.Subscribers[i].LastVisited
		for _, upd := range c.Updates {
			if upd.Created.After(lastVisited) {
				news = append(news, upd)
			}
		}
		c.Subscribers[i].LastVisited = svc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(news, func(i, j int) bool { return news[i].Created.After(news[j].Created) })
	return news, nil
}

// InviteTeacher invites user `inviteeID` to teach the course and notifies them.
func (svc *Service) InviteTeacher(ctx context.Context, courseID, inviterID, inviteeID string) (Course, error) {
	var res Course
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inviter, err := svc.users.GetByID(ctx, inviterID)
		if err != nil {
			return errors.Wrap(err, "getting inviter")
		}
		if _, err = svc.users.GetByID(ctx, inviteeID); err != nil {
			return errors.Wrap(err, "getting invitee")
		}

		c, err := svc.update(ctx, courseID, func(c *Course) error {
			if !ResolveRole(*c, inviterID).CanEdit() {
				return core.NewForbiddenError("only teachers can invite teachers")
			}
			switch ResolveRole(*c, inviteeID) {
			case RoleCreator, RoleTeacher:
				return core.NewConflictError("this user already teaches the course")
			case RoleInvitedTeacher:
				return core.NewConflictError("this user is already invited")
			}
			c.InvitedTeachers = core.AddString(c.InvitedTeachers, inviteeID)
			return nil
		})
		if err != nil {
			return err
		}
		res = c

		return svc.users.Notify(ctx, inviteeID, user.Notification{
			Type:  user.NotificationTeacherInvite,
			Title: "You are invited to teach " + c.Name,
			Text:  inviter.Name + " invited you to teach the course " + c.Name,
			Data: map[string]string{
				"CourseID":    c.ID,
				"CourseName":  c.Name,
				"InviterName": inviter.Name,
			},
		})
	})
	return res, err
}

// AcceptTeacherInvite makes invited user `userID` a teacher of the course and notifies the creator.
func (svc *Service) AcceptTeacherInvite(ctx context.Context, courseID, userID string) (Course, error) {
	var res Course
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		teacher, err := svc.users.GetByID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "getting teacher")
		}

		c, err := svc.update(ctx, courseID, func(c *Course) error {
			if ResolveRole(*c, userID) != RoleInvitedTeacher {
				return core.NewForbiddenError("you have no invitation to teach this course")
			}
			c.InvitedTeachers, _ = core.RemoveString(c.InvitedTeachers, userID)
			c.Students, _ = core.RemoveString(c.Students, userID)
			c.Teachers = core.AddString(c.Teachers, userID)
			return nil
		})
		if err != nil {
			return err
		}
		res = c

		return svc.users.Notify(ctx, c.Creator, user.Notification{
			Type:  user.NotificationTeacherJoined,
			Title: teacher.Name + " now teaches " + c.Name,
			Text:  teacher.Name + " accepted your invitation to teach the course " + c.Name,
			Data: map[string]string{
				"CourseID":    c.ID,
				"CourseName":  c.Name,
				"TeacherName": teacher.Name,
			},
		})
	})
	return res, err
}
