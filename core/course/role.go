package course

import "github.com/Maks0bs/mmLearnJS-backend-sub000/core"

type Role string

const (
	RoleCreator        Role = "creator"
	RoleTeacher        Role = "teacher"
	RoleInvitedTeacher Role = "invitedTeacher"
	RoleStudent        Role = "student"
	RoleNotEnrolled    Role = "notEnrolled"
)

// ResolveRole returns the role of user `userID` in course `c`. When several apply, the first of
// creator, teacher, invitedTeacher, student wins.
func ResolveRole(c Course, userID string) Role {
	switch {
	case userID == "":
		return RoleNotEnrolled
	case c.Creator == userID:
		return RoleCreator
	case core.ContainsString(c.Teachers, userID):
		return RoleTeacher
	case core.ContainsString(c.InvitedTeachers, userID):
		return RoleInvitedTeacher
	case core.ContainsString(c.Students, userID):
		return RoleStudent
	default:
		return RoleNotEnrolled
	}
}

// CanEdit reports whether the role may change the course content.
func (r Role) CanEdit() bool { return r == RoleCreator || r == RoleTeacher }

// IsMember reports whether the role takes part in the course.
func (r Role) IsMember() bool { return r.CanEdit() || r == RoleStudent }
