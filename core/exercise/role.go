package exercise

import "context"

type Role string

const (
	RoleNone    Role = "" // no access
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Membership holds the courses a user belongs to, computed once per request
// so resolving roles over many exercises does not query courses again.
type Membership struct {
	member  map[string]struct{} // courses the user teaches or studies in
	teaches map[string]struct{}
}

func NewMembership() Membership {
	return Membership{member: make(map[string]struct{}), teaches: make(map[string]struct{})}
}

// Add registers course `courseID`; `teacher` tells whether the user teaches it.
func (m Membership) Add(courseID string, teacher bool) {
	m.member[courseID] = struct{}{}
	if teacher {
		m.teaches[courseID] = struct{}{}
	}
}

func (m Membership) IsMember(courseID string) bool {
	_, ok := m.member[courseID]
	return ok
}

func (m Membership) Teaches(courseID string) bool {
	_, ok := m.teaches[courseID]
	return ok
}

// ResolveRole returns RoleTeacher if the user teaches any course using `ex`,
// RoleStudent if they only study in one, and RoleNone otherwise.
func ResolveRole(ex Exercise, m Membership) Role {
	role := RoleNone
	for _, courseID := range ex.CourseRefs {
		if m.Teaches(courseID) {
			return RoleTeacher
		}
		if m.IsMember(courseID) {
			role = RoleStudent
		}
	}
	return role
}

// MembershipProvider computes the course membership of a user.
type MembershipProvider interface {
	Membership(ctx context.Context, userID string) (Membership, error)
}
