package entity

import "fmt"

// Role is the closed set of capabilities an actor can hold.
type Role string

const (
	RoleStudent    Role = "student"
	RoleSupervisor Role = "supervisor"
	RoleExaminer   Role = "examiner"
	RoleAdmin      Role = "admin"
)

var validRoles = map[Role]bool{
	RoleStudent:    true,
	RoleSupervisor: true,
	RoleExaminer:   true,
	RoleAdmin:      true,
}

// IsValid returns true if the role is one of the known capability variants
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Actor identifies the user performing a workflow operation.
// Identity is supplied per call and never cached across calls.
type Actor struct {
	UserID string `json:"user_id"`
	Roles  []Role `json:"roles"`
}

// HasRole returns true if the actor holds the given role
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ReviewerRole identifies which reviewer slot on a sempro registration an
// actor occupies. Revision notes are keyed by this.
type ReviewerRole string

const (
	ReviewerSupervisor1 ReviewerRole = "supervisor1"
	ReviewerSupervisor2 ReviewerRole = "supervisor2"
	ReviewerExaminer1   ReviewerRole = "examiner1"
	ReviewerExaminer2   ReviewerRole = "examiner2"
)

// IsValid returns true if the reviewer role is a known slot
func (r ReviewerRole) IsValid() bool {
	switch r {
	case ReviewerSupervisor1, ReviewerSupervisor2, ReviewerExaminer1, ReviewerExaminer2:
		return true
	}
	return false
}

// String returns the string representation of the reviewer role
func (r ReviewerRole) String() string {
	return string(r)
}
