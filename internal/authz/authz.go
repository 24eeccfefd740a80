// Package authz is the authorization decision core. Decide is pure and
// stateless: given the caller's principal, an action, and a target resource
// descriptor it returns Allow or Deny with a reason. A Deny is a normal
// result, never an error; callers render it as the access-denied page and
// must obtain the decision before invoking any write collaborator.
package authz

import "github.com/campusbook/campusbook/internal/auth"

// Action is the kind of operation requested on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind identifies the target resource type.
type ResourceKind string

const (
	KindStudent    ResourceKind = "student"
	KindTeacher    ResourceKind = "teacher"
	KindCourse     ResourceKind = "course"
	KindDepartment ResourceKind = "department"
)

// Resource describes the target of a request. OwnerID is the profile id the
// resource belongs to, when ownership is meaningful (student records); zero
// otherwise. Ownership is checked by id equality only.
type Resource struct {
	Kind    ResourceKind
	OwnerID int64
}

// Reason explains a decision.
type Reason string

const (
	ReasonOK          Reason = "OK"
	ReasonNoPrincipal Reason = "NO_PRINCIPAL"
	ReasonWrongRole   Reason = "WRONG_ROLE"
	ReasonNotOwner    Reason = "NOT_OWNER"
)

// Decision is the computed outcome for one request.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true, Reason: ReasonOK}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide evaluates the access rules in fixed order; earlier rules
// short-circuit. ok reports whether a principal is present at all.
func Decide(p auth.Principal, ok bool, action Action, res Resource) Decision {
	if !ok {
		return deny(ReasonNoPrincipal)
	}

	switch res.Kind {
	case KindTeacher, KindCourse, KindDepartment:
		switch action {
		case ActionCreate, ActionUpdate, ActionDelete:
			if !p.IsTeacher() {
				return deny(ReasonWrongRole)
			}
			return allow()
		}
	case KindStudent:
		switch action {
		case ActionCreate, ActionDelete:
			if !p.IsTeacher() {
				return deny(ReasonWrongRole)
			}
			return allow()
		case ActionUpdate:
			if p.IsTeacher() {
				return allow()
			}
			if p.Role == auth.RoleStudent {
				if p.ProfileID != res.OwnerID {
					return deny(ReasonNotOwner)
				}
				return allow()
			}
			return deny(ReasonWrongRole)
		}
	}

	if action == ActionRead {
		return allow()
	}

	return deny(ReasonWrongRole)
}

// CanSetRole reports whether the principal may change the role field of a
// student record. Only teachers may; a student's self-edit must leave the
// stored role untouched regardless of the payload.
func CanSetRole(p auth.Principal) bool {
	return p.IsTeacher()
}
