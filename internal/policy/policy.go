// Package policy decides whether an actor may perform an operation on a
// resource. It is stateless: callers resolve the resource and pass its
// owner in.
package policy

import (
	"fmt"

	"github.com/msomdec/microblog/internal/domain"
)

type Operation int

const (
	Read Operation = iota
	Create
	Update
	Delete
	Toggle
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "edit"
	case Delete:
		return "delete"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

type Resource int

const (
	Post Resource = iota
	Comment
	Like
	User
)

func (r Resource) String() string {
	switch r {
	case Post:
		return "post"
	case Comment:
		return "comment"
	case Like:
		return "like"
	case User:
		return "user"
	default:
		return "resource"
	}
}

// Allowed reports whether actor may perform op on a resource owned by
// ownerID. A nil actor is anonymous. ownerID is ignored for operations
// that are not object-level.
func Allowed(op Operation, res Resource, actor *domain.User, ownerID int64) bool {
	if op == Read {
		return true
	}
	if actor == nil {
		return false
	}

	switch op {
	case Create, Toggle:
		// Users are only created through registration.
		return res != User
	case Update, Delete:
		switch res {
		case Post:
			return actor.ID == ownerID || actor.IsAdmin
		case Comment:
			// Administrators get no override on comments.
			return actor.ID == ownerID
		case User:
			return actor.IsAdmin
		}
	}
	return false
}

// Authorize is Allowed expressed as an error: domain.ErrUnauthorized for
// anonymous actors and domain.ErrForbidden naming the blocked action
// otherwise.
func Authorize(op Operation, res Resource, actor *domain.User, ownerID int64) error {
	if Allowed(op, res, actor, ownerID) {
		return nil
	}
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if res == User {
		return fmt.Errorf("%w: only administrators can %s users", domain.ErrForbidden, op)
	}
	return fmt.Errorf("%w: You can not %s another user's %s", domain.ErrForbidden, op, res)
}

// Authenticated returns domain.ErrUnauthorized for an anonymous actor.
// Comment edits check this before the comment is resolved.
func Authenticated(actor *domain.User) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return nil
}
