package tutor

import (
	"errors"
	"fmt"

	"github.com/rcliao/agent-tutor/internal/store"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyName       = errors.New("name must not be empty")
	ErrDuplicateName   = errors.New("name already exists")
	ErrLastFolder      = errors.New("a course must keep at least one folder")
	ErrInvalidFolder   = errors.New("folder does not exist")
	ErrLastSession     = errors.New("a course must keep at least one chat session")
	ErrNoMaterials     = errors.New("no materials to synthesize; upload materials first")
	ErrBusy            = errors.New("session is still waiting for a reply")
	ErrEmptyMessage    = errors.New("message must not be empty")
	ErrInvalidType     = errors.New("invalid material type")
	ErrEmptyContent    = errors.New("nothing to analyze")
	ErrUnauthenticated = errors.New("not logged in")
	ErrSpeechStopped   = errors.New("speech stopped before it finished")
)

// Kind groups errors by how callers should surface them.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindInvariant    Kind = "invariant"
	KindCollaborator Kind = "collaborator"
	KindPermission   Kind = "permission"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// CollaboratorError wraps a failure returned by the AI collaborator.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func collaboratorErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Op: op, Err: err}
}

// KindOf classifies err. Nil maps to "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *CollaboratorError
	switch {
	case errors.As(err, &ce):
		return KindCollaborator
	case errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrInvalidFolder),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrEmptyContent):
		return KindValidation
	case errors.Is(err, ErrLastFolder),
		errors.Is(err, ErrLastSession),
		errors.Is(err, ErrNoMaterials),
		errors.Is(err, ErrBusy),
		errors.Is(err, ErrSpeechStopped):
		return KindInvariant
	case errors.Is(err, ErrUnauthenticated):
		return KindPermission
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
