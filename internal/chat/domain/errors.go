package domain

import (
	"fmt"

	errprocess "chat_delivery_service/pkg/err"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized no resolvable caller
	ErrUnauthorized = errprocess.New(errprocess.Unauthorized, "caller identity required")
	// ErrNotMember caller has no active membership in the conversation
	ErrNotMember = errprocess.New(errprocess.Forbidden, "caller is not a member of the conversation")
	// ErrRestricted only the owner may post in a restricted conversation
	ErrRestricted = errprocess.New(errprocess.Forbidden, "conversation is restricted to its owner")
	// ErrConversationNotFound conversation absent or deleted
	ErrConversationNotFound = errprocess.New(errprocess.NotFound, "conversation not found")
	// ErrMessageNotFound message absent or deleted for the caller
	ErrMessageNotFound = errprocess.New(errprocess.NotFound, "message not found")
	// ErrConversationExists exact member set already has a conversation
	ErrConversationExists = errprocess.New(errprocess.Conflict, "conversation already exists")
	// ErrInvalidMembers fewer than two valid members
	ErrInvalidMembers = errprocess.New(errprocess.InvalidInput, "a conversation needs at least two valid members")
	// ErrTooManyMembers member set over the configured ceiling
	ErrTooManyMembers = errprocess.New(errprocess.InvalidInput, "too many members")
	// ErrInvalidInput malformed request
	ErrInvalidInput = errprocess.New(errprocess.InvalidInput, "invalid input")
	// ErrPersistenceFailed write affected fewer rows than expected
	ErrPersistenceFailed = errprocess.New(errprocess.PersistenceFailed, "persistence failed")
	// ErrPartialReadUpdate read-marking count mismatch
	ErrPartialReadUpdate = errprocess.New(errprocess.PartialReadUpdate, "read receipts partially updated")
)

// ConflictError AlreadyExists carrying the existing conversation id
type ConflictError struct {
	ConversationID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConversationExists.Msg, e.ConversationID)
}

// Unwrap so errors.Is(err, ErrConversationExists) holds
func (e *ConflictError) Unwrap() error {
	return ErrConversationExists
}

// ErrKind conflict
func (e *ConflictError) ErrKind() errprocess.Kind {
	return errprocess.Conflict
}
