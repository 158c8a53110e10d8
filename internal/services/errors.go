package services

import (
	"errors"
	"net/http"
)

// Ledger errors returned synchronously to direct callers. Every one of them
// aborts the operation before commit.
var (
	ErrUnbalancedEntry   = errors.New("journal entry debits and credits do not balance")
	ErrInvalidLine       = errors.New("journal entry line must carry exactly one of debit or credit")
	ErrPostedImmutable   = errors.New("only draft journal entries can be modified")
	ErrAlreadyPosted     = errors.New("journal entry is already posted")
	ErrNotPosted         = errors.New("only posted journal entries can be reversed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid journal entry status transition")
	ErrInvalidAmount     = errors.New("amount must be non-zero")
)

// StatusForError maps a ledger error to the HTTP status the handlers send.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnbalancedEntry), errors.Is(err, ErrInvalidLine), errors.Is(err, ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPostedImmutable), errors.Is(err, ErrAlreadyPosted),
		errors.Is(err, ErrNotPosted), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
