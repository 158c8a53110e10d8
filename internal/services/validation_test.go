package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/retailops/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid line", func(t *testing.T) {
		line := LineInput{AccountID: 1, DebitAmount: dec("12.34")}
		assert.NoError(t, vh.ValidateStruct(&line))
	})

	t.Run("negative money fails gte", func(t *testing.T) {
		line := LineInput{AccountID: 1, DebitAmount: dec("-5"), CreditAmount: dec("0")}

		err := vh.ValidateStruct(&line)
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "DebitAmount", validationErrors[0].Field())
		assert.Equal(t, "gte", validationErrors[0].Tag())
	})

	t.Run("zero cash amount fails required", func(t *testing.T) {
		u := CashUpdate{StoreID: 7}

		err := vh.ValidateStruct(&u)
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, "Amount", validationErrors[0].Field())
		assert.Equal(t, "required", validationErrors[0].Tag())
	})

	t.Run("negative cash amount is allowed", func(t *testing.T) {
		u := CashUpdate{StoreID: 7, Amount: dec("-20")}
		assert.NoError(t, vh.ValidateStruct(&u))
	})

	t.Run("event without identity", func(t *testing.T) {
		e := models.Expense{PaymentMethod: "cash"}

		err := vh.ValidateStruct(&e)
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		fields := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, fe.Field())
		}
		assert.ElementsMatch(t, []string{"ID", "StoreID", "ExpenseDate"}, fields)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		invalid := LineInput{DebitAmount: dec("-1")}

		validationErr := vh.ValidateStruct(&invalid)
		require.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, fmt.Errorf("line 1: %w", validationErr))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "AccountID")
		assert.Contains(t, response.Details, "DebitAmount")
	})
}

func TestSendLedgerError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"unbalanced", fmt.Errorf("%w: debits 10.00, credits 9.00", ErrUnbalancedEntry), http.StatusUnprocessableEntity, "journal entry debits and credits do not balance: debits 10.00, credits 9.00"},
		{"immutable", ErrPostedImmutable, http.StatusConflict, ErrPostedImmutable.Error()},
		{"not found", fmt.Errorf("journal entry x: %w", ErrNotFound), http.StatusNotFound, "journal entry x: not found"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SendLedgerError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantMessage, response.Error)
		})
	}
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForError(ErrInvalidLine))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForError(ErrInvalidAmount))
	assert.Equal(t, http.StatusConflict, StatusForError(ErrAlreadyPosted))
	assert.Equal(t, http.StatusConflict, StatusForError(ErrNotPosted))
	assert.Equal(t, http.StatusConflict, StatusForError(ErrInvalidTransition))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
}
