package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	StoreID   int64     `json:"store_id"`
	SubjectID string    `json:"subject_id"`
	ActorID   int64     `json:"actor_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger writes one JSON line per ledger mutation. Output goes through the
// standard logger so it lands wherever the process log is shipped.
type Logger struct {
	out func(format string, v ...any)
}

func NewLogger() *Logger {
	return &Logger{out: log.Printf}
}

// LogJournal records a journal entry lifecycle event (create, post, update,
// delete, reverse).
func (a *Logger) LogJournal(operation string, storeID int64, entryID, entryNumber string, actorID int64, amount string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "JOURNAL_" + operation,
		StoreID:   storeID,
		SubjectID: entryID,
		ActorID:   actorID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"entry_number": entryNumber},
	})
}

// LogCash records one cash ledger movement with its before and after
// balances.
func (a *Logger) LogCash(storeID int64, txID, txType, amount, before, after string, actorID int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "CASH_" + txType,
		StoreID:   storeID,
		SubjectID: txID,
		ActorID:   actorID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details: map[string]string{
			"balance_before": before,
			"balance_after":  after,
		},
	})
}

func (a *Logger) LogError(operation string, storeID int64, subjectID string, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		StoreID:   storeID,
		SubjectID: subjectID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	a.out("AUDIT: %s", string(data))
}
