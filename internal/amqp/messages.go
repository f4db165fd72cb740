package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// TransactionEventMessage announces a change to the transaction store.
// Consumers fetch the full record by ID when they need it.
type TransactionEventMessage struct {
	Type      core.EventType `json:"type"`
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewTransactionEventMessage(e core.Event) *TransactionEventMessage {
	ts := e.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &TransactionEventMessage{Type: e.Type, ID: e.TransactionID, Timestamp: ts}
}

// Event converts the message back to a domain event.
func (m *TransactionEventMessage) Event() core.Event {
	return core.Event{Type: m.Type, TransactionID: m.ID, At: m.Timestamp}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ImportBatchMessage carries an already parsed statement to be reconciled
// against the store.
type ImportBatchMessage struct {
	BatchID        string               `json:"batch_id"`
	SkipDuplicates bool                 `json:"skip_duplicates"`
	Transactions   []core.CreateRequest `json:"transactions"`
	Timestamp      time.Time            `json:"timestamp"`
}

// NewImportBatchMessage assigns a fresh batch id.
func NewImportBatchMessage(txs []core.CreateRequest, skipDuplicates bool) *ImportBatchMessage {
	return &ImportBatchMessage{
		BatchID:        uuid.NewString(),
		SkipDuplicates: skipDuplicates,
		Transactions:   txs,
		Timestamp:      time.Now().UTC(),
	}
}

func (m *ImportBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportBatchMessageFromJSON(data []byte) (*ImportBatchMessage, error) {
	var msg ImportBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
