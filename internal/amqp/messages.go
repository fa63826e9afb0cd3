package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage announces one new ledger transaction for mirroring.
// It carries only the id; the worker fetches the full row from the store
// so the queue never holds stale copies.
type LedgerSyncMessage struct {
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(transactionID string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MaterializeRequestMessage asks the recurring worker to run a
// generation pass for one user, typically queued at login or by a
// scheduled sweep.
type MaterializeRequestMessage struct {
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewMaterializeRequestMessage(userID string) *MaterializeRequestMessage {
	return &MaterializeRequestMessage{
		UserID:      userID,
		RequestedAt: time.Now(),
	}
}

func (m *MaterializeRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MaterializeRequestMessageFromJSON(data []byte) (*MaterializeRequestMessage, error) {
	var msg MaterializeRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
