package amqp

import (
	"testing"
	"time"
)

func TestLedgerSyncMessageRoundTrip(t *testing.T) {
	msg := NewLedgerSyncMessage("txn-42")
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := LedgerSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.TransactionID != "txn-42" {
		t.Errorf("TransactionID = %q, want txn-42", got.TransactionID)
	}
	if !got.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestMaterializeRequestMessageRoundTrip(t *testing.T) {
	msg := NewMaterializeRequestMessage("user-7")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := MaterializeRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.UserID != "user-7" {
		t.Errorf("UserID = %q, want user-7", got.UserID)
	}
}

func TestMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Error("garbage body should fail to decode")
	}
	if _, err := MaterializeRequestMessageFromJSON([]byte("{")); err == nil {
		t.Error("truncated body should fail to decode")
	}
}
