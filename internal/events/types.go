package events

import (
	"time"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type EventType string

const (
	EventTransactionCreated   EventType = "transaction.created"
	EventTransactionConfirmed EventType = "transaction.confirmed"
	EventTransactionFailed    EventType = "transaction.failed"
)

// TransactionEvent is published to walletpay.txns.{chain}.
type TransactionEvent struct {
	Event         EventType               `json:"event"`
	Chain         model.Chain             `json:"chain"`
	ChainRef      string                  `json:"chain_ref"`
	TxHash        string                  `json:"tx_hash"`
	From          string                  `json:"from"`
	To            string                  `json:"to"`
	Amount        string                  `json:"amount"`
	Currency      string                  `json:"currency"`
	Status        model.TransactionStatus `json:"status"`
	FailureReason string                  `json:"failure_reason,omitempty"`
	Timestamp     time.Time               `json:"timestamp"`
	PublishedAt   time.Time               `json:"published_at"`
}

// FromRecord builds the event for a stored transaction record.
func FromRecord(event EventType, rec *model.TransactionRecord) *TransactionEvent {
	return &TransactionEvent{
		Event:         event,
		Chain:         rec.Chain,
		ChainRef:      rec.ChainRef,
		TxHash:        rec.TxHash,
		From:          rec.FromAddress,
		To:            rec.ToAddress,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		Status:        rec.Status,
		FailureReason: rec.FailureReason,
		Timestamp:     rec.Timestamp,
		PublishedAt:   time.Now().UTC(),
	}
}

// EventForStatus maps a terminal status to its event type.
func EventForStatus(status model.TransactionStatus) EventType {
	switch status {
	case model.TransactionStatusConfirmed:
		return EventTransactionConfirmed
	case model.TransactionStatusFailed:
		return EventTransactionFailed
	default:
		return EventTransactionCreated
	}
}
