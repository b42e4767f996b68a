package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/ledger"
)

// LedgerChangedMessage summarises the ledger after one applied change.
// Amounts travel as decimal strings.
type LedgerChangedMessage struct {
	Change    string    `json:"change"`
	Budget    string    `json:"budget"`
	Total     string    `json:"total"`
	Balance   string    `json:"balance"`
	Sign      string    `json:"sign"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage derives the message from a snapshot.
func NewLedgerChangedMessage(change ledger.Change, s ledger.Snapshot) *LedgerChangedMessage {
	balance := ledger.Balance(s)
	return &LedgerChangedMessage{
		Change:    string(change),
		Budget:    s.Budget.String(),
		Total:     ledger.TotalExpenses(s).String(),
		Balance:   balance.String(),
		Sign:      string(ledger.SignOf(balance)),
		Records:   len(s.Records),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
