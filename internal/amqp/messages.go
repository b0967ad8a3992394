package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"salesengine/internal/analytics"
)

// ReportMessage carries one computed summary of a dataset.
type ReportMessage struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Report    analytics.Report `json:"report"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewReportMessage stamps a report with a fresh id and the current time.
// source names the backend the dataset was loaded from.
func NewReportMessage(source string, report analytics.Report) *ReportMessage {
	return &ReportMessage{
		ID:        uuid.NewString(),
		Source:    source,
		Report:    report,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON decodes a message published by PublishReport.
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
