package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BillSyncMessage asks the worker to push one bill to the back office. It
// carries only the id and version; the worker reloads the bill from SQLite.
type BillSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBillSyncMessage(id string, version int64) *BillSyncMessage {
	return &BillSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BillSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillSyncMessageFromJSON decodes a message and rejects ones without an id.
func BillSyncMessageFromJSON(data []byte) (*BillSyncMessage, error) {
	var msg BillSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("bill sync message has no id")
	}
	return &msg, nil
}
