package site

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventAll    EventType = "*"
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is what travels on a table's change feed.
type ChangeEvent struct {
	Type     EventType       `json:"eventType"`
	Table    string          `json:"table"`
	RecordID string          `json:"recordID"`
	New      json.RawMessage `json:"new,omitempty"`
	CommitAt time.Time       `json:"commitAt"`
}

// SubscribeStatus is reported by a feed channel as its connection progresses.
type SubscribeStatus string

const (
	StatusSubscribed   SubscribeStatus = "SUBSCRIBED"
	StatusChannelError SubscribeStatus = "CHANNEL_ERROR"
	StatusTimedOut     SubscribeStatus = "TIMED_OUT"
	StatusClosed       SubscribeStatus = "CLOSED"
)
