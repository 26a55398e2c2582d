// Package telemetry streams navigation state and sound events to websocket
// clients on the local network.
package telemetry

import (
	"encoding/json"
	"time"

	"helm.klederson.com/internal/audio"
)

// Message types.
const (
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeEvent   = "event"
)

// Message is the envelope for everything sent to clients.
type Message struct {
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	ClientID  string       `json:"client_id,omitempty"`
	State     *Snapshot    `json:"state,omitempty"`
	Event     *audio.Event `json:"event,omitempty"`
}

// Snapshot is the navigation state as clients see it. Heading is null while
// no reading is available.
type Snapshot struct {
	Heading     *int    `json:"heading"`
	Target      int     `json:"target"`
	Correction  float64 `json:"correction"`
	Direction   string  `json:"direction"`
	Urgency     int     `json:"urgency"`
	Tolerance   float64 `json:"tolerance"`
	Sensitivity int     `json:"sensitivity"`
	North       string  `json:"north"`
	Mode        string  `json:"mode"`
	Feedback    bool    `json:"feedback"`
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
