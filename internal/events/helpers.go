package events

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Event topic constants
const (
	TopicSimulations = "greencart.simulations"
	TopicDeploys     = "greencart.deploys"
	TopicDataLoads   = "greencart.data_loads"
)

// Event type constants
const (
	TypeSimulationCompleted = "simulation.completed"
	TypeDeployCompleted     = "deploy.completed"
	TypeDataLoaded          = "data.loaded"
)

// BaseEvent carries the envelope fields shared by every event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	UserID    string    `json:"user_id,omitempty"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source, userID string) BaseEvent {
	return BaseEvent{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		UserID:    userID,
		Version:   "1.0",
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	now := time.Now()
	return fmt.Sprintf("%d_%d", now.Unix(), now.Nanosecond())
}

// SanitizeUTF8 drops invalid UTF-8 sequences. Subprocess output captured in
// deploy reports is not guaranteed to be valid text.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}
