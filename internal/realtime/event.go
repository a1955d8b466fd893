package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags a ChangeEvent.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Tables the feed carries events for.
const (
	TablePresence = "user_presence"
	TableMessages = "messages"
	TableProfiles = "profiles"
)

var ErrInvalidEvent = errors.New("invalid change event")

// ChangeEvent is a tagged variant describing one row change. Inserts and
// updates carry After, deletes carry Before. Payloads are validated at the
// boundary; core logic never sees a half-formed event.
type ChangeEvent struct {
	Type   EventType       `json:"type"`
	Table  string          `json:"table"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// Insert builds an insert event for a row.
func Insert(table string, after any) (ChangeEvent, error) {
	raw, err := json.Marshal(after)
	if err != nil {
		return ChangeEvent{}, err
	}
	return ChangeEvent{Type: EventInsert, Table: table, After: raw}, nil
}

// Update builds an update event. Before may be nil when the old row is not
// known to the producer.
func Update(table string, before, after any) (ChangeEvent, error) {
	var rawBefore json.RawMessage
	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return ChangeEvent{}, err
		}
		rawBefore = raw
	}
	rawAfter, err := json.Marshal(after)
	if err != nil {
		return ChangeEvent{}, err
	}
	return ChangeEvent{Type: EventUpdate, Table: table, Before: rawBefore, After: rawAfter}, nil
}

// Delete builds a delete event for a removed row.
func Delete(table string, before any) (ChangeEvent, error) {
	raw, err := json.Marshal(before)
	if err != nil {
		return ChangeEvent{}, err
	}
	return ChangeEvent{Type: EventDelete, Table: table, Before: raw}, nil
}

// Parse decodes and validates a wire-format event.
func Parse(raw []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}

// Validate checks the variant shape.
func (e ChangeEvent) Validate() error {
	if e.Table == "" {
		return fmt.Errorf("%w: missing table", ErrInvalidEvent)
	}
	switch e.Type {
	case EventInsert, EventUpdate:
		if len(e.After) == 0 {
			return fmt.Errorf("%w: %s without after row", ErrInvalidEvent, e.Type)
		}
	case EventDelete:
		if len(e.Before) == 0 {
			return fmt.Errorf("%w: delete without before row", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

// DecodeAfter unmarshals the new row into v.
func (e ChangeEvent) DecodeAfter(v any) error {
	if len(e.After) == 0 {
		return fmt.Errorf("%w: no after row", ErrInvalidEvent)
	}
	return json.Unmarshal(e.After, v)
}

// DecodeBefore unmarshals the old row into v.
func (e ChangeEvent) DecodeBefore(v any) error {
	if len(e.Before) == 0 {
		return fmt.Errorf("%w: no before row", ErrInvalidEvent)
	}
	return json.Unmarshal(e.Before, v)
}
