package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
)

// Outcome is the decoded result of a mutation: a literal true on success or
// a message string on a logical failure.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

func DecodeOutcome(body []byte) (Outcome, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	switch t := v.(type) {
	case bool:
		if t {
			return Outcome{Kind: OutcomeSuccess}, nil
		}
	case string:
		return Outcome{Kind: OutcomeFailure, Message: t}, nil
	}

	return Outcome{}, fmt.Errorf("%w: %s", ErrUnexpectedResponse, truncate(body))
}

// Err is nil on success and a *LogicalFailure otherwise.
func (o Outcome) Err() error {
	if o.Kind == OutcomeFailure {
		return &LogicalFailure{Message: o.Message}
	}
	return nil
}

// decodeResult decodes a body that is either the expected JSON value or a
// logical failure message.
func decodeResult(body []byte, dest any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return &LogicalFailure{Message: msg}
	}

	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func truncate(body []byte) string {
	const limit = 128
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
