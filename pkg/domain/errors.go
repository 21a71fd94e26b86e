package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind names one variant of the closed call error set.
type ErrorKind string

// The three error variants a call may fail with.
const (
	KindValidationFailed ErrorKind = "ValidationFailed"
	KindInvalidInput     ErrorKind = "InvalidInput"
	KindNotFound         ErrorKind = "NotFound"
)

// CallError is the failure variant of every catalogue operation. Only the
// field belonging to Kind is meaningful: Content for ValidationFailed, Msg for
// NotFound. Reason is diagnostic detail for InvalidInput and is not part of
// the wire shape.
type CallError struct {
	Kind    ErrorKind
	Content string
	Msg     string
	Reason  string
}

// ValidationFailed reports required fields that were left empty.
func ValidationFailed(content string) *CallError {
	return &CallError{Kind: KindValidationFailed, Content: content}
}

// InvalidInput reports input that is well formed but cannot be accepted,
// such as a reference that does not resolve.
func InvalidInput(reason string) *CallError {
	return &CallError{Kind: KindInvalidInput, Reason: reason}
}

// NotFound reports a missing record.
func NotFound(msg string) *CallError {
	return &CallError{Kind: KindNotFound, Msg: msg}
}

// NotFoundEntity builds the standard NotFound message for an entity id.
func NotFoundEntity(entity EntityType, id uint64) *CallError {
	return NotFound(fmt.Sprintf("%s with id=%d not found", entity.Label(), id))
}

func (e *CallError) Error() string {
	switch e.Kind {
	case KindValidationFailed:
		return "validation failed: " + e.Content
	case KindNotFound:
		return e.Msg
	case KindInvalidInput:
		if e.Reason != "" {
			return "invalid input: " + e.Reason
		}
		return "invalid input"
	default:
		return string(e.Kind)
	}
}

// Is matches another *CallError of the same kind, so errors.Is(err,
// &CallError{Kind: KindNotFound}) works without comparing messages.
func (e *CallError) Is(target error) bool {
	var other *CallError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// AsCallError extracts a *CallError from err.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err carries a call error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ce, ok := AsCallError(err)
	return ok && ce.Kind == kind
}

type validationFailedBody struct {
	Content string `json:"content"`
}

type notFoundBody struct {
	Msg string `json:"msg"`
}

// MarshalJSON encodes the error as a single-key variant object, for example
// {"NotFound":{"msg":"..."}} or {"InvalidInput":null}.
func (e *CallError) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindValidationFailed:
		return json.Marshal(map[ErrorKind]validationFailedBody{e.Kind: {Content: e.Content}})
	case KindNotFound:
		return json.Marshal(map[ErrorKind]notFoundBody{e.Kind: {Msg: e.Msg}})
	case KindInvalidInput:
		return json.Marshal(map[ErrorKind]any{e.Kind: nil})
	default:
		return nil, fmt.Errorf("unknown call error kind %q", e.Kind)
	}
}

// UnmarshalJSON decodes the variant object produced by MarshalJSON.
func (e *CallError) UnmarshalJSON(data []byte) error {
	var raw map[ErrorKind]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("call error must have exactly one variant, got %d", len(raw))
	}
	for kind, body := range raw {
		switch kind {
		case KindValidationFailed:
			var b validationFailedBody
			if err := json.Unmarshal(body, &b); err != nil {
				return fmt.Errorf("decode %s: %w", kind, err)
			}
			*e = CallError{Kind: kind, Content: b.Content}
		case KindNotFound:
			var b notFoundBody
			if err := json.Unmarshal(body, &b); err != nil {
				return fmt.Errorf("decode %s: %w", kind, err)
			}
			*e = CallError{Kind: kind, Msg: b.Msg}
		case KindInvalidInput:
			*e = CallError{Kind: kind}
		default:
			return fmt.Errorf("unknown call error kind %q", kind)
		}
	}
	return nil
}
