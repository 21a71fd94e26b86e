// Package dispatch exposes the catalogue operations as the external call
// contract: each call maps to one service method and yields an Ok/Err result.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"marinecore/pkg/domain"
)

// Result is the two-variant outcome of a call: exactly one of Ok or Err is
// meaningful, selected by whether Err is nil.
type Result[T any] struct {
	Ok  T
	Err *domain.CallError
}

// OK wraps a success value.
func OK[T any](v T) Result[T] { return Result[T]{Ok: v} }

// Fail wraps a call error.
func Fail[T any](err *domain.CallError) Result[T] { return Result[T]{Err: err} }

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool { return r.Err == nil }

// MarshalJSON encodes {"Ok": value} or {"Err": variant}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Err *domain.CallError `json:"Err"`
		}{r.Err})
	}
	return json.Marshal(struct {
		Ok T `json:"Ok"`
	}{r.Ok})
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("result must have exactly one of Ok or Err, got %d keys", len(raw))
	}
	if body, ok := raw["Ok"]; ok {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("decode Ok: %w", err)
		}
		*r = Result[T]{Ok: v}
		return nil
	}
	if body, ok := raw["Err"]; ok {
		var ce domain.CallError
		if err := json.Unmarshal(body, &ce); err != nil {
			return fmt.Errorf("decode Err: %w", err)
		}
		*r = Result[T]{Err: &ce}
		return nil
	}
	return errors.New("result must have an Ok or Err key")
}

// fromService folds a domain failure into the Err variant. Any other error
// is a storage or infrastructure fault and is returned as-is.
func fromService[T any](v T, err error) (Result[T], error) {
	if err == nil {
		return OK(v), nil
	}
	if ce, ok := domain.AsCallError(err); ok {
		return Fail[T](ce), nil
	}
	return Result[T]{}, err
}
