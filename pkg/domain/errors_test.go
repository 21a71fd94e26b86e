package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestCallErrorJSONVariants(t *testing.T) {
	cases := []struct {
		name string
		err  *CallError
		want string
	}{
		{"validation", ValidationFailed("name: must not be empty"), `{"ValidationFailed":{"content":"name: must not be empty"}}`},
		{"not found", NotFoundEntity(EntityTaxonomy, 7), `{"NotFound":{"msg":"taxonomy with id=7 not found"}}`},
		{"invalid input", InvalidInput("taxonomy 999 does not exist"), `{"InvalidInput":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.err)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			var decoded CallError
			if err := json.Unmarshal(got, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if decoded.Kind != tc.err.Kind || decoded.Content != tc.err.Content || decoded.Msg != tc.err.Msg {
				t.Fatalf("round trip mismatch: %+v vs %+v", decoded, tc.err)
			}
		})
	}
}

func TestCallErrorUnmarshalRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{`{}`, `{"Boom":{}}`, `{"NotFound":{"msg":"a"},"InvalidInput":null}`, `{"NotFound":"oops"}`, `[]`} {
		var ce CallError
		if err := json.Unmarshal([]byte(raw), &ce); err == nil {
			t.Fatalf("expected error decoding %s", raw)
		}
	}
	if _, err := json.Marshal(&CallError{Kind: "Other"}); err == nil {
		t.Fatalf("expected marshal error for unknown kind")
	}
}

func TestCallErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NotFoundEntity(EntityMarineSpecie, 3))
	if !errors.Is(wrapped, &CallError{Kind: KindNotFound}) {
		t.Fatalf("expected errors.Is to match by kind")
	}
	if errors.Is(wrapped, &CallError{Kind: KindInvalidInput}) {
		t.Fatalf("kinds must not cross-match")
	}
	ce, ok := AsCallError(wrapped)
	if !ok || ce.Msg != "marine specie with id=3 not found" {
		t.Fatalf("unexpected call error %+v", ce)
	}
	if !IsKind(wrapped, KindNotFound) || IsKind(errors.New("plain"), KindNotFound) {
		t.Fatalf("IsKind mismatch")
	}
	if got := InvalidInput("").Error(); got != "invalid input" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := ValidationFailed("x").Error(); got != "validation failed: x" {
		t.Fatalf("unexpected message %q", got)
	}
}
