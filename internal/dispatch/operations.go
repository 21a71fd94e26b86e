package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"marinecore/internal/core"
	"marinecore/pkg/domain"
)

// ErrUnknownOperation is returned by Invoke for a name outside the contract.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation describes one entry of the call contract.
type Operation struct {
	Name     string `json:"name"`
	ReadOnly bool   `json:"read_only"` // never mutates the store

	call func(ctx context.Context, d *Dispatcher, args json.RawMessage) (any, error)
}

type idArgs struct {
	ID *uint64 `json:"id"`
}

type taxonomyArgs struct {
	ID      *uint64                 `json:"id"`
	Payload *domain.TaxonomyPayload `json:"payload"`
}

type specieArgs struct {
	ID      *uint64                     `json:"id"`
	Payload *domain.MarineSpeciePayload `json:"payload"`
}

type statusArgs struct {
	ConservationStatus *string `json:"conservation_status"`
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.InvalidInput(fmt.Sprintf("decode arguments: %v", err))
	}
	return nil
}

func missing(field string) error {
	return domain.InvalidInput(field + " is required")
}

// encode lets the operation table return typed results through one signature.
func encode[T any](r Result[T], err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

func withID(raw json.RawMessage) (uint64, error) {
	var a idArgs
	if err := decodeArgs(raw, &a); err != nil {
		return 0, err
	}
	if a.ID == nil {
		return 0, missing("id")
	}
	return *a.ID, nil
}

var operations = map[string]Operation{
	core.OpAddTaxonomy: {Name: core.OpAddTaxonomy, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		var a taxonomyArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.Payload == nil {
			return nil, missing("payload")
		}
		return encode(d.AddTaxonomy(ctx, *a.Payload))
	}},
	core.OpGetTaxonomy: {Name: core.OpGetTaxonomy, ReadOnly: true, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		id, err := withID(raw)
		if err != nil {
			return nil, err
		}
		return encode(d.GetTaxonomy(ctx, id))
	}},
	core.OpGetAllTaxonomy: {Name: core.OpGetAllTaxonomy, ReadOnly: true, call: func(ctx context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
		return encode(d.GetAllTaxonomy(ctx))
	}},
	core.OpUpdateTaxonomy: {Name: core.OpUpdateTaxonomy, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		var a taxonomyArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == nil {
			return nil, missing("id")
		}
		if a.Payload == nil {
			return nil, missing("payload")
		}
		return encode(d.UpdateTaxonomy(ctx, *a.ID, *a.Payload))
	}},
	core.OpDeleteTaxonomy: {Name: core.OpDeleteTaxonomy, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		id, err := withID(raw)
		if err != nil {
			return nil, err
		}
		return encode(d.DeleteTaxonomy(ctx, id))
	}},
	core.OpAddMarineSpecie: {Name: core.OpAddMarineSpecie, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		var a specieArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.Payload == nil {
			return nil, missing("payload")
		}
		return encode(d.AddMarineSpecie(ctx, *a.Payload))
	}},
	core.OpGetMarineSpecie: {Name: core.OpGetMarineSpecie, ReadOnly: true, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		id, err := withID(raw)
		if err != nil {
			return nil, err
		}
		return encode(d.GetMarineSpecie(ctx, id))
	}},
	core.OpGetAllMarineSpecie: {Name: core.OpGetAllMarineSpecie, ReadOnly: true, call: func(ctx context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
		return encode(d.GetAllMarineSpecie(ctx))
	}},
	core.OpGetMarineSpecieByStatus: {Name: core.OpGetMarineSpecieByStatus, ReadOnly: true, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		var a statusArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ConservationStatus == nil {
			return nil, missing("conservation_status")
		}
		return encode(d.GetMarineSpecieByConservationStatus(ctx, *a.ConservationStatus))
	}},
	core.OpUpdateMarineSpecie: {Name: core.OpUpdateMarineSpecie, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		var a specieArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == nil {
			return nil, missing("id")
		}
		if a.Payload == nil {
			return nil, missing("payload")
		}
		return encode(d.UpdateMarineSpecie(ctx, *a.ID, *a.Payload))
	}},
	core.OpDeleteMarineSpecie: {Name: core.OpDeleteMarineSpecie, call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
		id, err := withID(raw)
		if err != nil {
			return nil, err
		}
		return encode(d.DeleteMarineSpecie(ctx, id))
	}},
}

// Operations lists the contract ordered by name.
func Operations() []Operation {
	out := make([]Operation, 0, len(operations))
	for _, op := range operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named operation.
func Lookup(name string) (Operation, bool) {
	op, ok := operations[name]
	return op, ok
}

// Invoke decodes args for the named operation, runs it and returns the
// JSON-encoded Result. Argument errors become an InvalidInput result; only
// unknown operations and storage faults are returned as errors.
func (d *Dispatcher) Invoke(ctx context.Context, operation string, args json.RawMessage) (json.RawMessage, error) {
	op, ok := operations[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}
	out, err := op.call(ctx, d, args)
	if err != nil {
		ce, isCall := domain.AsCallError(err)
		if !isCall {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		out = Fail[struct{}](ce)
	}
	return json.Marshal(out)
}
