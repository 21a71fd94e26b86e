package memory

import (
	"cmp"
	"marinecore/pkg/domain"
	"slices"
	"time"
)

// record is satisfied by pointers to entities that embed domain.Base.
type record[T any] interface {
	*T
	Record() *domain.Base
}

// Table owns the records of a single entity type keyed by identifier. It
// assigns identifiers from a counter that only grows, so ids are never
// reused even after deletion.
type Table[T any, P record[T]] struct {
	entity domain.EntityType
	lastID uint64
	rows   map[uint64]T
}

// NewTable returns an empty table for the given entity type.
func NewTable[T any, P record[T]](entity domain.EntityType) *Table[T, P] {
	return &Table[T, P]{entity: entity, rows: make(map[uint64]T)}
}

// LastID returns the most recently issued identifier (0 when none).
func (t *Table[T, P]) LastID() uint64 { return t.lastID }

// Len returns the number of stored records.
func (t *Table[T, P]) Len() int { return len(t.rows) }

// NextID issues a fresh identifier strictly greater than all previous ones.
func (t *Table[T, P]) NextID() uint64 {
	t.lastID++
	return t.lastID
}

// Insert assigns a new identifier, stamps created_at, clears updated_at and
// stores the record.
func (t *Table[T, P]) Insert(rec T, now time.Time) T {
	base := P(&rec).Record()
	base.ID = t.NextID()
	base.CreatedAt = now
	base.UpdatedAt = nil
	t.rows[base.ID] = cloneRecord[T, P](rec)
	return cloneRecord[T, P](rec)
}

// Get returns the record stored under id.
func (t *Table[T, P]) Get(id uint64) (T, bool) {
	rec, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return cloneRecord[T, P](rec), true
}

// Update applies mutator to the record stored under id and stamps
// updated_at. Identity and created_at cannot be changed by the mutator. A
// mutator error leaves the record untouched.
func (t *Table[T, P]) Update(id uint64, now time.Time, mutator func(*T) error) (before, after T, err error) {
	current, ok := t.rows[id]
	if !ok {
		return before, after, domain.NotFoundEntity(t.entity, id)
	}
	before = cloneRecord[T, P](current)
	next := cloneRecord[T, P](current)
	if err := mutator(&next); err != nil {
		return before, after, err
	}
	prev := P(&current).Record()
	base := P(&next).Record()
	base.ID = id
	base.CreatedAt = prev.CreatedAt
	stamp := now
	if stamp.Before(prev.CreatedAt) {
		stamp = prev.CreatedAt
	}
	base.UpdatedAt = &stamp
	t.rows[id] = next
	return before, cloneRecord[T, P](next), nil
}

// Delete removes and returns the record stored under id.
func (t *Table[T, P]) Delete(id uint64) (T, error) {
	current, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, domain.NotFoundEntity(t.entity, id)
	}
	delete(t.rows, id)
	return current, nil
}

// Scan returns every record accepted by match ordered by identifier. A nil
// match accepts all records.
func (t *Table[T, P]) Scan(match func(T) bool) []T {
	out := make([]T, 0, len(t.rows))
	for _, rec := range t.rows {
		if match == nil || match(rec) {
			out = append(out, cloneRecord[T, P](rec))
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(P(&a).Record().ID, P(&b).Record().ID)
	})
	return out
}

func (t *Table[T, P]) clone() *Table[T, P] {
	cp := &Table[T, P]{entity: t.entity, lastID: t.lastID, rows: make(map[uint64]T, len(t.rows))}
	for id, rec := range t.rows {
		cp.rows[id] = cloneRecord[T, P](rec)
	}
	return cp
}

func (t *Table[T, P]) export() map[uint64]T {
	out := make(map[uint64]T, len(t.rows))
	for id, rec := range t.rows {
		out[id] = cloneRecord[T, P](rec)
	}
	return out
}

// load replaces the table contents. The counter never drops below the
// largest stored id so a snapshot without counters cannot cause reuse.
func (t *Table[T, P]) load(rows map[uint64]T, lastID uint64) {
	t.rows = make(map[uint64]T, len(rows))
	for id, rec := range rows {
		rec := cloneRecord[T, P](rec)
		P(&rec).Record().ID = id
		t.rows[id] = rec
		if id > lastID {
			lastID = id
		}
	}
	t.lastID = lastID
}

func cloneRecord[T any, P record[T]](rec T) T {
	cp := rec
	base := P(&cp).Record()
	if base.UpdatedAt != nil {
		ts := *base.UpdatedAt
		base.UpdatedAt = &ts
	}
	return cp
}
