package internal

import "encoding/json"

// Table is a normalized entity collection: a keyed map plus an explicit
// key-order list. It serializes as {"byId": ..., "allIds": ...}.
type Table[K comparable, V any] struct {
	byID  map[K]V
	order []K
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{byID: make(map[K]V)}
}

// Upsert inserts or replaces the entity under id. New ids are appended to the
// key order; existing ids keep their position.
func (t *Table[K, V]) Upsert(id K, value V) {
	if t.byID == nil {
		t.byID = make(map[K]V)
	}
	if _, ok := t.byID[id]; !ok {
		t.order = append(t.order, id)
	}
	t.byID[id] = value
}

// Remove deletes the entity under id from both the map and the key order.
// Removing an absent id is a no-op.
func (t *Table[K, V]) Remove(id K) {
	if _, ok := t.byID[id]; !ok {
		return
	}
	delete(t.byID, id)
	for i, key := range t.order {
		if key == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Get returns the entity under id.
func (t *Table[K, V]) Get(id K) (V, bool) {
	value, ok := t.byID[id]
	return value, ok
}

// Len returns the number of entities.
func (t *Table[K, V]) Len() int {
	return len(t.order)
}

// Keys returns the ids in insertion order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, len(t.order))
	copy(keys, t.order)
	return keys
}

// Values returns the entities in insertion order.
func (t *Table[K, V]) Values() []V {
	values := make([]V, 0, len(t.order))
	for _, id := range t.order {
		values = append(values, t.byID[id])
	}
	return values
}

// Clear removes all entities.
func (t *Table[K, V]) Clear() {
	t.byID = make(map[K]V)
	t.order = nil
}

// tableJSON is the serialized form of a Table.
type tableJSON[K comparable, V any] struct {
	ByID   map[K]V `json:"byId"`
	AllIDs []K     `json:"allIds"`
}

// MarshalJSON implements json.Marshaler.
func (t *Table[K, V]) MarshalJSON() ([]byte, error) {
	byID := t.byID
	if byID == nil {
		byID = make(map[K]V)
	}
	allIDs := t.order
	if allIDs == nil {
		allIDs = []K{}
	}
	return json.Marshal(tableJSON[K, V]{ByID: byID, AllIDs: allIDs})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Table[K, V]) UnmarshalJSON(data []byte) error {
	var raw tableJSON[K, V]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.byID = raw.ByID
	if t.byID == nil {
		t.byID = make(map[K]V)
	}
	t.order = raw.AllIDs
	return nil
}
