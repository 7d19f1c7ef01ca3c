package schedule

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownColumn is returned for keys outside the column schema.
var ErrUnknownColumn = errors.New("unknown column")

// Column describes one entry of the fixed table schema.
type Column struct {
	Key            Field  `json:"key"`
	Label          string `json:"label"`
	DefaultVisible bool   `json:"defaultVisible"`
}

var columns = [...]Column{
	{FieldSeason, "Season", true},
	{FieldDate, "Date", true},
	{FieldPassSkin, "Pass Skin", true},
	{FieldPassReturn, "Pass Return", true},
	{FieldGodSkin, "God Skin", true},
	{FieldGodReturn, "God Return", false},
	{FieldLeague, "League", false},
	{FieldLeagueSkin, "League Skin", true},
	{FieldLegacyRateUp, "Legacy Rate Up", false},
	{FieldNewHero, "New Hero", false},
	{FieldEvent, "Event", true},
}

// Columns returns a copy of the schema in display order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns[:])
	return out
}

// LookupColumn returns the schema entry for key.
func LookupColumn(key Field) (Column, bool) {
	for _, c := range columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Visibility is the set of currently rendered columns. It starts from the
// schema defaults and changes only through Toggle or Reset.
// It is safe for concurrent use.
type Visibility struct {
	mu      sync.RWMutex
	visible map[Field]bool
}

// NewVisibility returns a set holding the default-visible columns.
func NewVisibility() *Visibility {
	v := &Visibility{}
	v.Reset()
	return v
}

// NewVisibilityWith returns a set holding exactly keys.
func NewVisibilityWith(keys ...Field) (*Visibility, error) {
	v := &Visibility{visible: make(map[Field]bool, len(keys))}
	for _, k := range keys {
		if _, ok := LookupColumn(k); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		v.visible[k] = true
	}
	return v, nil
}

// IsVisible reports whether key is currently rendered.
func (v *Visibility) IsVisible(key Field) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.visible[key]
}

// Toggle flips the membership of key and returns the new state.
func (v *Visibility) Toggle(key Field) (bool, error) {
	if _, ok := LookupColumn(key); !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.visible[key] {
		delete(v.visible, key)
		return false, nil
	}
	v.visible[key] = true
	return true, nil
}

// Reset restores the schema defaults.
func (v *Visibility) Reset() {
	m := make(map[Field]bool, len(columns))
	for _, c := range columns {
		if c.DefaultVisible {
			m[c.Key] = true
		}
	}
	v.mu.Lock()
	v.visible = m
	v.mu.Unlock()
}

// Visible returns the visible columns in schema order.
func (v *Visibility) Visible() []Column {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Column, 0, len(v.visible))
	for _, c := range columns {
		if v.visible[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// ColumnState is a schema entry with its current visibility.
type ColumnState struct {
	Column
	Visible bool `json:"visible"`
}

// States returns every schema entry with its current visibility.
func (v *Visibility) States() []ColumnState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]ColumnState, len(columns))
	for i, c := range columns {
		out[i] = ColumnState{Column: c, Visible: v.visible[c.Key]}
	}
	return out
}
