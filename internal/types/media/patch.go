package media

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Optional distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

var ErrNullFavorite = errors.New("is_favorite cannot be null")

// Patch is a partial update of the user-editable fields.
type Patch struct {
	Description Optional[string]   `json:"description"`
	UserTags    Optional[[]string] `json:"user_tags"`
	IsFavorite  Optional[bool]     `json:"is_favorite"`
}

// Validate rejects patches the column constraints cannot accept.
func (p Patch) Validate() error {
	if p.IsFavorite.Set && p.IsFavorite.Value == nil {
		return ErrNullFavorite
	}
	return nil
}

// Empty reports whether no field is present.
func (p Patch) Empty() bool {
	return !p.Description.Set && !p.UserTags.Set && !p.IsFavorite.Set
}

// Apply copies the present fields onto m. UpdatedAt is left to the caller.
func (p Patch) Apply(m *Media) {
	if p.Description.Set {
		if p.Description.Value == nil {
			m.Description = nil
		} else {
			d := *p.Description.Value
			m.Description = &d
		}
	}
	if p.UserTags.Set {
		if p.UserTags.Value == nil {
			m.UserTags = nil
		} else {
			m.UserTags = append([]string(nil), (*p.UserTags.Value)...)
		}
	}
	if p.IsFavorite.Set && p.IsFavorite.Value != nil {
		m.IsFavorite = *p.IsFavorite.Value
	}
}
