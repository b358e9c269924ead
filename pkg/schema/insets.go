package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Insets is padding on the four sides of a container, in pixels.
type Insets struct {
	Top    float64 `json:"top,omitempty" bson:"top,omitempty"`
	Right  float64 `json:"right,omitempty" bson:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty" bson:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty" bson:"left,omitempty"`
}

// Uniform returns insets with the same value on every side.
func Uniform(v float64) *Insets {
	return &Insets{Top: v, Right: v, Bottom: v, Left: v}
}

// IsZero returns true if all sides are zero.
func (i *Insets) IsZero() bool {
	return i == nil || (i.Top == 0 && i.Right == 0 && i.Bottom == 0 && i.Left == 0)
}

// UnmarshalJSON accepts either a single number or an object with sides.
func (i *Insets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("padding: %w", err)
		}
		*i = *Uniform(v)
		return nil
	}
	type sides Insets
	var s sides
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("padding: %w", err)
	}
	*i = Insets(s)
	return nil
}
