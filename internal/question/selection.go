package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// SelectionKind tags the shape of a learner's selection.
type SelectionKind int

const (
	SelectionNone   SelectionKind = iota // Nothing chosen yet
	SelectionSingle                      // One option id
	SelectionMulti                       // A list of option ids
	SelectionSlots                       // Slot index to option id
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionSingle:
		return "single"
	case SelectionMulti:
		return "multi"
	case SelectionSlots:
		return "slots"
	default:
		return "none"
	}
}

// Selection is the raw answer submitted for a question. The zero value
// means nothing was chosen.
//
// JSON form: a string for a single id, an array for multiple ids, an
// object keyed by slot index for slot bindings, null for nothing.
type Selection struct {
	Kind  SelectionKind
	ID    string
	IDs   []string
	Slots map[int]string
}

// Single returns a single-id selection.
func Single(id string) Selection {
	return Selection{Kind: SelectionSingle, ID: id}
}

// Multi returns a multi-id selection. Order and duplicates are kept as given.
func Multi(ids ...string) Selection {
	return Selection{Kind: SelectionMulti, IDs: append([]string{}, ids...)}
}

// Slots returns a slot-binding selection.
func Slots(bindings map[int]string) Selection {
	s := Selection{Kind: SelectionSlots, Slots: make(map[int]string, len(bindings))}
	maps.Copy(s.Slots, bindings)
	return s
}

// IsZero reports whether nothing was chosen.
func (s Selection) IsZero() bool {
	return s.Kind == SelectionNone
}

// Clone returns a deep copy of s.
func (s Selection) Clone() Selection {
	c := Selection{Kind: s.Kind, ID: s.ID}
	if s.IDs != nil {
		c.IDs = slices.Clone(s.IDs)
	}
	if s.Slots != nil {
		c.Slots = maps.Clone(s.Slots)
	}
	return c
}

// String renders the selection compactly, e.g. "A", "[A B]" or "{0:A 1:C}".
func (s Selection) String() string {
	switch s.Kind {
	case SelectionSingle:
		return s.ID
	case SelectionMulti:
		return fmt.Sprint(s.IDs)
	case SelectionSlots:
		keys := slices.Sorted(maps.Keys(s.Slots))
		var b bytes.Buffer
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d:%s", k, s.Slots[k])
		}
		b.WriteByte('}')
		return b.String()
	default:
		return ""
	}
}

func (s Selection) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SelectionSingle:
		return json.Marshal(s.ID)
	case SelectionMulti:
		ids := s.IDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	case SelectionSlots:
		m := make(map[string]string, len(s.Slots))
		for k, v := range s.Slots {
			m[strconv.Itoa(k)] = v
		}
		return json.Marshal(m)
	default:
		return []byte("null"), nil
	}
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Selection{}
		return nil
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode single selection: %w", err)
		}
		*s = Single(id)
	case '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decode multi selection: %w", err)
		}
		*s = Multi(ids...)
	case '{':
		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode slot selection: %w", err)
		}
		slots := make(map[int]string, len(raw))
		for k, v := range raw {
			i, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("decode slot selection: slot key %q is not an integer", k)
			}
			slots[i] = v
		}
		*s = Selection{Kind: SelectionSlots, Slots: slots}
	default:
		return fmt.Errorf("decode selection: unexpected JSON %s", data)
	}
	return nil
}
