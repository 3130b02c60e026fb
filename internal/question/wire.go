package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// wireQuestion is the on-disk shape of a pool entry.
type wireQuestion struct {
	ID                    string            `json:"id"`
	Topic                 string            `json:"topic"`
	Type                  string            `json:"type"`
	QuestionText          string            `json:"question_text"`
	AllowRandomizeOptions bool              `json:"allow_randomize_options"`
	CodeSnippet           string            `json:"code_snippet"`
	Options               []Option          `json:"options"`
	TextMap               map[string]string `json:"text_map"`
	CorrectAnswer         []json.RawMessage `json:"correct_answer"`
	Explanation           string            `json:"explanation"`
	Images                []string          `json:"images"`
}

// wireBinding is one object item of correct_answer. Exactly one of Slot,
// Order or Target is set.
type wireBinding struct {
	Slot     *int    `json:"slot"`
	Order    *int    `json:"order"`
	Target   *string `json:"target"`
	OptionID string  `json:"option_id"`
}

// Decode parses one pool entry. It does not run Check; callers that need a
// servable question must validate the result.
func Decode(raw json.RawMessage) (*Question, error) {
	var w wireQuestion
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}

	q := &Question{
		ID:                    w.ID,
		Topic:                 w.Topic,
		Type:                  Type(w.Type),
		Text:                  w.QuestionText,
		CodeSnippet:           w.CodeSnippet,
		Options:               w.Options,
		TextMap:               w.TextMap,
		AllowRandomizeOptions: w.AllowRandomizeOptions,
		Explanation:           w.Explanation,
		Images:                w.Images,
	}

	correct, err := decodeCorrect(q.Type, w.CorrectAnswer)
	if err != nil {
		return nil, &ValidationError{QuestionID: w.ID, Field: "correct_answer", Rule: "shape", Message: err.Error()}
	}
	q.Correct = correct
	return q, nil
}

func decodeCorrect(t Type, items []json.RawMessage) (CorrectAnswer, error) {
	var ids []string
	var bindings []wireBinding
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return CorrectAnswer{}, fmt.Errorf("item %d: %w", i, err)
			}
			ids = append(ids, id)
			continue
		}
		var b wireBinding
		if err := json.Unmarshal(item, &b); err != nil {
			return CorrectAnswer{}, fmt.Errorf("item %d: %w", i, err)
		}
		bindings = append(bindings, b)
	}
	if len(ids) > 0 && len(bindings) > 0 {
		return CorrectAnswer{}, fmt.Errorf("mixes plain ids and bindings")
	}

	switch t {
	case TypeSingleChoice, TypeSimulation:
		if len(bindings) > 0 {
			return CorrectAnswer{}, fmt.Errorf("%s answer must be a plain id", t)
		}
		switch len(ids) {
		case 0:
			if t == TypeSimulation {
				return CorrectAnswer{Kind: AnswerNone}, nil
			}
			return CorrectAnswer{}, fmt.Errorf("missing correct answer")
		case 1:
			return CorrectAnswer{Kind: AnswerSingle, ID: ids[0]}, nil
		default:
			return CorrectAnswer{}, fmt.Errorf("%s answer has %d ids, want 1", t, len(ids))
		}

	case TypeMultipleChoice:
		if len(bindings) > 0 {
			return CorrectAnswer{}, fmt.Errorf("MultipleChoice answer must be a list of ids")
		}
		if len(ids) == 0 {
			return CorrectAnswer{}, fmt.Errorf("missing correct answer")
		}
		return CorrectAnswer{Kind: AnswerSet, IDs: ids}, nil

	case TypeDragDrop, TypeHotspot:
		if len(ids) > 0 {
			// A bare list orders options into consecutive slots.
			out := make([]SlotBinding, len(ids))
			for i, id := range ids {
				out[i] = SlotBinding{Slot: i, OptionID: id}
			}
			return CorrectAnswer{Kind: AnswerSlots, Bindings: out}, nil
		}
		if len(bindings) == 0 {
			return CorrectAnswer{}, fmt.Errorf("missing correct answer")
		}
		out, err := decodeBindings(bindings)
		if err != nil {
			return CorrectAnswer{}, err
		}
		return CorrectAnswer{Kind: AnswerSlots, Bindings: out}, nil

	default:
		return CorrectAnswer{}, fmt.Errorf("unknown question type %q", t)
	}
}

// decodeBindings normalizes slot, order and target keyed bindings into
// slots 0..N-1. Numeric keys numbered 1..N are shifted down by one.
// Target keys take their list position as slot. Duplicate keys are
// rejected.
func decodeBindings(items []wireBinding) ([]SlotBinding, error) {
	out := make([]SlotBinding, len(items))
	numeric := 0
	targets := make(map[string]bool)
	for i, b := range items {
		keys := 0
		if b.Slot != nil {
			keys++
		}
		if b.Order != nil {
			keys++
		}
		if b.Target != nil {
			keys++
		}
		if keys != 1 {
			return nil, fmt.Errorf("binding %d must have exactly one of slot, order or target", i)
		}

		switch {
		case b.Slot != nil:
			out[i] = SlotBinding{Slot: *b.Slot, OptionID: b.OptionID}
			numeric++
		case b.Order != nil:
			out[i] = SlotBinding{Slot: *b.Order, OptionID: b.OptionID}
			numeric++
		default:
			if targets[*b.Target] {
				return nil, fmt.Errorf("duplicate target %q", *b.Target)
			}
			targets[*b.Target] = true
			out[i] = SlotBinding{Slot: i, Target: *b.Target, OptionID: b.OptionID}
		}
	}
	if numeric == 0 {
		return out, nil
	}
	if numeric != len(out) {
		return nil, fmt.Errorf("mixes numeric and target bindings")
	}

	seen := make(map[int]bool, len(out))
	lowest := out[0].Slot
	for _, b := range out {
		if seen[b.Slot] {
			return nil, fmt.Errorf("duplicate slot %d", b.Slot)
		}
		seen[b.Slot] = true
		lowest = min(lowest, b.Slot)
	}
	if lowest == 1 && !seen[0] {
		for i := range out {
			out[i].Slot--
		}
	}
	slices.SortFunc(out, func(a, b SlotBinding) int { return a.Slot - b.Slot })
	for i, b := range out {
		if b.Slot != i {
			return nil, fmt.Errorf("slots are not contiguous from 0: missing slot %d", i)
		}
	}
	return out, nil
}
