package question

// Type identifies the answer format of a question.
type Type string

const (
	TypeSingleChoice   Type = "SingleChoice"
	TypeMultipleChoice Type = "MultipleChoice"
	TypeDragDrop       Type = "DragDrop"
	TypeHotspot        Type = "Hotspot"
	TypeSimulation     Type = "Simulation"
)

// AllTypes lists every supported question type in display order.
var AllTypes = []Type{
	TypeSingleChoice,
	TypeMultipleChoice,
	TypeDragDrop,
	TypeHotspot,
	TypeSimulation,
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	switch t {
	case TypeSingleChoice, TypeMultipleChoice, TypeDragDrop, TypeHotspot, TypeSimulation:
		return true
	}
	return false
}

// SlotBased reports whether answers to t bind options to slots.
func (t Type) SlotBased() bool {
	return t == TypeDragDrop || t == TypeHotspot
}

// Option is one selectable choice of a question.
type Option struct {
	ID    string `json:"id" validate:"required"`
	Text  string `json:"text"`
	Group *int   `json:"group,omitempty"`
}

// AnswerKind tags the shape of a CorrectAnswer.
type AnswerKind int

const (
	AnswerNone   AnswerKind = iota // No gradeable answer (simulation without a check)
	AnswerSingle                   // One option id
	AnswerSet                      // Exact set of option ids
	AnswerSlots                    // One option id per slot
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerSingle:
		return "single"
	case AnswerSet:
		return "set"
	case AnswerSlots:
		return "slots"
	default:
		return "none"
	}
}

// SlotBinding requires OptionID to be placed in Slot. Target carries the
// original target key for matching questions and is empty otherwise.
type SlotBinding struct {
	Slot     int    `json:"slot"`
	Target   string `json:"target,omitempty"`
	OptionID string `json:"option_id"`
}

// CorrectAnswer is the expected answer of a question. Only the fields
// matching Kind are meaningful.
type CorrectAnswer struct {
	Kind     AnswerKind
	ID       string
	IDs      []string
	Bindings []SlotBinding
}

// Question is an immutable pool entry.
type Question struct {
	ID                    string            `json:"id" validate:"required"`
	Topic                 string            `json:"topic"`
	Type                  Type              `json:"type" validate:"required,oneof=SingleChoice MultipleChoice DragDrop Hotspot Simulation"`
	Text                  string            `json:"question_text" validate:"required"`
	CodeSnippet           string            `json:"code_snippet,omitempty"`
	Options               []Option          `json:"options" validate:"dive"`
	TextMap               map[string]string `json:"text_map,omitempty"`
	Correct               CorrectAnswer     `json:"-"`
	AllowRandomizeOptions bool              `json:"allow_randomize_options"`
	Explanation           string            `json:"explanation"`
	Images                []string          `json:"images,omitempty"`
}

// Option returns the option with the given id.
func (q *Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// SlotCount returns the number of slots a slot-based answer must fill.
func (q *Question) SlotCount() int {
	if q.Correct.Kind != AnswerSlots {
		return 0
	}
	return len(q.Correct.Bindings)
}

// SlotLabel returns a human label for slot i, using the target key or the
// text map when the question provides one.
func (q *Question) SlotLabel(i int) string {
	if i >= 0 && i < len(q.Correct.Bindings) {
		if t := q.Correct.Bindings[i].Target; t != "" {
			if label, ok := q.TextMap[t]; ok {
				return label
			}
			return t
		}
	}
	return ""
}

// CorrectIDs returns every option id referenced by the correct answer, in
// answer order.
func (q *Question) CorrectIDs() []string {
	switch q.Correct.Kind {
	case AnswerSingle:
		return []string{q.Correct.ID}
	case AnswerSet:
		return append([]string(nil), q.Correct.IDs...)
	case AnswerSlots:
		ids := make([]string, len(q.Correct.Bindings))
		for i, b := range q.Correct.Bindings {
			ids[i] = b.OptionID
		}
		return ids
	}
	return nil
}
