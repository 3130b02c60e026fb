package evaluate

import (
	"fmt"

	"github.com/resonman/ai-102-prep/internal/question"
)

// SimulationPolicy decides how Simulation questions are graded.
type SimulationPolicy string

const (
	// SimulationCompare compares against the correct id when the question
	// has one and accepts any submission when it has none.
	SimulationCompare SimulationPolicy = "compare"

	// SimulationStrict always requires a matching correct id; a question
	// without one can never be answered correctly.
	SimulationStrict SimulationPolicy = "strict"

	// SimulationAlways accepts every submission.
	SimulationAlways SimulationPolicy = "always"
)

// ParseSimulationPolicy converts a configuration string to a policy. The
// empty string selects SimulationCompare.
func ParseSimulationPolicy(s string) (SimulationPolicy, error) {
	switch p := SimulationPolicy(s); p {
	case "":
		return SimulationCompare, nil
	case SimulationCompare, SimulationStrict, SimulationAlways:
		return p, nil
	default:
		return "", fmt.Errorf("unknown simulation policy %q (want compare, strict or always)", s)
	}
}

// Evaluator judges submitted selections. The zero value uses
// SimulationCompare.
type Evaluator struct {
	Simulation SimulationPolicy
}

// New returns an Evaluator using the given simulation policy.
func New(policy SimulationPolicy) *Evaluator {
	return &Evaluator{Simulation: policy}
}

var defaultEvaluator = &Evaluator{}

// Evaluate judges sel against q with the default policy.
func Evaluate(q *question.Question, sel question.Selection) bool {
	return defaultEvaluator.Evaluate(q, sel)
}

// Evaluate reports whether sel is a correct answer to q. It never panics:
// a selection whose shape does not match the question type, a nil question
// or an unknown type all evaluate to false.
//
// Rules per type:
//   - SingleChoice: the single id equals the correct id
//   - Simulation: per the evaluator's SimulationPolicy
//   - MultipleChoice: same size as the correct set, no repeats, every id in the set
//   - DragDrop, Hotspot: every required slot holds its required id; extra slots are ignored
func (e *Evaluator) Evaluate(q *question.Question, sel question.Selection) bool {
	if q == nil {
		return false
	}

	switch q.Type {
	case question.TypeSingleChoice:
		return matchSingle(q.Correct, sel)
	case question.TypeSimulation:
		return e.matchSimulation(q.Correct, sel)
	case question.TypeMultipleChoice:
		return matchSet(q.Correct, sel)
	case question.TypeDragDrop, question.TypeHotspot:
		return matchSlots(q.Correct, sel)
	default:
		return false
	}
}

func (e *Evaluator) matchSimulation(correct question.CorrectAnswer, sel question.Selection) bool {
	switch e.policy() {
	case SimulationAlways:
		return true
	case SimulationStrict:
		return matchSingle(correct, sel)
	default:
		if correct.Kind == question.AnswerNone {
			return true
		}
		return matchSingle(correct, sel)
	}
}

func (e *Evaluator) policy() SimulationPolicy {
	if e == nil || e.Simulation == "" {
		return SimulationCompare
	}
	return e.Simulation
}

func matchSingle(correct question.CorrectAnswer, sel question.Selection) bool {
	if correct.Kind != question.AnswerSingle || sel.Kind != question.SelectionSingle {
		return false
	}
	return sel.ID != "" && sel.ID == correct.ID
}

func matchSet(correct question.CorrectAnswer, sel question.Selection) bool {
	if correct.Kind != question.AnswerSet || sel.Kind != question.SelectionMulti {
		return false
	}

	want := make(map[string]bool, len(correct.IDs))
	for _, id := range correct.IDs {
		want[id] = true
	}
	if len(want) == 0 || len(sel.IDs) != len(want) {
		return false
	}

	seen := make(map[string]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		if !want[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func matchSlots(correct question.CorrectAnswer, sel question.Selection) bool {
	if correct.Kind != question.AnswerSlots || sel.Kind != question.SelectionSlots {
		return false
	}
	if len(correct.Bindings) == 0 {
		return false
	}
	for _, b := range correct.Bindings {
		got, ok := sel.Slots[b.Slot]
		if !ok || got != b.OptionID {
			return false
		}
	}
	return true
}

// Complete reports whether sel may be submitted for q. Single-answer types
// need a chosen id, MultipleChoice needs at least one id, and slot-based
// types need every slot filled. A Simulation without options accepts an
// empty submission.
func (e *Evaluator) Complete(q *question.Question, sel question.Selection) bool {
	if q == nil {
		return false
	}

	switch q.Type {
	case question.TypeSingleChoice:
		return sel.Kind == question.SelectionSingle && sel.ID != ""
	case question.TypeSimulation:
		if len(q.Options) == 0 {
			return true
		}
		return sel.Kind == question.SelectionSingle && sel.ID != ""
	case question.TypeMultipleChoice:
		if sel.Kind != question.SelectionMulti {
			return false
		}
		for _, id := range sel.IDs {
			if id != "" {
				return true
			}
		}
		return false
	case question.TypeDragDrop, question.TypeHotspot:
		if sel.Kind != question.SelectionSlots || q.SlotCount() == 0 {
			return false
		}
		for _, b := range q.Correct.Bindings {
			if sel.Slots[b.Slot] == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}
