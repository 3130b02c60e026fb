package evaluate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resonman/ai-102-prep/internal/question"
)

func single(id string, correct string) *question.Question {
	return &question.Question{
		ID:      id,
		Type:    question.TypeSingleChoice,
		Options: []question.Option{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Correct: question.CorrectAnswer{Kind: question.AnswerSingle, ID: correct},
	}
}

func multi(correct ...string) *question.Question {
	return &question.Question{
		ID:      "M",
		Type:    question.TypeMultipleChoice,
		Options: []question.Option{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}},
		Correct: question.CorrectAnswer{Kind: question.AnswerSet, IDs: correct},
	}
}

func slotted(t question.Type, ids ...string) *question.Question {
	q := &question.Question{ID: "S", Type: t}
	q.Correct.Kind = question.AnswerSlots
	for i, id := range ids {
		q.Options = append(q.Options, question.Option{ID: id})
		q.Correct.Bindings = append(q.Correct.Bindings, question.SlotBinding{Slot: i, OptionID: id})
	}
	q.Options = append(q.Options, question.Option{ID: "X"})
	return q
}

func TestEvaluateSingleChoice(t *testing.T) {
	q := single("Q1", "A")

	assert.True(t, Evaluate(q, question.Single("A")))
	assert.False(t, Evaluate(q, question.Single("B")))
	assert.False(t, Evaluate(q, question.Single("")))
	assert.False(t, Evaluate(q, question.Multi("A")), "multi shape for single question")
	assert.False(t, Evaluate(q, question.Slots(map[int]string{0: "A"})))
	assert.False(t, Evaluate(q, question.Selection{}))
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := multi("A", "B", "C")

	tests := []struct {
		name string
		sel  question.Selection
		want bool
	}{
		{"exact", question.Multi("A", "B", "C"), true},
		{"permuted", question.Multi("C", "A", "B"), true},
		{"subset", question.Multi("A", "B"), false},
		{"superset", question.Multi("A", "B", "C", "D"), false},
		{"wrong member", question.Multi("A", "B", "D"), false},
		{"duplicate fills size", question.Multi("A", "A", "B"), false},
		{"empty", question.Multi(), false},
		{"single shape", question.Single("A"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(q, tt.sel))
		})
	}
}

func TestEvaluateMultipleChoicePermutationInvariant(t *testing.T) {
	q := multi("A", "B", "C", "D")
	r := rand.New(rand.NewPCG(7, 11))
	ids := []string{"A", "B", "C", "D"}
	for range 50 {
		r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		require.True(t, Evaluate(q, question.Multi(ids...)), "order %v", ids)
	}
}

func TestEvaluateSlots(t *testing.T) {
	for _, typ := range []question.Type{question.TypeDragDrop, question.TypeHotspot} {
		t.Run(string(typ), func(t *testing.T) {
			q := slotted(typ, "A", "B", "C")

			full := map[int]string{0: "A", 1: "B", 2: "C"}
			assert.True(t, Evaluate(q, question.Slots(full)))

			extra := map[int]string{0: "A", 1: "B", 2: "C", 7: "X"}
			assert.True(t, Evaluate(q, question.Slots(extra)), "extra slots are ignored")

			for slot := range full {
				partial := question.Slots(full)
				delete(partial.Slots, slot)
				assert.False(t, Evaluate(q, partial), "missing slot %d", slot)
			}

			swapped := map[int]string{0: "B", 1: "A", 2: "C"}
			assert.False(t, Evaluate(q, question.Slots(swapped)))
			assert.False(t, Evaluate(q, question.Multi("A", "B", "C")))
		})
	}
}

func TestEvaluateSimulationPolicies(t *testing.T) {
	withID := &question.Question{
		ID:      "SIM1",
		Type:    question.TypeSimulation,
		Options: []question.Option{{ID: "A"}, {ID: "B"}},
		Correct: question.CorrectAnswer{Kind: question.AnswerSingle, ID: "A"},
	}
	noCheck := &question.Question{ID: "SIM2", Type: question.TypeSimulation}

	tests := []struct {
		policy        SimulationPolicy
		right, wrong  bool
		noCheckResult bool
	}{
		{SimulationCompare, true, false, true},
		{SimulationStrict, true, false, false},
		{SimulationAlways, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			e := New(tt.policy)
			assert.Equal(t, tt.right, e.Evaluate(withID, question.Single("A")))
			assert.Equal(t, tt.wrong, e.Evaluate(withID, question.Single("B")))
			assert.Equal(t, tt.noCheckResult, e.Evaluate(noCheck, question.Selection{}))
		})
	}

	var zero Evaluator
	assert.True(t, zero.Evaluate(noCheck, question.Selection{}), "zero value compares")
}

func TestEvaluateUnknownOrNil(t *testing.T) {
	assert.False(t, Evaluate(nil, question.Single("A")))
	q := single("Q", "A")
	q.Type = "Essay"
	assert.False(t, Evaluate(q, question.Single("A")))
}

func TestParseSimulationPolicy(t *testing.T) {
	p, err := ParseSimulationPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SimulationCompare, p)

	p, err = ParseSimulationPolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, SimulationStrict, p)

	_, err = ParseSimulationPolicy("sometimes")
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var e Evaluator

	s := single("Q", "A")
	assert.False(t, e.Complete(s, question.Selection{}))
	assert.False(t, e.Complete(s, question.Single("")))
	assert.True(t, e.Complete(s, question.Single("B")), "wrong but complete")

	m := multi("A", "B")
	assert.False(t, e.Complete(m, question.Multi()))
	assert.True(t, e.Complete(m, question.Multi("C")))

	d := slotted(question.TypeDragDrop, "A", "B")
	assert.False(t, e.Complete(d, question.Slots(map[int]string{0: "A"})))
	assert.False(t, e.Complete(d, question.Slots(map[int]string{0: "A", 1: ""})))
	assert.True(t, e.Complete(d, question.Slots(map[int]string{0: "B", 1: "A"})))

	assert.True(t, e.Complete(&question.Question{Type: question.TypeSimulation}, question.Selection{}))
	assert.False(t, e.Complete(nil, question.Single("A")))
}
