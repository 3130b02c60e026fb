package question

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePool = `[
  {
    "id": "Q1", "topic": "Vision", "type": "SingleChoice",
    "question_text": "Which service?", "allow_randomize_options": true,
    "options": [{"id": "A", "text": "Computer Vision"}, {"id": "B", "text": "Speech"}],
    "correct_answer": ["A"], "explanation": "Vision analyzes images.", "images": []
  },
  {
    "id": "Q2", "topic": "Language", "type": "MultipleChoice",
    "question_text": "Pick two.", "allow_randomize_options": false,
    "options": [{"id": "A", "text": "x"}, {"id": "B", "text": "y"}, {"id": "C", "text": "z"}],
    "correct_answer": ["A", "B"], "explanation": "", "images": []
  },
  {
    "id": "Q3", "topic": "Search", "type": "DragDrop",
    "question_text": "Order the steps.", "allow_randomize_options": true,
    "options": [{"id": "A", "text": "Create index"}, {"id": "B", "text": "Run indexer"}],
    "correct_answer": [{"order": 1, "option_id": "A"}, {"order": 2, "option_id": "B"}],
    "explanation": "", "images": []
  },
  {
    "id": "Q4", "topic": "Security", "type": "Hotspot",
    "question_text": "Complete the code.", "code_snippet": "client = ___(___)",
    "allow_randomize_options": false,
    "options": [{"id": "A", "text": "KeyClient", "group": 0}, {"id": "B", "text": "endpoint", "group": 1}],
    "correct_answer": [{"slot": 0, "option_id": "A"}, {"slot": 1, "option_id": "B"}],
    "explanation": "", "images": []
  },
  {
    "id": "Q5", "topic": "Portal", "type": "Simulation",
    "question_text": "Configure the resource in the portal.",
    "allow_randomize_options": false, "options": [], "correct_answer": [],
    "explanation": "", "images": []
  },
  {
    "id": "BAD1", "type": "Essay", "question_text": "Unknown type.",
    "options": [], "correct_answer": ["A"]
  },
  {
    "id": "BAD2", "type": "SingleChoice", "question_text": "Dangling answer.",
    "options": [{"id": "A", "text": "a"}], "correct_answer": ["Z"]
  },
  {
    "id": "Q1", "type": "SingleChoice", "question_text": "Duplicate id.",
    "options": [{"id": "A", "text": "a"}], "correct_answer": ["A"]
  }
]`

func TestLoadSkipsInvalidEntries(t *testing.T) {
	pool, rejected, err := Load(strings.NewReader(samplePool))
	require.NoError(t, err)

	assert.Equal(t, 5, pool.Len())
	var ids []string
	for _, q := range pool.Questions() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}, ids)

	require.Len(t, rejected, 3)
	assert.Equal(t, 5, rejected[0].Index)
	assert.Equal(t, "BAD1", rejected[0].ID)
	assert.Equal(t, "BAD2", rejected[1].ID)
	assert.Equal(t, 7, rejected[2].Index)
	assert.Contains(t, rejected[2].Error(), "duplicate question id")
}

func TestLoadEmptyPool(t *testing.T) {
	_, _, err := Load(strings.NewReader(`[{"id": "X"}]`))
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, _, err = Load(strings.NewReader(`{"not": "an array"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyPool))
}

func TestDecodeShapes(t *testing.T) {
	pool, _, err := Load(strings.NewReader(samplePool))
	require.NoError(t, err)

	q1 := pool.Get("Q1")
	require.NotNil(t, q1)
	assert.Equal(t, CorrectAnswer{Kind: AnswerSingle, ID: "A"}, q1.Correct)
	assert.Equal(t, "Vision", q1.Topic)
	assert.True(t, q1.AllowRandomizeOptions)

	q2 := pool.Get("Q2")
	assert.Equal(t, AnswerSet, q2.Correct.Kind)
	assert.Equal(t, []string{"A", "B"}, q2.Correct.IDs)

	// One-based order keys are shifted to start at slot 0.
	q3 := pool.Get("Q3")
	assert.Equal(t, []SlotBinding{{Slot: 0, OptionID: "A"}, {Slot: 1, OptionID: "B"}}, q3.Correct.Bindings)
	assert.Equal(t, 2, q3.SlotCount())

	q4 := pool.Get("Q4")
	require.NotNil(t, q4.Options[1].Group)
	assert.Equal(t, 1, *q4.Options[1].Group)
	assert.Equal(t, "client = ___(___)", q4.CodeSnippet)

	q5 := pool.Get("Q5")
	assert.Equal(t, AnswerNone, q5.Correct.Kind)
}

func TestDecodeBindings(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    []SlotBinding
		wantErr string
	}{
		{
			name:   "zero based slots out of order",
			answer: `[{"slot": 1, "option_id": "B"}, {"slot": 0, "option_id": "A"}]`,
			want:   []SlotBinding{{Slot: 0, OptionID: "A"}, {Slot: 1, OptionID: "B"}},
		},
		{
			name:   "targets keep list position",
			answer: `[{"target": "t1", "option_id": "B"}, {"target": "t2", "option_id": "A"}]`,
			want:   []SlotBinding{{Slot: 0, Target: "t1", OptionID: "B"}, {Slot: 1, Target: "t2", OptionID: "A"}},
		},
		{
			name:   "bare ids fill consecutive slots",
			answer: `["B", "A"]`,
			want:   []SlotBinding{{Slot: 0, OptionID: "B"}, {Slot: 1, OptionID: "A"}},
		},
		{
			name:    "duplicate slot",
			answer:  `[{"slot": 0, "option_id": "A"}, {"slot": 0, "option_id": "B"}]`,
			wantErr: "duplicate slot 0",
		},
		{
			name:    "gap",
			answer:  `[{"slot": 0, "option_id": "A"}, {"slot": 2, "option_id": "B"}]`,
			wantErr: "not contiguous",
		},
		{
			name:    "duplicate target",
			answer:  `[{"target": "t", "option_id": "A"}, {"target": "t", "option_id": "B"}]`,
			wantErr: "duplicate target",
		},
		{
			name:    "mixed keys",
			answer:  `[{"slot": 0, "option_id": "A"}, {"target": "t", "option_id": "B"}]`,
			wantErr: "mixes numeric and target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"id": "D", "type": "DragDrop", "question_text": "q",
				"options": [{"id": "A", "text": "a"}, {"id": "B", "text": "b"}],
				"correct_answer": ` + tt.answer + `}`
			q, err := Decode(json.RawMessage(raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Correct.Bindings)
			assert.NoError(t, Check(q))
		})
	}
}

func TestCheckInvariants(t *testing.T) {
	opts := []Option{{ID: "A", Text: "a"}, {ID: "B", Text: "b"}}
	tests := []struct {
		name string
		q    *Question
		rule string
	}{
		{"duplicate option", &Question{ID: "x", Type: TypeSingleChoice, Text: "t",
			Options: []Option{{ID: "A"}, {ID: "A"}}, Correct: CorrectAnswer{Kind: AnswerSingle, ID: "A"}}, "unique"},
		{"unknown reference", &Question{ID: "x", Type: TypeMultipleChoice, Text: "t",
			Options: opts, Correct: CorrectAnswer{Kind: AnswerSet, IDs: []string{"A", "C"}}}, "reference"},
		{"wrong shape", &Question{ID: "x", Type: TypeHotspot, Text: "t",
			Options: opts, Correct: CorrectAnswer{Kind: AnswerSingle, ID: "A"}}, "shape"},
		{"missing text", &Question{ID: "x", Type: TypeSingleChoice,
			Options: opts, Correct: CorrectAnswer{Kind: AnswerSingle, ID: "A"}}, "required"},
		{"unknown type", &Question{ID: "x", Type: "Essay", Text: "t",
			Options: opts, Correct: CorrectAnswer{Kind: AnswerSingle, ID: "A"}}, "oneof"},
		{"slot gap", &Question{ID: "x", Type: TypeDragDrop, Text: "t", Options: opts,
			Correct: CorrectAnswer{Kind: AnswerSlots, Bindings: []SlotBinding{{Slot: 1, OptionID: "A"}}}}, "contiguous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.q)
			require.Error(t, err)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			var rules []string
			for _, e := range errs {
				rules = append(rules, e.Rule)
			}
			assert.Contains(t, rules, tt.rule)
		})
	}

	assert.NoError(t, Check(&Question{ID: "ok", Type: TypeSimulation, Text: "t"}))
	assert.Error(t, Check(nil))
}

func TestSelectionJSON(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		json string
	}{
		{"single", Single("A"), `"A"`},
		{"multi", Multi("A", "C"), `["A","C"]`},
		{"slots", Slots(map[int]string{0: "A", 1: "C"}), `{"0":"A","1":"C"}`},
		{"none", Selection{}, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.sel)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var back Selection
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.sel, back)
		})
	}

	var bad Selection
	assert.Error(t, json.Unmarshal([]byte(`{"x":"A"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestSelectionCloneIsDeep(t *testing.T) {
	orig := Slots(map[int]string{0: "A"})
	c := orig.Clone()
	c.Slots[0] = "B"
	assert.Equal(t, "A", orig.Slots[0])
	assert.Equal(t, "{0:A}", orig.String())
}
