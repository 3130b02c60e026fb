// Package prompt parses what the learner types at the study prompt.
//
// Answer syntax:
//
//	A            single choice
//	A,C  or A C  multiple choice
//	0=B 1=A      slot answers, also 0:B,1:A or just B A for slots in order
//
// Option ids match case-insensitively. Lowercase command words (n, p, f,
// r, m, q, ?) are checked before answers, so an option named "f" must be
// typed as "F".
package prompt

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/resonman/ai-102-prep/internal/question"
)

// ErrEmpty is returned for a blank answer line.
var ErrEmpty = errors.New("empty answer")

// Command is a navigation or session command.
type Command int

const (
	CmdNone Command = iota
	CmdNext
	CmdPrev
	CmdFavorite
	CmdRestart
	CmdMaster
	CmdQuit
	CmdHelp
)

var commands = map[string]Command{
	"n": CmdNext, "next": CmdNext,
	"p": CmdPrev, "prev": CmdPrev,
	"f": CmdFavorite, "fav": CmdFavorite,
	"r": CmdRestart, "restart": CmdRestart,
	"m": CmdMaster, "master": CmdMaster,
	"q": CmdQuit, "quit": CmdQuit,
	"?": CmdHelp, "help": CmdHelp,
}

// ParseCommand returns the command typed on line, or CmdNone.
func ParseCommand(line string) Command {
	return commands[strings.TrimSpace(line)]
}

// Help describes the commands and answer syntax.
const Help = `Answer with an option id (A), several ids (A,C) or slot bindings (0=B 1=A).
Commands: n next, p previous, f toggle favorite, r restart, m mastered, q quit, ? help.`

// ParseAnswer reads a selection for q from line. The shape follows the
// question type; option ids are checked against q's options.
func ParseAnswer(q *question.Question, line string) (question.Selection, error) {
	tokens := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	if q.Type == question.TypeSimulation && len(q.Options) == 0 {
		return question.Selection{}, nil
	}
	if len(tokens) == 0 {
		return question.Selection{}, ErrEmpty
	}

	switch q.Type {
	case question.TypeSingleChoice, question.TypeSimulation:
		if len(tokens) != 1 {
			return question.Selection{}, fmt.Errorf("pick exactly one option, got %d", len(tokens))
		}
		id, err := resolve(q, tokens[0])
		if err != nil {
			return question.Selection{}, err
		}
		return question.Single(id), nil

	case question.TypeMultipleChoice:
		ids := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			id, err := resolve(q, tok)
			if err != nil {
				return question.Selection{}, err
			}
			ids = append(ids, id)
		}
		return question.Multi(ids...), nil

	case question.TypeDragDrop, question.TypeHotspot:
		return parseSlots(q, tokens)

	default:
		return question.Selection{}, fmt.Errorf("unsupported question type %q", q.Type)
	}
}

func parseSlots(q *question.Question, tokens []string) (question.Selection, error) {
	slots := make(map[int]string, len(tokens))
	for i, tok := range tokens {
		slot, raw := i, tok
		if k, v, ok := cutBinding(tok); ok {
			n, err := strconv.Atoi(k)
			if err != nil || n < 0 {
				return question.Selection{}, fmt.Errorf("slot %q is not a slot number", k)
			}
			slot, raw = n, v
		}
		if _, dup := slots[slot]; dup {
			return question.Selection{}, fmt.Errorf("slot %d bound twice", slot)
		}
		id, err := resolve(q, raw)
		if err != nil {
			return question.Selection{}, err
		}
		slots[slot] = id
	}
	return question.Slots(slots), nil
}

func cutBinding(tok string) (string, string, bool) {
	if k, v, ok := strings.Cut(tok, "="); ok {
		return k, v, true
	}
	return strings.Cut(tok, ":")
}

func resolve(q *question.Question, tok string) (string, error) {
	if _, ok := q.Option(tok); ok {
		return tok, nil
	}
	for _, o := range q.Options {
		if strings.EqualFold(o.ID, tok) {
			return o.ID, nil
		}
	}
	return "", fmt.Errorf("unknown option %q", tok)
}

// FormatSelection renders sel in the syntax ParseAnswer accepts.
func FormatSelection(sel question.Selection) string {
	switch sel.Kind {
	case question.SelectionSingle:
		return sel.ID
	case question.SelectionMulti:
		return strings.Join(sel.IDs, ",")
	case question.SelectionSlots:
		parts := make([]string, 0, len(sel.Slots))
		for _, k := range slices.Sorted(maps.Keys(sel.Slots)) {
			parts = append(parts, fmt.Sprintf("%d=%s", k, sel.Slots[k]))
		}
		return strings.Join(parts, " ")
	default:
		return "-"
	}
}

// FormatCorrect renders the correct answer of q, or "any" for questions
// without one.
func FormatCorrect(q *question.Question) string {
	switch q.Correct.Kind {
	case question.AnswerSingle:
		return FormatSelection(question.Single(q.Correct.ID))
	case question.AnswerSet:
		return FormatSelection(question.Multi(q.Correct.IDs...))
	case question.AnswerSlots:
		slots := make(map[int]string, len(q.Correct.Bindings))
		for _, b := range q.Correct.Bindings {
			slots[b.Slot] = b.OptionID
		}
		return FormatSelection(question.Slots(slots))
	default:
		return "any"
	}
}
