package question

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes why a pool entry cannot be served.
type ValidationError struct {
	QuestionID string // Entry id, empty when the id itself is missing
	Field      string // Offending field
	Rule       string // Short rule name, e.g. "required", "unique", "contiguous"
	Message    string // Human-readable description
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("question %s: %s: %s", e.QuestionID, e.Field, e.Message)
}

// ValidationErrors collects every failure found for one entry.
type ValidationErrors []*ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "validation failed"
	case 1:
		return ve[0].Error()
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Field + " " + e.Message
	}
	return fmt.Sprintf("question %s: %d problems: %s", ve[0].QuestionID, len(ve), strings.Join(msgs, "; "))
}

var (
	validateOnce sync.Once
	structValid  *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		structValid = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValid
}

// Check runs struct validation and the answer invariants on q. It returns
// nil or a ValidationErrors value.
func Check(q *Question) error {
	if q == nil {
		return ValidationErrors{{Field: "question", Rule: "required", Message: "is nil"}}
	}

	var errs ValidationErrors
	if err := structValidator().Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return ValidationErrors{{QuestionID: q.ID, Field: "question", Rule: "struct", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, &ValidationError{
				QuestionID: q.ID,
				Field:      fe.Namespace(),
				Rule:       fe.Tag(),
				Message:    fieldMessage(fe),
			})
		}
	}
	errs = append(errs, checkInvariants(q)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// checkInvariants verifies option ids are unique and the correct answer is
// shaped for the question type and references only existing options.
func checkInvariants(q *Question) ValidationErrors {
	var errs ValidationErrors
	fail := func(field, rule, format string, args ...any) {
		errs = append(errs, &ValidationError{
			QuestionID: q.ID,
			Field:      field,
			Rule:       rule,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	ids := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if ids[o.ID] {
			fail("options", "unique", "duplicate option id %q", o.ID)
		}
		ids[o.ID] = true
	}

	want, ok := expectedKind(q.Type, q.Correct.Kind)
	if !ok {
		fail("correct_answer", "shape", "%s answer does not fit a %s question (want %s)", q.Correct.Kind, q.Type, want)
		return errs
	}

	if q.Correct.Kind != AnswerNone && len(q.Options) == 0 {
		fail("options", "required", "is required when the question has a correct answer")
	}

	ref := func(id string) {
		if id == "" {
			fail("correct_answer", "required", "empty option id")
		} else if !ids[id] {
			fail("correct_answer", "reference", "unknown option id %q", id)
		}
	}

	switch q.Correct.Kind {
	case AnswerSingle:
		ref(q.Correct.ID)
	case AnswerSet:
		if len(q.Correct.IDs) == 0 {
			fail("correct_answer", "required", "is empty")
		}
		seen := make(map[string]bool, len(q.Correct.IDs))
		for _, id := range q.Correct.IDs {
			if seen[id] {
				fail("correct_answer", "unique", "duplicate option id %q", id)
			}
			seen[id] = true
			ref(id)
		}
	case AnswerSlots:
		if len(q.Correct.Bindings) == 0 {
			fail("correct_answer", "required", "is empty")
		}
		for i, b := range q.Correct.Bindings {
			if b.Slot != i {
				fail("correct_answer", "contiguous", "binding %d is for slot %d, want slots 0..%d in order", i, b.Slot, len(q.Correct.Bindings)-1)
			}
			ref(b.OptionID)
		}
	}
	return errs
}

// expectedKind reports whether kind is an acceptable answer shape for t,
// returning the canonical shape for error messages.
func expectedKind(t Type, kind AnswerKind) (AnswerKind, bool) {
	switch t {
	case TypeSingleChoice:
		return AnswerSingle, kind == AnswerSingle
	case TypeSimulation:
		return AnswerSingle, kind == AnswerSingle || kind == AnswerNone
	case TypeMultipleChoice:
		return AnswerSet, kind == AnswerSet
	case TypeDragDrop, TypeHotspot:
		return AnswerSlots, kind == AnswerSlots
	default:
		return AnswerNone, false
	}
}
