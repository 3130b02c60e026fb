package selector

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/resonman/ai-102-prep/internal/question"
)

// DefaultExamSize is the number of questions in a full exam.
const DefaultExamSize = 50

// ExamOptions constrains exam selection.
type ExamOptions struct {
	Size    int             // Maximum questions; <= 0 means DefaultExamSize
	Exclude []question.Type // Types never served in an exam
}

// DefaultExamOptions returns a 50-question exam without Simulation questions.
func DefaultExamOptions() ExamOptions {
	return ExamOptions{
		Size:    DefaultExamSize,
		Exclude: []question.Type{question.TypeSimulation},
	}
}

// Membership is satisfied by id sets such as progress.IDSet.
type Membership interface {
	Has(id string) bool
}

// Selector produces session question lists. It owns a random source so a
// seeded Selector reproduces the same exams. Safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Selector drawing from src. A nil src seeds from the clock.
func New(src rand.Source) *Selector {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Selector{rng: rand.New(src)}
}

// NewSeeded returns a Selector with a deterministic PCG source.
func NewSeeded(seed uint64) *Selector {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Practice returns the pool in natural order.
func (s *Selector) Practice(pool []*question.Question) []*question.Question {
	return slices.Clone(pool)
}

// Exam filters out excluded types and malformed entries, shuffles what is
// left and returns at most opts.Size questions. A short pool yields every
// remaining question.
func (s *Selector) Exam(pool []*question.Question, opts ExamOptions) []*question.Question {
	size := opts.Size
	if size <= 0 {
		size = DefaultExamSize
	}

	filtered := make([]*question.Question, 0, len(pool))
	for _, q := range pool {
		if q == nil || slices.Contains(opts.Exclude, q.Type) {
			continue
		}
		if question.Check(q) != nil {
			continue
		}
		filtered = append(filtered, q)
	}

	s.mu.Lock()
	Shuffle(s.rng, filtered)
	s.mu.Unlock()

	if len(filtered) > size {
		filtered = filtered[:size]
	}
	return filtered
}

// Mistakes returns pool questions whose ids are in ids, in pool order.
func Mistakes(pool []*question.Question, ids Membership) []*question.Question {
	return filterPool(pool, ids)
}

// Favorites returns pool questions whose ids are in ids, in pool order.
func Favorites(pool []*question.Question, ids Membership) []*question.Question {
	return filterPool(pool, ids)
}

func filterPool(pool []*question.Question, ids Membership) []*question.Question {
	var out []*question.Question
	if ids == nil {
		return out
	}
	for _, q := range pool {
		if q != nil && ids.Has(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// OptionOrder returns the display order of q's options. Options are
// shuffled only when randomize is set and the question allows it; the
// question itself is never modified.
func (s *Selector) OptionOrder(q *question.Question, randomize bool) []question.Option {
	opts := slices.Clone(q.Options)
	if !randomize || !q.AllowRandomizeOptions {
		return opts
	}
	s.mu.Lock()
	Shuffle(s.rng, opts)
	s.mu.Unlock()
	return opts
}

// Shuffle permutes xs in place with the Fisher–Yates algorithm: for i from
// len-1 down to 1, swap xs[i] with xs[j] for j drawn uniformly from [0, i].
func Shuffle[T any](r *rand.Rand, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
