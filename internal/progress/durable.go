package progress

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/resonman/ai-102-prep/internal/question"
)

// SetName names an array-valued field of a record.
type SetName string

const (
	SetMistakes  SetName = "mistakes"
	SetFavorites SetName = "favorites"
)

// Fields is a partial record update. Nil pointers are left untouched; map
// entries are merged key by key into the stored maps.
type Fields struct {
	SequentialIndex     *int
	MistakeReviewIndex  *int
	FavoriteReviewIndex *int
	MistakeCounts       map[string]int
	LastAnswers         map[string]question.Selection
}

// IndexField returns Fields that set the bookmark of mode to i.
func IndexField(mode Mode, i int) Fields {
	var f Fields
	switch mode {
	case ModeMistakeReview:
		f.MistakeReviewIndex = &i
	case ModeFavoriteReview:
		f.FavoriteReviewIndex = &i
	default:
		f.SequentialIndex = &i
	}
	return f
}

// IsEmpty reports whether f changes nothing.
func (f Fields) IsEmpty() bool {
	return f.SequentialIndex == nil && f.MistakeReviewIndex == nil && f.FavoriteReviewIndex == nil &&
		len(f.MistakeCounts) == 0 && len(f.LastAnswers) == 0
}

// Apply merges f into r.
func (f Fields) Apply(r *Record) {
	r.normalize()
	if f.SequentialIndex != nil {
		r.SequentialIndex = *f.SequentialIndex
	}
	if f.MistakeReviewIndex != nil {
		r.MistakeReviewIndex = *f.MistakeReviewIndex
	}
	if f.FavoriteReviewIndex != nil {
		r.FavoriteReviewIndex = *f.FavoriteReviewIndex
	}
	maps.Copy(r.MistakeCounts, f.MistakeCounts)
	for id, sel := range f.LastAnswers {
		r.LastAnswers[id] = sel.Clone()
	}
}

// Durable is the backing store a Store mirrors into. Every operation is an
// idempotent upsert for one learner.
type Durable interface {
	// Get returns the learner's record, or nil if none exists.
	Get(ctx context.Context, learnerID string) (*Record, error)

	// Put creates or fully replaces the learner's record.
	Put(ctx context.Context, learnerID string, rec *Record) error

	// MergeFields updates only the fields set in f, creating the record
	// with defaults if needed.
	MergeFields(ctx context.Context, learnerID string, f Fields) error

	// AddToSet adds id to the named set.
	AddToSet(ctx context.Context, learnerID string, set SetName, id string) error

	// RemoveFromSet removes id from the named set.
	RemoveFromSet(ctx context.Context, learnerID string, set SetName, id string) error
}

// MemoryDurable keeps records in process memory. Useful offline and in tests.
type MemoryDurable struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryDurable returns an empty MemoryDurable.
func NewMemoryDurable() *MemoryDurable {
	return &MemoryDurable{records: make(map[string]*Record)}
}

func (m *MemoryDurable) Get(ctx context.Context, learnerID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[learnerID]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (m *MemoryDurable) Put(ctx context.Context, learnerID string, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[learnerID] = rec.Clone()
	return nil
}

func (m *MemoryDurable) MergeFields(ctx context.Context, learnerID string, f Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Apply(m.record(learnerID))
	return nil
}

func (m *MemoryDurable) AddToSet(ctx context.Context, learnerID string, set SetName, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := setOf(m.record(learnerID), set)
	if err != nil {
		return err
	}
	s.Add(id)
	return nil
}

func (m *MemoryDurable) RemoveFromSet(ctx context.Context, learnerID string, set SetName, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := setOf(m.record(learnerID), set)
	if err != nil {
		return err
	}
	s.Remove(id)
	return nil
}

// record returns the stored record, creating a default one. Caller holds mu.
func (m *MemoryDurable) record(learnerID string) *Record {
	rec, ok := m.records[learnerID]
	if !ok {
		rec = NewRecord()
		m.records[learnerID] = rec
	}
	return rec
}

func setOf(r *Record, set SetName) (IDSet, error) {
	switch set {
	case SetMistakes:
		return r.MistakeIDs, nil
	case SetFavorites:
		return r.FavoriteIDs, nil
	default:
		return nil, fmt.Errorf("unknown set %q", set)
	}
}
