package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/resonman/ai-102-prep/internal/question"
)

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	Write  WriteConfig
}

// Store is the local mirror of one learner's Record. Every mutation updates
// the mirror under the lock before returning and then queues a field-level
// write to the Durable. Remote failures are logged and never roll back the
// mirror, which stays the source of truth for reads.
type Store struct {
	learnerID string
	durable   Durable
	logger    *slog.Logger
	w         *writer

	mu  sync.RWMutex
	rec *Record
}

// NewStore returns a Store for learnerID holding a default record until
// Load is called. Close must be called to stop the write-behind worker.
func NewStore(d Durable, learnerID string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "progress")
	return &Store{
		learnerID: learnerID,
		durable:   d,
		logger:    logger,
		w:         newWriter(d, learnerID, logger, opts.Write),
		rec:       NewRecord(),
	}
}

// LearnerID returns the learner this store belongs to.
func (s *Store) LearnerID() string {
	return s.learnerID
}

// Load reads the learner's record from the durable store. A learner with no
// record gets a default one, which is written back. If the read fails the
// store keeps a default record and the error is returned; the store stays
// usable either way. Writes after a failed Load start from those defaults:
// a recorded mistake stores count 1 and a move stores its own bookmark,
// replacing whatever higher count or bookmark the durable store held.
func (s *Store) Load(ctx context.Context) error {
	rec, err := s.durable.Get(ctx, s.learnerID)
	if err != nil {
		s.logger.Warn("load progress failed, continuing with defaults", "learner_id", s.learnerID, "error", err)
		return fmt.Errorf("load progress: %w", err)
	}

	created := rec == nil
	if created {
		rec = NewRecord()
	}
	rec.normalize()

	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()

	if created {
		s.logger.Info("created progress record", "learner_id", s.learnerID)
		initial := rec.Clone()
		s.w.enqueue(write{op: "put", field: "*", apply: func(ctx context.Context, d Durable) error {
			return d.Put(ctx, s.learnerID, initial)
		}})
	}
	return nil
}

// RecordIndex sets the bookmark of mode. Negative indices are stored as 0.
func (s *Store) RecordIndex(mode Mode, index int) {
	index = max(index, 0)

	s.mu.Lock()
	s.rec.setIndex(mode, index)
	s.mu.Unlock()

	s.merge(mode.String()+"_index", IndexField(mode, index))
}

// ToggleFavorite flips id's favorite membership and returns the new state.
func (s *Store) ToggleFavorite(id string) bool {
	s.mu.Lock()
	fav := !s.rec.FavoriteIDs.Has(id)
	if fav {
		s.rec.FavoriteIDs.Add(id)
	} else {
		s.rec.FavoriteIDs.Remove(id)
	}
	s.mu.Unlock()

	if fav {
		s.addToSet(SetFavorites, id)
	} else {
		s.removeFromSet(SetFavorites, id)
	}
	return fav
}

// RecordMistake adds id to the mistake set and increments its count,
// returning the new count. A legacy mistake without a stored count is
// treated as having count 1.
func (s *Store) RecordMistake(id string) int {
	s.mu.Lock()
	n := s.rec.EffectiveMistakeCount(id) + 1
	s.rec.MistakeCounts[id] = n
	s.rec.MistakeIDs.Add(id)
	s.mu.Unlock()

	s.addToSet(SetMistakes, id)
	s.merge("mistake_counts", Fields{MistakeCounts: map[string]int{id: n}})
	return n
}

// RemoveMistake drops id from the mistake set. Its count is kept so a later
// mistake continues from it.
func (s *Store) RemoveMistake(id string) {
	s.mu.Lock()
	s.rec.MistakeIDs.Remove(id)
	s.mu.Unlock()

	s.removeFromSet(SetMistakes, id)
}

// RecordAnswer stores sel as the learner's latest selection for id.
func (s *Store) RecordAnswer(id string, sel question.Selection) {
	sel = sel.Clone()

	s.mu.Lock()
	s.rec.LastAnswers[id] = sel
	s.mu.Unlock()

	s.merge("last_answers", Fields{LastAnswers: map[string]question.Selection{id: sel.Clone()}})
}

// Reset replaces the record with defaults locally and remotely.
func (s *Store) Reset() {
	rec := NewRecord()

	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()

	initial := rec.Clone()
	s.w.enqueue(write{op: "put", field: "*", apply: func(ctx context.Context, d Durable) error {
		return d.Put(ctx, s.learnerID, initial)
	}})
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Clone()
}

// Index returns the bookmark of mode.
func (s *Store) Index(mode Mode) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Index(mode)
}

func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.FavoriteIDs.Has(id)
}

func (s *Store) IsMistake(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.MistakeIDs.Has(id)
}

// MistakeCount returns id's effective mistake count.
func (s *Store) MistakeCount(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.EffectiveMistakeCount(id)
}

// MistakeIDs returns a copy of the mistake set.
func (s *Store) MistakeIDs() IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewIDSet(s.rec.MistakeIDs.Sorted()...)
}

// FavoriteIDs returns a copy of the favorite set.
func (s *Store) FavoriteIDs() IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewIDSet(s.rec.FavoriteIDs.Sorted()...)
}

// LastAnswer returns the latest selection recorded for id.
func (s *Store) LastAnswer(id string) (question.Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.rec.LastAnswers[id]
	return sel.Clone(), ok
}

// Pending returns the number of remote writes not yet applied.
func (s *Store) Pending() int {
	return s.w.pending()
}

// Flush waits for every write queued so far.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close drains queued writes and stops the worker. Writes still queued when
// ctx ends are abandoned.
func (s *Store) Close(ctx context.Context) error {
	return s.w.close(ctx)
}

func (s *Store) merge(field string, f Fields) {
	s.w.enqueue(write{op: "merge", field: field, apply: func(ctx context.Context, d Durable) error {
		return d.MergeFields(ctx, s.learnerID, f)
	}})
}

func (s *Store) addToSet(set SetName, id string) {
	s.w.enqueue(write{op: "set_add", field: string(set), apply: func(ctx context.Context, d Durable) error {
		return d.AddToSet(ctx, s.learnerID, set, id)
	}})
}

func (s *Store) removeFromSet(set SetName, id string) {
	s.w.enqueue(write{op: "set_remove", field: string(set), apply: func(ctx context.Context, d Durable) error {
		return d.RemoveFromSet(ctx, s.learnerID, set, id)
	}})
}
