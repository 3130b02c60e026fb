package progress

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/resonman/ai-102-prep/internal/question"
)

// Mode names a bookmarked navigation mode.
type Mode int

const (
	ModeSequential     Mode = iota // Practice through the whole pool
	ModeMistakeReview              // Reviewing recorded mistakes
	ModeFavoriteReview             // Reviewing favorites
)

// Modes lists every bookmarked mode.
var Modes = []Mode{ModeSequential, ModeMistakeReview, ModeFavoriteReview}

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeMistakeReview:
		return "mistake_review"
	case ModeFavoriteReview:
		return "favorite_review"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts the String form back to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// IDSet is an unordered set of question ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string)    { s[id] = struct{}{} }
func (s IDSet) Remove(id string) { delete(s, id) }

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := s.Sorted()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Record is one learner's long-lived progress.
//
// MistakeCounts may lag MistakeIDs on records written before counts were
// tracked; an id in MistakeIDs without a count counts as 1.
type Record struct {
	SequentialIndex     int                           `json:"sequential_index"`
	MistakeReviewIndex  int                           `json:"mistake_review_index"`
	FavoriteReviewIndex int                           `json:"favorite_review_index"`
	MistakeIDs          IDSet                         `json:"mistake_ids"`
	FavoriteIDs         IDSet                         `json:"favorite_ids"`
	MistakeCounts       map[string]int                `json:"mistake_counts"`
	LastAnswers         map[string]question.Selection `json:"last_answers"`
}

// NewRecord returns a record with every bookmark at 0 and empty collections.
func NewRecord() *Record {
	return &Record{
		MistakeIDs:    IDSet{},
		FavoriteIDs:   IDSet{},
		MistakeCounts: map[string]int{},
		LastAnswers:   map[string]question.Selection{},
	}
}

// normalize replaces nil collections and negative bookmarks.
func (r *Record) normalize() {
	if r.MistakeIDs == nil {
		r.MistakeIDs = IDSet{}
	}
	if r.FavoriteIDs == nil {
		r.FavoriteIDs = IDSet{}
	}
	if r.MistakeCounts == nil {
		r.MistakeCounts = map[string]int{}
	}
	if r.LastAnswers == nil {
		r.LastAnswers = map[string]question.Selection{}
	}
	r.SequentialIndex = max(r.SequentialIndex, 0)
	r.MistakeReviewIndex = max(r.MistakeReviewIndex, 0)
	r.FavoriteReviewIndex = max(r.FavoriteReviewIndex, 0)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := &Record{
		SequentialIndex:     r.SequentialIndex,
		MistakeReviewIndex:  r.MistakeReviewIndex,
		FavoriteReviewIndex: r.FavoriteReviewIndex,
		MistakeIDs:          maps.Clone(r.MistakeIDs),
		FavoriteIDs:         maps.Clone(r.FavoriteIDs),
		MistakeCounts:       maps.Clone(r.MistakeCounts),
		LastAnswers:         make(map[string]question.Selection, len(r.LastAnswers)),
	}
	for id, sel := range r.LastAnswers {
		c.LastAnswers[id] = sel.Clone()
	}
	c.normalize()
	return c
}

// Index returns the bookmark for mode.
func (r *Record) Index(mode Mode) int {
	switch mode {
	case ModeMistakeReview:
		return r.MistakeReviewIndex
	case ModeFavoriteReview:
		return r.FavoriteReviewIndex
	default:
		return r.SequentialIndex
	}
}

func (r *Record) setIndex(mode Mode, i int) {
	switch mode {
	case ModeMistakeReview:
		r.MistakeReviewIndex = i
	case ModeFavoriteReview:
		r.FavoriteReviewIndex = i
	default:
		r.SequentialIndex = i
	}
}

// EffectiveMistakeCount returns the stored count for id, or 1 for a legacy
// mistake recorded without a count, or 0.
func (r *Record) EffectiveMistakeCount(id string) int {
	if n, ok := r.MistakeCounts[id]; ok && n > 0 {
		return n
	}
	if r.MistakeIDs.Has(id) {
		return 1
	}
	return 0
}
