package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptyPool is returned when no entry of a pool source could be served.
var ErrEmptyPool = errors.New("question pool has no valid entries")

// Rejection records a pool entry that was skipped at load time.
type Rejection struct {
	Index int    // Position in the source array
	ID    string // Entry id when it could be read
	Err   error
}

func (r Rejection) Error() string {
	if r.ID == "" {
		return fmt.Sprintf("entry %d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("entry %d (%s): %v", r.Index, r.ID, r.Err)
}

// Pool is the read-only, ordered question collection loaded once at startup.
type Pool struct {
	questions []*Question
	byID      map[string]*Question
}

// NewPool builds a pool from already decoded questions. Entries that fail
// Check or repeat an earlier id are skipped and reported.
func NewPool(qs []*Question) (*Pool, []Rejection) {
	p := &Pool{byID: make(map[string]*Question, len(qs))}
	var rejected []Rejection
	for i, q := range qs {
		if err := p.add(q); err != nil {
			id := ""
			if q != nil {
				id = q.ID
			}
			rejected = append(rejected, Rejection{Index: i, ID: id, Err: err})
		}
	}
	return p, rejected
}

func (p *Pool) add(q *Question) error {
	if err := Check(q); err != nil {
		return err
	}
	if _, dup := p.byID[q.ID]; dup {
		return &ValidationError{QuestionID: q.ID, Field: "id", Rule: "unique", Message: "duplicate question id"}
	}
	p.questions = append(p.questions, q)
	p.byID[q.ID] = q
	return nil
}

// Load reads a JSON array of entries from r. Entries failing the schema,
// decoding or Check are skipped and returned as rejections; only an
// unreadable source or a pool with no valid entry is an error.
func Load(r io.Reader) (*Pool, []Rejection, error) {
	var entries []json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, fmt.Errorf("decode pool: %w", err)
	}

	p := &Pool{byID: make(map[string]*Question, len(entries))}
	var rejected []Rejection
	for i, raw := range entries {
		q, err := decodeEntry(raw)
		if err == nil {
			err = p.add(q)
		}
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, ID: peekID(raw), Err: err})
		}
	}

	if p.Len() == 0 {
		return p, rejected, ErrEmptyPool
	}
	return p, rejected, nil
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Pool, []Rejection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pool: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func decodeEntry(raw json.RawMessage) (*Question, error) {
	if err := ValidateEntry(raw); err != nil {
		return nil, err
	}
	return Decode(raw)
}

func peekID(raw json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &head) != nil {
		return ""
	}
	return head.ID
}

// Questions returns the pool in its natural order. The slice is shared and
// must not be modified.
func (p *Pool) Questions() []*Question {
	return p.questions
}

// Get returns the question with the given id, or nil.
func (p *Pool) Get(id string) *Question {
	return p.byID[id]
}

// Len returns the number of servable questions.
func (p *Pool) Len() int {
	return len(p.questions)
}

// CountByType tallies servable questions per type.
func (p *Pool) CountByType() map[Type]int {
	counts := make(map[Type]int, len(AllTypes))
	for _, q := range p.questions {
		counts[q.Type]++
	}
	return counts
}
