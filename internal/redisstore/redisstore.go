// Package redisstore keeps learner progress in Redis. Bookmarks live in a
// hash, mistakes and favorites in sets, and mistake counts and last answers
// in hashes keyed by question id, so every progress field merges
// independently.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "ai102"

const fieldCreatedAt = "created_at"

var indexFields = map[progress.Mode]string{
	progress.ModeSequential:     "sequential_index",
	progress.ModeMistakeReview:  "mistake_review_index",
	progress.ModeFavoriteReview: "favorite_review_index",
}

// NewClient parses url, connects and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Store implements progress.Durable on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Store using client. An empty prefix selects DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

type keys struct {
	progress, mistakes, favorites, counts, answers string
}

func (s *Store) keys(learnerID string) keys {
	base := s.prefix + ":progress:" + learnerID
	return keys{
		progress:  base,
		mistakes:  base + ":mistakes",
		favorites: base + ":favorites",
		counts:    base + ":mistake_counts",
		answers:   base + ":last_answers",
	}
}

func (k keys) set(name progress.SetName) (string, error) {
	switch name {
	case progress.SetMistakes:
		return k.mistakes, nil
	case progress.SetFavorites:
		return k.favorites, nil
	default:
		return "", fmt.Errorf("unknown set %q", name)
	}
}

func (s *Store) Get(ctx context.Context, learnerID string) (*progress.Record, error) {
	k := s.keys(learnerID)

	var (
		head      *redis.MapStringStringCmd
		mistakes  *redis.StringSliceCmd
		favorites *redis.StringSliceCmd
		counts    *redis.MapStringStringCmd
		answers   *redis.MapStringStringCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		head = pipe.HGetAll(ctx, k.progress)
		mistakes = pipe.SMembers(ctx, k.mistakes)
		favorites = pipe.SMembers(ctx, k.favorites)
		counts = pipe.HGetAll(ctx, k.counts)
		answers = pipe.HGetAll(ctx, k.answers)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if len(head.Val()) == 0 {
		return nil, nil
	}

	rec := progress.NewRecord()
	for mode, f := range indexFields {
		v, ok := head.Val()[f]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		switch mode {
		case progress.ModeMistakeReview:
			rec.MistakeReviewIndex = n
		case progress.ModeFavoriteReview:
			rec.FavoriteReviewIndex = n
		default:
			rec.SequentialIndex = n
		}
	}
	for _, id := range mistakes.Val() {
		rec.MistakeIDs.Add(id)
	}
	for _, id := range favorites.Val() {
		rec.FavoriteIDs.Add(id)
	}
	for id, v := range counts.Val() {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse mistake count for %s: %w", id, err)
		}
		rec.MistakeCounts[id] = n
	}
	for id, raw := range answers.Val() {
		var sel question.Selection
		if err := json.Unmarshal([]byte(raw), &sel); err != nil {
			return nil, fmt.Errorf("decode last answer for %s: %w", id, err)
		}
		rec.LastAnswers[id] = sel
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, learnerID string, rec *progress.Record) error {
	k := s.keys(learnerID)
	answers, err := encodeAnswers(rec.LastAnswers)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k.mistakes, k.favorites, k.counts, k.answers)
		pipe.HSetNX(ctx, k.progress, fieldCreatedAt, time.Now().UTC().Format(time.RFC3339))
		pipe.HSet(ctx, k.progress,
			indexFields[progress.ModeSequential], rec.SequentialIndex,
			indexFields[progress.ModeMistakeReview], rec.MistakeReviewIndex,
			indexFields[progress.ModeFavoriteReview], rec.FavoriteReviewIndex,
		)
		if len(rec.MistakeIDs) > 0 {
			pipe.SAdd(ctx, k.mistakes, toAny(rec.MistakeIDs.Sorted())...)
		}
		if len(rec.FavoriteIDs) > 0 {
			pipe.SAdd(ctx, k.favorites, toAny(rec.FavoriteIDs.Sorted())...)
		}
		if len(rec.MistakeCounts) > 0 {
			pipe.HSet(ctx, k.counts, countValues(rec.MistakeCounts))
		}
		if len(answers) > 0 {
			pipe.HSet(ctx, k.answers, answers)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put progress: %w", err)
	}
	return nil
}

func (s *Store) MergeFields(ctx context.Context, learnerID string, f progress.Fields) error {
	if f.IsEmpty() {
		return nil
	}
	k := s.keys(learnerID)
	answers, err := encodeAnswers(f.LastAnswers)
	if err != nil {
		return err
	}

	index := map[string]any{}
	if f.SequentialIndex != nil {
		index[indexFields[progress.ModeSequential]] = *f.SequentialIndex
	}
	if f.MistakeReviewIndex != nil {
		index[indexFields[progress.ModeMistakeReview]] = *f.MistakeReviewIndex
	}
	if f.FavoriteReviewIndex != nil {
		index[indexFields[progress.ModeFavoriteReview]] = *f.FavoriteReviewIndex
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.ensure(ctx, pipe, k)
		if len(index) > 0 {
			pipe.HSet(ctx, k.progress, index)
		}
		if len(f.MistakeCounts) > 0 {
			pipe.HSet(ctx, k.counts, countValues(f.MistakeCounts))
		}
		if len(answers) > 0 {
			pipe.HSet(ctx, k.answers, answers)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge progress: %w", err)
	}
	return nil
}

func (s *Store) AddToSet(ctx context.Context, learnerID string, set progress.SetName, id string) error {
	k := s.keys(learnerID)
	key, err := k.set(set)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.ensure(ctx, pipe, k)
		pipe.SAdd(ctx, key, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add to %s: %w", set, err)
	}
	return nil
}

func (s *Store) RemoveFromSet(ctx context.Context, learnerID string, set progress.SetName, id string) error {
	k := s.keys(learnerID)
	key, err := k.set(set)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.ensure(ctx, pipe, k)
		pipe.SRem(ctx, key, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove from %s: %w", set, err)
	}
	return nil
}

// ensure queues creation of the bookmark hash so a record touched only by
// merges is still found by Get.
func (s *Store) ensure(ctx context.Context, pipe redis.Pipeliner, k keys) {
	pipe.HSetNX(ctx, k.progress, fieldCreatedAt, time.Now().UTC().Format(time.RFC3339))
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func countValues(counts map[string]int) map[string]any {
	out := make(map[string]any, len(counts))
	for id, n := range counts {
		out[id] = n
	}
	return out
}

func encodeAnswers(answers map[string]question.Selection) (map[string]any, error) {
	out := make(map[string]any, len(answers))
	for id, sel := range answers {
		raw, err := json.Marshal(sel)
		if err != nil {
			return nil, fmt.Errorf("encode last answer for %s: %w", id, err)
		}
		out[id] = string(raw)
	}
	return out, nil
}
