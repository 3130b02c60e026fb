package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

// progressRepo implements progress.Durable. Bookmarks live in one row per
// learner; set members, mistake counts and last answers get a row each so
// every field can be merged without rewriting the others.
type progressRepo struct {
	db *sql.DB
}

var indexColumns = map[progress.Mode]string{
	progress.ModeSequential:     "sequential_index",
	progress.ModeMistakeReview:  "mistake_review_index",
	progress.ModeFavoriteReview: "favorite_review_index",
}

func (r *progressRepo) Get(ctx context.Context, learnerID string) (*progress.Record, error) {
	query, args := builder().
		Select("sequential_index", "mistake_review_index", "favorite_review_index").
		From(entsql.Table(tableProgress)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	rec := progress.NewRecord()
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&rec.SequentialIndex, &rec.MistakeReviewIndex, &rec.FavoriteReviewIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	if err := r.loadSets(ctx, learnerID, rec); err != nil {
		return nil, err
	}
	if err := r.loadCounts(ctx, learnerID, rec); err != nil {
		return nil, err
	}
	if err := r.loadAnswers(ctx, learnerID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *progressRepo) loadSets(ctx context.Context, learnerID string, rec *progress.Record) error {
	query, args := builder().
		Select("set_name", "question_id").
		From(entsql.Table(tableQuestionSets)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var set, id string
		if err := rows.Scan(&set, &id); err != nil {
			return fmt.Errorf("scan set member: %w", err)
		}
		switch progress.SetName(set) {
		case progress.SetMistakes:
			rec.MistakeIDs.Add(id)
		case progress.SetFavorites:
			rec.FavoriteIDs.Add(id)
		}
	}
	return rows.Err()
}

func (r *progressRepo) loadCounts(ctx context.Context, learnerID string, rec *progress.Record) error {
	query, args := builder().
		Select("question_id", "count").
		From(entsql.Table(tableMistakeCount)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query mistake counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return fmt.Errorf("scan mistake count: %w", err)
		}
		rec.MistakeCounts[id] = n
	}
	return rows.Err()
}

func (r *progressRepo) loadAnswers(ctx context.Context, learnerID string, rec *progress.Record) error {
	query, args := builder().
		Select("question_id", "selection").
		From(entsql.Table(tableLastAnswers)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query last answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan last answer: %w", err)
		}
		var sel question.Selection
		if err := json.Unmarshal([]byte(raw), &sel); err != nil {
			return fmt.Errorf("decode last answer for %s: %w", id, err)
		}
		rec.LastAnswers[id] = sel
	}
	return rows.Err()
}

func (r *progressRepo) Put(ctx context.Context, learnerID string, rec *progress.Record) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		query, args := builder().Insert(tableProgress).
			Columns("learner_id", "sequential_index", "mistake_review_index", "favorite_review_index", "created_at", "updated_at").
			Values(learnerID, rec.SequentialIndex, rec.MistakeReviewIndex, rec.FavoriteReviewIndex, now, now).
			OnConflict(
				entsql.ConflictColumns("learner_id"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.SetExcluded("sequential_index")
					u.SetExcluded("mistake_review_index")
					u.SetExcluded("favorite_review_index")
					u.SetExcluded("updated_at")
				}),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		for _, table := range []string{tableQuestionSets, tableMistakeCount, tableLastAnswers} {
			query, args := builder().Delete(table).Where(entsql.EQ("learner_id", learnerID)).Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for _, id := range rec.MistakeIDs.Sorted() {
			if err := addMember(ctx, tx, learnerID, progress.SetMistakes, id, now); err != nil {
				return err
			}
		}
		for _, id := range rec.FavoriteIDs.Sorted() {
			if err := addMember(ctx, tx, learnerID, progress.SetFavorites, id, now); err != nil {
				return err
			}
		}
		return mergeMaps(ctx, tx, learnerID, rec.MistakeCounts, rec.LastAnswers, now)
	})
}

func (r *progressRepo) MergeFields(ctx context.Context, learnerID string, f progress.Fields) error {
	if f.IsEmpty() {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if err := ensureLearner(ctx, tx, learnerID, now); err != nil {
			return err
		}

		upd := builder().Update(tableProgress).Set("updated_at", now)
		for mode, col := range indexColumns {
			if v := fieldIndex(f, mode); v != nil {
				upd = upd.Set(col, *v)
			}
		}
		query, args := upd.Where(entsql.EQ("learner_id", learnerID)).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		return mergeMaps(ctx, tx, learnerID, f.MistakeCounts, f.LastAnswers, now)
	})
}

func fieldIndex(f progress.Fields, mode progress.Mode) *int {
	switch mode {
	case progress.ModeMistakeReview:
		return f.MistakeReviewIndex
	case progress.ModeFavoriteReview:
		return f.FavoriteReviewIndex
	default:
		return f.SequentialIndex
	}
}

func (r *progressRepo) AddToSet(ctx context.Context, learnerID string, set progress.SetName, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if err := ensureLearner(ctx, tx, learnerID, now); err != nil {
			return err
		}
		return addMember(ctx, tx, learnerID, set, id, now)
	})
}

func (r *progressRepo) RemoveFromSet(ctx context.Context, learnerID string, set progress.SetName, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureLearner(ctx, tx, learnerID, time.Now().UTC()); err != nil {
			return err
		}
		query, args := builder().Delete(tableQuestionSets).
			Where(entsql.And(
				entsql.EQ("learner_id", learnerID),
				entsql.EQ("set_name", string(set)),
				entsql.EQ("question_id", id),
			)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("remove %s member: %w", set, err)
		}
		return nil
	})
}

func (r *progressRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ensureLearner creates the learner's bookmark row with defaults if absent.
func ensureLearner(ctx context.Context, tx *sql.Tx, learnerID string, now time.Time) error {
	query, args := builder().Insert(tableProgress).
		Columns("learner_id", "sequential_index", "mistake_review_index", "favorite_review_index", "created_at", "updated_at").
		Values(learnerID, 0, 0, 0, now, now).
		OnConflict(entsql.ConflictColumns("learner_id"), entsql.DoNothing()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	return nil
}

func addMember(ctx context.Context, tx *sql.Tx, learnerID string, set progress.SetName, id string, now time.Time) error {
	if set != progress.SetMistakes && set != progress.SetFavorites {
		return fmt.Errorf("unknown set %q", set)
	}
	query, args := builder().Insert(tableQuestionSets).
		Columns("learner_id", "set_name", "question_id", "added_at").
		Values(learnerID, string(set), id, now).
		OnConflict(entsql.ConflictColumns("learner_id", "set_name", "question_id"), entsql.DoNothing()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add %s member: %w", set, err)
	}
	return nil
}

func mergeMaps(ctx context.Context, tx *sql.Tx, learnerID string, counts map[string]int, answers map[string]question.Selection, now time.Time) error {
	for id, n := range counts {
		query, args := builder().Insert(tableMistakeCount).
			Columns("learner_id", "question_id", "count").
			Values(learnerID, id, n).
			OnConflict(entsql.ConflictColumns("learner_id", "question_id"), entsql.ResolveWithNewValues()).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert mistake count: %w", err)
		}
	}

	for id, sel := range answers {
		raw, err := json.Marshal(sel)
		if err != nil {
			return fmt.Errorf("encode last answer for %s: %w", id, err)
		}
		query, args := builder().Insert(tableLastAnswers).
			Columns("learner_id", "question_id", "selection", "answered_at").
			Values(learnerID, id, string(raw), now).
			OnConflict(entsql.ConflictColumns("learner_id", "question_id"), entsql.ResolveWithNewValues()).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert last answer: %w", err)
		}
	}
	return nil
}
