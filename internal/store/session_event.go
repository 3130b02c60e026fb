package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo with ent SQL builders and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	query, args := builder().Insert(tableSessionEvent).
		Columns("sequence", "timestamp", "session_id", "learner_id", "mode", "action", "questions_served", "correct_answers").
		Values(seqNum, ts, data.SessionID, data.LearnerID, data.Mode, data.Action, data.QuestionsServed, data.CorrectAnswers).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	query, args := builder().Insert(tableAnswerEvent).
		Columns("sequence", "timestamp", "session_id", "learner_id", "mode", "question_id", "question_type", "topic", "correct", "selection").
		Values(seqNum, ts, data.SessionID, data.LearnerID, data.Mode, data.QuestionID, data.QuestionType, data.Topic, data.Correct, data.Selection).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) RecentSessions(ctx context.Context, learnerID string, opts QueryOpts) ([]SessionEventData, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("learner_id", learnerID),
		entsql.EQ("action", ActionFinished),
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From))
	}

	sel := builder().
		Select("sequence", "timestamp", "session_id", "learner_id", "mode", "action", "questions_served", "correct_answers").
		From(entsql.Table(tableSessionEvent)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionEventData
	for rows.Next() {
		var e SessionEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.SessionID, &e.LearnerID, &e.Mode, &e.Action, &e.QuestionsServed, &e.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Accuracy(ctx context.Context, learnerID string) (Accuracy, error) {
	query, args := builder().
		Select(entsql.Count("*"), entsql.Sum("correct")).
		From(entsql.Table(tableAnswerEvent)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	var answered int
	var correct sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&answered, &correct); err != nil {
		return Accuracy{}, fmt.Errorf("query accuracy: %w", err)
	}
	return Accuracy{Answered: answered, Correct: int(correct.Int64)}, nil
}

func (r *eventRepo) TopicAccuracy(ctx context.Context, learnerID string) ([]Accuracy, error) {
	query, args := builder().
		Select("topic", entsql.Count("*"), entsql.Sum("correct")).
		From(entsql.Table(tableAnswerEvent)).
		Where(entsql.EQ("learner_id", learnerID)).
		GroupBy("topic").
		OrderBy("topic").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topic accuracy: %w", err)
	}
	defer rows.Close()

	var out []Accuracy
	for rows.Next() {
		var a Accuracy
		var correct sql.NullInt64
		if err := rows.Scan(&a.Topic, &a.Answered, &correct); err != nil {
			return nil, fmt.Errorf("scan topic accuracy: %w", err)
		}
		a.Correct = int(correct.Int64)
		out = append(out, a)
	}
	return out, rows.Err()
}
