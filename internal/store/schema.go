package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableProgress     = "learner_progress"
	tableQuestionSets = "learner_question_sets"
	tableMistakeCount = "mistake_counts"
	tableLastAnswers  = "last_answers"
	tableSessionEvent = "session_events"
	tableAnswerEvent  = "answer_events"
)

var (
	// LearnerProgressColumns holds the bookmark row of each learner.
	LearnerProgressColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "sequential_index", Type: field.TypeInt, Default: 0},
		{Name: "mistake_review_index", Type: field.TypeInt, Default: 0},
		{Name: "favorite_review_index", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	LearnerProgressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    LearnerProgressColumns,
		PrimaryKey: []*schema.Column{LearnerProgressColumns[0]},
	}

	// LearnerQuestionSetsColumns holds one row per member of the mistake and
	// favorite sets.
	LearnerQuestionSetsColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "set_name", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "added_at", Type: field.TypeTime},
	}
	LearnerQuestionSetsTable = &schema.Table{
		Name:    tableQuestionSets,
		Columns: LearnerQuestionSetsColumns,
		PrimaryKey: []*schema.Column{
			LearnerQuestionSetsColumns[0],
			LearnerQuestionSetsColumns[1],
			LearnerQuestionSetsColumns[2],
		},
	}

	MistakeCountsColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "count", Type: field.TypeInt},
	}
	MistakeCountsTable = &schema.Table{
		Name:       tableMistakeCount,
		Columns:    MistakeCountsColumns,
		PrimaryKey: []*schema.Column{MistakeCountsColumns[0], MistakeCountsColumns[1]},
	}

	// LastAnswersColumns keeps the latest selection per question as JSON.
	LastAnswersColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "selection", Type: field.TypeString, Size: 2147483647},
		{Name: "answered_at", Type: field.TypeTime},
	}
	LastAnswersTable = &schema.Table{
		Name:       tableLastAnswers,
		Columns:    LastAnswersColumns,
		PrimaryKey: []*schema.Column{LastAnswersColumns[0], LastAnswersColumns[1]},
	}

	SessionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "questions_served", Type: field.TypeInt, Default: 0},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
	}
	SessionEventsTable = &schema.Table{
		Name:       tableSessionEvent,
		Columns:    SessionEventsColumns,
		PrimaryKey: []*schema.Column{SessionEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "sessionevent_learner_id_action",
				Unique:  false,
				Columns: []*schema.Column{SessionEventsColumns[4], SessionEventsColumns[6]},
			},
		},
	}

	AnswerEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "question_type", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString, Default: ""},
		{Name: "correct", Type: field.TypeBool},
		{Name: "selection", Type: field.TypeString, Size: 2147483647},
	}
	AnswerEventsTable = &schema.Table{
		Name:       tableAnswerEvent,
		Columns:    AnswerEventsColumns,
		PrimaryKey: []*schema.Column{AnswerEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "answerevent_learner_id_question_id",
				Unique:  false,
				Columns: []*schema.Column{AnswerEventsColumns[4], AnswerEventsColumns[6]},
			},
		},
	}

	// Tables holds every table the store manages.
	Tables = []*schema.Table{
		LearnerProgressTable,
		LearnerQuestionSetsTable,
		MistakeCountsTable,
		LastAnswersTable,
		SessionEventsTable,
		AnswerEventsTable,
	}
)

// migrate creates or upgrades every table in Tables.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
