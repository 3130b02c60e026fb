package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range Tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table.Name, err)
		}
		if name != table.Name {
			t.Errorf("table name = %q, want %q", name, table.Name)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()
	ctx := context.Background()

	sc, err := newSequenceCounter(db)
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestProgressGetAbsent(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()

	rec, err := repo.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestProgressPutAndGet(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	want := progress.NewRecord()
	want.SequentialIndex = 14
	want.FavoriteReviewIndex = 2
	want.MistakeIDs.Add("Q1")
	want.MistakeIDs.Add("Q2")
	want.FavoriteIDs.Add("Q9")
	want.MistakeCounts["Q1"] = 3
	want.LastAnswers["Q1"] = question.Multi("A", "C")
	want.LastAnswers["Q3"] = question.Slots(map[int]string{0: "B", 1: "A"})

	if err := repo.Put(ctx, "learner-a", want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Get(ctx, "learner-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}

	if got.SequentialIndex != 14 || got.FavoriteReviewIndex != 2 || got.MistakeReviewIndex != 0 {
		t.Errorf("indices = %d/%d/%d, want 14/0/2", got.SequentialIndex, got.MistakeReviewIndex, got.FavoriteReviewIndex)
	}
	if !got.MistakeIDs.Has("Q1") || !got.MistakeIDs.Has("Q2") || len(got.MistakeIDs) != 2 {
		t.Errorf("mistakes = %v, want [Q1 Q2]", got.MistakeIDs.Sorted())
	}
	if !got.FavoriteIDs.Has("Q9") {
		t.Errorf("favorites = %v, want [Q9]", got.FavoriteIDs.Sorted())
	}
	if got.MistakeCounts["Q1"] != 3 {
		t.Errorf("count Q1 = %d, want 3", got.MistakeCounts["Q1"])
	}
	if got.LastAnswers["Q3"].String() != "{0:B 1:A}" {
		t.Errorf("last answer Q3 = %s", got.LastAnswers["Q3"])
	}

	// A second Put replaces every field.
	if err := repo.Put(ctx, "learner-a", progress.NewRecord()); err != nil {
		t.Fatalf("put reset: %v", err)
	}
	got, _ = repo.Get(ctx, "learner-a")
	if got.SequentialIndex != 0 || len(got.MistakeIDs) != 0 || len(got.LastAnswers) != 0 {
		t.Errorf("record after reset = %+v", got)
	}
}

func TestProgressMergeFieldsIsPartial(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	seed := progress.NewRecord()
	seed.SequentialIndex = 5
	seed.FavoriteIDs.Add("Q4")
	seed.MistakeCounts["Q1"] = 1
	if err := repo.Put(ctx, "learner-b", seed); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := repo.MergeFields(ctx, "learner-b", progress.IndexField(progress.ModeMistakeReview, 7)); err != nil {
		t.Fatalf("merge index: %v", err)
	}
	if err := repo.MergeFields(ctx, "learner-b", progress.Fields{MistakeCounts: map[string]int{"Q2": 2}}); err != nil {
		t.Fatalf("merge counts: %v", err)
	}

	got, err := repo.Get(ctx, "learner-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SequentialIndex != 5 || got.MistakeReviewIndex != 7 {
		t.Errorf("indices = %d/%d, want 5/7", got.SequentialIndex, got.MistakeReviewIndex)
	}
	if got.MistakeCounts["Q1"] != 1 || got.MistakeCounts["Q2"] != 2 {
		t.Errorf("counts = %v", got.MistakeCounts)
	}
	if !got.FavoriteIDs.Has("Q4") {
		t.Error("favorite lost by merge")
	}
}

func TestProgressMergeCreatesRecord(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	if err := repo.AddToSet(ctx, "learner-c", progress.SetMistakes, "Q1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Adding twice is a no-op.
	if err := repo.AddToSet(ctx, "learner-c", progress.SetMistakes, "Q1"); err != nil {
		t.Fatalf("add again: %v", err)
	}
	got, err := repo.Get(ctx, "learner-c")
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if len(got.MistakeIDs) != 1 {
		t.Errorf("mistakes = %v, want [Q1]", got.MistakeIDs.Sorted())
	}

	if err := repo.RemoveFromSet(ctx, "learner-c", progress.SetMistakes, "Q1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.RemoveFromSet(ctx, "learner-c", progress.SetMistakes, "Q1"); err != nil {
		t.Fatalf("remove again: %v", err)
	}
	got, _ = repo.Get(ctx, "learner-c")
	if len(got.MistakeIDs) != 0 {
		t.Errorf("mistakes = %v, want empty", got.MistakeIDs.Sorted())
	}

	if err := repo.AddToSet(ctx, "learner-c", "bogus", "Q1"); err == nil {
		t.Error("expected error for unknown set")
	}
}

func TestProgressStoreOverSQLite(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	legacy := progress.NewRecord()
	legacy.MistakeIDs.Add("Q2")
	if err := repo.Put(ctx, "learner-d", legacy); err != nil {
		t.Fatalf("put: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ps := progress.NewStore(repo, "learner-d", progress.Options{Logger: logger})
	if err := ps.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := ps.RecordMistake("Q2"); n != 2 {
		t.Errorf("RecordMistake = %d, want 2", n)
	}
	ps.RemoveMistake("Q2")
	ps.RecordIndex(progress.ModeSequential, 3)
	if err := ps.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := repo.Get(ctx, "learner-d")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MistakeCounts["Q2"] != 2 || got.MistakeIDs.Has("Q2") {
		t.Errorf("count = %d, member = %v; want 2, false", got.MistakeCounts["Q2"], got.MistakeIDs.Has("Q2"))
	}
	if got.SequentialIndex != 3 {
		t.Errorf("sequential index = %d, want 3", got.SequentialIndex)
	}
}

func TestEventRepoHistory(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	answers := []AnswerEventData{
		{SessionID: "s1", LearnerID: "l1", Mode: "exam", QuestionID: "Q1", QuestionType: "SingleChoice", Topic: "Vision", Correct: true, Selection: `"A"`},
		{SessionID: "s1", LearnerID: "l1", Mode: "exam", QuestionID: "Q2", QuestionType: "MultipleChoice", Topic: "Vision", Correct: false, Selection: `["A"]`},
		{SessionID: "s1", LearnerID: "l1", Mode: "exam", QuestionID: "Q3", QuestionType: "SingleChoice", Topic: "Language", Correct: true, Selection: `"B"`},
		{SessionID: "x", LearnerID: "other", Mode: "exam", QuestionID: "Q3", Correct: true},
	}
	for i, a := range answers {
		if err := repo.AppendAnswerEvent(ctx, a); err != nil {
			t.Fatalf("append answer %d: %v", i, err)
		}
	}

	for i, served := range []int{2, 3} {
		err := repo.AppendSessionEvent(ctx, SessionEventData{
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
			SessionID:       []string{"s0", "s1"}[i],
			LearnerID:       "l1",
			Mode:            "exam",
			Action:          ActionFinished,
			QuestionsServed: served,
			CorrectAnswers:  1,
		})
		if err != nil {
			t.Fatalf("append session %d: %v", i, err)
		}
	}
	if err := repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s2", LearnerID: "l1", Mode: "exam", Action: ActionStarted}); err != nil {
		t.Fatalf("append started: %v", err)
	}

	acc, err := repo.Accuracy(ctx, "l1")
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if acc.Answered != 3 || acc.Correct != 2 {
		t.Errorf("accuracy = %d/%d, want 2/3", acc.Correct, acc.Answered)
	}

	topics, err := repo.TopicAccuracy(ctx, "l1")
	if err != nil {
		t.Fatalf("topic accuracy: %v", err)
	}
	if len(topics) != 2 || topics[0].Topic != "Language" || topics[1].Answered != 2 || topics[1].Correct != 1 {
		t.Errorf("topics = %+v", topics)
	}

	sessions, err := repo.RecentSessions(ctx, "l1", QueryOpts{Limit: 5})
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2 finished", len(sessions))
	}
	if sessions[0].SessionID != "s1" || sessions[0].QuestionsServed != 3 {
		t.Errorf("newest session = %+v, want s1", sessions[0])
	}
	if sessions[0].Sequence <= sessions[1].Sequence {
		t.Errorf("sessions not newest first: %d, %d", sessions[0].Sequence, sessions[1].Sequence)
	}

	empty, err := repo.Accuracy(ctx, "nobody")
	if err != nil || empty.Answered != 0 || empty.Ratio() != 0 {
		t.Errorf("empty accuracy = %+v, %v", empty, err)
	}
}
