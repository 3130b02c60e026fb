package redisstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client, "test"), mr
}

func TestNewClientBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestGetAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	rec, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPutAndGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	want := progress.NewRecord()
	want.SequentialIndex = 8
	want.MistakeReviewIndex = 1
	want.MistakeIDs.Add("Q1")
	want.FavoriteIDs.Add("Q2")
	want.FavoriteIDs.Add("Q3")
	want.MistakeCounts["Q1"] = 4
	want.LastAnswers["Q1"] = question.Single("B")

	require.NoError(t, s.Put(ctx, "l1", want))

	got, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	members, err := mr.Members("test:progress:l1:favorites")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Q2", "Q3"}, members)
	assert.Equal(t, "4", mr.HGet("test:progress:l1:mistake_counts", "Q1"))

	// Put replaces the whole record.
	require.NoError(t, s.Put(ctx, "l1", progress.NewRecord()))
	got, err = s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, progress.NewRecord(), got)
}

func TestMergeFieldsIsPartial(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seed := progress.NewRecord()
	seed.SequentialIndex = 3
	seed.MistakeCounts["Q1"] = 2
	seed.FavoriteIDs.Add("Q5")
	require.NoError(t, s.Put(ctx, "l1", seed))

	require.NoError(t, s.MergeFields(ctx, "l1", progress.IndexField(progress.ModeFavoriteReview, 6)))
	require.NoError(t, s.MergeFields(ctx, "l1", progress.Fields{
		MistakeCounts: map[string]int{"Q2": 1},
		LastAnswers:   map[string]question.Selection{"Q2": question.Slots(map[int]string{0: "A"})},
	}))

	got, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SequentialIndex)
	assert.Equal(t, 6, got.FavoriteReviewIndex)
	assert.Equal(t, map[string]int{"Q1": 2, "Q2": 1}, got.MistakeCounts)
	assert.True(t, got.FavoriteIDs.Has("Q5"))
	assert.Equal(t, question.Slots(map[int]string{0: "A"}), got.LastAnswers["Q2"])
}

func TestSetOperationsCreateRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToSet(ctx, "l2", progress.SetFavorites, "Q1"))
	require.NoError(t, s.AddToSet(ctx, "l2", progress.SetFavorites, "Q1"))

	got, err := s.Get(ctx, "l2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Q1"}, got.FavoriteIDs.Sorted())
	assert.Zero(t, got.SequentialIndex)

	require.NoError(t, s.RemoveFromSet(ctx, "l2", progress.SetFavorites, "Q1"))
	got, err = s.Get(ctx, "l2")
	require.NoError(t, err)
	assert.Empty(t, got.FavoriteIDs)

	assert.Error(t, s.AddToSet(ctx, "l2", "bogus", "Q1"))
}

func TestProgressStoreOverRedis(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ps := progress.NewStore(s, "l3", progress.Options{Logger: logger})
	require.NoError(t, ps.Load(ctx))
	ps.RecordMistake("Q1")
	ps.RecordMistake("Q1")
	ps.ToggleFavorite("Q7")
	ps.RecordIndex(progress.ModeMistakeReview, 2)
	require.NoError(t, ps.Close(ctx))

	got, err := s.Get(ctx, "l3")
	require.NoError(t, err)
	assert.Equal(t, 2, got.MistakeCounts["Q1"])
	assert.True(t, got.MistakeIDs.Has("Q1"))
	assert.True(t, got.FavoriteIDs.Has("Q7"))
	assert.Equal(t, 2, got.MistakeReviewIndex)
}

func TestUnavailableServer(t *testing.T) {
	s, mr := newTestStore(t)
	mr.SetError("ERR server unavailable")

	_, err := s.Get(context.Background(), "l1")
	assert.Error(t, err)
	assert.Error(t, s.MergeFields(context.Background(), "l1", progress.IndexField(progress.ModeSequential, 1)))
}
