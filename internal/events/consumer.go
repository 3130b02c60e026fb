package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/resonman/ai-102-prep/internal/store"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, e *Event) error

// Consume subscribes to topic and feeds every decoded event to h. Messages
// are acked even when h fails; the failure is logged. The returned channel
// closes once the subscription ends.
func Consume(ctx context.Context, sub message.Subscriber, topic string, h Handler, logger *slog.Logger) (<-chan struct{}, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				logger.Warn("dropping undecodable study event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := h(msg.Context(), &e); err != nil {
				logger.Error("study event handler failed", "event_id", e.ID, "event_type", e.Type, "error", err)
			}
			msg.Ack()
		}
	}()
	return done, nil
}

// Recorder writes study events into the history tables.
type Recorder struct {
	repo store.EventRepo
}

// NewRecorder returns a Recorder appending to repo.
func NewRecorder(repo store.EventRepo) *Recorder {
	return &Recorder{repo: repo}
}

// Handle appends e. Unknown event types are ignored.
func (r *Recorder) Handle(ctx context.Context, e *Event) error {
	switch e.Type {
	case TypeAnswerRecorded:
		if e.Answer == nil {
			return fmt.Errorf("%s event %s has no answer payload", e.Type, e.ID)
		}
		sel, err := json.Marshal(e.Answer.Selection)
		if err != nil {
			return fmt.Errorf("encode selection: %w", err)
		}
		return r.repo.AppendAnswerEvent(ctx, store.AnswerEventData{
			Timestamp:    e.Timestamp,
			SessionID:    e.SessionID,
			LearnerID:    e.LearnerID,
			Mode:         e.Mode,
			QuestionID:   e.Answer.QuestionID,
			QuestionType: e.Answer.QuestionType,
			Topic:        e.Answer.Topic,
			Correct:      e.Answer.Correct,
			Selection:    string(sel),
		})
	case TypeSessionStarted, TypeSessionFinished:
		data := store.SessionEventData{
			Timestamp: e.Timestamp,
			SessionID: e.SessionID,
			LearnerID: e.LearnerID,
			Mode:      e.Mode,
			Action:    store.ActionStarted,
		}
		if e.Type == TypeSessionFinished {
			data.Action = store.ActionFinished
		}
		if e.Session != nil {
			data.QuestionsServed = e.Session.QuestionsServed
			data.CorrectAnswers = e.Session.CorrectAnswers
		}
		return r.repo.AppendSessionEvent(ctx, data)
	default:
		return nil
	}
}
