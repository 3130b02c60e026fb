package session

import (
	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

// Progress is the part of progress.Store controllers use.
type Progress interface {
	LearnerID() string
	Index(mode progress.Mode) int
	RecordIndex(mode progress.Mode, index int)
	RecordAnswer(id string, sel question.Selection)
	RecordMistake(id string) int
	RemoveMistake(id string)
	ToggleFavorite(id string) bool
	IsFavorite(id string) bool
	MistakeIDs() progress.IDSet
	FavoriteIDs() progress.IDSet
}

var _ Progress = (*progress.Store)(nil)
