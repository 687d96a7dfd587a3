package service

import (
	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
)

// FilterVisible оставляет сообщения, которые пользователь не скрыл.
// hidden получают одним запросом MarkerRepository.HiddenAmong.
func FilterVisible(messages []model.Message, hidden map[uuid.UUID]struct{}) []model.Message {
	if len(hidden) == 0 {
		return messages
	}

	visible := make([]model.Message, 0, len(messages))
	for _, msg := range messages {
		if _, ok := hidden[msg.ID]; !ok {
			visible = append(visible, msg)
		}
	}
	return visible
}

func messageIDs(messages []model.Message) []uuid.UUID {
	ids := make([]uuid.UUID, len(messages))
	for i, msg := range messages {
		ids[i] = msg.ID
	}
	return ids
}
