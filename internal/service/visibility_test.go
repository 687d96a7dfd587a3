package service

import (
	"testing"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFilterVisible(t *testing.T) {
	a := model.Message{ID: uuid.New(), Body: "a"}
	b := model.Message{ID: uuid.New(), Body: "b"}
	c := model.Message{ID: uuid.New(), Body: "c"}
	messages := []model.Message{a, b, c}

	t.Run("nothing hidden", func(t *testing.T) {
		assert.Equal(t, messages, FilterVisible(messages, nil))
	})

	t.Run("hidden removed and order kept", func(t *testing.T) {
		got := FilterVisible(messages, map[uuid.UUID]struct{}{b.ID: {}})
		assert.Equal(t, []model.Message{a, c}, got)
	})

	t.Run("everything hidden", func(t *testing.T) {
		hidden := map[uuid.UUID]struct{}{a.ID: {}, b.ID: {}, c.ID: {}}
		assert.Empty(t, FilterVisible(messages, hidden))
	})

	t.Run("unrelated ids ignored", func(t *testing.T) {
		got := FilterVisible(messages, map[uuid.UUID]struct{}{uuid.New(): {}})
		assert.Len(t, got, 3)
	})
}
