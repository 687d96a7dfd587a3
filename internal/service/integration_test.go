//go:build integration

package service

import (
	"context"
	"sync"
	"testing"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/repository"
	"tush00nka/chato/internal/testutil/testpg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// На postgres удаления действительно идут параллельно и сериализуются блокировкой строки
func TestConcurrentDeletesPurgeOncePostgres(t *testing.T) {
	f := newFixtureOn(t, testpg.Open(t))
	ctx := context.Background()

	for range 20 {
		msg := f.send(t, f.alice, f.private, "race", "img")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, user := range []*model.User{f.alice, f.bob} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = f.svc.Delete(ctx, user.ID, f.private.ID, msg.ID)
			}()
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.Zero(t, f.count(t, &model.Message{}, "id = ?", msg.ID))
		assert.Zero(t, f.count(t, &model.DeletedMessage{}, "message_id = ?", msg.ID))
	}
	assert.Zero(t, f.media.storedCount())
}

func TestEditAndListPostgres(t *testing.T) {
	f := newFixtureOn(t, testpg.Open(t))
	ctx := context.Background()

	msg := f.send(t, f.alice, f.group, "Hello Team", "img")
	_, err := f.svc.Edit(ctx, f.alice.ID, f.group.ID, msg.ID, EditMessageInput{Body: "hello again"})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.carol.ID, f.group.ID, repository.MessageFilter{Search: "AGAIN"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello again", list[0].Body)
}
