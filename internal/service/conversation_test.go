package service

import (
	"context"
	"testing"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPresence map[uuid.UUID]bool

func (p staticPresence) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	p[userID] = true
	return nil
}

func (p staticPresence) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	delete(p, userID)
	return nil
}

func (p staticPresence) OnlineAmong(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	var online []uuid.UUID
	for _, id := range userIDs {
		if p[id] {
			online = append(online, id)
		}
	}
	return online, nil
}

func TestCreatePrivateConversationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(repository.NewStore(f.db), staticPresence{})

	conv, created, err := svc.Create(ctx, f.alice.ID, CreateConversationInput{
		Type:           model.ConversationPrivate,
		ParticipantIDs: []uuid.UUID{f.carol.ID, f.alice.ID},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, conv.Participants, 2)

	again, created, err := svc.Create(ctx, f.carol.ID, CreateConversationInput{
		Type:           model.ConversationPrivate,
		ParticipantIDs: []uuid.UUID{f.alice.ID},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
}

func TestCreateConversationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(repository.NewStore(f.db), staticPresence{})

	cases := []struct {
		name string
		in   CreateConversationInput
		kind apperr.Kind
	}{
		{"private with self only", CreateConversationInput{Type: model.ConversationPrivate, ParticipantIDs: []uuid.UUID{f.alice.ID}}, apperr.KindBadRequest},
		{"private with two others", CreateConversationInput{Type: model.ConversationPrivate, ParticipantIDs: []uuid.UUID{f.bob.ID, f.carol.ID}}, apperr.KindBadRequest},
		{"group without name", CreateConversationInput{Type: model.ConversationGroup, ParticipantIDs: []uuid.UUID{f.bob.ID}}, apperr.KindBadRequest},
		{"group without others", CreateConversationInput{Type: model.ConversationGroup, Name: "solo"}, apperr.KindBadRequest},
		{"unknown type", CreateConversationInput{Type: "channel", ParticipantIDs: []uuid.UUID{f.bob.ID}}, apperr.KindBadRequest},
		{"unknown user", CreateConversationInput{Type: model.ConversationGroup, Name: "x", ParticipantIDs: []uuid.UUID{uuid.New()}}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Create(ctx, f.alice.ID, tc.in)
			assertKind(t, err, tc.kind)
		})
	}
}

func TestConversationListGetAndOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	presence := staticPresence{f.bob.ID: true, f.carol.ID: true}
	svc := NewConversationService(repository.NewStore(f.db), presence)

	list, err := svc.List(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, f.carol.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.group.ID, list[0].ID)

	_, err = svc.Get(ctx, f.carol.ID, f.private.ID)
	assertKind(t, err, apperr.KindNotFound)

	conv, err := svc.Get(ctx, f.alice.ID, f.private.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationPrivate, conv.Type)

	online, err := svc.Online(ctx, f.alice.ID, f.private.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.bob.ID}, online)

	_, err = svc.Online(ctx, f.carol.ID, f.private.ID)
	assertKind(t, err, apperr.KindNotFound)
}

func TestBlockService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBlockService(repository.NewBlockRepository(f.db), repository.NewUserRepository(f.db))

	assertKind(t, svc.Block(ctx, f.alice.ID, f.alice.ID), apperr.KindBadRequest)
	assertKind(t, svc.Block(ctx, f.alice.ID, uuid.New()), apperr.KindNotFound)

	require.NoError(t, svc.Block(ctx, f.alice.ID, f.bob.ID))
	assertKind(t, svc.Block(ctx, f.alice.ID, f.bob.ID), apperr.KindConflict)

	blocked, err := svc.IsBlocked(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	list, err := svc.ListBlocked(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.bob.ID, list[0].ID)

	require.NoError(t, svc.Unblock(ctx, f.alice.ID, f.bob.ID))
	assertKind(t, svc.Unblock(ctx, f.alice.ID, f.bob.ID), apperr.KindNotFound)
}
