package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/repository"
	"tush00nka/chato/internal/testutil/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "hash", IsActive: true}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func newPrivate(t *testing.T, db *gorm.DB, a, b uuid.UUID) *model.Conversation {
	t.Helper()
	conv := &model.Conversation{Type: model.ConversationPrivate}
	require.NoError(t, repository.NewConversationRepository(db).Create(context.Background(), conv, []uuid.UUID{a, b}))
	return conv
}

func TestConversationMembersAndPrivateLookup(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	carol := newUser(t, db, "carol@example.com")
	conv := newPrivate(t, db, alice.ID, bob.ID)

	repo := repository.NewConversationRepository(db)

	members, err := repo.Members(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationPrivate, members.Type)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, members.Participants)

	found, err := repo.FindPrivateBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)
	assert.Len(t, found.Participants, 2)
	for _, p := range found.Participants {
		assert.Empty(t, p.Password)
	}

	_, err = repo.FindPrivateBetween(ctx, alice.ID, carol.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Members(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMarkerHiddenAmongIsBatched(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	conv := newPrivate(t, db, alice.ID, bob.ID)

	messages := repository.NewMessageRepository(db)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		msg := &model.Message{ConversationID: conv.ID, SenderID: alice.ID, Body: "hi"}
		require.NoError(t, messages.Create(ctx, msg))
		ids = append(ids, msg.ID)
	}

	markers := repository.NewMarkerRepository(db)
	require.NoError(t, markers.Add(ctx, alice.ID, ids[0]))
	require.NoError(t, markers.Add(ctx, bob.ID, ids[0]))
	require.NoError(t, markers.Add(ctx, alice.ID, ids[2]))

	err := markers.Add(ctx, alice.ID, ids[0])
	assert.True(t, errors.Is(err, repository.ErrDuplicate), "got %v", err)

	hidden, err := markers.HiddenAmong(ctx, alice.ID, ids)
	require.NoError(t, err)
	assert.Len(t, hidden, 2)
	assert.Contains(t, hidden, ids[0])
	assert.Contains(t, hidden, ids[2])

	count, err := markers.CountAmong(ctx, ids[0], []uuid.UUID{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, markers.DeleteForMessage(ctx, ids[0]))
	count, err = markers.CountAmong(ctx, ids[0], []uuid.UUID{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMessageListFilters(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	conv := newPrivate(t, db, alice.ID, bob.ID)

	messages := repository.NewMessageRepository(db)
	old := &model.Message{ConversationID: conv.ID, SenderID: alice.ID, Body: "Hello there", CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	recent := &model.Message{ConversationID: conv.ID, SenderID: bob.ID, Body: "general KENOBI"}
	require.NoError(t, messages.Create(ctx, old))
	require.NoError(t, messages.Create(ctx, recent))

	all, err := messages.List(ctx, conv.ID, repository.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, recent.ID, all[0].ID, "newest first")

	found, err := messages.List(ctx, conv.ID, repository.MessageFilter{Search: "kenobi"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, recent.ID, found[0].ID)

	since := time.Now().UTC().Add(-time.Hour)
	found, err = messages.List(ctx, conv.ID, repository.MessageFilter{Since: &since})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, recent.ID, found[0].ID)
}

func TestMessageSearchTreatsWildcardsLiterally(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	conv := newPrivate(t, db, alice.ID, bob.ID)

	messages := repository.NewMessageRepository(db)
	bodies := map[string]*model.Message{}
	for _, body := range []string{"hello", "100% sure", "snake_case", `C:	emp`} {
		msg := &model.Message{ConversationID: conv.ID, SenderID: alice.ID, Body: body}
		require.NoError(t, messages.Create(ctx, msg))
		bodies[body] = msg
	}

	cases := []struct {
		search string
		want   []string
	}{
		{"%", []string{"100% sure"}},
		{"h_llo", nil},
		{"e_c", []string{"snake_case"}},
		{`\`, []string{`C:	emp`}},
		{`:\T`, []string{`C:	emp`}},
		{"HELLO", []string{"hello"}},
	}

	for _, tc := range cases {
		found, err := messages.List(ctx, conv.ID, repository.MessageFilter{Search: tc.search})
		require.NoError(t, err)
		require.Len(t, found, len(tc.want), "search %q", tc.search)
		for i, body := range tc.want {
			assert.Equal(t, bodies[body].ID, found[i].ID, "search %q", tc.search)
		}
	}
}

func TestAttachmentDetachAndSweepQuery(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	conv := newPrivate(t, db, alice.ID, bob.ID)

	msg := &model.Message{ConversationID: conv.ID, SenderID: alice.ID}
	require.NoError(t, repository.NewMessageRepository(db).Create(ctx, msg))

	attachments := repository.NewAttachmentRepository(db)
	require.NoError(t, attachments.Create(ctx, []model.Attachment{
		{MessageID: &msg.ID, FileURL: "/uploads/a.png", StorageKey: "a.png"},
		{MessageID: &msg.ID, FileURL: "/uploads/b.png", StorageKey: "b.png"},
	}))

	detachedAt := time.Now().UTC().Add(-2 * time.Hour)
	n, err := attachments.DetachAll(ctx, msg.ID, detachedAt)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := attachments.ListByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	stale, err := attachments.ListDetachedBefore(ctx, time.Now().UTC().Add(-time.Hour), nil, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	rest, err := attachments.ListDetachedBefore(ctx, time.Now().UTC().Add(-time.Hour), []uuid.UUID{stale[0].ID}, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, stale[1].ID, rest[0].ID)

	fresh, err := attachments.ListDetachedBefore(ctx, time.Now().UTC().Add(-3*time.Hour), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestScopeRollsBackOnError(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	store := repository.NewStore(db)

	run := func() (err error) {
		scope, err := store.Begin(ctx)
		if err != nil {
			return err
		}
		defer scope.Release(&err)

		if err := scope.Users().Create(ctx, &model.User{Email: "ghost@example.com", Password: "x"}); err != nil {
			return err
		}
		return errors.New("abort")
	}

	require.EqualError(t, run(), "abort")

	exists, err := repository.NewUserRepository(db).EmailExists(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScopeRollsBackOnPanic(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	store := repository.NewStore(db)

	assert.Panics(t, func() {
		var err error
		scope, err := store.Begin(ctx)
		require.NoError(t, err)
		defer scope.Release(&err)

		require.NoError(t, scope.Users().Create(ctx, &model.User{Email: "panic@example.com", Password: "x"}))
		panic("boom")
	})

	exists, err := repository.NewUserRepository(db).EmailExists(ctx, "panic@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserSearchAndBlocks(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")

	users := repository.NewUserRepository(db)
	found, err := users.Search(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)
	assert.Empty(t, found[0].Password)

	found, err = users.Search(ctx, "_", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	blocks := repository.NewBlockRepository(db)
	require.NoError(t, blocks.Create(ctx, bob.ID, alice.ID))
	assert.ErrorIs(t, blocks.Create(ctx, bob.ID, alice.ID), repository.ErrDuplicate)

	blocked, err := blocks.IsBlocked(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = blocks.IsBlocked(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked, "blocking is directional")

	list, err := blocks.ListBlocked(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].ID)

	removed, err := blocks.Delete(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = blocks.Delete(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
