package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tush00nka/chato/internal/media"
	"tush00nka/chato/internal/metrics"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	msgNoMessage      = "There is no message with such id"
	msgNoMessages     = "There are no messages"
	msgNotYours       = "This message is not yours"
	msgBlocked        = "You were blocked by selected user"
	msgNoReplyTarget  = "There is no message to reply with such id"
	msgEmptyMessage   = "Message must contain text or at least one attachment"
	msgCannotEdit     = "There is no such message that you can edit"
	msgCannotDelete   = "There is no such message that you can delete"
	msgCannotUnsend   = "There is no such message that you can unsend"
	msgNoReactTarget  = "There is no such message to react to"
	msgEmptyReaction  = "Reaction must not be empty"
	msgReadOwnMessage = "You cannot mark your own message as read"
)

// Upload сырой файл из запроса
type Upload struct {
	Filename string
	Data     []byte
}

type CreateMessageInput struct {
	Body             string
	RepliedMessageID *uuid.UUID
	Files            []Upload
}

type EditMessageInput struct {
	Body  string
	Files []Upload
}

type ReactionOutcome int

const (
	ReactionCreated ReactionOutcome = iota + 1
	ReactionUpdated
	ReactionRemoved
)

type MessageOptions struct {
	MediaSize      media.Size
	MediaFormat    media.Format
	MaxAttachments int
}

// messageService реализация MessageService.
// Каждая операция выполняется в одной транзакции repository.Scope,
// уведомления и удаление файлов происходят после фиксации.
type messageService struct {
	store    *repository.Store
	media    MediaProcessor
	notifier Notifier
	opts     MessageOptions
	now      func() time.Time
}

// NewMessageService создает новый экземпляр MessageService
func NewMessageService(store *repository.Store, processor MediaProcessor, notifier Notifier, opts MessageOptions) MessageService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opts.MaxAttachments <= 0 {
		opts.MaxAttachments = 5
	}
	return &messageService{
		store:    store,
		media:    processor,
		notifier: notifier,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// canReact сейчас реакции разрешены только автору сообщения
func canReact(msg *model.Message, actorID uuid.UUID) bool {
	return msg.SenderID == actorID
}

// List возвращает видимые пользователю сообщения беседы, новые первыми
func (s *messageService) List(ctx context.Context, actorID, conversationID uuid.UUID, filter repository.MessageFilter) (messages []model.Message, err error) {
	defer s.record("list", &err)

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Release(&err)

	if _, err := NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	found, err := scope.Messages().List(ctx, conversationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	hidden, err := scope.Markers().HiddenAmong(ctx, actorID, messageIDs(found))
	if err != nil {
		return nil, fmt.Errorf("load deleted markers: %w", err)
	}

	messages = FilterVisible(found, hidden)
	if len(messages) == 0 {
		return nil, apperr.NotFound(msgNoMessages)
	}
	return messages, nil
}

// Get возвращает одно сообщение
func (s *messageService) Get(ctx context.Context, actorID, conversationID, messageID uuid.UUID) (msg *model.Message, err error) {
	defer s.record("get", &err)

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Release(&err)

	msg, err = scope.Messages().Find(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgNoMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}

	members, err := NewGate(scope.Conversations()).Resolve(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !members.Has(actorID) {
		return nil, apperr.Forbidden(msgNotYours)
	}

	hidden, err := scope.Markers().Exists(ctx, actorID, messageID)
	if err != nil {
		return nil, fmt.Errorf("check deleted marker: %w", err)
	}
	if hidden {
		return nil, apperr.NotFound(msgNoMessage)
	}

	return msg, nil
}

// Create отправляет сообщение. Ошибка обработки любого вложения откатывает все.
func (s *messageService) Create(ctx context.Context, actorID, conversationID uuid.UUID, in CreateMessageInput) (*model.Message, error) {
	msg, members, err := s.create(ctx, actorID, conversationID, in)
	s.record("create", &err)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(members.Participants, model.MessageEvent{
		Type:           model.EventMessageCreated,
		ConversationID: conversationID,
		MessageID:      msg.ID,
		ActorID:        actorID,
		Message:        msg,
	})
	return msg, nil
}

func (s *messageService) create(ctx context.Context, actorID, conversationID uuid.UUID, in CreateMessageInput) (msg *model.Message, members model.Members, err error) {
	if err := s.validateContent(in.Body, in.Files); err != nil {
		return nil, members, err
	}

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, members, err
	}

	var stored []media.Stored
	defer func() {
		if err != nil {
			s.discard(ctx, stored)
		}
	}()
	defer scope.Release(&err)

	members, err = NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return nil, members, err
	}

	blocked, err := senderBlocked(ctx, scope.Blocks(), members, actorID)
	if err != nil {
		return nil, members, fmt.Errorf("check block list: %w", err)
	}
	if blocked {
		return nil, members, apperr.BadRequest(msgBlocked)
	}

	if in.RepliedMessageID != nil {
		if err := checkReplyTarget(ctx, scope, conversationID, actorID, *in.RepliedMessageID); err != nil {
			return nil, members, err
		}
	}

	msg = &model.Message{
		ConversationID:   conversationID,
		SenderID:         actorID,
		Body:             in.Body,
		RepliedMessageID: in.RepliedMessageID,
	}
	if err := scope.Messages().Create(ctx, msg); err != nil {
		return nil, members, fmt.Errorf("create message: %w", err)
	}

	stored, err = s.processFiles(ctx, in.Files)
	if err != nil {
		return nil, members, err
	}

	msg.Attachments, err = attach(ctx, scope, msg.ID, stored)
	if err != nil {
		return nil, members, err
	}

	if err := scope.Conversations().Touch(ctx, conversationID); err != nil {
		return nil, members, fmt.Errorf("touch conversation: %w", err)
	}

	return msg, members, nil
}

// checkReplyTarget цель ответа должна существовать в той же беседе и быть видима автору
func checkReplyTarget(ctx context.Context, scope *repository.Scope, conversationID, actorID, targetID uuid.UUID) error {
	_, err := scope.Messages().FindForUpdate(ctx, conversationID, targetID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.BadRequest(msgNoReplyTarget)
	}
	if err != nil {
		return fmt.Errorf("find reply target: %w", err)
	}

	hidden, err := scope.Markers().Exists(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("check deleted marker: %w", err)
	}
	if hidden {
		return apperr.BadRequest(msgNoReplyTarget)
	}
	return nil
}

// Edit заменяет текст и полностью заменяет набор вложений
func (s *messageService) Edit(ctx context.Context, actorID, conversationID, messageID uuid.UUID, in EditMessageInput) (*model.Message, error) {
	msg, members, err := s.edit(ctx, actorID, conversationID, messageID, in)
	s.record("edit", &err)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(members.Participants, model.MessageEvent{
		Type:           model.EventMessageEdited,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
		Message:        msg,
	})
	return msg, nil
}

func (s *messageService) edit(ctx context.Context, actorID, conversationID, messageID uuid.UUID, in EditMessageInput) (msg *model.Message, members model.Members, err error) {
	if err := s.validateContent(in.Body, in.Files); err != nil {
		return nil, members, err
	}

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, members, err
	}

	var stored []media.Stored
	defer func() {
		if err != nil {
			s.discard(ctx, stored)
		}
	}()
	defer scope.Release(&err)

	members, err = NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return nil, members, err
	}

	msg, err = scope.Messages().FindForUpdate(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && msg.SenderID != actorID) {
		return nil, members, apperr.NotFound(msgCannotEdit)
	}
	if err != nil {
		return nil, members, fmt.Errorf("lock message: %w", err)
	}

	hidden, err := scope.Markers().Exists(ctx, actorID, messageID)
	if err != nil {
		return nil, members, fmt.Errorf("check deleted marker: %w", err)
	}
	if hidden {
		return nil, members, apperr.NotFound(msgNoMessage)
	}

	if err := scope.Messages().UpdateBody(ctx, messageID, in.Body); err != nil {
		return nil, members, fmt.Errorf("update message: %w", err)
	}

	if _, err := scope.Attachments().DetachAll(ctx, messageID, s.now()); err != nil {
		return nil, members, fmt.Errorf("detach attachments: %w", err)
	}

	stored, err = s.processFiles(ctx, in.Files)
	if err != nil {
		return nil, members, err
	}

	if _, err := attach(ctx, scope, messageID, stored); err != nil {
		return nil, members, err
	}

	msg, err = scope.Messages().Find(ctx, conversationID, messageID)
	if err != nil {
		return nil, members, fmt.Errorf("reload message: %w", err)
	}
	return msg, members, nil
}

// Delete скрывает сообщение для пользователя. Когда сообщение скрыли все участники,
// оно удаляется физически вместе с маркерами и вложениями в той же транзакции.
func (s *messageService) Delete(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error {
	purged, removed, err := s.delete(ctx, actorID, conversationID, messageID)
	s.record("delete", &err)
	if err != nil {
		return err
	}

	if purged {
		metrics.MessagesPurged.Inc()
		log.Info("message purged", "message_id", messageID, "attachments", len(removed))
		s.removeFiles(ctx, removed)
	}

	s.notifier.Notify([]uuid.UUID{actorID}, model.MessageEvent{
		Type:           model.EventMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
	})
	return nil
}

func (s *messageService) delete(ctx context.Context, actorID, conversationID, messageID uuid.UUID) (purged bool, removed []model.Attachment, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return false, nil, err
	}
	defer scope.Release(&err)

	members, err := NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return false, nil, err
	}

	// Блокировка строки сериализует конкурентные удаления одного сообщения,
	// поэтому пересчет маркеров ниже точен
	_, err = scope.Messages().FindForUpdate(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil, apperr.NotFound(msgCannotDelete)
	}
	if err != nil {
		return false, nil, fmt.Errorf("lock message: %w", err)
	}

	hidden, err := scope.Markers().Exists(ctx, actorID, messageID)
	if err != nil {
		return false, nil, fmt.Errorf("check deleted marker: %w", err)
	}
	if hidden {
		return false, nil, apperr.NotFound(msgNoMessage)
	}

	err = scope.Markers().Add(ctx, actorID, messageID)
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil, apperr.NotFound(msgNoMessage)
	}
	if err != nil {
		return false, nil, fmt.Errorf("add deleted marker: %w", err)
	}

	count, err := scope.Markers().CountAmong(ctx, messageID, members.Participants)
	if err != nil {
		return false, nil, fmt.Errorf("count deleted markers: %w", err)
	}
	if count < int64(len(members.Participants)) {
		return false, nil, nil
	}

	removed, err = destroy(ctx, scope, messageID)
	if err != nil {
		return false, nil, err
	}
	return true, removed, nil
}

// Unsend удаляет непрочитанное сообщение у всех
func (s *messageService) Unsend(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error {
	members, removed, err := s.unsend(ctx, actorID, conversationID, messageID)
	s.record("unsend", &err)
	if err != nil {
		return err
	}

	s.removeFiles(ctx, removed)
	s.notifier.Notify(members.Participants, model.MessageEvent{
		Type:           model.EventMessageUnsent,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
	})
	return nil
}

func (s *messageService) unsend(ctx context.Context, actorID, conversationID, messageID uuid.UUID) (members model.Members, removed []model.Attachment, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return members, nil, err
	}
	defer scope.Release(&err)

	members, err = NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return members, nil, err
	}

	msg, err := scope.Messages().FindForUpdate(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return members, nil, apperr.NotFound(msgCannotUnsend)
	}
	if err != nil {
		return members, nil, fmt.Errorf("lock message: %w", err)
	}
	if msg.SenderID != actorID || msg.IsRead {
		return members, nil, apperr.NotFound(msgCannotUnsend)
	}

	removed, err = destroy(ctx, scope, messageID)
	return members, removed, err
}

// React ставит, меняет или снимает реакцию пользователя
func (s *messageService) React(ctx context.Context, actorID, conversationID, messageID uuid.UUID, reaction string) (ReactionOutcome, error) {
	reaction = strings.TrimSpace(reaction)
	outcome, members, err := s.react(ctx, actorID, conversationID, messageID, reaction)
	s.record("react", &err)
	if err != nil {
		return 0, err
	}

	event := model.MessageEvent{
		Type:           model.EventMessageReacted,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
	}
	if outcome != ReactionRemoved {
		event.Reaction = reaction
	}
	s.notifier.Notify(members.Participants, event)
	return outcome, nil
}

func (s *messageService) react(ctx context.Context, actorID, conversationID, messageID uuid.UUID, reaction string) (outcome ReactionOutcome, members model.Members, err error) {
	if reaction == "" {
		return 0, members, apperr.BadRequest(msgEmptyReaction)
	}

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return 0, members, err
	}
	defer scope.Release(&err)

	members, err = NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return 0, members, err
	}

	msg, err := scope.Messages().FindForUpdate(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !canReact(msg, actorID)) {
		return 0, members, apperr.NotFound(msgNoReactTarget)
	}
	if err != nil {
		return 0, members, fmt.Errorf("lock message: %w", err)
	}

	reactions := scope.Reactions()
	existing, err := reactions.Find(ctx, actorID, messageID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = reactions.Create(ctx, &model.MessageReaction{UserID: actorID, MessageID: messageID, Reaction: reaction})
		outcome = ReactionCreated
	case err != nil:
		return 0, members, fmt.Errorf("find reaction: %w", err)
	case existing.Reaction == reaction:
		err = reactions.Delete(ctx, actorID, messageID)
		outcome = ReactionRemoved
	default:
		err = reactions.UpdateValue(ctx, actorID, messageID, reaction)
		outcome = ReactionUpdated
	}
	if err != nil {
		return 0, members, fmt.Errorf("save reaction: %w", err)
	}
	return outcome, members, nil
}

// MarkRead отмечает чужое сообщение прочитанным, после этого его нельзя отозвать
func (s *messageService) MarkRead(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error {
	changed, members, err := s.markRead(ctx, actorID, conversationID, messageID)
	s.record("read", &err)
	if err != nil || !changed {
		return err
	}

	s.notifier.Notify(members.Participants, model.MessageEvent{
		Type:           model.EventMessageRead,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
	})
	return nil
}

func (s *messageService) markRead(ctx context.Context, actorID, conversationID, messageID uuid.UUID) (changed bool, members model.Members, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return false, members, err
	}
	defer scope.Release(&err)

	members, err = NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
	if err != nil {
		return false, members, err
	}

	msg, err := scope.Messages().FindForUpdate(ctx, conversationID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, members, apperr.NotFound(msgNoMessage)
	}
	if err != nil {
		return false, members, fmt.Errorf("lock message: %w", err)
	}

	hidden, err := scope.Markers().Exists(ctx, actorID, messageID)
	if err != nil {
		return false, members, fmt.Errorf("check deleted marker: %w", err)
	}
	if hidden {
		return false, members, apperr.NotFound(msgNoMessage)
	}

	if msg.SenderID == actorID {
		return false, members, apperr.BadRequest(msgReadOwnMessage)
	}
	if msg.IsRead {
		return false, members, nil
	}

	if err := scope.Messages().MarkRead(ctx, messageID); err != nil {
		return false, members, fmt.Errorf("mark read: %w", err)
	}
	return true, members, nil
}

// destroy физически удаляет сообщение и все зависимые записи.
// Возвращает удаленные вложения: их файлы удаляются после фиксации.
func destroy(ctx context.Context, scope *repository.Scope, messageID uuid.UUID) ([]model.Attachment, error) {
	if err := scope.Markers().DeleteForMessage(ctx, messageID); err != nil {
		return nil, fmt.Errorf("delete markers: %w", err)
	}

	if err := scope.Reactions().DeleteForMessage(ctx, messageID); err != nil {
		return nil, fmt.Errorf("delete reactions: %w", err)
	}

	removed, err := scope.Attachments().DeleteByMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("delete attachments: %w", err)
	}

	if err := scope.Messages().ClearReplies(ctx, messageID); err != nil {
		return nil, fmt.Errorf("clear replies: %w", err)
	}

	if err := scope.Messages().Delete(ctx, messageID); err != nil {
		return nil, fmt.Errorf("delete message: %w", err)
	}
	return removed, nil
}

func attach(ctx context.Context, scope *repository.Scope, messageID uuid.UUID, stored []media.Stored) ([]model.Attachment, error) {
	attachments := make([]model.Attachment, len(stored))
	for i, file := range stored {
		owner := messageID
		attachments[i] = model.Attachment{MessageID: &owner, FileURL: file.URL, StorageKey: file.Key}
	}

	if err := scope.Attachments().Create(ctx, attachments); err != nil {
		return nil, fmt.Errorf("create attachments: %w", err)
	}
	return attachments, nil
}

func (s *messageService) validateContent(body string, files []Upload) error {
	if strings.TrimSpace(body) == "" && len(files) == 0 {
		return apperr.BadRequest(msgEmptyMessage)
	}
	if len(files) > s.opts.MaxAttachments {
		return apperr.BadRequest(fmt.Sprintf("A message can have at most %d attachments", s.opts.MaxAttachments))
	}
	return nil
}

// processFiles обрабатывает вложения параллельно.
// При ошибке уже сохраненные файлы удаляются.
func (s *messageService) processFiles(ctx context.Context, files []Upload) ([]media.Stored, error) {
	if len(files) == 0 {
		return nil, nil
	}

	stored := make([]media.Stored, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			res, err := s.media.Process(gctx, file.Data, s.opts.MediaSize, s.opts.MediaFormat)
			if errors.Is(err, media.ErrUnsupportedImage) {
				return apperr.BadRequest(fmt.Sprintf("File %q is not a supported image", file.Filename))
			}
			if err != nil {
				return fmt.Errorf("process attachment %s: %w", file.Filename, err)
			}
			stored[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.discard(ctx, stored)
		return nil, err
	}
	return stored, nil
}

func (s *messageService) discard(ctx context.Context, stored []media.Stored) {
	ctx = context.WithoutCancel(ctx)
	for _, file := range stored {
		if file.Key == "" {
			continue
		}
		if err := s.media.Discard(ctx, file.Key); err != nil {
			log.Warn("failed to discard attachment file", "key", file.Key, "err", err)
		}
	}
}

func (s *messageService) removeFiles(ctx context.Context, attachments []model.Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, attachment := range attachments {
		if err := s.media.Discard(ctx, attachment.StorageKey); err != nil {
			log.Warn("failed to remove attachment file", "key", attachment.StorageKey, "err", err)
		}
	}
}

func (s *messageService) record(operation string, errp *error) {
	metrics.MessageOperations.WithLabelValues(operation, outcomeLabel(*errp)).Inc()
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindBadRequest:
		return "bad_request"
	default:
		return "error"
	}
}
