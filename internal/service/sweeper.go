package service

import (
	"context"
	"fmt"
	"time"

	"tush00nka/chato/internal/metrics"
	"tush00nka/chato/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const sweepBatch = 100

// AttachmentSweeper удаляет открепленные при редактировании вложения
// после истечения grace периода
type AttachmentSweeper struct {
	attachments repository.AttachmentRepository
	media       MediaProcessor
	grace       time.Duration
	batch       int
	now         func() time.Time
}

func NewAttachmentSweeper(attachments repository.AttachmentRepository, processor MediaProcessor, grace time.Duration) *AttachmentSweeper {
	return &AttachmentSweeper{
		attachments: attachments,
		media:       processor,
		grace:       grace,
		batch:       sweepBatch,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SweepOnce возвращает число удаленных вложений.
// Записи, файлы которых удалить не удалось, остаются до следующего запуска
// и в текущем запуске больше не выбираются.
func (s *AttachmentSweeper) SweepOnce(ctx context.Context) (int, error) {
	before := s.now().Add(-s.grace)
	total := 0
	var failed []uuid.UUID

	for {
		batch, err := s.attachments.ListDetachedBefore(ctx, before, failed, s.batch)
		if err != nil {
			return total, fmt.Errorf("list detached attachments: %w", err)
		}
		if len(batch) == 0 {
			return total, nil
		}

		removed := make([]uuid.UUID, 0, len(batch))
		for _, attachment := range batch {
			if err := s.media.Discard(ctx, attachment.StorageKey); err != nil {
				log.Warn("failed to remove detached attachment file", "key", attachment.StorageKey, "err", err)
				failed = append(failed, attachment.ID)
				continue
			}
			removed = append(removed, attachment.ID)
		}

		if err := s.attachments.Delete(ctx, removed); err != nil {
			return total, fmt.Errorf("delete detached attachments: %w", err)
		}

		total += len(removed)
		metrics.AttachmentsSwept.Add(float64(len(removed)))

		if len(batch) < s.batch {
			return total, nil
		}
	}
}
