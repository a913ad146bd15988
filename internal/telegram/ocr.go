package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdOcrEntry(msg *tgbotapi.Message) error {
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeOcr, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgOcrEntry)
	return nil
}

// handleOcrImage runs one image through the OCR service. The processing
// guard admits a single in-flight image per user; a second arrival is told
// to wait and dropped. The guard clear is deferred and mode-independent so
// neither a collaborator failure nor a mid-job mode switch can wedge the
// user.
func (b *Bot) handleOcrImage(msg *tgbotapi.Message, fileID, ext string) error {
	userID := msg.From.ID

	var busy bool
	ran, err := b.sessions.WithMode(userID, session.ModeOcr, func(s *session.Session) error {
		o := s.Ocr()
		if o.ProcessingImage {
			busy = true
			return nil
		}
		o.ProcessingImage = true
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	if busy {
		b.sendResponse(msg.Chat.ID, msgOcrBusy)
		return nil
	}

	defer func() {
		clearErr := b.sessions.With(userID, func(s *session.Session) error {
			s.ClearOcrGuard()
			return nil
		})
		if clearErr != nil {
			logger.Error("Failed to clear OCR processing guard", map[string]interface{}{
				"user_id": userID,
				"error":   clearErr.Error(),
			})
		}
	}()

	dir, err := b.resolver.EnsureFeatureDir(userID, consts.DirOcrFiles)
	if err != nil {
		return err
	}
	imagePath := filepath.Join(dir, fmt.Sprintf("ocr_%d%s", time.Now().UnixNano(), ext))

	ctx, cancel := opContext()
	defer cancel()
	if err := b.downloadFile(ctx, fileID, imagePath); err != nil {
		return err
	}

	text, err := b.ocr.ExtractText(ctx, imagePath)
	if err != nil {
		return err
	}

	err = b.sessions.With(userID, func(s *session.Session) error {
		s.RecordOcrResult(imagePath)
		return nil
	})
	if err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		b.sendResponse(msg.Chat.ID, msgOcrNoText)
		return nil
	}
	b.sendResponse(msg.Chat.ID, text)
	return nil
}

// cmdOcrClear wipes the user's stored OCR images.
func (b *Bot) cmdOcrClear(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	dir, err := b.resolver.EnsureFeatureDir(userID, consts.DirOcrFiles)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read ocr directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clear ocr directory: %w", err)
		}
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%d file OCR dihapus.", len(entries)))
	return nil
}

// imageDocumentExt returns the extension when the document is an image the
// OCR flow accepts, empty otherwise.
func imageDocumentExt(doc *tgbotapi.Document) string {
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	}
	return ""
}
