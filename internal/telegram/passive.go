package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/session"
)

// Passive handlers: photos, documents and shared locations carry no
// command, so they dispatch on the sender's current mode and silently
// ignore modes that have no use for them.

func (b *Bot) handlePhotoMessage(msg *tgbotapi.Message) error {
	switch b.sessions.Mode(msg.From.ID) {
	case session.ModeOcr:
		return b.handleOcrImage(msg, largestPhoto(msg.Photo).FileID, ".jpg")
	case session.ModeWorkbook:
		return b.handleWorkbookPhoto(msg)
	case session.ModeGeotags:
		return b.handleGeotagPhoto(msg)
	}

	logger.Debug("Ignoring photo outside photo-consuming modes", map[string]interface{}{
		"chat_id": msg.Chat.ID,
	})
	return nil
}

func (b *Bot) handleDocumentMessage(msg *tgbotapi.Message) error {
	switch b.sessions.Mode(msg.From.ID) {
	case session.ModeArchive:
		return b.handleArchiveDocument(msg)
	case session.ModeOcr:
		if ext := imageDocumentExt(msg.Document); ext != "" {
			return b.handleOcrImage(msg, msg.Document.FileID, ext)
		}
		b.sendResponse(msg.Chat.ID, "Mode OCR hanya menerima file gambar (jpg/png/webp).")
		return nil
	}

	logger.Debug("Ignoring document outside document-consuming modes", map[string]interface{}{
		"chat_id": msg.Chat.ID,
	})
	return nil
}

func (b *Bot) handleLocationMessage(msg *tgbotapi.Message) error {
	lat := msg.Location.Latitude
	lon := msg.Location.Longitude

	switch b.sessions.Mode(msg.From.ID) {
	case session.ModeLocation:
		return b.handleLocationPoint(msg, lat, lon)
	case session.ModeKml:
		return b.handleKmlLocation(msg, lat, lon)
	case session.ModeGeotags:
		return b.handleGeotagLocation(msg, lat, lon)
	}

	logger.Debug("Ignoring location outside location-consuming modes", map[string]interface{}{
		"chat_id": msg.Chat.ID,
	})
	return nil
}
