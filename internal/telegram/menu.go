package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdStart(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	if _, err := b.resolver.EnsureUserRoot(userID); err != nil {
		return err
	}
	if err := b.sessions.EnterMode(userID, session.ModeNone, time.Now()); err != nil {
		return err
	}

	logger.Info("User started the bot", map[string]interface{}{
		"user_id": userID,
	})
	b.sendResponse(msg.Chat.ID, msgStart)
	return nil
}

// cmdMenu lists the entry commands the user actually has access to.
func (b *Bot) cmdMenu(msg *tgbotapi.Message) error {
	userID := msg.From.ID
	if err := b.sessions.EnterMode(userID, session.ModeMenu, time.Now()); err != nil {
		return err
	}

	entries := []struct {
		capability string
		line       string
	}{
		{consts.CapLocation, "/lokasi - alamat, koordinat dan ukur jarak"},
		{consts.CapArchive, "/rar - arsip file (zip/extract/search)"},
		{consts.CapWorkbook, "/workbook - kumpulkan foto ke dokumen excel"},
		{consts.CapOcr, "/ocr - baca teks dari gambar"},
		{consts.CapKml, "/kml - rekam titik dan garis ke dokumen KML"},
		{consts.CapGeotags, "/geotags - tempel geotag pada foto"},
	}

	var lines []string
	for _, e := range entries {
		if b.access.Has(userID, e.capability) {
			lines = append(lines, e.line)
		}
	}
	if len(lines) == 0 {
		b.sendResponse(msg.Chat.ID, "Tidak ada fitur yang diaktifkan untuk akun Anda.")
		return nil
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Pilih fitur:\n%s", strings.Join(lines, "\n")))
	return nil
}
