package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/archiver"
	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdArchiveEntry(msg *tgbotapi.Message) error {
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeArchive, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgArchiveEntry)
	return nil
}

// cmdArchiveSubmode selects zip/extract/search and purges the upload
// workspace so every sub-mode starts clean.
func (b *Bot) cmdArchiveSubmode(msg *tgbotapi.Message, intent session.ArchiveIntent) error {
	userID := msg.From.ID

	if err := b.purgeArchiveDir(userID); err != nil {
		return err
	}
	ran, err := b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		a.Intent = intent
		a.Files = nil
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	switch intent {
	case session.IntentZip:
		b.sendResponse(msg.Chat.ID, "Kirim file-file yang ingin diarsipkan, lalu /kirim.")
	case session.IntentExtract:
		b.sendResponse(msg.Chat.ID, "Kirim satu file arsip (.zip/.rar), lalu /kirim.")
	case session.IntentSearch:
		b.sendResponse(msg.Chat.ID, "Kirim satu file arsip (.zip/.rar), lalu /cari <pola>.")
	}
	return nil
}

// handleArchiveDocument stores an uploaded document into the user's archive
// workspace according to the active sub-mode.
func (b *Bot) handleArchiveDocument(msg *tgbotapi.Message) error {
	userID := msg.From.ID
	doc := msg.Document

	var intent session.ArchiveIntent
	var uploaded int
	ran, err := b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		intent = a.Intent
		uploaded = len(a.Files)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if intent == session.IntentNone {
		b.sendResponse(msg.Chat.ID, "Pilih dulu /zip, /extract atau /search.")
		return nil
	}
	if intent != session.IntentZip {
		if !archiver.SupportedArchiveExt(doc.FileName) {
			b.sendResponse(msg.Chat.ID, "File harus berupa arsip .zip atau .rar.")
			return nil
		}
		if uploaded > 0 {
			b.sendResponse(msg.Chat.ID, "Sudah ada satu arsip. Kirim /extract atau /search lagi untuk mengulang.")
			return nil
		}
	}

	// user-supplied names cross the path-safety boundary here
	rel := filepath.Join(consts.DirArchiveFiles, doc.FileName)
	dest, err := b.resolver.ResolveWithinUser(userID, rel)
	if err != nil {
		logger.Warn("Rejected unsafe archive file name", map[string]interface{}{
			"user_id":   userID,
			"file_name": doc.FileName,
		})
		b.sendResponse(msg.Chat.ID, "Nama file tidak diizinkan.")
		return nil
	}

	if _, err := b.resolver.EnsureFeatureDir(userID, consts.DirArchiveFiles); err != nil {
		return err
	}

	ctx, cancel := opContext()
	defer cancel()
	if err := b.downloadFile(ctx, doc.FileID, dest); err != nil {
		return err
	}

	var count int
	ran, err = b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		a.Files = append(a.Files, dest)
		count = len(a.Files)
		s.Stats.FilesReceived++
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("File diterima (%d). %s", count, commitHint(intent)))
	return nil
}

func commitHint(intent session.ArchiveIntent) string {
	if intent == session.IntentSearch {
		return "Kirim /cari <pola> untuk mencari."
	}
	return "Kirim /kirim jika sudah selesai."
}

// cmdKirim commits the active sub-mode: build and send a zip, or extract
// the uploaded archive.
func (b *Bot) cmdKirim(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	var intent session.ArchiveIntent
	var files []string
	ran, err := b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		intent = a.Intent
		files = append([]string(nil), a.Files...)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if len(files) == 0 {
		b.sendResponse(msg.Chat.ID, "Belum ada file yang diunggah.")
		return nil
	}

	switch intent {
	case session.IntentZip:
		return b.commitZip(msg, files)
	case session.IntentExtract:
		return b.commitExtract(msg, files[0])
	case session.IntentSearch:
		b.sendResponse(msg.Chat.ID, "Mode search memakai /cari <pola>, bukan /kirim.")
		return nil
	default:
		b.sendResponse(msg.Chat.ID, "Pilih dulu /zip, /extract atau /search.")
		return nil
	}
}

func (b *Bot) commitZip(msg *tgbotapi.Message, files []string) error {
	userID := msg.From.ID

	dir, err := b.resolver.EnsureFeatureDir(userID, consts.DirArchiveFiles)
	if err != nil {
		return err
	}
	archivePath := filepath.Join(dir, fmt.Sprintf("arsip_%d.zip", time.Now().Unix()))

	ctx, cancel := opContext()
	defer cancel()
	if err := b.archiver.CreateArchive(ctx, archivePath, files); err != nil {
		return err
	}

	if err := b.sendDocument(msg.Chat.ID, archivePath); err != nil {
		return err
	}

	// originals and the produced archive are gone once delivered
	for _, f := range append(files, archivePath) {
		if err := os.Remove(f); err != nil {
			logger.Warn("Failed to remove archive workspace file", map[string]interface{}{
				"path":  f,
				"error": err.Error(),
			})
		}
	}

	_, err = b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		a.Files = nil
		s.Stats.ZipCount++
		s.Stats.FilesSent++
		return nil
	})
	return err
}

func (b *Bot) commitExtract(msg *tgbotapi.Message, archivePath string) error {
	userID := msg.From.ID

	destDir, err := b.resolver.EnsureFeatureDir(userID,
		filepath.Join(consts.DirArchiveFiles, fmt.Sprintf("extracted_%d", time.Now().Unix())))
	if err != nil {
		return err
	}

	ctx, cancel := opContext()
	defer cancel()
	extracted, err := b.archiver.ExtractArchive(ctx, archivePath, destDir)
	if err != nil {
		return err
	}

	_, err = b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		s.Archive().Files = nil
		s.Stats.ExtractCount++
		return nil
	})
	if err != nil {
		return err
	}

	var names []string
	for _, f := range extracted {
		names = append(names, filepath.Base(f))
	}
	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%d file diekstrak:\n%s", len(extracted), strings.Join(names, "\n")))
	return nil
}

// cmdCari searches the uploaded archive's entries, capped at 20 lines.
func (b *Bot) cmdCari(msg *tgbotapi.Message, pattern string) error {
	userID := msg.From.ID

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		b.sendResponse(msg.Chat.ID, "Pola pencarian tidak boleh kosong.")
		return nil
	}

	var intent session.ArchiveIntent
	var files []string
	ran, err := b.sessions.WithMode(userID, session.ModeArchive, func(s *session.Session) error {
		a := s.Archive()
		intent = a.Intent
		files = append([]string(nil), a.Files...)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if intent != session.IntentSearch {
		b.sendResponse(msg.Chat.ID, "Kirim /search dulu untuk mode pencarian.")
		return nil
	}
	if len(files) != 1 {
		b.sendResponse(msg.Chat.ID, "Unggah satu file arsip terlebih dahulu.")
		return nil
	}

	ctx, cancel := opContext()
	defer cancel()
	matches, err := b.archiver.ListMatching(ctx, files[0], pattern)
	if err != nil {
		return err
	}

	err = b.sessions.With(userID, func(s *session.Session) error {
		s.Stats.SearchCount++
		return nil
	})
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		b.sendResponse(msg.Chat.ID, fmt.Sprintf("Tidak ada entri yang cocok dengan %q.", pattern))
		return nil
	}

	shown := matches
	var suffix string
	if len(matches) > consts.SearchResultMaxLines {
		shown = matches[:consts.SearchResultMaxLines]
		suffix = fmt.Sprintf("\n+%d lainnya", len(matches)-consts.SearchResultMaxLines)
	}
	b.sendResponse(msg.Chat.ID, strings.Join(shown, "\n")+suffix)
	return nil
}

func (b *Bot) cmdArchiveStats(msg *tgbotapi.Message) error {
	var stats session.ArchiveStats
	err := b.sessions.With(msg.From.ID, func(s *session.Session) error {
		stats = s.Stats
		return nil
	})
	if err != nil {
		return err
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf(
		"Statistik arsip:\nzip: %d\nextract: %d\nsearch: %d\nfile diterima: %d\nfile dikirim: %d",
		stats.ZipCount, stats.ExtractCount, stats.SearchCount, stats.FilesReceived, stats.FilesSent))
	return nil
}

func (b *Bot) cmdArchiveHelp(msg *tgbotapi.Message) error {
	b.sendResponse(msg.Chat.ID, msgArchiveEntry)
	return nil
}

// purgeArchiveDir wipes the upload workspace, keeping the directory itself.
func (b *Bot) purgeArchiveDir(userID int64) error {
	dir, err := b.resolver.EnsureFeatureDir(userID, consts.DirArchiveFiles)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read archive workspace: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to purge archive workspace: %w", err)
		}
	}
	return nil
}
