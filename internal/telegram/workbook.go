package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/session"
	"github.com/telebox/telebox/internal/workbook"
)

func (b *Bot) cmdWorkbookEntry(msg *tgbotapi.Message) error {
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeWorkbook, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgWorkbookEntry)
	return nil
}

// handleWorkbookText interprets bare text in workbook mode. The reserved
// words always win over sheet-name interpretation.
func (b *Bot) handleWorkbookText(msg *tgbotapi.Message) error {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case "send":
		return b.workbookSend(msg)
	case "cek":
		return b.workbookList(msg)
	case "clear":
		return b.workbookClear(msg)
	}
	return b.workbookSelectSheet(msg, strings.TrimSpace(msg.Text))
}

// workbookSelectSheet creates/selects the named sheet directory and resets
// its image counter. The name is used verbatim; only filesystem safety is
// enforced.
func (b *Bot) workbookSelectSheet(msg *tgbotapi.Message, name string) error {
	userID := msg.From.ID
	if name == "" {
		return nil
	}

	rel := filepath.Join(consts.DirWorkbookMedia, name)
	if _, err := b.resolver.ResolveWithinUser(userID, rel); err != nil {
		b.sendResponse(msg.Chat.ID, "Nama sheet tidak diizinkan.")
		return nil
	}
	dir, err := b.resolver.EnsureFeatureDir(userID, rel)
	if err != nil {
		return err
	}

	ran, err := b.sessions.WithMode(userID, session.ModeWorkbook, func(s *session.Session) error {
		w := s.Workbook()
		w.ActiveSheet = dir
		w.SheetImageCount = 0
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Sheet %q dipilih. Kirim foto-foto untuk sheet ini.", name))
	return nil
}

// handleWorkbookPhoto stores a photo into the active sheet.
func (b *Bot) handleWorkbookPhoto(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	var sheet string
	ran, err := b.sessions.WithMode(userID, session.ModeWorkbook, func(s *session.Session) error {
		sheet = s.Workbook().ActiveSheet
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	if sheet == "" {
		b.sendResponse(msg.Chat.ID, "Pilih sheet dulu: kirim namanya sebagai teks.")
		return nil
	}

	photo := largestPhoto(msg.Photo)
	dest := filepath.Join(sheet, fmt.Sprintf("foto_%d.jpg", time.Now().UnixNano()))

	ctx, cancel := opContext()
	defer cancel()
	if err := b.downloadFile(ctx, photo.FileID, dest); err != nil {
		return err
	}

	var count int
	ran, err = b.sessions.WithMode(userID, session.ModeWorkbook, func(s *session.Session) error {
		w := s.Workbook()
		w.SheetImageCount++
		w.TotalDownloaded++
		count = w.SheetImageCount
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Foto %d tersimpan di sheet %q.", count, filepath.Base(sheet)))
	return nil
}

// workbookSend collates every sheet into one xlsx. The size ceiling is
// checked after generation and an oversized file is left on disk so the
// user can prune and retry.
func (b *Bot) workbookSend(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	mediaRoot, err := b.resolver.EnsureFeatureDir(userID, consts.DirWorkbookMedia)
	if err != nil {
		return err
	}
	if !hasSheetDirs(mediaRoot) {
		b.sendResponse(msg.Chat.ID, "Belum ada sheet. Kirim nama sheet lalu foto-fotonya dulu.")
		return nil
	}

	root, err := b.resolver.EnsureUserRoot(userID)
	if err != nil {
		return err
	}
	outPath := filepath.Join(root, fmt.Sprintf("workbook_%d.xlsx", time.Now().Unix()))

	sheets, images, err := workbook.Collate(mediaRoot, outPath)
	if err != nil {
		return err
	}

	size, sendable, err := sendableWorkbook(outPath)
	if err != nil {
		return err
	}
	if !sendable {
		// the file stays on disk so the user can prune photos and retry
		b.sendResponse(msg.Chat.ID, fmt.Sprintf(
			"Dokumen %d MB melebihi batas %d MB dan tidak dikirim. Hapus sebagian foto lalu coba lagi.",
			size/(1024*1024), consts.MaxWorkbookSizeMB))
		return nil
	}

	if err := b.sendDocument(msg.Chat.ID, outPath); err != nil {
		return err
	}
	os.Remove(outPath)

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Dokumen terkirim: %d sheet, %d foto.", sheets, images))
	return nil
}

func (b *Bot) workbookList(msg *tgbotapi.Message) error {
	mediaRoot, err := b.resolver.EnsureFeatureDir(msg.From.ID, consts.DirWorkbookMedia)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(mediaRoot)
	if err != nil {
		return fmt.Errorf("failed to read workbook media: %w", err)
	}

	var lines []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		count, size := dirStats(filepath.Join(mediaRoot, e.Name()))
		lines = append(lines, fmt.Sprintf("%s: %d foto (%.1f MB)", e.Name(), count, float64(size)/(1024*1024)))
	}
	if len(lines) == 0 {
		b.sendResponse(msg.Chat.ID, "Belum ada sheet.")
		return nil
	}
	b.sendResponse(msg.Chat.ID, strings.Join(lines, "\n"))
	return nil
}

func (b *Bot) workbookClear(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	mediaRoot, err := b.resolver.EnsureFeatureDir(userID, consts.DirWorkbookMedia)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(mediaRoot)
	if err != nil {
		return fmt.Errorf("failed to read workbook media: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(mediaRoot, e.Name())); err != nil {
			return fmt.Errorf("failed to clear workbook media: %w", err)
		}
	}

	_, err = b.sessions.WithMode(userID, session.ModeWorkbook, func(s *session.Session) error {
		w := s.Workbook()
		w.ActiveSheet = ""
		w.SheetImageCount = 0
		return nil
	})
	if err != nil {
		return err
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%d sheet dihapus.", len(entries)))
	return nil
}

// sendableWorkbook reports whether a generated document fits the size
// ceiling. It never deletes the file; an oversized document is the user's
// to prune.
func sendableWorkbook(path string) (size int64, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat workbook: %w", err)
	}
	return info.Size(), info.Size() <= consts.MaxWorkbookSizeMB*1024*1024, nil
}

func hasSheetDirs(mediaRoot string) bool {
	entries, err := os.ReadDir(mediaRoot)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			return true
		}
	}
	return false
}

func dirStats(dir string) (count int, size int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		count++
		if info, err := e.Info(); err == nil {
			size += info.Size()
		}
	}
	return count, size
}
