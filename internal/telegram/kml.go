package telegram

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/kml"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdKmlEntry(msg *tgbotapi.Message) error {
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeKml, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgKmlEntry)
	return nil
}

// withKml runs fn against the user's KML state. A message dispatched in
// KML mode can lose the session to a concurrent mode switch; that message
// is dropped (ran=false), not treated as a failure.
func (b *Bot) withKml(userID int64, fn func(*session.KmlState) error) (bool, error) {
	err := b.sessions.WithKml(userID, fn)
	if errors.Is(err, session.ErrWrongMode) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// nextPointName applies the three-tier naming priority: inline name, then
// the one-shot pending name (consumed), then the standing default, then an
// auto-generated ordinal.
func nextPointName(k *session.KmlState, inline string) string {
	if inline = strings.TrimSpace(inline); inline != "" {
		return inline
	}
	if k.PendingPointName != "" {
		name := k.PendingPointName
		k.PendingPointName = ""
		return name
	}
	if k.Data.PersistentPointName != "" {
		return k.Data.PersistentPointName
	}
	return k.Data.NextAutoName()
}

func (b *Bot) cmdKmlAdd(msg *tgbotapi.Message, latStr, lonStr, inlineName string) error {
	lat, lon, err := parseCoordinates(latStr, lonStr)
	if err != nil {
		b.sendResponse(msg.Chat.ID, "Koordinat tidak valid. Contoh: /add -6.2 106.8 Kantor")
		return nil
	}

	var name string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		name = nextPointName(k, inlineName)
		k.Data.Placemarks = append(k.Data.Placemarks, kml.Placemark{Name: name, Latitude: lat, Longitude: lon})
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Titik %q ditambahkan (%.6f, %.6f).", name, lat, lon))
	return nil
}

// handleKmlLocation consumes a shared location: it extends the in-progress
// line when one exists, otherwise it becomes a new placemark.
func (b *Bot) handleKmlLocation(msg *tgbotapi.Message, lat, lon float64) error {
	var reply string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		if k.CurrentLine != nil {
			k.CurrentLine.Points = append(k.CurrentLine.Points, kml.Point{Latitude: lat, Longitude: lon})
			reply = fmt.Sprintf("Titik ke-%d ditambahkan ke garis %q.", len(k.CurrentLine.Points), k.CurrentLine.Name)
			return nil
		}
		name := nextPointName(k, "")
		k.Data.Placemarks = append(k.Data.Placemarks, kml.Placemark{Name: name, Latitude: lat, Longitude: lon})
		reply = fmt.Sprintf("Titik %q ditambahkan (%.6f, %.6f).", name, lat, lon)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, reply)
	return nil
}

func (b *Bot) cmdKmlAddPoint(msg *tgbotapi.Message, name string) error {
	name = strings.TrimSpace(name)
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		k.PendingPointName = name
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, fmt.Sprintf("Titik berikutnya akan diberi nama %q.", name))
	return nil
}

// cmdKmlAlwaysPoint sets the standing default name; without an argument it
// clears it.
func (b *Bot) cmdKmlAlwaysPoint(msg *tgbotapi.Message, name string) error {
	name = strings.TrimSpace(name)
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		k.Data.PersistentPointName = name
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if name == "" {
		b.sendResponse(msg.Chat.ID, "Nama tetap dihapus; titik berikutnya memakai nama otomatis.")
	} else {
		b.sendResponse(msg.Chat.ID, fmt.Sprintf("Semua titik berikutnya akan diberi nama %q.", name))
	}
	return nil
}

func (b *Bot) cmdKmlStartLine(msg *tgbotapi.Message, name string) error {
	name = strings.TrimSpace(name)

	var reply string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		if k.CurrentLine != nil {
			reply = fmt.Sprintf("Garis %q masih berjalan. Selesaikan dengan /endline atau batalkan dengan /cancelline.", k.CurrentLine.Name)
			return nil
		}
		if name == "" {
			name = fmt.Sprintf("Jalur %d", len(k.Data.Lines)+1)
		}
		k.CurrentLine = &kml.Line{Name: name}
		reply = fmt.Sprintf("Garis %q dimulai. Share lokasi untuk menambah titik.", name)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, reply)
	return nil
}

func (b *Bot) cmdKmlEndLine(msg *tgbotapi.Message) error {
	var reply string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		switch {
		case k.CurrentLine == nil:
			reply = "Tidak ada garis yang sedang berjalan. Mulai dengan /startline."
		case len(k.CurrentLine.Points) < 2:
			reply = "Garis butuh minimal 2 titik. Tambahkan titik atau batalkan dengan /cancelline."
		default:
			k.Data.Lines = append(k.Data.Lines, *k.CurrentLine)
			reply = fmt.Sprintf("Garis %q selesai dengan %d titik.", k.CurrentLine.Name, len(k.CurrentLine.Points))
			k.CurrentLine = nil
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, reply)
	return nil
}

func (b *Bot) cmdKmlCancelLine(msg *tgbotapi.Message) error {
	var reply string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		if k.CurrentLine == nil {
			reply = "Tidak ada garis yang sedang berjalan."
			return nil
		}
		reply = fmt.Sprintf("Garis %q dibatalkan.", k.CurrentLine.Name)
		k.CurrentLine = nil
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, reply)
	return nil
}

// cmdKmlExport renders and sends the document without clearing anything.
func (b *Bot) cmdKmlExport(msg *tgbotapi.Message) error {
	userID := msg.From.ID

	var rendered []byte
	ran, err := b.withKml(userID, func(k *session.KmlState) error {
		if !k.Data.HasExportableContent(k.CurrentLine) {
			return nil
		}
		raw, err := kml.Render(k.Data, k.CurrentLine, fmt.Sprintf("Peta %s", time.Now().Format("2006-01-02")))
		if err != nil {
			return err
		}
		rendered = raw
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if rendered == nil {
		b.sendResponse(msg.Chat.ID, "Belum ada data untuk diekspor. Tambahkan titik atau garis dulu.")
		return nil
	}

	root, err := b.resolver.EnsureUserRoot(userID)
	if err != nil {
		return err
	}
	path := filepath.Join(root, fmt.Sprintf("peta_%d.kml", time.Now().Unix()))
	if err := os.WriteFile(path, rendered, 0644); err != nil {
		return fmt.Errorf("failed to write kml export: %w", err)
	}
	defer os.Remove(path)

	return b.sendDocument(msg.Chat.ID, path)
}

func (b *Bot) cmdKmlSummary(msg *tgbotapi.Message) error {
	var summary string
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Titik: %d\n", len(k.Data.Placemarks))
		for _, pm := range k.Data.Placemarks {
			fmt.Fprintf(&sb, "  %s (%.6f, %.6f)\n", pm.Name, pm.Latitude, pm.Longitude)
		}
		fmt.Fprintf(&sb, "Garis selesai: %d\n", len(k.Data.Lines))
		for _, line := range k.Data.Lines {
			fmt.Fprintf(&sb, "  %s (%d titik)\n", line.Name, len(line.Points))
		}
		if k.CurrentLine != nil {
			fmt.Fprintf(&sb, "Garis berjalan: %s (%d titik)\n", k.CurrentLine.Name, len(k.CurrentLine.Points))
		}
		if k.Data.PersistentPointName != "" {
			fmt.Fprintf(&sb, "Nama tetap: %s\n", k.Data.PersistentPointName)
		}
		summary = strings.TrimRight(sb.String(), "\n")
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, summary)
	return nil
}

// cmdKmlClearAll wipes placemarks, lines, the draft line and the standing
// name, in memory and on disk.
func (b *Bot) cmdKmlClearAll(msg *tgbotapi.Message) error {
	ran, err := b.withKml(msg.From.ID, func(k *session.KmlState) error {
		*k.Data = *kml.DefaultData()
		k.CurrentLine = nil
		k.PendingPointName = ""
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, "Semua data KML dihapus.")
	return nil
}
