package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/geotag"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdGeotagsEntry(msg *tgbotapi.Message) error {
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeGeotags, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgGeotagsEntry)
	return nil
}

// handleGeotagPhoto pairs an incoming photo with a location: the sticky one
// if set, a waiting location otherwise, or caches the photo until a
// location arrives. Pairing state is per chat.
func (b *Bot) handleGeotagPhoto(msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	fileID := largestPhoto(msg.Photo).FileID

	var (
		pairLocation *session.Point
		timeOverride *time.Time
	)
	err := b.sessions.WithGeotags(chatID, func(g *session.GeotagState) error {
		timeOverride = g.TimeOverride
		switch {
		case g.Sticky != nil:
			pairLocation = g.Sticky
		case g.PendingLocation != nil:
			pairLocation = g.PendingLocation
			g.PendingLocation = nil
		default:
			g.PendingPhotoFileID = fileID
		}
		return nil
	})
	if err != nil {
		return err
	}

	if pairLocation == nil {
		b.sendResponse(chatID, "Foto diterima. Kirim lokasi untuk menempel geotag.")
		return nil
	}
	return b.composeGeotag(msg, fileID, *pairLocation, timeOverride)
}

// handleGeotagLocation pairs an incoming location with a waiting photo, or
// stores it (as sticky when the toggle armed it).
func (b *Bot) handleGeotagLocation(msg *tgbotapi.Message, lat, lon float64) error {
	chatID := msg.Chat.ID
	point := session.Point{Latitude: lat, Longitude: lon}

	var (
		pairPhotoID  string
		becameSticky bool
		timeOverride *time.Time
	)
	err := b.sessions.WithGeotags(chatID, func(g *session.GeotagState) error {
		timeOverride = g.TimeOverride
		if g.AwaitingSticky {
			g.Sticky = &point
			g.AwaitingSticky = false
			becameSticky = true
		}
		if g.PendingPhotoFileID != "" {
			pairPhotoID = g.PendingPhotoFileID
			g.PendingPhotoFileID = ""
			return nil
		}
		if !becameSticky {
			g.PendingLocation = &point
		}
		return nil
	})
	if err != nil {
		return err
	}

	if becameSticky {
		b.sendResponse(chatID, "Lokasi ini dikunci untuk semua foto berikutnya. Kirim /alwaystag lagi untuk melepas.")
	}
	if pairPhotoID == "" {
		if !becameSticky {
			b.sendResponse(chatID, "Lokasi diterima. Kirim foto untuk menempel geotag.")
		}
		return nil
	}
	return b.composeGeotag(msg, pairPhotoID, point, timeOverride)
}

// cmdAlwaysTag toggles the sticky-location feature: off clears the stored
// location, on arms the next incoming location to become sticky.
func (b *Bot) cmdAlwaysTag(msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	var enabled bool
	err := b.sessions.WithGeotags(chatID, func(g *session.GeotagState) error {
		if g.Sticky != nil || g.AwaitingSticky {
			g.Sticky = nil
			g.AwaitingSticky = false
			return nil
		}
		g.AwaitingSticky = true
		enabled = true
		return nil
	})
	if err != nil {
		return err
	}

	if enabled {
		b.sendResponse(chatID, "Kirim lokasi yang akan dipakai untuk semua foto berikutnya.")
	} else {
		b.sendResponse(chatID, "Lokasi terkunci dilepas.")
	}
	return nil
}

// cmdSetTime sets or resets the manual timestamp stamped onto composites.
func (b *Bot) cmdSetTime(msg *tgbotapi.Message, arg string) error {
	chatID := msg.Chat.ID
	arg = strings.TrimSpace(arg)

	if strings.EqualFold(arg, "reset") {
		err := b.sessions.WithGeotags(chatID, func(g *session.GeotagState) error {
			g.TimeOverride = nil
			return nil
		})
		if err != nil {
			return err
		}
		b.sendResponse(chatID, "Waktu manual dihapus; memakai waktu saat ini.")
		return nil
	}

	parsed, err := geotag.ParseManualTime(arg)
	if err != nil {
		b.sendResponse(chatID, "Format waktu salah. Contoh: /set_time 2024-03-15 09:30")
		return nil
	}

	err = b.sessions.WithGeotags(chatID, func(g *session.GeotagState) error {
		g.TimeOverride = &parsed
		return nil
	})
	if err != nil {
		return err
	}
	b.sendResponse(chatID, fmt.Sprintf("Waktu manual diatur ke %s.", parsed.Format("2006-01-02 15:04")))
	return nil
}

// composeGeotag downloads the photo, renders the geotag card and sends the
// result back.
func (b *Bot) composeGeotag(msg *tgbotapi.Message, fileID string, point session.Point, timeOverride *time.Time) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	root, err := b.resolver.EnsureUserRoot(userID)
	if err != nil {
		return err
	}
	photoPath := filepath.Join(root, fmt.Sprintf("geotag_src_%d.jpg", time.Now().UnixNano()))
	outPath := filepath.Join(root, fmt.Sprintf("geotag_%d.png", time.Now().UnixNano()))
	defer os.Remove(photoPath)
	defer os.Remove(outPath)

	ctx, cancel := opContext()
	defer cancel()
	if err := b.downloadFile(ctx, fileID, photoPath); err != nil {
		return err
	}

	// a failed lookup still renders the card, with coordinates only
	address, err := b.geo.AddressForCoordinates(ctx, point.Latitude, point.Longitude)
	if err != nil || address == "" {
		address = "Alamat tidak diketahui"
	}

	timestamp := time.Now()
	if timeOverride != nil {
		timestamp = *timeOverride
	}

	info := geotag.Info{
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Address:   address,
		Timestamp: timestamp,
	}
	if err := b.composer.Compose(ctx, photoPath, outPath, info); err != nil {
		return err
	}

	return b.sendPhotoFile(chatID, outPath)
}
