package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/geo"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/session"
)

func (b *Bot) cmdLocationEntry(msg *tgbotapi.Message) error {
	// entry keeps an active measurement alive; only /batal clears it
	if err := b.sessions.EnterMode(msg.From.ID, session.ModeLocation, time.Now()); err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, msgLocationEntry)
	return nil
}

func (b *Bot) cmdAlamat(msg *tgbotapi.Message, query string) error {
	ctx, cancel := opContext()
	defer cancel()

	place, err := b.geo.CoordinatesForAddress(ctx, query)
	if errors.Is(err, geo.ErrNotFound) {
		b.sendResponse(msg.Chat.ID, fmt.Sprintf("Alamat %q tidak ditemukan.", query))
		return nil
	}
	if err != nil {
		return err
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%s\nKoordinat: %.6f, %.6f", place.DisplayName, place.Latitude, place.Longitude))
	b.sendLocation(msg.Chat.ID, place.Latitude, place.Longitude)
	return nil
}

func (b *Bot) cmdKoordinat(msg *tgbotapi.Message, latStr, lonStr string) error {
	lat, lon, err := parseCoordinates(latStr, lonStr)
	if err != nil {
		b.sendResponse(msg.Chat.ID, "Koordinat tidak valid. Contoh: /koordinat -6.2 106.8")
		return nil
	}
	return b.reverseLookup(msg, lat, lon)
}

func (b *Bot) cmdShowMap(msg *tgbotapi.Message, query string) error {
	// a bare "lat,lon" argument skips geocoding
	if lat, lon, ok := splitCoordinatePair(query); ok {
		b.sendResponse(msg.Chat.ID, osmLink(lat, lon))
		return nil
	}

	ctx, cancel := opContext()
	defer cancel()

	place, err := b.geo.CoordinatesForAddress(ctx, query)
	if errors.Is(err, geo.ErrNotFound) {
		b.sendResponse(msg.Chat.ID, fmt.Sprintf("Alamat %q tidak ditemukan.", query))
		return nil
	}
	if err != nil {
		return err
	}
	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%s\n%s", place.DisplayName, osmLink(place.Latitude, place.Longitude)))
	return nil
}

// cmdUkur starts a two-point capture, or re-measures the cached pair when a
// measurement completed within the last half minute.
func (b *Bot) cmdUkur(msg *tgbotapi.Message, variant string) error {
	transport := transportForVariant(variant)
	userID := msg.From.ID
	now := time.Now()

	var quickFirst, quickSecond session.Point
	var quick bool
	ran, err := b.sessions.WithMode(userID, session.ModeLocation, func(s *session.Session) error {
		m := s.Measure()
		quickFirst, quickSecond, quick = m.RecentPair(now)
		if !quick {
			m.Begin(transport, now)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if quick {
		return b.measureAndReport(msg.Chat.ID, quickFirst, quickSecond, transport)
	}

	b.sendResponse(msg.Chat.ID, fmt.Sprintf(
		"Pengukuran (%s) dimulai. Kirim dua titik: koordinat \"lat, lon\" atau share lokasi.", transportLabel(transport)))
	return nil
}

func (b *Bot) cmdBatal(msg *tgbotapi.Message) error {
	ran, err := b.sessions.WithMode(msg.From.ID, session.ModeLocation, func(s *session.Session) error {
		s.Measure().Reset()
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	b.sendResponse(msg.Chat.ID, msgMeasureCanceled)
	return nil
}

func (b *Bot) cmdCoordinateText(msg *tgbotapi.Message, latStr, lonStr string) error {
	lat, lon, err := parseCoordinates(latStr, lonStr)
	if err != nil {
		b.sendResponse(msg.Chat.ID, "Koordinat tidak valid.")
		return nil
	}
	return b.handleLocationPoint(msg, lat, lon)
}

// handleLocationPoint feeds a point into the measurement capture when one
// is active, otherwise performs a plain reverse lookup.
func (b *Bot) handleLocationPoint(msg *tgbotapi.Message, lat, lon float64) error {
	userID := msg.From.ID
	now := time.Now()

	var (
		expired   bool
		capturing bool
		complete  bool
		first     session.Point
		second    session.Point
		transport string
	)
	ran, err := b.sessions.WithMode(userID, session.ModeLocation, func(s *session.Session) error {
		m := s.Measure()
		if !m.Active {
			return nil
		}
		if m.Expired(now) {
			m.Reset()
			expired = true
			return nil
		}
		capturing = true
		transport = m.Transport
		first, second, complete = m.Capture(session.Point{Latitude: lat, Longitude: lon}, now)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}

	if expired {
		b.sendResponse(msg.Chat.ID, msgMeasureExpired)
		return nil
	}
	if !capturing {
		return b.reverseLookup(msg, lat, lon)
	}
	if !complete {
		b.sendResponse(msg.Chat.ID, msgMeasureFirst)
		return nil
	}
	return b.measureAndReport(msg.Chat.ID, first, second, transport)
}

func (b *Bot) measureAndReport(chatID int64, p1, p2 session.Point, transport string) error {
	ctx, cancel := opContext()
	defer cancel()

	route, err := b.geo.Route(ctx, p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude, transport)
	if err != nil {
		return err
	}

	report := fmt.Sprintf("Jarak (%s): %s\nPerkiraan waktu: %s",
		transportLabel(transport),
		geo.FormatDistance(route.DistanceMeters),
		geo.FormatDuration(route.DurationSeconds))
	if route.Estimated {
		report += "\n(garis lurus, layanan rute tidak tersedia)"
	}
	b.sendResponse(chatID, report)
	return nil
}

// reverseLookup resolves an address and caches the result under the user's
// lokasi_cache directory.
func (b *Bot) reverseLookup(msg *tgbotapi.Message, lat, lon float64) error {
	ctx, cancel := opContext()
	defer cancel()

	address, err := b.geo.AddressForCoordinates(ctx, lat, lon)
	if errors.Is(err, geo.ErrNotFound) {
		b.sendResponse(msg.Chat.ID, "Alamat untuk koordinat ini tidak ditemukan.")
		return nil
	}
	if err != nil {
		return err
	}

	b.cacheLookup(msg.From.ID, lat, lon, address)
	b.sendResponse(msg.Chat.ID, fmt.Sprintf("%s\n%s", address, osmLink(lat, lon)))
	return nil
}

func (b *Bot) cacheLookup(userID int64, lat, lon float64, address string) {
	dir, err := b.resolver.EnsureFeatureDir(userID, consts.DirLocationCache)
	if err != nil {
		logger.Warn("Failed to prepare lookup cache directory", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	entry := map[string]interface{}{
		"latitude":  lat,
		"longitude": lon,
		"address":   address,
		"looked_up": time.Now().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("reverse_%d.json", time.Now().UnixNano()))
	if err := os.WriteFile(path, raw, 0644); err != nil {
		logger.Warn("Failed to write lookup cache entry", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}
	return lat, lon, nil
}

func splitCoordinatePair(s string) (lat, lon float64, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, lon, err := parseCoordinates(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func osmLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s#map=16/%s/%s",
		url.QueryEscape(strconv.FormatFloat(lat, 'f', 6, 64)),
		url.QueryEscape(strconv.FormatFloat(lon, 'f', 6, 64)),
		strconv.FormatFloat(lat, 'f', 5, 64),
		strconv.FormatFloat(lon, 'f', 5, 64))
}

func transportForVariant(variant string) string {
	switch variant {
	case "motor":
		return consts.TransportMotorcycle
	case "mobil":
		return consts.TransportCar
	}
	return consts.TransportFoot
}

func transportLabel(transport string) string {
	switch transport {
	case consts.TransportCar:
		return "mobil"
	case consts.TransportMotorcycle:
		return "motor"
	}
	return "jalan kaki"
}
