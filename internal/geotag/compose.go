// Package geotag renders a geotag information card (map tile, address,
// decimal and DMS coordinates, timestamp) and composites it onto the bottom
// of a photo.
package geotag

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/telebox/telebox/internal/logger"
)

const (
	cardWidth  = 600
	cardHeight = 220
	tileSize   = 200
	tileZoom   = 15
	margin     = 10

	defaultMapboxBase = "https://api.mapbox.com"
)

// Composer fetches map tiles and renders tagged photos. A missing Mapbox
// key is tolerated; the tile slot degrades to a plain gray card.
type Composer struct {
	httpClient *http.Client
	mapboxBase string
	mapboxKey  string

	regular font.Face
	bold    font.Face
}

// Info is everything stamped onto the card.
type Info struct {
	Latitude  float64
	Longitude float64
	Address   string
	Timestamp time.Time
}

func NewComposer(mapboxKey string) (*Composer, error) {
	regular, err := loadFace(goregular.TTF, 16)
	if err != nil {
		return nil, err
	}
	bold, err := loadFace(gobold.TTF, 18)
	if err != nil {
		return nil, err
	}
	return &Composer{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		mapboxBase: defaultMapboxBase,
		mapboxKey:  mapboxKey,
		regular:    regular,
		bold:       bold,
	}, nil
}

// NewComposerWithBase is used by tests to point tile fetches at a local
// server.
func NewComposerWithBase(mapboxKey, mapboxBase string) (*Composer, error) {
	c, err := NewComposer(mapboxKey)
	if err != nil {
		return nil, err
	}
	c.mapboxBase = mapboxBase
	return c, nil
}

func loadFace(ttf []byte, size float64) (font.Face, error) {
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: size}), nil
}

// Compose loads the photo, scales it to the card width and appends the
// geotag card below it, writing the result to outPath as PNG.
func (c *Composer) Compose(ctx context.Context, photoPath, outPath string, info Info) error {
	photo, err := gg.LoadImage(photoPath)
	if err != nil {
		return fmt.Errorf("failed to load photo: %w", err)
	}

	scaled := scaleToWidth(photo, cardWidth)
	bounds := scaled.Bounds()

	dc := gg.NewContext(cardWidth, bounds.Dy()+cardHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(scaled, 0, 0)

	c.drawCard(ctx, dc, bounds.Dy(), info)

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save tagged photo: %w", err)
	}
	return nil
}

func (c *Composer) drawCard(ctx context.Context, dc *gg.Context, top int, info Info) {
	y := float64(top)

	// card background
	dc.SetRGB255(34, 34, 34)
	dc.DrawRectangle(0, y, cardWidth, cardHeight)
	dc.Fill()

	tile := c.fetchTile(ctx, info.Latitude, info.Longitude)
	if tile != nil {
		dc.DrawImage(scaleToWidth(tile, tileSize), margin, top+margin)
	} else {
		dc.SetRGB255(96, 96, 96)
		dc.DrawRectangle(margin, y+margin, tileSize, tileSize)
		dc.Fill()
		dc.SetRGB255(220, 220, 220)
		dc.SetFontFace(c.regular)
		dc.DrawStringAnchored("peta tidak tersedia", margin+tileSize/2, y+margin+tileSize/2, 0.5, 0.5)
	}

	textX := float64(margin + tileSize + margin)
	textY := y + 30

	dc.SetRGB255(255, 255, 255)
	dc.SetFontFace(c.bold)
	for _, line := range SplitAddressIntoLines(info.Address, 40, 3) {
		dc.DrawString(line, textX, textY)
		textY += 24
	}

	dc.SetFontFace(c.regular)
	textY += 8
	dc.DrawString(fmt.Sprintf("Lat: %.6f  Lon: %.6f", info.Latitude, info.Longitude), textX, textY)
	textY += 22
	dc.DrawString(ToDMS(info.Latitude, info.Longitude), textX, textY)

	// timestamp banner along the card bottom
	dc.SetRGB255(255, 200, 0)
	dc.SetFontFace(c.bold)
	dc.DrawString(info.Timestamp.Format("02-01-2006 15:04"), textX, y+cardHeight-18)
}

// fetchTile returns the static map tile or nil when the tile cannot be
// produced; compositing continues with the fallback card either way.
func (c *Composer) fetchTile(ctx context.Context, lat, lon float64) image.Image {
	if c.mapboxKey == "" {
		return nil
	}

	endpoint := fmt.Sprintf(
		"%s/styles/v1/mapbox/streets-v12/static/pin-s+ff0000(%f,%f)/%f,%f,%d,0/%dx%d?access_token=%s",
		c.mapboxBase, lon, lat, lon, lat, tileZoom, tileSize, tileSize, url.QueryEscape(c.mapboxKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("map tile fetch failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("map tile fetch rejected", map[string]interface{}{"status": resp.StatusCode})
		return nil
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		logger.Warn("map tile decode failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return img
}

func scaleToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() == width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	dc := gg.NewContext(width, height)
	dc.ScaleAbout(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()), 0, 0)
	dc.DrawImage(img, 0, 0)
	return dc.Image()
}
