// Package kml holds the per-user KML payload: named placemarks, completed
// line tracks and at most one in-progress line. It is the only session
// sub-state with an on-disk mirror; the in-memory copy is the cache and the
// JSON file is the durable store.
package kml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/telebox/telebox/internal/consts"
)

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Placemark struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Line struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Data is the persisted KML payload for one user. The in-progress line is
// deliberately absent: drafts are session state and die with the process.
type Data struct {
	Placemarks []Placemark `json:"placemarks"`
	Lines      []Line      `json:"lines"`
	// PersistentPointName is the standing default applied to new points
	// until cleared
	PersistentPointName string `json:"persistent_point_name,omitempty"`
}

func DefaultData() *Data {
	return &Data{
		Placemarks: []Placemark{},
		Lines:      []Line{},
	}
}

// HasExportableContent reports whether a document export would be non-empty:
// at least one placemark, one finished line, or an in-progress line with two
// or more points.
func (d *Data) HasExportableContent(current *Line) bool {
	if len(d.Placemarks) > 0 || len(d.Lines) > 0 {
		return true
	}
	return current != nil && len(current.Points) >= 2
}

// NextAutoName generates the ordinal fallback name for a new placemark.
func (d *Data) NextAutoName() string {
	return fmt.Sprintf("Titik %d", len(d.Placemarks)+1)
}

// Store loads and saves per-user KML payloads under
// <userRoot>/kml_data.json.
type Store struct {
	fileName string
}

func NewStore() *Store {
	return &Store{fileName: consts.KmlDataFileName}
}

func (s *Store) path(userRoot string) string {
	return filepath.Join(userRoot, s.fileName)
}

// Load reads the user's KML file. A missing file yields the default payload.
// A corrupt file is quarantined (renamed aside with a timestamp suffix) and
// replaced by the default payload; corruption is self-healing, never an
// error for the caller.
func (s *Store) Load(userRoot string) (*Data, error) {
	path := s.path(userRoot)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read kml data: %w", err)
	}

	data := DefaultData()
	if err := json.Unmarshal(raw, data); err != nil {
		backup := filepath.Join(userRoot, fmt.Sprintf("kml_data_backup_%d.json", time.Now().Unix()))
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return nil, fmt.Errorf("failed to quarantine corrupt kml data: %w", renameErr)
		}
		fresh := DefaultData()
		if saveErr := s.Save(userRoot, fresh); saveErr != nil {
			return nil, saveErr
		}
		return fresh, nil
	}

	if data.Placemarks == nil {
		data.Placemarks = []Placemark{}
	}
	if data.Lines == nil {
		data.Lines = []Line{}
	}
	return data, nil
}

// Save serializes the full payload to disk. Called after every mutation;
// volumes are small so write amplification is acceptable.
func (s *Store) Save(userRoot string, data *Data) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal kml data: %w", err)
	}
	if err := os.WriteFile(s.path(userRoot), raw, 0644); err != nil {
		return fmt.Errorf("failed to write kml data: %w", err)
	}
	return nil
}
