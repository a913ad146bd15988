package kml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s := NewStore()
	data, err := s.Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, data.Placemarks)
	assert.Empty(t, data.Lines)
	assert.Empty(t, data.PersistentPointName)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()

	in := DefaultData()
	in.Placemarks = append(in.Placemarks, Placemark{Name: "Kantor", Latitude: -6.2, Longitude: 106.8})
	in.Lines = append(in.Lines, Line{Name: "Jalur A", Points: []Point{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}})
	in.PersistentPointName = "Pos"
	require.NoError(t, s.Save(dir, in))

	out, err := s.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadCorruptFileQuarantines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kml_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewStore()
	data, err := s.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, data.Placemarks)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var backupFound, freshFound bool
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "kml_data_backup_") && strings.HasSuffix(e.Name(), ".json"):
			backupFound = true
		case e.Name() == "kml_data.json":
			freshFound = true
		}
	}
	assert.True(t, backupFound, "corrupt file must be renamed aside")
	assert.True(t, freshFound, "a fresh default file must replace it")

	reloaded, err := s.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Placemarks)
}

func TestHasExportableContent(t *testing.T) {
	tests := []struct {
		name    string
		data    *Data
		current *Line
		want    bool
	}{
		{"empty", DefaultData(), nil, false},
		{"placemark", &Data{Placemarks: []Placemark{{Name: "A"}}}, nil, true},
		{"finished line", &Data{Lines: []Line{{Name: "L"}}}, nil, true},
		{"draft with one point", DefaultData(), &Line{Points: []Point{{}}}, false},
		{"draft with two points", DefaultData(), &Line{Points: []Point{{}, {}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.HasExportableContent(tt.current))
		})
	}
}

func TestRenderDocument(t *testing.T) {
	data := &Data{
		Placemarks: []Placemark{{Name: "Kantor <pusat>", Latitude: -6.2, Longitude: 106.8}},
		Lines: []Line{
			{Name: "Jalur A", Points: []Point{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}},
		},
	}
	current := &Line{Name: "Jalur B", Points: []Point{{Latitude: 5, Longitude: 6}, {Latitude: 7, Longitude: 8}}}

	out, err := Render(data, current, "peta")
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, `<kml xmlns="http://www.opengis.net/kml/2.2">`)
	assert.Contains(t, doc, "Kantor &lt;pusat&gt;", "names must be XML-escaped")
	assert.Contains(t, doc, "106.8,-6.2,0", "coordinates are lon,lat,alt")
	assert.Contains(t, doc, "2,1,0 4,3,0")
	assert.Contains(t, doc, "Jalur B"+InProgressSuffix)
}

func TestRenderSkipsShortDraftLine(t *testing.T) {
	out, err := Render(&Data{Placemarks: []Placemark{{Name: "A"}}}, &Line{Name: "X", Points: []Point{{}}}, "peta")
	require.NoError(t, err)
	assert.NotContains(t, string(out), InProgressSuffix)
}
