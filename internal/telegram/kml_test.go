package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telebox/telebox/internal/kml"
	"github.com/telebox/telebox/internal/session"
)

func TestNextPointNamePriority(t *testing.T) {
	k := &session.KmlState{Data: kml.DefaultData()}
	k.PendingPointName = "Gerbang"
	k.Data.PersistentPointName = "Pos"

	// inline name beats everything and leaves the pending name queued
	assert.Equal(t, "Tugu", nextPointName(k, "Tugu"))
	assert.Equal(t, "Gerbang", k.PendingPointName)

	// pending name wins next and is consumed
	assert.Equal(t, "Gerbang", nextPointName(k, ""))
	assert.Empty(t, k.PendingPointName)

	// standing default persists across uses
	assert.Equal(t, "Pos", nextPointName(k, ""))
	assert.Equal(t, "Pos", nextPointName(k, ""))

	// clearing the default falls back to the ordinal
	k.Data.PersistentPointName = ""
	assert.Equal(t, "Titik 1", nextPointName(k, ""))

	k.Data.Placemarks = append(k.Data.Placemarks, kml.Placemark{Name: "Titik 1"})
	assert.Equal(t, "Titik 2", nextPointName(k, ""))
}

func TestEntryCommandFor(t *testing.T) {
	assert.Equal(t, "/rar", entryCommandFor(session.ModeArchive))
	assert.Equal(t, "/lokasi", entryCommandFor(session.ModeLocation))
	assert.Equal(t, "/menu", entryCommandFor(session.ModeNone))
}
