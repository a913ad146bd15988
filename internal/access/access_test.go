package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telebox/telebox/internal/config"
	"github.com/telebox/telebox/internal/consts"
)

func TestLists(t *testing.T) {
	cfg := &config.Config{
		RegisteredUsers: []int64{1, 2},
		LocationUsers:   []int64{1},
		KmlUsers:        []int64{2},
	}
	lists := NewLists(cfg)

	assert.True(t, lists.IsRegistered(1))
	assert.True(t, lists.IsRegistered(2))
	assert.False(t, lists.IsRegistered(3))

	assert.True(t, lists.Has(1, consts.CapLocation))
	assert.False(t, lists.Has(2, consts.CapLocation))
	assert.True(t, lists.Has(2, consts.CapKml))

	// registration does not imply any capability
	assert.False(t, lists.Has(1, consts.CapArchive))

	// unknown capability names are never granted
	assert.False(t, lists.Has(1, "sudo"))
}
