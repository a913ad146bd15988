package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/kml"
)

type memPersister struct {
	data  map[int64]*kml.Data
	saves int
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[int64]*kml.Data)}
}

func (p *memPersister) Load(userID int64) (*kml.Data, error) {
	if d, ok := p.data[userID]; ok {
		return d, nil
	}
	return kml.DefaultData(), nil
}

func (p *memPersister) Save(userID int64, d *kml.Data) error {
	p.data[userID] = d
	p.saves++
	return nil
}

func TestModeDefaultsToNone(t *testing.T) {
	st := NewStore(newMemPersister())
	assert.Equal(t, ModeNone, st.Mode(42))
}

func TestEnterModeResetsArchivePayload(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()

	err := st.With(7, func(s *Session) error {
		s.EnterMode(ModeArchive, now)
		a := s.Archive()
		a.Intent = IntentZip
		a.Files = append(a.Files, "a.txt", "b.txt")
		s.Stats.FilesReceived = 2
		return nil
	})
	require.NoError(t, err)

	err = st.With(7, func(s *Session) error {
		s.EnterMode(ModeArchive, now.Add(time.Minute))
		a := s.Archive()
		assert.Equal(t, IntentNone, a.Intent)
		assert.Empty(t, a.Files)
		// lifetime counters survive the reset
		assert.Equal(t, 2, s.Stats.FilesReceived)
		return nil
	})
	require.NoError(t, err)
}

func TestEnterLocationKeepsMeasurement(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()

	err := st.With(7, func(s *Session) error {
		s.EnterMode(ModeLocation, now)
		s.Measure().Begin(consts.TransportCar, now)
		s.Measure().Capture(Point{Latitude: -6.2, Longitude: 106.8}, now)

		s.EnterMode(ModeLocation, now.Add(time.Minute))
		m := s.Measure()
		assert.True(t, m.Active)
		require.NotNil(t, m.First)
		return nil
	})
	require.NoError(t, err)
}

func TestWrongModePayloadAccessPanics(t *testing.T) {
	st := NewStore(newMemPersister())
	err := st.With(7, func(s *Session) error {
		s.EnterMode(ModeOcr, time.Now())
		assert.Panics(t, func() { s.Archive() })
		assert.Panics(t, func() { s.Workbook() })
		assert.NotPanics(t, func() { s.Ocr() })
		return nil
	})
	require.NoError(t, err)
}

func TestOcrGuardClearSurvivesModeSwitch(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()
	require.NoError(t, st.EnterMode(7, ModeOcr, now))

	ran, err := st.WithMode(7, ModeOcr, func(s *Session) error {
		s.Ocr().ProcessingImage = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)

	// the user sends /menu while the job is still in flight
	require.NoError(t, st.EnterMode(7, ModeMenu, now.Add(time.Second)))

	assert.NotPanics(t, func() {
		require.NoError(t, st.With(7, func(s *Session) error {
			s.ClearOcrGuard()
			return nil
		}))
	})

	require.NoError(t, st.EnterMode(7, ModeOcr, now.Add(2*time.Second)))
	err = st.With(7, func(s *Session) error {
		assert.False(t, s.Ocr().ProcessingImage, "guard must not outlive the finished job")
		return nil
	})
	require.NoError(t, err)
}

func TestOcrGuardSingleFlight(t *testing.T) {
	st := NewStore(newMemPersister())
	require.NoError(t, st.EnterMode(7, ModeOcr, time.Now()))

	acquire := func() (busy bool) {
		_, err := st.WithMode(7, ModeOcr, func(s *Session) error {
			o := s.Ocr()
			if o.ProcessingImage {
				busy = true
				return nil
			}
			o.ProcessingImage = true
			return nil
		})
		require.NoError(t, err)
		return busy
	}

	assert.False(t, acquire())
	// a second image while the first is in flight reports busy
	assert.True(t, acquire())

	err := st.With(7, func(s *Session) error {
		// the rejected image never counted
		assert.Equal(t, 0, s.Ocr().ProcessedCount)
		s.RecordOcrResult("a.jpg")
		s.ClearOcrGuard()
		return nil
	})
	require.NoError(t, err)

	err = st.With(7, func(s *Session) error {
		o := s.Ocr()
		assert.Equal(t, 1, o.ProcessedCount)
		assert.Equal(t, "a.jpg", o.LastImagePath)
		assert.False(t, o.ProcessingImage)
		return nil
	})
	require.NoError(t, err)

	assert.False(t, acquire(), "guard must admit the next image after the clear")
}

func TestWithModeSkipsAfterModeSwitch(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()
	require.NoError(t, st.EnterMode(7, ModeLocation, now))
	require.NoError(t, st.EnterMode(7, ModeMenu, now.Add(time.Second)))

	ran, err := st.WithMode(7, ModeLocation, func(s *Session) error {
		t.Fatal("callback must not run after a mode switch")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestWithKmlAfterModeSwitch(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()
	require.NoError(t, st.EnterMode(9, ModeKml, now))
	require.NoError(t, st.EnterMode(9, ModeMenu, now.Add(time.Second)))

	var err error
	assert.NotPanics(t, func() {
		err = st.WithKml(9, func(k *KmlState) error {
			t.Fatal("callback must not run after a mode switch")
			return nil
		})
	})
	assert.ErrorIs(t, err, ErrWrongMode)
}

func TestMeasurementTimeout(t *testing.T) {
	m := &MeasureState{}
	start := time.Now()

	m.Begin(consts.TransportCar, start)
	assert.False(t, m.Expired(start.Add(9*time.Minute)))
	assert.True(t, m.Expired(start.Add(consts.MeasurementTimeout+time.Second)))

	m.Reset()
	assert.False(t, m.Expired(start.Add(time.Hour)))
}

func TestMeasurementCaptureSequence(t *testing.T) {
	m := &MeasureState{}
	now := time.Now()
	m.Begin(consts.TransportFoot, now)

	p1 := Point{Latitude: -6.2, Longitude: 106.8}
	p2 := Point{Latitude: -6.9, Longitude: 107.6}

	_, _, complete := m.Capture(p1, now)
	assert.False(t, complete)

	first, second, complete := m.Capture(p2, now.Add(time.Minute))
	require.True(t, complete)
	assert.Equal(t, p1, first)
	assert.Equal(t, p2, second)
	assert.False(t, m.Active)
}

func TestQuickRemeasureWindow(t *testing.T) {
	m := &MeasureState{}
	now := time.Now()
	m.Begin(consts.TransportCar, now)
	m.Capture(Point{Latitude: -6.2, Longitude: 106.8}, now)
	m.Capture(Point{Latitude: -6.9, Longitude: 107.6}, now)

	_, _, ok := m.RecentPair(now.Add(29 * time.Second))
	assert.True(t, ok, "pair should be reusable inside the retention window")

	_, _, ok = m.RecentPair(now.Add(consts.LastMeasurementRetention + time.Second))
	assert.False(t, ok, "pair must not be reusable after the window")

	m.Reset()
	_, _, ok = m.RecentPair(now)
	assert.False(t, ok, "cancel clears the re-measurement cache")
}

func TestWithKmlLoadsOnceAndSavesEveryMutation(t *testing.T) {
	p := newMemPersister()
	st := NewStore(p)
	require.NoError(t, st.EnterMode(9, ModeKml, time.Now()))

	err := st.WithKml(9, func(k *KmlState) error {
		k.Data.Placemarks = append(k.Data.Placemarks, kml.Placemark{Name: "Titik 1", Latitude: 1, Longitude: 2})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.saves)

	err = st.WithKml(9, func(k *KmlState) error {
		require.Len(t, k.Data.Placemarks, 1)
		k.Data.PersistentPointName = "Pos"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.saves)
	assert.Equal(t, "Pos", p.data[9].PersistentPointName)
}

func TestKmlReentryDropsDraftKeepsData(t *testing.T) {
	st := NewStore(newMemPersister())
	now := time.Now()
	require.NoError(t, st.EnterMode(9, ModeKml, now))

	err := st.WithKml(9, func(k *KmlState) error {
		k.Data.Placemarks = append(k.Data.Placemarks, kml.Placemark{Name: "A"})
		k.CurrentLine = &kml.Line{Name: "Jalur", Points: []kml.Point{{Latitude: 1, Longitude: 2}}}
		k.PendingPointName = "Besok"
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, st.EnterMode(9, ModeKml, now.Add(time.Minute)))
	err = st.WithKml(9, func(k *KmlState) error {
		assert.Nil(t, k.CurrentLine)
		assert.Empty(t, k.PendingPointName)
		assert.Len(t, k.Data.Placemarks, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestGeotagStateIsPerChat(t *testing.T) {
	st := NewStore(newMemPersister())

	require.NoError(t, st.WithGeotags(100, func(g *GeotagState) error {
		g.PendingPhotoFileID = "photo-1"
		return nil
	}))
	require.NoError(t, st.WithGeotags(200, func(g *GeotagState) error {
		assert.Empty(t, g.PendingPhotoFileID)
		return nil
	}))
	require.NoError(t, st.WithGeotags(100, func(g *GeotagState) error {
		assert.Equal(t, "photo-1", g.PendingPhotoFileID)
		return nil
	}))
}
