package session

import (
	"time"

	"github.com/telebox/telebox/internal/consts"
)

// Point is one captured coordinate, optionally with a resolved address.
type Point struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// MeasureState is the two-point sequential capture inside location mode.
// Expiry is lazy: nothing resets the state until the next interaction looks
// at it. A completed measurement leaves its point pair in a short-lived
// cache so a different transport mode can be re-queried without re-sending
// coordinates.
type MeasureState struct {
	Active    bool
	First     *Point
	Transport string
	UpdatedAt time.Time

	lastPair [2]Point
	lastAt   time.Time
}

// Begin activates a fresh capture, discarding any prior points.
func (m *MeasureState) Begin(transport string, now time.Time) {
	m.Active = true
	m.First = nil
	m.Transport = transport
	m.UpdatedAt = now
}

// Expired reports whether an active capture has gone stale. Callers must
// Reset and inform the user before treating any new point as point 1.
func (m *MeasureState) Expired(now time.Time) bool {
	return m.Active && now.Sub(m.UpdatedAt) > consts.MeasurementTimeout
}

// Capture records a point. The first call stores point 1 and returns
// complete=false; the second returns both points with complete=true,
// caches the pair for quick re-measurement and deactivates the capture.
func (m *MeasureState) Capture(p Point, now time.Time) (first, second Point, complete bool) {
	m.UpdatedAt = now
	if m.First == nil {
		cp := p
		m.First = &cp
		return p, Point{}, false
	}

	first = *m.First
	second = p
	m.lastPair = [2]Point{first, second}
	m.lastAt = now
	m.Active = false
	m.First = nil
	return first, second, true
}

// RecentPair returns the cached point pair from a measurement completed
// within the retention window, enabling the fast re-measurement path.
func (m *MeasureState) RecentPair(now time.Time) (first, second Point, ok bool) {
	if m.lastAt.IsZero() || now.Sub(m.lastAt) > consts.LastMeasurementRetention {
		return Point{}, Point{}, false
	}
	return m.lastPair[0], m.lastPair[1], true
}

// Reset clears the capture and the re-measurement cache unconditionally.
func (m *MeasureState) Reset() {
	*m = MeasureState{}
}
