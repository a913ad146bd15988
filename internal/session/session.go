// Package session implements the per-user mode/session state machine. Each
// user has exactly one active mode; the mode gates which commands the router
// will dispatch, and each mode owns a typed payload. All state is in-memory
// and lost on restart, except the KML payload which mirrors to disk through
// an injected persister.
package session

import (
	"fmt"
	"time"

	"github.com/telebox/telebox/internal/kml"
)

// Mode is the single active feature context for a user.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeMenu     Mode = "menu"
	ModeLocation Mode = "location"
	ModeArchive  Mode = "archive"
	ModeWorkbook Mode = "workbook"
	ModeOcr      Mode = "ocr"
	ModeKml      Mode = "kml"
	ModeGeotags  Mode = "geotags"
)

// ArchiveIntent selects the archive sub-mode chosen by its entry commands.
type ArchiveIntent string

const (
	IntentNone    ArchiveIntent = ""
	IntentZip     ArchiveIntent = "zip"
	IntentExtract ArchiveIntent = "extract"
	IntentSearch  ArchiveIntent = "search"
)

// ArchiveState is reset every time archive mode or one of its sub-modes is
// entered. Usage counters live in ArchiveStats instead so they survive
// resets for the process lifetime.
type ArchiveState struct {
	Intent ArchiveIntent
	// Files holds uploaded file paths in arrival order
	Files []string
}

// ArchiveStats accumulates per-user usage counters for the process lifetime.
type ArchiveStats struct {
	ZipCount      int
	ExtractCount  int
	SearchCount   int
	FilesReceived int
	FilesSent     int
}

// OcrState carries the mutual-exclusion guard that keeps a user to one
// in-flight OCR job at a time.
type OcrState struct {
	ProcessingImage bool
	ProcessedCount  int
	LastImagePath   string
}

// WorkbookState tracks the active sheet directory and photo counters.
type WorkbookState struct {
	// ActiveSheet is the selected sheet directory path, empty until the
	// user names one
	ActiveSheet     string
	SheetImageCount int
	TotalDownloaded int
}

// KmlState pairs the persisted payload with the session-only draft state:
// the in-progress line and the one-shot pending point name.
type KmlState struct {
	Data             *kml.Data
	CurrentLine      *kml.Line
	PendingPointName string
}

// GeotagState is keyed by chat, not user. It holds whichever half of a
// photo/location pair arrived first, plus the sticky-location and manual
// timestamp settings.
type GeotagState struct {
	// PendingPhotoFileID is the photo waiting for a location
	PendingPhotoFileID string
	// PendingLocation is the location waiting for a photo
	PendingLocation *Point
	Sticky          *Point
	// AwaitingSticky is armed by the always-tag toggle: the next location
	// that arrives becomes the sticky one
	AwaitingSticky bool
	TimeOverride   *time.Time
}

// Session is the per-user record. Access it only through Store.With so the
// per-user lock is held.
type Session struct {
	Mode         Mode
	LastActivity time.Time

	// Stats survive archive-mode resets
	Stats ArchiveStats

	archive  *ArchiveState
	measure  *MeasureState
	ocr      *OcrState
	workbook *WorkbookState
	kmlState *KmlState
}

// EnterMode switches the session to the given mode and applies that mode's
// documented reset: archive and workbook payloads are rebuilt from defaults,
// the KML draft line and pending name are dropped. Location and OCR keep
// their payloads so an active measurement survives re-entry.
func (s *Session) EnterMode(m Mode, now time.Time) {
	s.Mode = m
	s.LastActivity = now

	switch m {
	case ModeArchive:
		s.archive = &ArchiveState{}
	case ModeWorkbook:
		s.workbook = &WorkbookState{}
	case ModeKml:
		if s.kmlState != nil {
			s.kmlState.CurrentLine = nil
			s.kmlState.PendingPointName = ""
		}
	}
}

// Archive returns the archive payload. Calling it outside archive mode is a
// router defect and panics.
func (s *Session) Archive() *ArchiveState {
	s.mustMode(ModeArchive)
	if s.archive == nil {
		s.archive = &ArchiveState{}
	}
	return s.archive
}

// Measure returns the measurement payload. Valid only in location mode.
func (s *Session) Measure() *MeasureState {
	s.mustMode(ModeLocation)
	if s.measure == nil {
		s.measure = &MeasureState{}
	}
	return s.measure
}

// Ocr returns the OCR payload. Valid only in OCR mode.
func (s *Session) Ocr() *OcrState {
	s.mustMode(ModeOcr)
	if s.ocr == nil {
		s.ocr = &OcrState{}
	}
	return s.ocr
}

// Workbook returns the workbook payload. Valid only in workbook mode.
func (s *Session) Workbook() *WorkbookState {
	s.mustMode(ModeWorkbook)
	if s.workbook == nil {
		s.workbook = &WorkbookState{}
	}
	return s.workbook
}

// ClearOcrGuard releases the single-flight OCR guard. Unlike Ocr it does
// not assert the mode: an OCR job can outlive the mode it started in, and
// the guard must drop no matter where the user navigated meanwhile.
func (s *Session) ClearOcrGuard() {
	if s.ocr != nil {
		s.ocr.ProcessingImage = false
	}
}

// RecordOcrResult updates the OCR counters for a finished job. Mode
// independent for the same reason as ClearOcrGuard.
func (s *Session) RecordOcrResult(imagePath string) {
	if s.ocr == nil {
		s.ocr = &OcrState{}
	}
	s.ocr.ProcessedCount++
	s.ocr.LastImagePath = imagePath
}

func (s *Session) mustMode(want Mode) {
	if s.Mode != want {
		panic(fmt.Sprintf("session: %s payload accessed while mode is %s", want, s.Mode))
	}
}
