package consts

import "time"

// Capability names used by the access allow-lists
const (
	CapLocation = "location"
	CapArchive  = "archive"
	CapWorkbook = "workbook"
	CapOcr      = "ocr"
	CapKml      = "kml"
	CapGeotags  = "geotags"
)

// Per-user feature directory names
const (
	DirArchiveFiles  = "rar_files"
	DirOcrFiles      = "ocr_files"
	DirWorkbookMedia = "workbook_media"
	DirLocationCache = "lokasi_cache"
)

// KML persistence
const (
	KmlDataFileName = "kml_data.json"
)

// Session timing rules
const (
	// MeasurementTimeout bounds how long a two-point capture stays relevant
	MeasurementTimeout = 10 * time.Minute

	// LastMeasurementRetention is the quick-remeasure window after a
	// completed measurement
	LastMeasurementRetention = 30 * time.Second

	// DedupCleanupInterval clears the processed-message-id cache
	DedupCleanupInterval = 5 * time.Minute
)

// Feature limits
const (
	// MaxWorkbookSizeMB is the ceiling for a collated workbook document
	MaxWorkbookSizeMB = 50

	// SearchResultMaxLines caps archive search output before the
	// "+N more" suffix
	SearchResultMaxLines = 20
)

// Transport modes for distance measurement
const (
	TransportCar        = "car"
	TransportMotorcycle = "motorcycle"
	TransportFoot       = "foot"
)

// OpenRouteService routing profiles
const (
	OrsProfileCar  = "driving-car"
	OrsProfileFoot = "foot-walking"
)
