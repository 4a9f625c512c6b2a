package storage

import (
	"database/sql"
	"time"
)

// SessionData represents one recorded scan or monitor session.
type SessionData struct {
	ID         int64
	UUID       string
	StartTime  time.Time
	Mode       string // "scan" or "monitor"
	DeviceType string
	DeviceID   string
	Config     sql.NullString
}

// SpectrumRow is one stored power spectrum of a monitor session.
type SpectrumRow struct {
	Timestamp       time.Time
	CenterFrequency float64
	SampleRate      float64
	Powers          []float64
}
