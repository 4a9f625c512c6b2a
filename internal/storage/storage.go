// Package storage persists sessions, detected signals and power spectra
// in a SQLite database. Writes and reads go through separate lazily
// opened connections: the write side runs in WAL mode, the read side is
// opened read-only for the waterfall renderer.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

//go:embed schema.sql
var schemaSQL string

// Store handles database operations.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store backed by the SQLite database at dbPath. The
// schema is initialized on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

const insertSessionSQL = `
INSERT INTO sessions (uuid, start_time, mode, device_type, device_id, config)
VALUES (?, CURRENT_TIMESTAMP, ?, ?, ?, ?)`

// CreateSession records a new session and returns its ID. config may be
// a string, []byte or any JSON-serializable value.
func (s *Store) CreateSession(ctx context.Context, mode, deviceType, deviceID string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		configData = sql.NullString{String: c, Valid: true}
	case []byte:
		configData = sql.NullString{String: string(c), Valid: true}
	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}
		configData = sql.NullString{String: string(p), Valid: true}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	result, err := db.ExecContext(ctx, insertSessionSQL, uuid.NewString(), mode, deviceType, deviceID, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

const insertSignalSQL = `
INSERT INTO signals (session_id, timestamp, frequency, power, bandwidth, service, modulation)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// InsertSignal stores one detected signal.
func (s *Store) InsertSignal(ctx context.Context, sessionID int64, sig spectrum.Signal) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	_, err = db.ExecContext(ctx, insertSignalSQL,
		sessionID,
		sig.Timestamp.UTC(),
		sig.Frequency,
		sig.Power,
		sig.Bandwidth,
		string(sig.Service),
		string(sig.Modulation),
	)
	if err != nil {
		return fmt.Errorf("inserting signal: %w", err)
	}
	return nil
}

const insertSpectrumSQL = `
INSERT INTO spectra (session_id, timestamp, center_frequency, sample_rate, num_bins, powers)
VALUES (?, ?, ?, ?, ?, ?)`

// InsertSpectrum stores one power spectrum with its bins encoded as a
// little-endian float64 blob.
func (s *Store) InsertSpectrum(ctx context.Context, sessionID int64, frame spectrum.Frame, centerHz, sampleRateHz float64) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	_, err = db.ExecContext(ctx, insertSpectrumSQL,
		sessionID,
		frame.Timestamp.UTC(),
		centerHz,
		sampleRateHz,
		len(frame.Spectrum),
		encodePowers(frame.Spectrum),
	)
	if err != nil {
		return fmt.Errorf("inserting spectrum: %w", err)
	}
	return nil
}

const selectSessionSQL = `
SELECT
    id,
    uuid,
    start_time,
    mode,
    device_type,
    device_id,
    config
FROM sessions
WHERE
    id = ?`

// Session returns a session by its ID.
func (s *Store) Session(ctx context.Context, id int64) (*SessionData, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var sess SessionData
	err = db.QueryRowContext(ctx, selectSessionSQL, id).Scan(
		&sess.ID, &sess.UUID, &sess.StartTime, &sess.Mode, &sess.DeviceType, &sess.DeviceID, &sess.Config)
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

const selectSessionsSQL = `
SELECT
    id,
    uuid,
    start_time,
    mode,
    device_type,
    device_id,
    config
FROM sessions
ORDER BY start_time`

// Sessions returns all recorded sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) (sessions []SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess SessionData
		if err = rows.Scan(&sess.ID, &sess.UUID, &sess.StartTime, &sess.Mode, &sess.DeviceType, &sess.DeviceID, &sess.Config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

const selectSpectraSQL = `
SELECT
    timestamp,
    center_frequency,
    sample_rate,
    num_bins,
    powers
FROM spectra
WHERE
    session_id = ?
ORDER BY timestamp, id`

// Spectra returns the stored spectra of a session in insertion order.
func (s *Store) Spectra(ctx context.Context, sessionID int64) (spectra []SpectrumRow, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSpectraSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying spectra: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row SpectrumRow
		var numBins int
		var blob []byte
		if err = rows.Scan(&row.Timestamp, &row.CenterFrequency, &row.SampleRate, &numBins, &blob); err != nil {
			err = fmt.Errorf("scanning spectrum: %w", err)
			return
		}
		if row.Powers, err = decodePowers(blob, numBins); err != nil {
			err = fmt.Errorf("decoding spectrum: %w", err)
			return
		}
		spectra = append(spectra, row)
	}
	err = rows.Err()
	return
}

// Close closes the database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func encodePowers(powers []float64) []byte {
	buf := make([]byte, 8*len(powers))
	for i, p := range powers {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(p))
	}
	return buf
}

func decodePowers(blob []byte, numBins int) ([]float64, error) {
	if len(blob) != 8*numBins {
		return nil, fmt.Errorf("power blob length %d does not match %d bins", len(blob), numBins)
	}
	powers := make([]float64, numBins)
	for i := range powers {
		powers[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return powers, nil
}
