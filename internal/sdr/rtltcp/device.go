// Package rtltcp implements the acquisition device over the rtl_tcp
// network protocol: a dongle info handshake on connect, big-endian
// command words for tuning, and a stream of unsigned 8-bit IQ pairs.
package rtltcp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/constanza1110101/tetra-analyzer/internal/sdr"
)

var dongleMagic = [4]byte{'R', 'T', 'L', '0'}

// rtl_tcp command words, as defined in rtl_tcp.c.
const (
	cmdCenterFreq = iota + 1
	cmdSampleRate
	cmdTunerGainMode
	cmdTunerGain
	_ // freq correction
	_ // tuner IF gain
	_ // test mode
	cmdAGCMode
)

// Config holds the rtl_tcp connection settings.
type Config struct {
	Address    string  `yaml:"address"`    // host:port of the rtl_tcp server
	SampleRate float64 `yaml:"sampleRate"` // Hz
	Gain       float64 `yaml:"gain"`       // tuner gain in dB, 0 enables AGC
}

// dongleInfo is the banner sent by rtl_tcp on connect.
type dongleInfo struct {
	Magic     [4]byte
	Tuner     uint32
	GainCount uint32
}

// Device is an IQ sample source backed by an rtl_tcp server.
type Device struct {
	conn       *net.TCPConn
	info       dongleInfo
	address    string
	sampleRate float64
	logger     *slog.Logger
}

// WithLogger sets the logger for the device.
func WithLogger(logger *slog.Logger) func(*Device) {
	return func(d *Device) {
		d.logger = logger.With(
			slog.String("device", d.Device()),
			slog.String("deviceID", d.ID()),
		)
	}
}

// New connects to an rtl_tcp server and configures sample rate and gain.
func New(config *Config, options ...func(*Device)) (*Device, error) {
	addr, err := net.ResolveTCPAddr("tcp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("resolving rtl_tcp address: %w", err)
	}

	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to rtl_tcp server: %w", err)
	}

	d := Device{
		conn:       conn,
		address:    config.Address,
		sampleRate: config.SampleRate,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	if err = binary.Read(conn, binary.BigEndian, &d.info); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("reading dongle info: %w", err)
	}
	if d.info.Magic != dongleMagic {
		_ = conn.Close()
		return nil, fmt.Errorf("bad dongle magic: %q", d.info.Magic)
	}

	for _, option := range options {
		option(&d)
	}

	if err = d.do(cmdSampleRate, uint32(config.SampleRate)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting sample rate: %w", err)
	}
	if config.Gain > 0 {
		if err = d.do(cmdTunerGainMode, 1); err == nil {
			err = d.do(cmdTunerGain, uint32(config.Gain*10))
		}
	} else {
		err = d.do(cmdAGCMode, 1)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting gain: %w", err)
	}

	d.logger.Info("connected to rtl_tcp server",
		slog.Uint64("tuner", uint64(d.info.Tuner)),
		slog.Uint64("gainCount", uint64(d.info.GainCount)))

	return &d, nil
}

// do writes one big-endian command word to the server.
func (d *Device) do(cmd uint8, v uint32) error {
	var buf [5]byte
	buf[0] = cmd
	binary.BigEndian.PutUint32(buf[1:], v)
	_, err := d.conn.Write(buf[:])
	return err
}

// Retune points the dongle at a new center frequency.
func (d *Device) Retune(ctx context.Context, centerHz float64) error {
	if err := ctx.Err(); err != nil {
		return &sdr.AcquisitionError{Op: "retune", Err: err}
	}
	if centerHz <= 0 {
		return &sdr.AcquisitionError{Op: "retune", Err: sdr.ErrRetuneRejected}
	}
	if err := d.do(cmdCenterFreq, uint32(centerHz)); err != nil {
		return &sdr.AcquisitionError{Op: "retune", Err: err}
	}
	return nil
}

// ReadBlock reads n IQ samples from the stream. rtl_tcp delivers
// unsigned 8-bit I/Q pairs which are mapped onto [-1, 1).
func (d *Device) ReadBlock(ctx context.Context, n int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, &sdr.AcquisitionError{Op: "read", Err: err}
	}

	raw := make([]byte, 2*n)
	if _, err := io.ReadFull(d.conn, raw); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = sdr.ErrShortRead
		}
		return nil, &sdr.AcquisitionError{Op: "read", Err: err}
	}

	block := make([]complex128, n)
	for i := range block {
		block[i] = complex(
			(float64(raw[2*i])-127)/128,
			(float64(raw[2*i+1])-127)/128,
		)
	}
	return block, nil
}

// SampleRate returns the configured sample rate in Hz.
func (d *Device) SampleRate() float64 { return d.sampleRate }

// Device returns the device type.
func (d *Device) Device() string { return "rtl-tcp" }

// ID returns the server address as the device identifier.
func (d *Device) ID() string { return d.address }

// Close closes the connection to the rtl_tcp server.
func (d *Device) Close() error { return d.conn.Close() }
