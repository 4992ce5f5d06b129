// Package beacon drives a StarGazer-class ceiling-marker positioning sensor
// over a serial line. The sensor speaks a request/response protocol of
// backtick-terminated sentences: commands `~#Name`` are acknowledged by the
// same sentence with `#` replaced by `!`, parameter reads `~@Name`` answer
// `~$Name|Value``, and position fixes stream as `~^I<id>|<θ>|<x>|<y>|<z>``.
package beacon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// ErrDeadZone reports that the sensor sees no marker. Callers typically keep
// the previous estimate and retry next cycle.
var ErrDeadZone = errors.New("beacon: marker dead zone")

// Fix is one decoded position sentence, converted to metres and radians in
// the map frame.
type Fix struct {
	Marker   int // id of the ceiling marker the fix derives from
	Position geom.Vec
	Height   float64
	Theta    geom.Angle
}

const (
	maxSentenceLen  = 40
	stopCalcRetries = 5
)

// Device is an open beacon connection. Not safe for concurrent use.
type Device struct {
	rw  io.ReadWriteCloser
	br  *bufio.Reader
	log *slog.Logger

	// CharDelay is the pause between transmitted characters. The sensor's
	// UART drops input sent back to back; Open sets a safe default.
	CharDelay time.Duration
}

// New wraps an existing connection, typically for tests. Use Open for real
// hardware.
func New(rw io.ReadWriteCloser) *Device {
	return &Device{
		rw:  rw,
		br:  bufio.NewReader(rw),
		log: slog.With("component", "beacon"),
	}
}

// Open connects to the sensor, halts any running calculation and verifies
// the link by reading the firmware version.
func Open(port string, baud int) (*Device, error) {
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("beacon: open %s: %w", port, err)
	}
	d := New(p)
	d.CharDelay = 2 * time.Millisecond

	if err := d.StopCalc(); err != nil {
		p.Close()
		return nil, err
	}
	version, err := d.ReadParameter("Version")
	if err != nil {
		p.Close()
		return nil, err
	}
	d.log.Info("connected", "port", port, "firmware", version)
	return d, nil
}

// StartCalc begins position calculation; fixes stream until StopCalc.
func (d *Device) StartCalc() error { return d.command("CalcStart") }

// StopCalc halts position calculation. The sensor ignores the command while
// a sentence is in flight, so it is retried with a buffer flush in between
// (the manual requires repeating until acknowledged).
func (d *Device) StopCalc() error {
	var err error
	for i := 0; i < stopCalcRetries; i++ {
		if err = d.command("CalcStop"); err == nil {
			return nil
		}
		d.flush()
	}
	return fmt.Errorf("beacon: CalcStop not acknowledged: %w", err)
}

// ReadFix reads and decodes the next position sentence. Returns ErrDeadZone
// when the sensor sees no marker.
func (d *Device) ReadFix() (Fix, error) {
	s, err := d.readSentence()
	if err != nil {
		return Fix{}, err
	}
	return parseSentence(s)
}

// ReadParameter reads a named firmware parameter.
func (d *Device) ReadParameter(name string) (string, error) {
	if err := d.sendString("~@" + name + "`"); err != nil {
		return "", err
	}
	resp, err := d.readSentence()
	if err != nil {
		return "", err
	}
	// Response: ~$Name|Value`
	sep := strings.IndexByte(resp, '|')
	if sep < 0 || !strings.HasSuffix(resp, "`") {
		return "", fmt.Errorf("beacon: malformed parameter response %q", resp)
	}
	return resp[sep+1 : len(resp)-1], nil
}

// WriteParameter sets a named firmware parameter and waits for the sensor to
// commit it (which may take seconds).
func (d *Device) WriteParameter(name, value string) error {
	if err := d.command(name + "|" + value); err != nil {
		return err
	}
	if err := d.command("SetEnd"); err != nil {
		return err
	}
	// The commit notification arrives after a noticeable pause.
	for {
		s, err := d.readSentence()
		if err != nil {
			return fmt.Errorf("beacon: waiting for parameter commit: %w", err)
		}
		if s == "~!ParameterUpdate`" {
			return nil
		}
	}
}

func (d *Device) Close() error { return d.rw.Close() }

// command sends `~#name`` and verifies the `~!name`` acknowledge.
func (d *Device) command(name string) error {
	cmd := "~#" + name + "`"
	if err := d.sendString(cmd); err != nil {
		return err
	}
	ack, err := d.readSentence()
	if err != nil {
		return err
	}
	want := "~!" + name + "`"
	if ack != want {
		return fmt.Errorf("beacon: command %q acknowledged with %q, want %q", cmd, ack, want)
	}
	return nil
}

// sendString transmits one sentence, pacing characters by CharDelay.
func (d *Device) sendString(s string) error {
	for i := 0; i < len(s); i++ {
		if _, err := d.rw.Write([]byte{s[i]}); err != nil {
			return fmt.Errorf("beacon: write: %w", err)
		}
		if d.CharDelay > 0 {
			time.Sleep(d.CharDelay)
		}
	}
	return nil
}

// readSentence reads one backtick-terminated sentence. Control or non-ASCII
// bytes abort the sentence; so does exceeding the length cap.
func (d *Device) readSentence() (string, error) {
	var b strings.Builder
	for {
		c, err := d.br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("beacon: read: %w", err)
		}
		if c <= 32 || c > 127 {
			return "", fmt.Errorf("beacon: unexpected byte 0x%02x in sentence", c)
		}
		b.WriteByte(c)
		if c == '`' {
			return b.String(), nil
		}
		if b.Len() >= maxSentenceLen {
			return "", fmt.Errorf("beacon: sentence exceeds %d bytes: %q", maxSentenceLen, b.String())
		}
	}
}

// flush discards buffered input until the line is quiet.
func (d *Device) flush() {
	for {
		if _, err := d.br.ReadByte(); err != nil {
			return
		}
	}
}

// parseSentence decodes a position sentence. The sensor reports centimetres
// and an inverted angle in degrees; the Fix is metres and radians.
func parseSentence(s string) (Fix, error) {
	if s == "~*DeadZone`" {
		return Fix{}, ErrDeadZone
	}
	// Acks or parameter answers arriving mid-stream are not position fixes.
	if !strings.HasPrefix(s, "~^I") || !strings.HasSuffix(s, "`") || len(s) < 5 {
		return Fix{}, fmt.Errorf("beacon: unexpected sentence %q, want position fix", s)
	}

	fields := strings.Split(s[3:len(s)-1], "|")
	if len(fields) != 5 {
		return Fix{}, fmt.Errorf("beacon: position sentence has %d fields, want 5: %q", len(fields), s)
	}

	marker, err := strconv.Atoi(fields[0])
	if err != nil {
		return Fix{}, fmt.Errorf("beacon: marker id %q: %w", fields[0], err)
	}
	vals := make([]float64, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Fix{}, fmt.Errorf("beacon: field %q: %w", f, err)
		}
		vals[i] = v
	}

	return Fix{
		Marker: marker,
		// The sensor inverts the angle.
		Theta:    geom.Deg(-vals[0]),
		Position: geom.Vec{X: vals[1] * 0.01, Y: vals[2] * 0.01},
		Height:   vals[3] * 0.01,
	}, nil
}
