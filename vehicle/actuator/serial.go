package actuator

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// Serial talks to the drive controller board over a serial line. The board
// announces itself with an "init" line followed by "ready", then accepts
// command frames of the form
//
//	d <velocity mm/s> <steer centidegrees>\n
//
// Frames identical to the previously sent one are suppressed; the board
// latches the last command. Not safe for concurrent use.
type Serial struct {
	rw io.ReadWriteCloser
	w  *bufio.Writer

	lastVel   int
	lastSteer int
	sent      bool
}

// NewSerial wraps an existing connection after performing the handshake.
func NewSerial(rw io.ReadWriteCloser) (*Serial, error) {
	r := bufio.NewReader(rw)
	for _, want := range []string{"init", "ready"} {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("actuator: handshake: %w", err)
		}
		if strings.TrimSpace(line) != want {
			return nil, fmt.Errorf("actuator: handshake: expected %q, got %q", want, strings.TrimSpace(line))
		}
	}
	return &Serial{rw: rw, w: bufio.NewWriter(rw)}, nil
}

// OpenSerial connects to the drive controller on the given port.
func OpenSerial(port string, baud int) (*Serial, error) {
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("actuator: open %s: %w", port, err)
	}
	s, err := NewSerial(p)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// Apply transmits the command, skipping the write when it matches the last
// transmitted frame.
func (s *Serial) Apply(velocity float64, steer geom.Angle) error {
	vel := int(math.Round(velocity * 1000))
	st := int(math.Round(steer.Deg180() * 100))
	if s.sent && vel == s.lastVel && st == s.lastSteer {
		return nil
	}
	if _, err := fmt.Fprintf(s.w, "d %d %d\n", vel, st); err != nil {
		return fmt.Errorf("actuator: write: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("actuator: flush: %w", err)
	}
	s.lastVel, s.lastSteer, s.sent = vel, st, true
	return nil
}

// Close stops the vehicle before releasing the port.
func (s *Serial) Close() error {
	if err := s.Apply(0, geom.Rad(0)); err != nil {
		s.rw.Close()
		return err
	}
	return s.rw.Close()
}
