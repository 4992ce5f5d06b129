package telemetry

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// Record is one tick of the drive log: the pose the estimator settled on and
// the command the planner chose. Fixed-size so records stream as plain
// little-endian frames.
type Record struct {
	Tick      uint64
	X, Y      float64 // front reference point, metres
	OrientDeg float64
	Velocity  float64 // commanded, m/s
	SteerDeg  float64 // commanded
}

// Encode writes the record as a little-endian binary frame.
func (r *Record) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, r)
}

// Decode reads one binary frame.
func (r *Record) Decode(rd io.Reader) error {
	return binary.Read(rd, binary.LittleEndian, r)
}

// DriveLog records ticks to a file for offline playback.
type DriveLog struct {
	Records []Record

	file   *os.File
	writer *bufio.Writer
}

// NewRecorder creates a drive log file for recording.
func NewRecorder(path string) (*DriveLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &DriveLog{file: f, writer: bufio.NewWriter(f)}, nil
}

// Record appends one tick.
func (l *DriveLog) Record(rec Record) error {
	l.Records = append(l.Records, rec)
	return rec.Encode(l.writer)
}

// Close flushes and closes the log file.
func (l *DriveLog) Close() error {
	if l.writer != nil {
		l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LoadDriveLog reads a recorded drive log.
func LoadDriveLog(path string) (*DriveLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log := &DriveLog{}
	reader := bufio.NewReader(f)
	for {
		var rec Record
		if err := rec.Decode(reader); err != nil {
			break
		}
		log.Records = append(log.Records, rec)
	}
	return log, nil
}

// At returns the record for a tick during playback.
func (l *DriveLog) At(tick uint64) (Record, bool) {
	for _, rec := range l.Records {
		if rec.Tick == tick {
			return rec, true
		}
	}
	return Record{}, false
}
