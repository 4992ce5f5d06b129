package beacon

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConn is a scripted serial line: reads come from the response buffer,
// writes are recorded.
type pipeConn struct {
	responses bytes.Buffer
	written   bytes.Buffer
	closed    bool
}

func (p *pipeConn) Read(b []byte) (int, error) {
	if p.responses.Len() == 0 {
		return 0, io.EOF
	}
	return p.responses.Read(b)
}

func (p *pipeConn) Write(b []byte) (int, error) { return p.written.Write(b) }

func (p *pipeConn) Close() error {
	p.closed = true
	return nil
}

func TestParsePositionSentence(t *testing.T) {
	fix, err := parseSentence("~^I23|-12.5|145.2|98.1|210.0`")
	require.NoError(t, err)

	assert.Equal(t, 23, fix.Marker)
	// Centimetres become metres, the inverted angle flips back.
	assert.InDelta(t, 1.452, fix.Position.X, 1e-9)
	assert.InDelta(t, 0.981, fix.Position.Y, 1e-9)
	assert.InDelta(t, 2.1, fix.Height, 1e-9)
	assert.InDelta(t, 12.5, fix.Theta.Deg180(), 1e-9)
}

func TestParseDeadZone(t *testing.T) {
	_, err := parseSentence("~*DeadZone`")
	assert.ErrorIs(t, err, ErrDeadZone)
}

func TestParseMalformedSentences(t *testing.T) {
	for _, s := range []string{"", "~^`", "~^I1|2|3`", "~^Ix|1|2|3|4`", "~^I1|a|2|3|4`"} {
		_, err := parseSentence(s)
		assert.Error(t, err, "sentence %q", s)
	}
}

func TestParseRejectsNonPositionSentences(t *testing.T) {
	// A late ack or parameter answer mixed into the fix stream must be
	// rejected as the wrong sentence type, not half-parsed.
	for _, s := range []string{"~!CalcStop`", "~$Version|v3.21`"} {
		_, err := parseSentence(s)
		require.Error(t, err, "sentence %q", s)
		assert.Contains(t, err.Error(), "unexpected sentence")
	}
}

func TestCommandAcknowledge(t *testing.T) {
	conn := &pipeConn{}
	conn.responses.WriteString("~!CalcStart`")
	d := New(conn)

	require.NoError(t, d.StartCalc())
	assert.Equal(t, "~#CalcStart`", conn.written.String())
}

func TestCommandWrongAcknowledge(t *testing.T) {
	conn := &pipeConn{}
	conn.responses.WriteString("~!SomethingElse`")
	d := New(conn)

	assert.Error(t, d.StartCalc())
}

func TestReadParameter(t *testing.T) {
	conn := &pipeConn{}
	conn.responses.WriteString("~$Version|v3.21`")
	d := New(conn)

	v, err := d.ReadParameter("Version")
	require.NoError(t, err)
	assert.Equal(t, "v3.21", v)
	assert.Equal(t, "~@Version`", conn.written.String())
}

func TestReadFixStream(t *testing.T) {
	conn := &pipeConn{}
	conn.responses.WriteString("~^I7|0.0|100.0|-50.0|180.0`~*DeadZone`")
	d := New(conn)

	fix, err := d.ReadFix()
	require.NoError(t, err)
	assert.Equal(t, 7, fix.Marker)
	assert.InDelta(t, 1.0, fix.Position.X, 1e-9)
	assert.InDelta(t, -0.5, fix.Position.Y, 1e-9)

	_, err = d.ReadFix()
	assert.ErrorIs(t, err, ErrDeadZone)

	// Line quiet: a timeout surfaces as an error, not a fix.
	_, err = d.ReadFix()
	assert.Error(t, err)
}

func TestReadSentenceRejectsBinaryNoise(t *testing.T) {
	conn := &pipeConn{}
	conn.responses.Write([]byte{0x01, 0x02})
	d := New(conn)

	_, err := d.ReadFix()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeadZone)
}
