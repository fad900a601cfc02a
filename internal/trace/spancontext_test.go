package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
)

var _ ddtrace.SpanContextW3C = &SpanContext{}

func TestParseTraceID64(t *testing.T) {
	c := &SpanContext{}
	require.NoError(t, c.ParseTraceID("00000000000000ff"))
	assert.Equal(t, uint64(0xff), c.TraceID())
	assert.Equal(t, "000000000000000000000000000000ff", c.TraceID128())
}

func TestParseTraceID128(t *testing.T) {
	c := &SpanContext{}
	require.NoError(t, c.ParseTraceID("0000000000000001000000000000000a"))
	assert.Equal(t, uint64(0xa), c.TraceID())
	assert.Equal(t, "0000000000000001000000000000000a", c.TraceID128())
}

func TestParseTraceIDCorrupted(t *testing.T) {
	c := &SpanContext{}
	assert.ErrorIs(t, c.ParseTraceID("not-hex"), ErrSpanContextCorrupted)
	assert.ErrorIs(t, c.ParseTraceID(""), ErrSpanContextCorrupted)
}

func TestParseSpanID(t *testing.T) {
	c := &SpanContext{}
	require.NoError(t, c.ParseSpanID("1f"))
	assert.Equal(t, uint64(31), c.SpanID())
	assert.ErrorIs(t, c.ParseSpanID("zz"), ErrSpanContextCorrupted)
}

func TestGetParentContextFromGlobals(t *testing.T) {
	parentTraceID, parentSpanID = "", ""
	parent, err := GetParentContext()
	require.NoError(t, err)
	assert.Nil(t, parent)

	parentTraceID, parentSpanID = "abc", "10"
	defer func() { parentTraceID, parentSpanID = "", "" }()
	parent, err = GetParentContext()
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, uint64(0xabc), parent.TraceID())
	assert.Equal(t, uint64(16), parent.SpanID())
}
