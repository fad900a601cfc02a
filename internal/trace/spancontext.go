package trace

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// SpanContext is a parent span context built from the hex trace and
// span IDs a caller passes through the environment. It satisfies
// ddtrace.SpanContextW3C, whose stock implementation is private to
// the tracer package.
type SpanContext struct {
	// Big endian, upper half first.
	traceID [16]byte
	spanID  uint64
}

var ErrSpanContextCorrupted = errors.New("span context corrupted")

func (c *SpanContext) TraceID() uint64 {
	return binary.BigEndian.Uint64(c.traceID[8:])
}

func (c *SpanContext) TraceID128() string {
	return hex.EncodeToString(c.traceID[:])
}

func (c *SpanContext) TraceID128Bytes() [16]byte {
	return c.traceID
}

func (c *SpanContext) SpanID() uint64 {
	return c.spanID
}

func (c *SpanContext) ForeachBaggageItem(handler func(k, v string) bool) {}

// ParseTraceID accepts a 64 or 128 bit trace ID in hex. Longer input
// keeps only the low 128 bits.
func (c *SpanContext) ParseTraceID(v string) error {
	if len(v) > 32 {
		v = v[len(v)-32:]
	}
	v = strings.TrimLeft(v, "0")
	if v == "" {
		return ErrSpanContextCorrupted
	}

	upper := ""
	lower := v
	if len(v) > 16 {
		upper = v[:len(v)-16]
		lower = v[len(v)-16:]
	}

	var traceID [16]byte
	if upper != "" {
		u, err := strconv.ParseUint(upper, 16, 64)
		if err != nil {
			return ErrSpanContextCorrupted
		}
		binary.BigEndian.PutUint64(traceID[:8], u)
	}
	l, err := strconv.ParseUint(lower, 16, 64)
	if err != nil {
		return ErrSpanContextCorrupted
	}
	binary.BigEndian.PutUint64(traceID[8:], l)

	c.traceID = traceID
	return nil
}

func (c *SpanContext) ParseSpanID(v string) error {
	id, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return ErrSpanContextCorrupted
	}
	c.spanID = id
	return nil
}
