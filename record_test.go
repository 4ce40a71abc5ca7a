package logmux

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEncodeDecode(t *testing.T) {
	original := Record{
		Time:    time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC),
		Logger:  "api",
		Level:   LevelCritical,
		Message: "unicode survives: héllo ✓",
		PID:     999,
	}

	data, err := original.encode()
	require.NoError(t, err)
	require.NotNil(t, data, "an encoded record can never be the nil sentinel")

	decoded, err := decodeRecord(data)
	require.NoError(t, err)
	assert.True(t, decoded.Time.Equal(original.Time))
	assert.Equal(t, original.Logger, decoded.Logger)
	assert.Equal(t, original.Level, decoded.Level)
	assert.Equal(t, original.Message, decoded.Message)
	assert.Equal(t, original.PID, decoded.PID)
}

func TestDecodeRecordInvalid(t *testing.T) {
	_, err := decodeRecord([]byte("{truncated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode record")
}

func TestRenderMessagePrimitives(t *testing.T) {
	testCases := []struct {
		name     string
		args     []any
		expected string
	}{
		{"empty", nil, ""},
		{"single string", []any{"hello"}, "hello"},
		{"mixed", []any{"count", 42, uint64(7), true}, "count 42 7 true"},
		{"floats", []any{float32(1.5), 2.25}, "1.5 2.25"},
		{"nil arg", []any{"value", nil}, "value nil"},
		{"error arg", []any{"failed:", errors.New("boom")}, "failed: boom"},
		{"stringer", []any{LevelWarning}, "WARNING"},
		{"time", []any{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}, "2025-06-01T00:00:00Z"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, renderMessage(tc.args))
		})
	}
}

func TestRenderMessageComposite(t *testing.T) {
	type payload struct {
		ID   int
		Name string
	}

	out := renderMessage([]any{"got", payload{ID: 1, Name: "x"}})
	assert.Contains(t, out, "got ")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Name")

	out = renderMessage([]any{map[string]int{"b": 2, "a": 1}})
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
}
