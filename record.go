package logmux

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Record is a single log event. It is immutable once created and carries
// only plain data so it survives serialization across the queue boundary.
type Record struct {
	Time    time.Time `json:"time"`
	Logger  string    `json:"logger"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	PID     int       `json:"pid"`
}

// encode serializes a record for queue transport.
func (r Record) encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmtErrorf("failed to encode record: %w", err)
	}
	return data, nil
}

// decodeRecord restores a record from its transport form.
func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmtErrorf("failed to decode record: %w", err)
	}
	return r, nil
}

// complexDumper renders values without an explicit fast path below.
// Configured for compact, deterministic log output.
var complexDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// renderMessage converts facade arguments to the record message text.
// Primitives take strconv fast paths; composite values are delegated to spew.
func renderMessage(args []any) string {
	buf := make([]byte, 0, 64)
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return string(buf)
}

func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	default:
		// Structs, maps, slices and pointers get a compact spew dump.
		var b bytes.Buffer
		complexDumper.Fdump(&b, val)
		return append(buf, bytes.TrimSpace(b.Bytes())...)
	}
}
