package logmux

import (
	"strconv"
	"strings"
)

// Formatter renders records through a compiled template. Templates use the
// conventional placeholder form, e.g.
//
//	%(asctime)s - %(name)s - %(levelname)s - %(message)s
//
// with asctime rendered through the configured date format. The template and
// date format are compiled once; Format only appends.
type Formatter struct {
	segments []segment
	layout   string
}

type segKind int

const (
	segLiteral segKind = iota
	segAsctime
	segName
	segLevelname
	segLevelno
	segMessage
	segProcess
)

type segment struct {
	kind segKind
	lit  string
}

// NewFormatter compiles a template and date format. Empty arguments fall back
// to DefaultFormat and DefaultDatefmt.
func NewFormatter(format, datefmt string) *Formatter {
	if format == "" {
		format = DefaultFormat
	}
	if datefmt == "" {
		datefmt = DefaultDatefmt
	}
	return &Formatter{
		segments: compileTemplate(format),
		layout:   convertDateLayout(datefmt),
	}
}

// Format renders a record as a single line without a trailing newline.
func (f *Formatter) Format(r Record) []byte {
	buf := make([]byte, 0, 128)
	for _, seg := range f.segments {
		switch seg.kind {
		case segLiteral:
			buf = append(buf, seg.lit...)
		case segAsctime:
			buf = r.Time.AppendFormat(buf, f.layout)
		case segName:
			buf = append(buf, r.Logger...)
		case segLevelname:
			buf = append(buf, r.Level.String()...)
		case segLevelno:
			buf = strconv.AppendInt(buf, int64(r.Level), 10)
		case segMessage:
			buf = append(buf, r.Message...)
		case segProcess:
			buf = strconv.AppendInt(buf, int64(r.PID), 10)
		}
	}
	return buf
}

// compileTemplate splits a template into literal and placeholder segments.
// Unrecognized placeholders are kept verbatim as literals.
func compileTemplate(format string) []segment {
	var segments []segment
	lit := make([]byte, 0, len(format))

	flushLit := func() {
		if len(lit) > 0 {
			segments = append(segments, segment{kind: segLiteral, lit: string(lit)})
			lit = lit[:0]
		}
	}

	for i := 0; i < len(format); {
		if format[i] != '%' || i+1 >= len(format) {
			lit = append(lit, format[i])
			i++
			continue
		}
		if format[i+1] == '%' {
			lit = append(lit, '%')
			i += 2
			continue
		}
		if format[i+1] != '(' {
			lit = append(lit, format[i])
			i++
			continue
		}

		end := strings.IndexByte(format[i+2:], ')')
		if end < 0 || i+2+end+1 >= len(format) {
			lit = append(lit, format[i])
			i++
			continue
		}
		name := format[i+2 : i+2+end]
		verb := format[i+2+end+1]
		width := 2 + end + 2 // "%(" + name + ")" + verb

		kind, ok := placeholderKind(name, verb)
		if !ok {
			lit = append(lit, format[i:i+width]...)
			i += width
			continue
		}

		flushLit()
		segments = append(segments, segment{kind: kind})
		i += width
	}
	flushLit()

	return segments
}

func placeholderKind(name string, verb byte) (segKind, bool) {
	switch {
	case name == "asctime" && verb == 's':
		return segAsctime, true
	case name == "name" && verb == 's':
		return segName, true
	case name == "levelname" && verb == 's':
		return segLevelname, true
	case name == "levelno" && verb == 'd':
		return segLevelno, true
	case name == "message" && verb == 's':
		return segMessage, true
	case name == "process" && verb == 'd':
		return segProcess, true
	}
	return 0, false
}

// strftime directive translations for the date format.
var strftimeToGo = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'a': "Mon",
	'A': "Monday",
	'b': "Jan",
	'B': "January",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
}

// convertDateLayout translates strftime directives to a Go time layout.
// Formats without '%' are assumed to already be Go layouts.
func convertDateLayout(datefmt string) string {
	if !strings.ContainsRune(datefmt, '%') {
		return datefmt
	}

	var sb strings.Builder
	sb.Grow(len(datefmt) + 8)
	for i := 0; i < len(datefmt); i++ {
		if datefmt[i] != '%' || i+1 >= len(datefmt) {
			sb.WriteByte(datefmt[i])
			continue
		}
		i++
		if datefmt[i] == '%' {
			sb.WriteByte('%')
			continue
		}
		if layout, ok := strftimeToGo[datefmt[i]]; ok {
			sb.WriteString(layout)
		} else {
			// Unsupported directive, keep it visible rather than guessing.
			sb.WriteByte('%')
			sb.WriteByte(datefmt[i])
		}
	}
	return sb.String()
}
