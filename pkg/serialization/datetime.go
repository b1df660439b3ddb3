package serialization

import (
	"fmt"
	"strings"
	"time"
)

// standardDateFormats maps single letter format strings to their patterns.
var standardDateFormats = map[string]string{
	"d": "MM/dd/yyyy",
	"D": "dddd, dd MMMM yyyy",
	"t": "HH:mm",
	"T": "HH:mm:ss",
	"g": "MM/dd/yyyy HH:mm",
	"G": "MM/dd/yyyy HH:mm:ss",
	"s": "yyyy'-'MM'-'dd'T'HH':'mm':'ss",
	"u": "yyyy'-'MM'-'dd HH':'mm':'ss'Z'",
}

// dateTokens is ordered longest first so greedy matching picks "yyyy" over "yy".
var dateTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"fff", "000"},
	{"ff", "00"},
	{"f", "0"},
	{"tt", "PM"},
	{"zzz", "-07:00"},
	{"zz", "-07"},
	{"K", "Z07:00"},
}

// dateSegment is one piece of a compiled date format: a Go layout token, a
// fraction of a second with frac digits, or a literal.
type dateSegment struct {
	layout  string
	frac    int
	literal string
}

func (s dateSegment) format(t time.Time) string {
	switch {
	case s.frac > 0:
		ns := t.Nanosecond()
		for range 9 - s.frac {
			ns /= 10
		}
		return fmt.Sprintf("%0*d", s.frac, ns)
	case s.layout != "":
		return t.Format(s.layout)
	}
	return s.literal
}

// layoutSamples differ from Go's reference time in every field, so a literal
// that Go would read as a layout element changes the formatted output.
var layoutSamples = []time.Time{
	time.Date(2011, time.November, 13, 9, 8, 7, 123456789, time.FixedZone("", 5*3600+30*60)),
	time.Date(2013, time.February, 28, 21, 41, 59, 987000000, time.UTC),
}

// dateLayout translates a .NET style date format string into a Go layout.
// An empty format yields RFC 3339, "o" and "O" the round-trip layout. Go
// layouts cannot escape text, so a literal that Go would read as part of the
// date, such as 'Q1' or 'Mon', is an error.
func dateLayout(format string) (string, error) {
	switch format {
	case "":
		return time.RFC3339, nil
	case "o", "O":
		return time.RFC3339Nano, nil
	}
	original := format
	if std, ok := standardDateFormats[format]; ok {
		format = std
	}
	var segments []dateSegment
	for i := 0; i < len(format); {
		c := format[i]
		switch c {
		case '\'', '"':
			end := strings.IndexByte(format[i+1:], c)
			if end < 0 {
				return "", fmt.Errorf("unterminated literal in date format %q", original)
			}
			segments = append(segments, dateSegment{literal: format[i+1 : i+1+end]})
			i += end + 2
			continue
		case '\\':
			if i+1 >= len(format) {
				return "", fmt.Errorf("dangling escape in date format %q", original)
			}
			segments = append(segments, dateSegment{literal: format[i+1 : i+2]})
			i += 2
			continue
		}
		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				seg := dateSegment{layout: t.layout}
				if t.token[0] == 'f' {
					seg = dateSegment{layout: t.layout, frac: len(t.token)}
				}
				segments = append(segments, seg)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			segments = append(segments, dateSegment{literal: format[i : i+1]})
			i++
		}
	}
	var b strings.Builder
	for _, seg := range segments {
		if seg.layout != "" {
			b.WriteString(seg.layout)
		} else {
			b.WriteString(seg.literal)
		}
	}
	layout := b.String()
	for _, sample := range layoutSamples {
		var want strings.Builder
		for _, seg := range segments {
			want.WriteString(seg.format(sample))
		}
		if got := sample.Format(layout); got != want.String() {
			return "", fmt.Errorf("date format %q has literal text that cannot be kept apart from the date fields", original)
		}
	}
	return layout, nil
}
