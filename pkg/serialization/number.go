package serialization

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numberFormat is a compiled numeric format string.
type numberFormat struct {
	kind     byte // 'G' general, 'N', 'F', 'D', 'P', 'X', 'x' or 'C' custom
	minInt   int
	minFrac  int
	maxFrac  int // -1 means shortest representation
	grouping bool
	percent  bool
	prefix   string
	suffix   string
}

// compileNumberFormat understands the standard formats N, F, D, P and X with
// an optional precision, and custom patterns made of 0, #, the group marker
// ',' and the decimal marker '.'.
func compileNumberFormat(format string) (numberFormat, error) {
	if format == "" {
		return numberFormat{kind: 'G', maxFrac: -1}, nil
	}
	if nf, ok, err := compileStandard(format); ok || err != nil {
		return nf, err
	}
	return compileCustom(format)
}

func compileStandard(format string) (numberFormat, bool, error) {
	spec := format[0]
	switch spec {
	case 'N', 'n', 'F', 'f', 'D', 'd', 'P', 'p', 'X', 'x', 'G', 'g':
	default:
		return numberFormat{}, false, nil
	}
	precision := -1
	if len(format) > 1 {
		p, err := strconv.Atoi(format[1:])
		if err != nil {
			// Not a standard format; could still be a custom one.
			return numberFormat{}, false, nil
		}
		if p < 0 || p > 30 {
			return numberFormat{}, true, fmt.Errorf("precision out of range in format %q", format)
		}
		precision = p
	}
	orDefault := func(def int) int {
		if precision < 0 {
			return def
		}
		return precision
	}
	switch spec {
	case 'N', 'n':
		p := orDefault(2)
		return numberFormat{kind: 'N', minInt: 1, minFrac: p, maxFrac: p, grouping: true}, true, nil
	case 'F', 'f':
		p := orDefault(2)
		return numberFormat{kind: 'F', minInt: 1, minFrac: p, maxFrac: p}, true, nil
	case 'D', 'd':
		return numberFormat{kind: 'D', minInt: orDefault(1)}, true, nil
	case 'P', 'p':
		p := orDefault(2)
		return numberFormat{kind: 'P', minInt: 1, minFrac: p, maxFrac: p, grouping: true, percent: true, suffix: "%"}, true, nil
	case 'X':
		return numberFormat{kind: 'X', minInt: orDefault(1)}, true, nil
	case 'x':
		return numberFormat{kind: 'x', minInt: orDefault(1)}, true, nil
	default:
		return numberFormat{kind: 'G', maxFrac: -1}, true, nil
	}
}

func compileCustom(format string) (numberFormat, error) {
	first := strings.IndexAny(format, "0#")
	last := strings.LastIndexAny(format, "0#")
	if first < 0 {
		return numberFormat{}, fmt.Errorf("invalid number format %q", format)
	}
	nf := numberFormat{kind: 'C', prefix: format[:first], suffix: format[last+1:]}
	body := format[first : last+1]
	intPart, fracPart, hasDot := strings.Cut(body, ".")
	for _, r := range intPart {
		switch r {
		case '0':
			nf.minInt++
		case '#':
		case ',':
			nf.grouping = true
		default:
			return numberFormat{}, fmt.Errorf("unexpected %q in number format %q", r, format)
		}
	}
	if hasDot {
		for _, r := range fracPart {
			switch r {
			case '0':
				nf.minFrac++
				nf.maxFrac++
			case '#':
				nf.maxFrac++
			default:
				return numberFormat{}, fmt.Errorf("unexpected %q in number format %q", r, format)
			}
		}
	}
	if strings.Contains(nf.prefix, "%") || strings.Contains(nf.suffix, "%") {
		nf.percent = true
	}
	return nf, nil
}

// formatFloat renders v in culture c.
func (nf numberFormat) formatFloat(v float64, c Culture) (string, error) {
	switch nf.kind {
	case 'D', 'X', 'x':
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return "", fmt.Errorf("format %c requires an integral value", nf.kind)
		}
		return nf.formatInt(int64(v), c, 64), nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	if nf.percent {
		v *= 100
	}
	neg := math.Signbit(v) && v != 0
	digits := strconv.FormatFloat(math.Abs(v), 'f', nf.maxFrac, 64)
	intPart, fracPart, _ := strings.Cut(digits, ".")
	if nf.maxFrac >= 0 {
		for len(fracPart) > nf.minFrac && strings.HasSuffix(fracPart, "0") {
			fracPart = fracPart[:len(fracPart)-1]
		}
	}
	if neg && strings.Trim(intPart+fracPart, "0") == "" {
		neg = false
	}
	return nf.compose(neg, intPart, fracPart, c), nil
}

// formatInt renders v in culture c. Hexadecimal output of negative values is
// the two's complement at the given bit size.
func (nf numberFormat) formatInt(v int64, c Culture, bits int) string {
	neg := v < 0
	var digits string
	switch nf.kind {
	case 'X':
		digits = strings.ToUpper(strconv.FormatUint(twosComplement(v, bits), 16))
		neg = false
	case 'x':
		digits = strconv.FormatUint(twosComplement(v, bits), 16)
		neg = false
	default:
		u := uint64(v)
		if neg {
			u = -u
		}
		if nf.percent {
			s, _ := nf.formatFloat(float64(v), c)
			return s
		}
		digits = strconv.FormatUint(u, 10)
	}
	frac := strings.Repeat("0", nf.minFrac)
	return nf.compose(neg, digits, frac, c)
}

func twosComplement(v int64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<uint(bits) - 1)
}

func signExtend(u uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(u)
	}
	shift := uint(64 - bits)
	return int64(u<<shift) >> shift
}

func (nf numberFormat) formatUint(v uint64, c Culture) string {
	switch nf.kind {
	case 'X':
		return nf.compose(false, strings.ToUpper(strconv.FormatUint(v, 16)), "", c)
	case 'x':
		return nf.compose(false, strconv.FormatUint(v, 16), "", c)
	}
	if nf.percent {
		s, _ := nf.formatFloat(float64(v), c)
		return s
	}
	return nf.compose(false, strconv.FormatUint(v, 10), strings.Repeat("0", nf.minFrac), c)
}

func (nf numberFormat) compose(neg bool, intPart, fracPart string, c Culture) string {
	if nf.kind == 'C' && nf.minInt == 0 && intPart == "0" && fracPart != "" {
		intPart = ""
	}
	for len(intPart) < nf.minInt {
		intPart = "0" + intPart
	}
	if nf.grouping && c.Group != "" {
		intPart = group(intPart, c.Group)
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(nf.prefix)
	b.WriteString(intPart)
	if fracPart != "" {
		b.WriteString(c.Decimal)
		b.WriteString(fracPart)
	}
	b.WriteString(nf.suffix)
	return b.String()
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// normalize strips decorations and returns the number in Go syntax.
func (nf numberFormat) normalize(s string, c Culture) (string, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, nf.prefix)
	s = strings.TrimSuffix(s, nf.suffix)
	if nf.percent {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	if c.Group != "" {
		s = strings.ReplaceAll(s, c.Group, "")
	}
	if c.Decimal != "." {
		s = strings.ReplaceAll(s, c.Decimal, ".")
	}
	if neg {
		s = "-" + s
	}
	return s, nf.percent
}

func (nf numberFormat) parseFloat(s string, c Culture, bits int) (float64, error) {
	norm, percent := nf.normalize(s, c)
	v, err := strconv.ParseFloat(norm, bits)
	if err != nil {
		return 0, err
	}
	if percent {
		v /= 100
	}
	return v, nil
}

func (nf numberFormat) parseInt(s string, c Culture, bits int) (int64, error) {
	if nf.kind == 'X' || nf.kind == 'x' {
		u, err := strconv.ParseUint(strings.TrimSpace(s), 16, bits)
		if err != nil {
			return 0, err
		}
		return signExtend(u, bits), nil
	}
	norm, percent := nf.normalize(s, c)
	if !percent && !strings.Contains(norm, ".") {
		return strconv.ParseInt(norm, 10, bits)
	}
	f, err := nf.parseFloat(s, c, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integral number", s)
	}
	return int64(f), nil
}

func (nf numberFormat) parseUint(s string, c Culture, bits int) (uint64, error) {
	if nf.kind == 'X' || nf.kind == 'x' {
		return strconv.ParseUint(strings.TrimSpace(s), 16, bits)
	}
	norm, percent := nf.normalize(s, c)
	if !percent && !strings.Contains(norm, ".") {
		return strconv.ParseUint(norm, 10, bits)
	}
	f, err := nf.parseFloat(s, c, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("%q is not an unsigned integral number", s)
	}
	return uint64(f), nil
}
