package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidDuration marks every duration parse failure of this package.
var ErrInvalidDuration = errors.New("codec: invalid duration")

const day = 24 * time.Hour

// FormatXsdDuration renders d as an XSD duration such as PT1H30M or
// P2DT0.5S. The zero duration is PT0S.
func FormatXsdDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')
	if days := d / day; days > 0 {
		b.WriteString(strconv.FormatInt(int64(days), 10))
		b.WriteByte('D')
		d -= days * day
	}
	if d == 0 {
		return b.String()
	}
	b.WriteByte('T')
	if h := d / time.Hour; h > 0 {
		b.WriteString(strconv.FormatInt(int64(h), 10))
		b.WriteByte('H')
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		b.WriteString(strconv.FormatInt(int64(m), 10))
		b.WriteByte('M')
		d -= m * time.Minute
	}
	if d > 0 {
		secs, frac := d/time.Second, d%time.Second
		b.WriteString(strconv.FormatInt(int64(secs), 10))
		if frac > 0 {
			fs := strconv.FormatInt(int64(frac)+int64(time.Second), 10)[1:]
			b.WriteByte('.')
			b.WriteString(strings.TrimRight(fs, "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}

// ParseDuration accepts an XSD duration, Go duration text, a clock form
// [-][d.]hh:mm[:ss[.fffffff]] or a plain number of seconds. Empty input is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "-P") {
		return parseXsdDuration(s)
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if strings.Contains(s, ":") {
		return parseClockDuration(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
}

func parseXsdDuration(s string) (time.Duration, error) {
	neg := false
	body := s
	if body[0] == '-' {
		neg = true
		body = body[1:]
	}
	body = body[1:]

	var total time.Duration
	inTime := false
	start := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == 'T' {
			inTime = true
			start = i + 1
			continue
		}
		if (c >= '0' && c <= '9') || c == '.' {
			continue
		}
		if c == 'S' {
			d, err := exactSeconds(body[start:i])
			if err != nil {
				return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
			}
			total += d
			start = i + 1
			continue
		}
		num, err := strconv.ParseFloat(body[start:i], 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
		}
		var unit time.Duration
		switch {
		case c == 'Y':
			unit = 365 * day
		case c == 'M' && !inTime:
			unit = 30 * day
		case c == 'W':
			unit = 7 * day
		case c == 'D':
			unit = day
		case c == 'H':
			unit = time.Hour
		case c == 'M':
			unit = time.Minute
		default:
			return 0, errors.Wrapf(ErrInvalidDuration, "%q: unknown designator %q", s, c)
		}
		total += time.Duration(num * float64(unit))
		start = i + 1
	}
	if start != len(body) {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q: trailing digits", s)
	}
	if neg {
		total = -total
	}
	return total, nil
}

func exactSeconds(s string) (time.Duration, error) {
	whole, frac, _ := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	ns := 0
	if frac != "" {
		if ns, err = fractionNanos(frac); err != nil {
			return 0, err
		}
	}
	return time.Duration(secs)*time.Second + time.Duration(ns), nil
}

func parseClockDuration(s string) (time.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	var days int64
	if dot, colon := strings.IndexByte(body, '.'), strings.IndexByte(body, ':'); dot >= 0 && dot < colon {
		v, err := strconv.ParseInt(body[:dot], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
		}
		days = v
		body = body[dot+1:]
	}
	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}
	var secs time.Duration
	if len(parts) == 3 {
		if secs, err = exactSeconds(parts[2]); err != nil {
			return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
		}
	}
	d := time.Duration(days)*day + time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + secs
	if neg {
		d = -d
	}
	return d, nil
}
