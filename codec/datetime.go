package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Layouts understood by ParseDate. Parsing picks a layout by input length.
const (
	ShortDateFormat     = "2006-01-02"
	CondensedDateFormat = "20060102"
	LocalFormat         = "02/01/2006 15:04:05"
	LocalFractionFormat = "02/01/2006 15:04:05.000"
	XsdSecondsFormat    = "2006-01-02T15:04:05Z"
	XsdMillisFormat     = "2006-01-02T15:04:05.000Z"
	XsdTicksFormat      = "2006-01-02T15:04:05.0000000Z"
	XsdNanosFormat      = "2006-01-02T15:04:05.000000000Z"
	RFC1123Format       = "Mon, 02 Jan 2006 15:04:05 GMT"
	ISO8601DateTime     = "2006-01-02 15:04:05"

	unzonedFormat = "2006-01-02T15:04:05"
)

const (
	wirePrefix        = "/Date("
	wirePrefixEscaped = `\/Date(`
	wireSuffix        = ")/"
)

// ErrInvalidDate marks every date/time parse failure of this package.
var ErrInvalidDate = errors.New("codec: invalid date")

// DateHandler selects the textual form used when writing date/time values.
type DateHandler int

const (
	// DateHandlerTimestampOffset writes /Date(millis[+-hhmm])/.
	DateHandlerTimestampOffset DateHandler = iota
	// DateHandlerDCJSCompatible writes /Date(millis)/ without an offset.
	DateHandlerDCJSCompatible
	DateHandlerISO8601
	DateHandlerISO8601DateOnly
	DateHandlerISO8601DateTime
	DateHandlerRFC1123
	DateHandlerUnixTime
	DateHandlerUnixTimeMs
	// DateHandlerLocal writes the day-first locale form without a zone, to
	// millisecond precision.
	DateHandlerLocal
)

var dateHandlerNames = map[DateHandler]string{
	DateHandlerTimestampOffset: "timestampoffset",
	DateHandlerDCJSCompatible:  "dcjscompatible",
	DateHandlerISO8601:         "iso8601",
	DateHandlerISO8601DateOnly: "iso8601dateonly",
	DateHandlerISO8601DateTime: "iso8601datetime",
	DateHandlerRFC1123:         "rfc1123",
	DateHandlerUnixTime:        "unixtime",
	DateHandlerUnixTimeMs:      "unixtimems",
	DateHandlerLocal:           "local",
}

var dateHandlerAliases = map[string]DateHandler{
	"to":   DateHandlerTimestampOffset,
	"dcjs": DateHandlerDCJSCompatible,
	"iso":  DateHandlerISO8601,
	"ut":   DateHandlerUnixTime,
	"unix": DateHandlerUnixTime,
	"utm":  DateHandlerUnixTimeMs,
}

func (h DateHandler) String() string {
	if s, ok := dateHandlerNames[h]; ok {
		return s
	}
	return "DateHandler(" + strconv.Itoa(int(h)) + ")"
}

// Numeric reports whether the handler writes dates as bare numbers.
func (h DateHandler) Numeric() bool {
	return h == DateHandlerUnixTime || h == DateHandlerUnixTimeMs
}

// ParseDateHandler resolves a handler by name or short alias, ignoring case.
func ParseDateHandler(s string) (DateHandler, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for h, name := range dateHandlerNames {
		if name == key {
			return h, nil
		}
	}
	if h, ok := dateHandlerAliases[key]; ok {
		return h, nil
	}
	return 0, errors.Newf("codec: unknown date handler %q", s)
}

// FormatDate renders t according to the handler.
func FormatDate(t time.Time, h DateHandler) string {
	switch h {
	case DateHandlerDCJSCompatible:
		return wirePrefix + strconv.FormatInt(t.UnixMilli(), 10) + wireSuffix
	case DateHandlerISO8601:
		return FormatRFC3339(t)
	case DateHandlerISO8601DateOnly:
		return t.Format(ShortDateFormat)
	case DateHandlerISO8601DateTime:
		return t.Format(ISO8601DateTime)
	case DateHandlerRFC1123:
		return t.UTC().Format(RFC1123Format)
	case DateHandlerUnixTime:
		return strconv.FormatInt(t.Unix(), 10)
	case DateHandlerUnixTimeMs:
		return strconv.FormatInt(t.UnixMilli(), 10)
	case DateHandlerLocal:
		return FormatLocal(t)
	default:
		return FormatWireDate(t)
	}
}

// FormatWireDate renders /Date(millis[+-hhmm])/. UTC instants carry no offset.
func FormatWireDate(t time.Time) string {
	var b strings.Builder
	b.WriteString(wirePrefix)
	b.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	if t.Location() != time.UTC {
		_, off := t.Zone()
		b.WriteString(formatOffset(off))
	}
	b.WriteString(wireSuffix)
	return b.String()
}

// FormatShortestXsd renders the shortest XSD form that preserves t as a UTC
// instant: a bare date at midnight, whole seconds, ticks or nanoseconds.
func FormatShortestXsd(t time.Time) string {
	u := t.UTC()
	ns := u.Nanosecond()
	switch {
	case u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && ns == 0:
		return u.Format(ShortDateFormat)
	case ns == 0:
		return u.Format(XsdSecondsFormat)
	case ns%100 == 0:
		return u.Format(XsdTicksFormat)
	default:
		return u.Format(XsdNanosFormat)
	}
}

// FormatXsd renders the fixed-width ticks form in UTC.
func FormatXsd(t time.Time) string { return t.UTC().Format(XsdTicksFormat) }

// FormatLocal renders the day-first locale form, with milliseconds when present.
func FormatLocal(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format(LocalFractionFormat)
	}
	return t.Format(LocalFormat)
}

func formatOffset(sec int) string {
	sign := byte('+')
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	hh, mm := sec/3600, (sec%3600)/60
	b := []byte{sign, byte('0' + hh/10), byte('0' + hh%10), byte('0' + mm/10), byte('0' + mm%10)}
	return string(b)
}

// ParseDate parses any supported form. Zone-less inputs are read as UTC.
func ParseDate(s string) (time.Time, error) { return ParseDateIn(s, time.UTC) }

// ParseDateIn parses any supported form, reading zone-less inputs in loc.
// Empty input yields the zero time.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if IsWireDate(s) {
		return ParseWireDate(s)
	}
	if layout, utc, ok := layoutForLength(s); ok {
		in := loc
		if utc {
			in = time.UTC
		}
		if t, err := time.ParseInLocation(layout, s, in); err == nil {
			return t, nil
		}
	}
	if t, err := ParseRFC3339(s); err == nil {
		return t, nil
	}
	for _, layout := range []string{RFC1123Format, time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return parseManual(s, loc)
}

func layoutForLength(s string) (layout string, utc bool, ok bool) {
	switch len(s) {
	case len(CondensedDateFormat):
		return CondensedDateFormat, false, true
	case len(ShortDateFormat):
		return ShortDateFormat, false, true
	case len(LocalFormat):
		if s[2] == '/' {
			return LocalFormat, false, true
		}
		return unzonedFormat, false, true
	case len(XsdSecondsFormat):
		return XsdSecondsFormat, true, true
	case len(LocalFractionFormat):
		return LocalFractionFormat, false, true
	case len(XsdMillisFormat):
		return XsdMillisFormat, true, true
	case len(XsdTicksFormat):
		return XsdTicksFormat, true, true
	case len(XsdNanosFormat):
		return XsdNanosFormat, true, true
	}
	return "", false, false
}

// IsWireDate reports whether s starts with the /Date( prefix, escaped or not.
func IsWireDate(s string) bool {
	return strings.HasPrefix(s, wirePrefix) || strings.HasPrefix(s, wirePrefixEscaped)
}

// ParseWireDate parses /Date(millis[+-hhmm])/. No offset, +0000 and -0000
// yield a UTC instant; any other offset yields the same instant in a fixed
// zone with the sign applied to hours and minutes together.
func ParseWireDate(s string) (time.Time, error) {
	body := strings.TrimPrefix(s, `\`)
	body = strings.TrimPrefix(body, wirePrefix)
	end := strings.IndexByte(body, ')')
	if end < 0 {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: unterminated wire date", s)
	}
	body = body[:end]

	offset := ""
	if i := strings.LastIndexAny(body, "+-"); i > 0 {
		offset = body[i:]
		body = body[:i]
	}
	ms, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return time.Time{}, errors.Mark(errors.Wrapf(err, "%q", s), ErrInvalidDate)
	}
	t := time.UnixMilli(ms).UTC()
	switch offset {
	case "", "+0000", "-0000":
		return t, nil
	}
	if len(offset) != 5 {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: bad offset %q", s, offset)
	}
	hh, err1 := strconv.Atoi(offset[1:3])
	mm, err2 := strconv.Atoi(offset[3:5])
	if err1 != nil || err2 != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: bad offset %q", s, offset)
	}
	sign := 1
	if offset[0] == '-' {
		sign = -1
	}
	return t.In(time.FixedZone("", sign*hh*3600+sign*mm*60)), nil
}

// parseManual extracts year/month/day and an optional clock by position.
// Date parts may be separated by '-', '/' or '.', year first or last.
func parseManual(s string, loc *time.Location) (time.Time, error) {
	datePart, timePart := s, ""
	if i := strings.IndexAny(s, "T "); i >= 0 {
		datePart, timePart = s[:i], strings.TrimSpace(s[i+1:])
	}
	parts := strings.FieldsFunc(datePart, func(r rune) bool { return r == '-' || r == '/' || r == '.' })
	if len(parts) != 3 {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
		}
		n[i] = v
	}
	y, m, d := n[0], n[1], n[2]
	if len(parts[0]) != 4 {
		d, y = n[0], n[2]
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: date out of range", s)
	}

	var hh, mi, sec, ns int
	zone := loc
	if timePart != "" {
		switch {
		case strings.HasSuffix(timePart, "Z"):
			zone = time.UTC
			timePart = timePart[:len(timePart)-1]
		default:
			if i := strings.LastIndexAny(timePart, "+-"); i > 0 {
				off, err := parseOffset(timePart[i:])
				if err != nil {
					return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: %v", s, err)
				}
				zone = time.FixedZone("", off)
				timePart = timePart[:i]
			}
		}
		clock := strings.Split(timePart, ":")
		if len(clock) < 2 || len(clock) > 3 {
			return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q: bad clock", s)
		}
		var err error
		if hh, err = strconv.Atoi(clock[0]); err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
		}
		if mi, err = strconv.Atoi(clock[1]); err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
		}
		if len(clock) == 3 {
			secs, frac, _ := strings.Cut(clock[2], ".")
			if sec, err = strconv.Atoi(secs); err != nil {
				return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
			}
			if frac != "" {
				if ns, err = fractionNanos(frac); err != nil {
					return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
				}
			}
		}
	}
	return time.Date(y, time.Month(m), d, hh, mi, sec, ns, zone), nil
}

// parseOffset accepts +hh, +hhmm and +hh:mm.
func parseOffset(s string) (int, error) {
	if len(s) < 3 {
		return 0, errors.Newf("offset %q too short", s)
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	hh, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, err
	}
	mm := 0
	if len(digits) >= 4 {
		if mm, err = strconv.Atoi(digits[2:4]); err != nil {
			return 0, err
		}
	}
	return sign * (hh*3600 + mm*60), nil
}

func fractionNanos(frac string) (int, error) {
	if len(frac) > 9 {
		frac = frac[:9]
	}
	for len(frac) < 9 {
		frac += "0"
	}
	return strconv.Atoi(frac)
}
