package codec

import "time"

// ParseRFC3339 accepts RFC3339Nano (trailing zeros optional) and plain RFC3339.
func ParseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// FormatRFC3339 formats using RFC3339Nano in t's own zone (Go trims trailing
// zeros). UTC instants end in Z.
func FormatRFC3339(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
