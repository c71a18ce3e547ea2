// pkg/normalize/normalize.go
package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Field normalization primitives shared by the pipeline stages and the
// quality checks. Every function is total: unparseable input resolves
// to an empty string, false, or a no-match result, never an error.

// dateFormats are tried in order. Spreadsheet feeds mix ISO,
// day-first and month-first layouts, so order matters.
var dateFormats = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"01/02/2006 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// DisplayDateFormat is the human-readable form stamped on finalized rows.
const DisplayDateFormat = "02/01/2006 15:04"

// Option configures CleanString.
type Option func(*options)

type options struct {
	uppercase bool
}

// Uppercase makes CleanString fold the result to upper case.
func Uppercase() Option {
	return func(o *options) { o.uppercase = true }
}

// CleanString renders any cell value as a trimmed string. A trailing
// ".0" artifact (numeric-looking identifiers arriving as floats) is
// stripped. Nil becomes the empty string.
func CleanString(v interface{}, opts ...Option) string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := asString(v)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	if o.uppercase {
		s = strings.ToUpper(s)
	}
	return s
}

// ExtractOrderID strips the batch/run tag a feed appends after an
// underscore: "AO1234_B2" becomes "AO1234".
func ExtractOrderID(v interface{}) string {
	s := CleanString(v)
	if i := strings.Index(s, "_"); i >= 0 {
		return s[:i]
	}
	return s
}

// NormalizePhone reduces a contact number to digits and rewrites the
// Indonesian prefix: leading "0" becomes "62", a bare "8" prefix gets
// "62" prepended. Already-normalized numbers pass through unchanged,
// so the function is idempotent.
func NormalizePhone(v interface{}) string {
	s := CleanString(v)
	if s == "" {
		return ""
	}

	var digits strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	phone := digits.String()

	switch {
	case strings.HasPrefix(phone, "0"):
		phone = "62" + phone[1:]
	case strings.HasPrefix(phone, "8"):
		phone = "62" + phone
	}
	return phone
}

// ValidatePhone reports whether a contact number normalizes to a valid
// Indonesian mobile/landline number: 10-15 digits starting with 62.
func ValidatePhone(v interface{}) bool {
	phone := NormalizePhone(v)
	if len(phone) < 10 || len(phone) > 15 {
		return false
	}
	return strings.HasPrefix(phone, "62")
}

// ParseDate attempts the known timestamp layouts in order, after
// stripping the ".0" artifact. ok is false when no layout fits.
func ParseDate(v interface{}) (t time.Time, ok bool) {
	s := CleanString(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a timestamp for display; the zero time renders as
// the empty string.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DisplayDateFormat
	}
	return t.Format(layout)
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case float64:
		// Avoid scientific notation for identifier-like values.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
