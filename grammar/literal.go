package grammar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones must resolve the same way on every host

	"github.com/ncruces/go-strftime"
)

// unquote decodes a double quoted literal. On failure it returns the offset of
// the offending byte relative to the opening quote.
func unquote(text string) (string, int, error) {
	body := text[1 : len(text)-1]
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		default:
			return "", i, fmt.Errorf("invalid escape sequence \\%c", body[i])
		}
	}
	return sb.String(), 0, nil
}

// decodeByte decodes a single quoted byte literal.
func decodeByte(text string) (byte, error) {
	if len(text) == 3 {
		return text[1], nil
	}
	switch text[2] {
	case 't':
		return '\t', nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	default:
		return 0, fmt.Errorf("invalid escape sequence \\%c in byte literal", text[2])
	}
}

// validateFormat checks that a Time, Date or Datetime format is a strftime
// pattern with an equivalent Go layout.
func validateFormat(format string) error {
	if format == "" {
		return errors.New("format string must not be empty")
	}
	if _, err := strftime.Layout(format); err != nil {
		return fmt.Errorf("invalid format %q: %w", format, err)
	}
	return nil
}

// FormatExample renders format at a fixed reference instant, for diagnostics.
func FormatExample(format string) string {
	return strftime.Format(format, time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC))
}

var offsetPattern = regexp.MustCompile(`^[+-]([01][0-9]|2[0-3]):[0-5][0-9]$`)

// validateTimezone accepts UTC, a fixed ±HH:MM offset or an IANA zone name.
func validateTimezone(tz string) error {
	switch {
	case tz == "":
		return errors.New("timezone must not be empty")
	case tz == "UTC", offsetPattern.MatchString(tz):
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}
