package lease

import (
	"strings"
	"time"
)

// Unspecified is written in place of a missing or empty answer.
const Unspecified = "-"

const outputDateLayout = "02/01/2006"

var inputDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// DefaultDateKeys are the answers reformatted as dd/mm/yyyy.
func DefaultDateKeys() []string {
	return []string{"leaseStartDate", "leaseEndDate"}
}

// FormatDate converts an ISO date (or RFC 3339 timestamp) to dd/mm/yyyy.
// Values in any other shape are returned unchanged.
func FormatDate(value string) string {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(outputDateLayout)
		}
	}
	return value
}

var valueSanitizer = strings.NewReplacer(
	"{{", "",
	"}}", "",
	"[[", "",
	"]]", "",
	"**", "",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// Emphasize wraps a value in the bold markup used for substituted answers.
func Emphasize(value string) string {
	return "**" + value + "**"
}

type resolver struct {
	answers  Answers
	dateKeys map[string]struct{}
}

func newResolver(a Answers, dateKeys []string) resolver {
	keys := make(map[string]struct{}, len(dateKeys))
	for _, k := range dateKeys {
		keys[k] = struct{}{}
	}
	return resolver{answers: a, dateKeys: keys}
}

// value returns the display text of one placeholder, already emphasised.
func (r resolver) value(key string) string {
	v := strings.TrimSpace(valueSanitizer.Replace(r.answers.String(key)))
	if v == "" {
		return Emphasize(Unspecified)
	}
	if _, isDate := r.dateKeys[key]; isDate {
		v = FormatDate(v)
	}
	return Emphasize(v)
}

// render writes the lines out as text, substituting placeholders. Markers
// that survived the earlier passes are dropped.
func (r resolver) render(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, t := range l {
			switch t.Kind {
			case TokenLiteral:
				b.WriteString(t.Text)
			case TokenPlaceholder:
				b.WriteString(r.value(t.Text))
			}
		}
	}
	return b.String()
}
