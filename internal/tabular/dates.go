package tabular

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// FlexibleDateLayouts are tried in order; the first successful parse wins.
// Month-first slash dates come before day-first ones, so 03/04/2024 is March 4.
var FlexibleDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2/1/2006",
	"01/02/06",
	"1/2/06",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

var strictDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseStrictDate accepts only ISO dates, optionally followed by a time part.
func ParseStrictDate(s string) (civil.Date, error) {
	return parseWith(strictDateLayouts, s)
}

// ParseFlexibleDate tries FlexibleDateLayouts in order. There is no fallback:
// an unrecognized value is an error.
func ParseFlexibleDate(s string) (civil.Date, error) {
	return parseWith(FlexibleDateLayouts, s)
}

func parseWith(layouts []string, s string) (civil.Date, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return civil.Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("unrecognized date %q", v)
}
