// Package expiration decides whether a message is short-lived mail and how
// long it stays relevant.
package expiration

import (
	"fmt"
	"strings"
)

// Category is an expirable message class. The zero value is None.
type Category int

const (
	None Category = iota
	Notification
	Newsletter
	Marketing
	Social
	Calendar
)

var categoryNames = map[Category]string{
	Notification: "NOTIFICATION",
	Newsletter:   "NEWSLETTER",
	Marketing:    "MARKETING",
	Social:       "SOCIAL",
	Calendar:     "CALENDAR",
}

// Categories lists every expirable category in declaration order.
func Categories() []Category {
	return []Category{Notification, Newsletter, Marketing, Social, Calendar}
}

func (c Category) String() string {
	return categoryNames[c]
}

// Expirable reports whether c is one of the five expirable categories.
func (c Category) Expirable() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory accepts the canonical names in any case. The empty string
// and "none" parse to None.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "NONE" {
		return None, nil
	}
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
