package expiration

import "time"

// FallbackDays applies when no category was detected.
const FallbackDays = 30

// defaultDays is the expiration window per category when the user has not
// overridden it. Read it through DefaultFor.
var defaultDays = map[Category]int{
	Notification: 7,
	Newsletter:   30,
	Marketing:    14,
	Social:       7,
	Calendar:     1,
}

// DefaultFor returns the built-in window for c. ok is false for None and
// unknown categories.
func DefaultFor(c Category) (days int, ok bool) {
	days, ok = defaultDays[c]
	return days, ok
}

// Settings holds per-user overrides. A nil field means "use the default".
type Settings struct {
	NotificationDays *int `yaml:"notificationDays,omitempty" json:"notificationDays,omitempty"`
	NewsletterDays   *int `yaml:"newsletterDays,omitempty" json:"newsletterDays,omitempty"`
	MarketingDays    *int `yaml:"marketingDays,omitempty" json:"marketingDays,omitempty"`
	SocialDays       *int `yaml:"socialDays,omitempty" json:"socialDays,omitempty"`
	CalendarDays     *int `yaml:"calendarDays,omitempty" json:"calendarDays,omitempty"`
}

func (s *Settings) slot(c Category) **int {
	switch c {
	case Notification:
		return &s.NotificationDays
	case Newsletter:
		return &s.NewsletterDays
	case Marketing:
		return &s.MarketingDays
	case Social:
		return &s.SocialDays
	case Calendar:
		return &s.CalendarDays
	default:
		return nil
	}
}

// Override returns the user's value for c when one is set.
func (s *Settings) Override(c Category) (int, bool) {
	if s == nil {
		return 0, false
	}
	p := s.slot(c)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// SetOverride stores days for c. It reports false for None and unknown
// categories.
func (s *Settings) SetOverride(c Category, days int) bool {
	p := s.slot(c)
	if p == nil {
		return false
	}
	*p = Days(days)
	return true
}

// ResolveDays returns how many days a message of category c stays relevant.
// The result is always positive. Non-positive overrides are ignored.
func ResolveDays(c Category, settings *Settings) int {
	def, ok := DefaultFor(c)
	if !ok {
		return FallbackDays
	}
	if days, ok := settings.Override(c); ok && days > 0 {
		return days
	}
	return def
}

// ExpiresAt returns received shifted by days calendar days.
func ExpiresAt(received time.Time, days int) time.Time {
	return received.AddDate(0, 0, days)
}

// Days is a convenience for building Settings literals.
func Days(n int) *int { return &n }
