package expiration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDays(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		settings *Settings
		want     int
	}{
		{name: "calendar default", category: Calendar, want: 1},
		{name: "newsletter default", category: Newsletter, want: 30},
		{name: "notification default", category: Notification, want: 7},
		{name: "social default", category: Social, want: 7},
		{name: "marketing default", category: Marketing, want: 14},
		{
			name:     "marketing override",
			category: Marketing,
			settings: &Settings{MarketingDays: Days(3)},
			want:     3,
		},
		{
			name:     "override for another category is ignored",
			category: Social,
			settings: &Settings{MarketingDays: Days(3)},
			want:     7,
		},
		{
			name:     "none ignores settings",
			category: None,
			settings: &Settings{NewsletterDays: Days(2), CalendarDays: Days(2)},
			want:     FallbackDays,
		},
		{
			name:     "unknown category",
			category: Category(42),
			settings: &Settings{CalendarDays: Days(2)},
			want:     FallbackDays,
		},
		{
			name:     "zero override falls back to default",
			category: Calendar,
			settings: &Settings{CalendarDays: Days(0)},
			want:     1,
		},
		{
			name:     "empty settings",
			category: Notification,
			settings: &Settings{},
			want:     7,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveDays(tc.category, tc.settings))
		})
	}
}

func TestDefaultForCoversEveryCategory(t *testing.T) {
	for _, c := range Categories() {
		days, ok := DefaultFor(c)
		require.True(t, ok, "missing default for %s", c)
		assert.Positive(t, days)
		assert.Equal(t, days, ResolveDays(c, nil))
	}
	_, ok := DefaultFor(None)
	assert.False(t, ok)
	_, ok = DefaultFor(Category(42))
	assert.False(t, ok)
}

func TestSetOverride(t *testing.T) {
	var s Settings
	assert.True(t, s.SetOverride(Newsletter, 10))
	assert.False(t, s.SetOverride(None, 10))

	days, ok := s.Override(Newsletter)
	require.True(t, ok)
	assert.Equal(t, 10, days)

	_, ok = s.Override(Social)
	assert.False(t, ok)
}

func TestExpiresAt(t *testing.T) {
	received := time.Date(2024, time.February, 28, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC), ExpiresAt(received, 2))
}

func TestCategoryText(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	c, err := ParseCategory(" marketing ")
	require.NoError(t, err)
	assert.Equal(t, Marketing, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, None, c)

	_, err = ParseCategory("spam")
	assert.Error(t, err)

	out, err := json.Marshal(map[string]Category{"a": Calendar, "b": None})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"CALENDAR","b":""}`, string(out))
}
