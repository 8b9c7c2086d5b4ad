package expiration

import (
	"strings"

	"github.com/joshsymonds/mailexpiry/internal/gmail"
)

const unsubscribeHeader = "list-unsubscribe"

type nativeRule struct {
	label    gmail.LabelID
	category Category
}

// Gmail's own tabs, strongest signal first.
var nativeRules = []nativeRule{
	{label: gmail.LabelCategorySocial, category: Social},
	{label: gmail.LabelCategoryPromotions, category: Marketing},
	{label: gmail.LabelCategoryUpdates, category: Notification},
	{label: gmail.LabelCategoryForums, category: Newsletter},
}

type keywordRule struct {
	category Category
	keywords []string
}

// Checked in order against each applied label.
var keywordRules = []keywordRule{
	{category: Social, keywords: []string{"social", "twitter", "facebook", "linkedin"}},
	{category: Marketing, keywords: []string{"promo", "marketing", "sale", "offer"}},
	{category: Notification, keywords: []string{"notification", "alert", "update", "shipping", "delivery", "tracking"}},
	{category: Newsletter, keywords: []string{"newsletter", "digest", "weekly", "daily"}},
	{category: Calendar, keywords: []string{"calendar", "event", "meeting", "invite"}},
}

// Classify returns the expirable category of msg, or None.
//
// appliedLabels are label names a rule engine has just assigned to msg and
// that may not be visible in msg.Labels yet. They are matched
// case-insensitively by substring.
func Classify(msg gmail.Message, appliedLabels []string) Category {
	for _, r := range nativeRules {
		if msg.HasLabel(r.label) {
			return r.category
		}
	}
	for _, label := range appliedLabels {
		if c := classifyLabel(strings.ToLower(label)); c != None {
			return c
		}
	}
	if hasCalendarAttachment(msg.Attachments) {
		return Calendar
	}
	if msg.Header(unsubscribeHeader) != "" {
		return Newsletter
	}
	return None
}

func classifyLabel(label string) Category {
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(label, kw) {
				return r.category
			}
		}
	}
	return None
}

// Filename suffixes are matched as-is, so "INVITE.ICS" does not count.
func hasCalendarAttachment(atts []gmail.Attachment) bool {
	for _, att := range atts {
		if strings.Contains(att.MimeType, "calendar") ||
			strings.HasSuffix(att.Filename, ".ics") ||
			strings.HasSuffix(att.Filename, ".ical") {
			return true
		}
	}
	return false
}
