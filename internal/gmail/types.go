// internal/gmail/types.go
package gmail

import (
	"strings"
	"time"
)

type MessageID string
type LabelID string

// System labels Gmail assigns on its own.
const (
	LabelInbox  LabelID = "INBOX"
	LabelUnread LabelID = "UNREAD"

	LabelCategorySocial     LabelID = "CATEGORY_SOCIAL"
	LabelCategoryPromotions LabelID = "CATEGORY_PROMOTIONS"
	LabelCategoryUpdates    LabelID = "CATEGORY_UPDATES"
	LabelCategoryForums     LabelID = "CATEGORY_FORUMS"
	LabelCategoryPersonal   LabelID = "CATEGORY_PERSONAL"
)

// Attachment describes one attached part. Either field may be empty.
type Attachment struct {
	MimeType string
	Filename string
}

type Message struct {
	ID          MessageID
	Labels      []LabelID
	Attachments []Attachment
	Headers     map[string]string // lowercase names: from, subject, list-unsubscribe, list-id, ...
	Date        time.Time
}

// Header returns the value stored for name, ignoring case.
func (m Message) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[strings.ToLower(name)]
}

// HasLabel reports whether id is present in the message label set.
func (m Message) HasLabel(id LabelID) bool {
	for _, l := range m.Labels {
		if l == id {
			return true
		}
	}
	return false
}

type Query struct {
	Raw string // Gmail query string, already formed (e.g., `newer_than:30d -is:starred`)
}

type ListPage struct {
	IDs           []MessageID
	NextPageToken string
}
