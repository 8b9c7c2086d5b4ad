// Package eml turns raw RFC 5322 messages, such as Gmail Takeout exports or
// saved .eml files, into the message shape the classifier consumes.
package eml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // decode non-UTF-8 headers and filenames
	"github.com/emersion/go-message/mail"

	"github.com/joshsymonds/mailexpiry/internal/gmail"
)

// Takeout writes the label set into this header.
const takeoutLabelsHeader = "x-gmail-labels"

var takeoutSystemLabels = map[string]gmail.LabelID{
	"inbox":               gmail.LabelInbox,
	"unread":              gmail.LabelUnread,
	"category social":     gmail.LabelCategorySocial,
	"category promotions": gmail.LabelCategoryPromotions,
	"category updates":    gmail.LabelCategoryUpdates,
	"category forums":     gmail.LabelCategoryForums,
	"category personal":   gmail.LabelCategoryPersonal,
}

// Takeout flags that are neither categories nor user labels.
var takeoutIgnored = map[string]struct{}{
	"opened": {}, "archived": {}, "sent": {}, "important": {}, "starred": {},
	"drafts": {}, "spam": {}, "trash": {}, "chat": {},
}

// Result is a parsed message plus the user label names found in it.
type Result struct {
	Message    gmail.Message
	UserLabels []string
}

// Parse reads a single message. Unknown charsets are tolerated; the raw
// header values are kept in that case.
func Parse(r io.Reader) (Result, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return Result{}, fmt.Errorf("create message reader: %w", err)
	}
	defer func() { _ = mr.Close() }()

	res := Result{Message: gmail.Message{Headers: collectHeaders(mr.Header)}}
	res.Message.ID = gmail.MessageID(strings.Trim(res.Message.Header("message-id"), "<> "))
	if date, dateErr := mr.Header.Date(); dateErr == nil {
		res.Message.Date = date
	}
	res.Message.Labels, res.UserLabels = splitTakeoutLabels(res.Message.Header(takeoutLabelsHeader))

	for {
		p, partErr := mr.NextPart()
		if errors.Is(partErr, io.EOF) {
			break
		}
		if partErr != nil && !message.IsUnknownCharset(partErr) {
			return Result{}, fmt.Errorf("read next part: %w", partErr)
		}
		if p == nil {
			continue
		}
		if att, ok := attachmentOf(p.Header); ok {
			res.Message.Attachments = append(res.Message.Attachments, att)
		}
	}
	return res, nil
}

func collectHeaders(h mail.Header) map[string]string {
	out := map[string]string{}
	fields := h.Fields()
	for fields.Next() {
		key := strings.ToLower(fields.Key())
		if _, seen := out[key]; seen {
			continue
		}
		val, err := fields.Text()
		if err != nil {
			val = fields.Value()
		}
		out[key] = strings.TrimSpace(val)
	}
	return out
}

// attachmentOf reports named attachments and any calendar part, inline or not.
func attachmentOf(h mail.PartHeader) (gmail.Attachment, bool) {
	switch ph := h.(type) {
	case *mail.AttachmentHeader:
		ct, _, _ := ph.ContentType()
		name, _ := ph.Filename()
		return gmail.Attachment{MimeType: ct, Filename: name}, true
	case *mail.InlineHeader:
		ct, params, _ := ph.ContentType()
		name := params["name"]
		if name == "" && !strings.Contains(ct, "calendar") {
			return gmail.Attachment{}, false
		}
		return gmail.Attachment{MimeType: ct, Filename: name}, true
	default:
		return gmail.Attachment{}, false
	}
}

// takeoutFields splits the label header on commas outside double quotes,
// so a label such as "Shopping, Deals" stays whole.
func takeoutFields(raw string) []string {
	r := csv.NewReader(strings.NewReader(raw))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return strings.Split(raw, ",")
	}
	return fields
}

func splitTakeoutLabels(raw string) ([]gmail.LabelID, []string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var (
		system []gmail.LabelID
		user   []string
	)
	for _, part := range takeoutFields(raw) {
		name := strings.Trim(strings.TrimSpace(part), `"`)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if id, ok := takeoutSystemLabels[key]; ok {
			system = append(system, id)
			continue
		}
		if _, ok := takeoutIgnored[key]; ok {
			continue
		}
		user = append(user, name)
	}
	return system, user
}
