// internal/runtime/googleapi.go — adapts *gmail.Service to our small interface
package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/mailexpiry/internal/gmail"
)

type googleClient struct{ svc *gmail.Service }

func NewGoogleAPIClient(svc *gmail.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List("me").Q(q.Raw).MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, err
	}
	page := gc.ListPage{NextPageToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, gc.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) GetMessage(ctx context.Context, id gc.MessageID) (gc.Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return gc.Message{}, err
	}
	return convertMessage(msg), nil
}

func (g *googleClient) ListLabels(ctx context.Context) (map[string]gc.LabelID, map[gc.LabelID]string, error) {
	lr, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list labels: %w", err)
	}
	byName := map[string]gc.LabelID{}
	byID := map[gc.LabelID]string{}
	for _, l := range lr.Labels {
		byName[l.Name] = gc.LabelID(l.Id)
		byID[gc.LabelID(l.Id)] = l.Name
	}
	return byName, byID, nil
}

func convertMessage(msg *gmail.Message) gc.Message {
	out := gc.Message{
		ID:      gc.MessageID(msg.Id),
		Labels:  toLabelIDs(msg.LabelIds),
		Headers: map[string]string{},
	}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	}
	if msg.Payload == nil {
		return out
	}
	for _, hd := range msg.Payload.Headers {
		key := strings.ToLower(hd.Name)
		if _, seen := out.Headers[key]; !seen {
			out.Headers[key] = hd.Value
		}
	}
	out.Attachments = collectAttachments(msg.Payload, nil)
	return out
}

// collectAttachments walks the MIME tree. Multipart containers are skipped;
// leaves count when they carry a filename or a calendar body.
func collectAttachments(part *gmail.MessagePart, acc []gc.Attachment) []gc.Attachment {
	if part == nil {
		return acc
	}
	if len(part.Parts) > 0 {
		for _, child := range part.Parts {
			acc = collectAttachments(child, acc)
		}
		return acc
	}
	if part.Filename != "" || strings.Contains(part.MimeType, "calendar") {
		acc = append(acc, gc.Attachment{MimeType: part.MimeType, Filename: part.Filename})
	}
	return acc
}

func toLabelIDs(ids []string) []gc.LabelID {
	out := make([]gc.LabelID, 0, len(ids))
	for _, id := range ids {
		out = append(out, gc.LabelID(id))
	}
	return out
}
