package gmail

import "context"

// Client is the narrow, read-only Gmail surface required by mailexpiry.
type Client interface {
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	GetMessage(ctx context.Context, id MessageID) (Message, error)
	ListLabels(ctx context.Context) (map[string]LabelID, map[LabelID]string, error)
}
