// Package scan reports, for recent Gmail messages, which expirable category
// each falls into and when it expires. It never modifies the mailbox.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshsymonds/mailexpiry/internal/expiration"
	"github.com/joshsymonds/mailexpiry/internal/gmail"
	"github.com/joshsymonds/mailexpiry/internal/gmailctl"
	"github.com/joshsymonds/mailexpiry/internal/rate"
	"github.com/joshsymonds/mailexpiry/internal/rules"
)

const maxPageSize = 500

// Options controls a scan.
type Options struct {
	Window   time.Duration
	Query    string // extra Gmail search terms, ANDed with the window
	PageSize int
	Settings *expiration.Settings
}

// Service classifies Gmail messages.
type Service struct {
	Client  gmail.Client
	Limiter rate.Limiter
	Logger  *slog.Logger
	Clock   func() time.Time
	Filters gmailctl.Loader // optional; replayed to predict applied labels
	NewID   func() string
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client:  client,
		Limiter: limiter,
		Logger:  logger,
		Clock:   time.Now,
		NewID:   uuid.NewString,
	}
}

// Run lists messages in the window and classifies each one.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Window <= 0 {
		return Report{}, fmt.Errorf("window must be positive")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	now := s.Clock()
	rep := Report{
		RunID:       s.NewID(),
		GeneratedAt: now,
		Window:      opts.Window,
		Counts:      map[string]int{},
	}
	logger := s.Logger.With(slog.String("run_id", rep.RunID))

	_, labelsByID, err := s.Client.ListLabels(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list labels: %w", err)
	}
	set, err := s.loadRules(ctx, labelsByID)
	if err != nil {
		return Report{}, err
	}
	if set != nil {
		logger.InfoContext(ctx, "loaded gmailctl filters", slog.Int("rules", len(set.Rules)))
	}

	query := buildQuery(opts.Window, opts.Query)
	logger.InfoContext(ctx, "running scan", slog.String("query", query.Raw))

	token := ""
	for {
		page, err := s.listMessages(ctx, query, token, pageSize)
		if err != nil {
			return Report{}, err
		}
		for _, id := range page.IDs {
			entry, err := s.classify(ctx, id, set, labelsByID, opts.Settings, now)
			if err != nil {
				return Report{}, err
			}
			logger.DebugContext(ctx, "classified",
				slog.String("id", string(id)),
				slog.String("category", categoryLabel(entry.Category)),
				slog.Int("days", entry.Days),
				slog.Any("rules", entry.Rules),
			)
			rep.Entries = append(rep.Entries, entry)
			rep.Counts[categoryLabel(entry.Category)]++
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	rep.Total = len(rep.Entries)
	logger.InfoContext(ctx, "scan complete", slog.Int("total", rep.Total), slog.Int("expired", rep.Expired()))
	return rep, nil
}

func (s *Service) loadRules(ctx context.Context, labelsByID map[gmail.LabelID]string) (*rules.Set, error) {
	if s.Filters == nil {
		return nil, nil
	}
	export, err := s.Filters.ExportFilters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gmailctl filters: %w", err)
	}
	return rules.Compile(export, labelsByID), nil
}

func (s *Service) classify(
	ctx context.Context,
	id gmail.MessageID,
	set *rules.Set,
	labelsByID map[gmail.LabelID]string,
	settings *expiration.Settings,
	now time.Time,
) (Entry, error) {
	if err := s.wait(ctx, "rate limit message"); err != nil {
		return Entry{}, err
	}
	msg, err := s.Client.GetMessage(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("get message %s: %w", id, err)
	}
	matched := set.Matching(msg)
	applied := AppliedLabels(msg, rules.LabelsOf(matched), labelsByID)
	category := expiration.Classify(msg, applied)
	days := expiration.ResolveDays(category, settings)
	entry := Entry{
		ID:       id,
		Subject:  msg.Header("subject"),
		From:     msg.Header("from"),
		Category: category,
		Days:     days,
		Received: msg.Date,
		Rules:    rules.NamesOf(matched),
	}
	if category.Expirable() && !msg.Date.IsZero() {
		entry.ExpiresAt = expiration.ExpiresAt(msg.Date, days)
		entry.Expired = !now.Before(entry.ExpiresAt)
	}
	return entry, nil
}

// AppliedLabels combines the labels gmailctl filters would add with the
// user labels already on the message. Filter predictions come first.
func AppliedLabels(msg gmail.Message, predicted []string, labelsByID map[gmail.LabelID]string) []string {
	applied := append([]string(nil), predicted...)
	for _, id := range msg.Labels {
		name, ok := labelsByID[id]
		if !ok || name == "" || name == string(id) {
			continue
		}
		applied = appendIfMissing(applied, name)
	}
	return applied
}

func buildQuery(window time.Duration, extra string) gmail.Query {
	parts := []string{fmt.Sprintf("newer_than:%dd", daysFromDuration(window))}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return gmail.Query{Raw: strings.Join(parts, " ")}
}

func (s *Service) listMessages(
	ctx context.Context,
	query gmail.Query,
	pageToken string,
	pageSize int,
) (gmail.ListPage, error) {
	if err := s.wait(ctx, "rate limit messages"); err != nil {
		return gmail.ListPage{}, err
	}
	page, err := s.Client.List(ctx, query, pageToken, pageSize)
	if err != nil {
		return gmail.ListPage{}, fmt.Errorf("list messages: %w", err)
	}
	return page, nil
}

func (s *Service) wait(ctx context.Context, operation string) error {
	if s.Limiter == nil {
		return nil
	}
	if err := s.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func daysFromDuration(window time.Duration) int {
	const day = 24 * time.Hour
	if window <= 0 {
		return 1
	}
	days := int(window / day)
	if window%day != 0 {
		days++
	}
	return days
}

func appendIfMissing(slice []string, val string) []string {
	for _, existing := range slice {
		if existing == val {
			return slice
		}
	}
	return append(slice, val)
}
