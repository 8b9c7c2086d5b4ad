package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshsymonds/mailexpiry/internal/expiration"
	"github.com/joshsymonds/mailexpiry/internal/gmail"
)

const (
	subjectDisplayLimit = 60
	noneLabel           = "NONE"
)

// Report is the result of one scan.
type Report struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Window      time.Duration  `json:"window"`
	Total       int            `json:"total"`
	Counts      map[string]int `json:"counts"`
	Entries     []Entry        `json:"entries"`
}

// Entry is the verdict for one message. ExpiresAt is zero when the message
// is not expirable or has no date.
type Entry struct {
	ID        gmail.MessageID     `json:"id"`
	Subject   string              `json:"subject"`
	From      string              `json:"from"`
	Category  expiration.Category `json:"category"`
	Days      int                 `json:"days"`
	Received  time.Time           `json:"received"`
	ExpiresAt time.Time           `json:"expires_at"`
	Expired   bool                `json:"expired"`
	Rules     []string            `json:"rules,omitempty"` // gmailctl filters that matched
}

// Expired counts entries whose expiry has passed.
func (r Report) Expired() int {
	n := 0
	for _, e := range r.Entries {
		if e.Expired {
			n++
		}
	}
	return n
}

func categoryLabel(c expiration.Category) string {
	if !c.Expirable() {
		return noneLabel
	}
	return c.String()
}

// PrintHuman writes a readable report to the provided writer.
func PrintHuman(rep Report, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "mailexpiry scan — window %s (%d messages, %d expired)\n",
		rep.Window, rep.Total, rep.Expired())

	builder.WriteString("\nCategories:\n")
	for _, c := range expiration.Categories() {
		fmt.Fprintf(&builder, "  %-14s %4d\n", c, rep.Counts[c.String()])
	}
	fmt.Fprintf(&builder, "  %-14s %4d\n", noneLabel, rep.Counts[noneLabel])

	var expired []Entry
	for _, e := range rep.Entries {
		if e.Expired {
			expired = append(expired, e)
		}
	}
	if len(expired) > 0 {
		builder.WriteString("\nExpired:\n")
		for _, e := range expired {
			fmt.Fprintf(
				&builder,
				"  %-12s %s %s\n",
				e.Category,
				e.ExpiresAt.Format(time.DateOnly),
				truncate(e.Subject, subjectDisplayLimit),
			)
		}
	}
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write human report: %w", err)
	}
	return nil
}

// WriteJSON serializes the report to a path relative to the working directory.
func WriteJSON(rep Report, path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return fmt.Errorf("path must not be empty")
	}
	clean = filepath.Clean(clean)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output path must be relative, got %s", clean)
	}
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("output path %s escapes working directory", clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	abs := filepath.Join(wd, clean)
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}
	defer func() { _ = f.Close() }()
	if err := EncodeJSON(rep, f); err != nil {
		return err
	}
	return nil
}

// EncodeJSON writes the indented JSON form of rep to w.
func EncodeJSON(rep Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
