// Package gmailctl loads the user's compiled gmailctl filters, which mailexpiry
// replays to predict the labels a message is about to receive.
package gmailctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Export mirrors the JSON payload produced by `gmailctl compile --format=json`.
type Export struct {
	Filters []Filter `json:"filters"`
	Labels  []Label  `json:"labels"`
}

// Filter is a single compiled Gmail filter.
type Filter struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Criteria FilterCriteria `json:"criteria"`
	Action   FilterAction   `json:"action"`
}

// FilterCriteria captures the subset of Gmail search predicates we replay.
type FilterCriteria struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Query   string `json:"query,omitempty"`
	List    string `json:"list,omitempty"`
}

type FilterAction struct {
	AddLabelIDs    []string `json:"addLabelIds,omitempty"`
	RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
	Forward        string   `json:"forward,omitempty"`
}

type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Loader yields a compiled export.
type Loader interface {
	ExportFilters(ctx context.Context) (Export, error)
}

// Runner shells out to the gmailctl binary to obtain compiled filters.
type Runner struct {
	Binary    string
	ConfigDir string
}

// ExportFilters invokes gmailctl and parses the resulting JSON export.
func (r Runner) ExportFilters(ctx context.Context) (Export, error) {
	bin := r.Binary
	if bin == "" {
		bin = "gmailctl"
	}
	args := []string{"compile", "--format=json"}
	if strings.TrimSpace(r.ConfigDir) != "" {
		args = append(args, "--config", r.ConfigDir)
	}
	cmd := exec.CommandContext(ctx, bin, args...) // #nosec G204 - binary determined by user input
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Export{}, fmt.Errorf(
				"run gmailctl: %w (stderr: %s)",
				err,
				strings.TrimSpace(string(exitErr.Stderr)),
			)
		}
		return Export{}, fmt.Errorf("run gmailctl: %w", err)
	}
	return Decode(out)
}

// FileLoader reads an export previously saved with
// `gmailctl compile --format=json > export.json`.
type FileLoader struct {
	Path string
}

func (f FileLoader) ExportFilters(ctx context.Context) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	data, err := os.ReadFile(filepath.Clean(f.Path))
	if err != nil {
		return Export{}, fmt.Errorf("read gmailctl export: %w", err)
	}
	return Decode(data)
}

// Decode parses compile output. An export without filters or labels is an
// error since it almost always means the wrong file or config was used.
func Decode(data []byte) (Export, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return Export{}, fmt.Errorf("decode gmailctl output: %w", err)
	}
	if len(export.Filters) == 0 && len(export.Labels) == 0 {
		return Export{}, errors.New("gmailctl returned no filters or labels")
	}
	return export, nil
}

var (
	_ Loader = Runner{}
	_ Loader = FileLoader{}
)
