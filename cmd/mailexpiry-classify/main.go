package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/mailexpiry/internal/eml"
	"github.com/joshsymonds/mailexpiry/internal/expiration"
	"github.com/joshsymonds/mailexpiry/internal/runtime"
	"github.com/joshsymonds/mailexpiry/internal/settings"
)

type classifyConfig struct {
	appliedLabels []string
	settingsPath  string
	overrides     string
	jsonOut       bool
	verbose       bool
}

type result struct {
	Path     string              `json:"path"`
	Category expiration.Category `json:"category"`
	Days     int                 `json:"days"`
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		runtime.DefaultLogger().Error("mailexpiry-classify failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	cfg := classifyConfig{}
	cmd := &cobra.Command{
		Use:   "mailexpiry-classify [file.eml|-]...",
		Short: "Classify saved messages into expirable categories",
		Long: `Reads RFC 5322 messages (saved .eml files or Gmail Takeout exports) and
prints the expirable category and the number of days until expiry.
Use "-" to read a single message from stdin.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, args, stdin, stdout)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&cfg.appliedLabels, "applied-label", "l", nil, "label just applied by a rule engine (repeatable)")
	flags.StringVar(&cfg.settingsPath, "settings", "", "YAML file with per-category day overrides")
	flags.StringVar(&cfg.overrides, "override", "", "comma separated category=days overrides")
	flags.BoolVar(&cfg.jsonOut, "json", false, "emit JSON lines instead of text")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cfg classifyConfig, paths []string, stdin io.Reader, stdout io.Writer) error {
	logger := runtime.NewLogger(cfg.verbose)

	if countStdin(paths) > 1 {
		return fmt.Errorf("stdin (-) may be given only once")
	}

	userSettings, err := loadSettings(cfg.settingsPath, cfg.overrides)
	if err != nil {
		return err
	}

	for _, path := range paths {
		res, err := classifyPath(path, cfg.appliedLabels, userSettings, stdin)
		if err != nil {
			return err
		}
		logger.Debug("classified", "path", path, "category", res.Category.String(), "days", res.Days)
		if err := printResult(stdout, res, cfg.jsonOut); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func countStdin(paths []string) int {
	n := 0
	for _, path := range paths {
		if path == "-" {
			n++
		}
	}
	return n
}

func loadSettings(path, overrides string) (*expiration.Settings, error) {
	base, err := settings.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	over, err := settings.Parse(overrides)
	if err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return settings.Merge(base, over), nil
}

func classifyPath(path string, applied []string, userSettings *expiration.Settings, stdin io.Reader) (result, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return result{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	parsed, err := eml.Parse(r)
	if err != nil {
		return result{}, fmt.Errorf("parse %s: %w", path, err)
	}
	labels := append(append([]string(nil), applied...), parsed.UserLabels...)
	category := expiration.Classify(parsed.Message, labels)
	return result{
		Path:     path,
		Category: category,
		Days:     expiration.ResolveDays(category, userSettings),
	}, nil
}
