package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/mailexpiry/internal/gmailctl"
	"github.com/joshsymonds/mailexpiry/internal/rate"
	"github.com/joshsymonds/mailexpiry/internal/runtime"
	"github.com/joshsymonds/mailexpiry/internal/scan"
	"github.com/joshsymonds/mailexpiry/internal/settings"
)

const hoursPerDay = 24

type scanConfig struct {
	cfgDir         string
	days           int
	query          string
	pageSize       int
	rps            int
	settingsPath   string
	overrides      string
	gmailctlCfg    string
	gmailctlBinary string
	gmailctlExport string
	jsonOut        string
	verbose        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		runtime.DefaultLogger().Error("mailexpiry-scan failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := scanConfig{}
	cmd := &cobra.Command{
		Use:   "mailexpiry-scan",
		Short: "Report expirable categories and expiry dates for recent Gmail messages",
		Long: `Lists recent Gmail messages, classifies each one into an expirable category
(notification, newsletter, marketing, social, calendar) and reports when it
expires. Labels that gmailctl filters would apply are taken into account.
The mailbox is never modified.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cfg.cfgDir, "config", os.ExpandEnv("$HOME/.gmailctl"), "directory holding credentials.json and token.json")
	flags.IntVar(&cfg.days, "days", 30, "lookback window in days")
	flags.StringVar(&cfg.query, "query", "", "extra Gmail search terms")
	flags.IntVar(&cfg.pageSize, "page-size", 500, "Gmail list page size (<=500)")
	flags.IntVar(&cfg.rps, "rps", 4, "max requests per second (0 disables)")
	flags.StringVar(&cfg.settingsPath, "settings", "", "YAML file with per-category day overrides")
	flags.StringVar(&cfg.overrides, "override", "", "comma separated category=days overrides")
	flags.StringVar(&cfg.gmailctlCfg, "gmailctl-config", "", "gmailctl config dir to replay filters from (optional)")
	flags.StringVar(&cfg.gmailctlBinary, "gmailctl-binary", "gmailctl", "gmailctl binary to invoke")
	flags.StringVar(&cfg.gmailctlExport, "gmailctl-export", "", "saved output of gmailctl compile --format=json (optional)")
	flags.StringVar(&cfg.jsonOut, "json", "", "write JSON report to path")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(parent context.Context, cfg scanConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := runtime.NewLogger(cfg.verbose)

	base, err := settings.Load(cfg.settingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	over, err := settings.Parse(cfg.overrides)
	if err != nil {
		return fmt.Errorf("parse overrides: %w", err)
	}

	client, err := runtime.NewGmailClient(ctx, cfg.cfgDir)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := scan.NewService(client, rate.New(cfg.rps), logger)

	svc.Filters = filterLoader(cfg)

	rep, err := svc.Run(ctx, scan.Options{
		Window:   time.Duration(cfg.days) * hoursPerDay * time.Hour,
		Query:    cfg.query,
		PageSize: cfg.pageSize,
		Settings: settings.Merge(base, over),
	})
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	if printErr := scan.PrintHuman(rep, os.Stdout); printErr != nil {
		return fmt.Errorf("print report: %w", printErr)
	}
	if cfg.jsonOut == "" {
		return nil
	}
	if writeErr := scan.WriteJSON(rep, cfg.jsonOut); writeErr != nil {
		return fmt.Errorf("write json: %w", writeErr)
	}
	return nil
}

// A saved export wins over invoking the binary.
func filterLoader(cfg scanConfig) gmailctl.Loader {
	switch {
	case cfg.gmailctlExport != "":
		return gmailctl.FileLoader{Path: cfg.gmailctlExport}
	case cfg.gmailctlCfg != "":
		return gmailctl.Runner{Binary: cfg.gmailctlBinary, ConfigDir: cfg.gmailctlCfg}
	default:
		return nil
	}
}
