package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alderacgit/ZenDeskExport/internal/config"
	"github.com/alderacgit/ZenDeskExport/pkg/cache"
	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/export"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
	"github.com/alderacgit/ZenDeskExport/pkg/zendesk"
)

// exportOpts holds the command-line flags for the export run.
type exportOpts struct {
	groupID         string // group to export; falls back to the configured default
	allGroups       bool   // export every group on the account
	status          string // open|pending|solved|closed|all
	daysBack        int    // only tickets created in the last N days; 0 means all
	includeCCs      bool
	includeComments bool
	format          string // csv|json|txt|excel
	output          string // output directory override
	dryRun          bool   // validate credentials and list groups, then stop
	useCache        bool
	clearCache      bool
	listGroups      bool
	configPath      string // optional TOML defaults file
}

// exportCommand creates the root command that runs the export.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{status: "all", daysBack: 30, includeCCs: true, format: "csv", useCache: true}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Export email addresses from Zendesk tickets",
		Long: `Zendeskexport fetches support tickets for one or all Zendesk groups,
extracts email addresses (requester, CC, optionally comment bodies and
custom fields), deduplicates them, and writes the result as CSV, JSON,
TXT, or an XLSX workbook.

Credentials come from ZENDESK_EMAIL, ZENDESK_API_TOKEN, and
ZENDESK_SUBDOMAIN (a .env file in the working directory is honored).

Examples:
  zendeskexport -g 12345                    # One group, last 30 days, CSV
  zendeskexport --all-groups -f excel       # Every group, XLSX workbook
  zendeskexport -g 12345 --status open --days-back 7 --include-comments
  zendeskexport --dry-run                   # Credentials check + group list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.groupID, "group-id", "g", "", "group id to export (default from ZENDESK_DEFAULT_GROUP_ID)")
	cmd.Flags().BoolVar(&opts.allGroups, "all-groups", false, "export tickets from every group")
	cmd.Flags().StringVar(&opts.status, "status", opts.status, "ticket status filter (open|pending|solved|closed|all)")
	cmd.Flags().IntVar(&opts.daysBack, "days-back", opts.daysBack, "only tickets created in the last N days (0 = no limit)")
	cmd.Flags().BoolVar(&opts.includeCCs, "include-ccs", opts.includeCCs, "extract CC and collaborator addresses")
	cmd.Flags().BoolVar(&opts.includeComments, "include-comments", false, "fetch ticket comments and scan them for addresses")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (csv|json|txt|excel)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from OUTPUT_DIR)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate credentials and list groups without exporting")
	cmd.Flags().BoolVar(&opts.useCache, "use-cache", opts.useCache, "cache API responses between runs")
	cmd.Flags().BoolVar(&opts.clearCache, "clear-cache", false, "clear cached responses before running")
	cmd.Flags().BoolVar(&opts.listGroups, "list-groups", false, "list groups and exit")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML defaults file (environment still wins)")

	return cmd
}

// runExport is the full export pipeline: config, credentials check, fetch,
// extract, write, summary.
func (c *CLI) runExport(ctx context.Context, opts *exportOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if !c.verbose {
		c.SetLogLevel(parseLevel(cfg.LogLevel))
	}

	// Mirror the terminal log into a dated file so runs are auditable.
	if f, err := openLogFile(cfg.LogDir); err != nil {
		c.Logger.Warnf("File logging disabled: %v", err)
	} else {
		defer f.Close()
		c.Logger.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	status, err := parseStatus(opts.status)
	if err != nil {
		return err
	}

	groupID := opts.groupID
	if groupID == "" {
		groupID = cfg.DefaultGroupID
	}
	listOnly := opts.dryRun || opts.listGroups
	if !opts.allGroups && groupID == "" && !listOnly {
		return errors.New(errors.ErrCodeInvalidInput,
			"no group scope: pass --group-id, --all-groups, or set ZENDESK_DEFAULT_GROUP_ID")
	}

	client := zendesk.NewClient(cfg.Subdomain, cfg.Email, cfg.APIToken)

	user, err := client.Me(ctx)
	if err != nil {
		return err
	}
	printSuccess("Connected to %s.zendesk.com as %s", cfg.Subdomain, user.Email)

	if listOnly {
		if err := c.printGroups(ctx, client); err != nil {
			return err
		}
		if opts.dryRun {
			printInfo("Dry run, nothing exported")
		}
		return nil
	}

	if opts.clearCache {
		if err := c.clearFileCache(cfg); err != nil {
			c.Logger.Warnf("Cache clear failed: %v", err)
		}
	}

	cch := c.newCache(ctx, cfg, opts.useCache)
	defer cch.Close()

	fetcher := zendesk.NewFetcher(client, cch, cfg.CacheTTL, cfg.Subdomain, c.Logger)
	fetchOpts := zendesk.FetchOptions{
		GroupID:         groupID,
		Status:          status,
		DaysBack:        opts.daysBack,
		IncludeComments: opts.includeComments,
	}

	prog := newProgress(c.Logger)
	var tickets []zendesk.Ticket
	if opts.allGroups {
		tickets, err = fetcher.FetchAllGroups(ctx, fetchOpts)
	} else {
		tickets, err = fetcher.FetchGroup(ctx, fetchOpts)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Fetched %d tickets", len(tickets)))

	if len(tickets) == 0 {
		printInfo("No tickets matched the filters, nothing to export")
		return nil
	}

	records := extract.FromTickets(tickets, extract.Options{
		IncludeCCs:      opts.includeCCs,
		IncludeComments: opts.includeComments,
		Logger:          c.Logger.Debugf,
	})
	if len(records) == 0 {
		printInfo("No email addresses found in %d tickets, nothing to export", len(tickets))
		return nil
	}

	outputDir := opts.output
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	exporter, err := export.NewExporter(outputDir)
	if err != nil {
		return err
	}

	scope := groupID
	if opts.allGroups {
		scope = "all"
	}
	meta := export.Meta{
		ExportID:   uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Subdomain:  cfg.Subdomain,
		GroupScope: scope,
		Status:     status,
		DaysBack:   opts.daysBack,
	}

	path, err := exporter.Export(records, meta, format)
	if err != nil {
		return err
	}

	printSuccess("Exported %d unique email addresses", len(records))
	printFile(path)
	printSummary(records, len(tickets))
	return nil
}

// parseStatus validates the status flag. "all" and "" mean no filter.
func parseStatus(s string) (string, error) {
	switch s {
	case "", "all":
		return "", nil
	case "open", "pending", "solved", "closed":
		return s, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput,
			"invalid status %q (expected open, pending, solved, closed, or all)", s)
	}
}

// clearFileCache wipes the file cache directory before a run.
func (c *CLI) clearFileCache(cfg *config.Config) error {
	dir, err := cacheDir(cfg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	count, err := fc.Clear()
	if err != nil {
		return err
	}
	c.Logger.Infof("Cleared %d cached entries", count)
	return nil
}

// printSummary prints totals and the busiest addresses after an export.
func printSummary(records map[string]*extract.Record, ticketCount int) {
	stats := extract.Summarize(records)

	printNewline()
	fmt.Println(StyleTitle.Render("Summary"))
	printKeyValue("Unique emails", fmt.Sprintf("%d", stats.TotalUniqueEmails))
	printKeyValue("Tickets scanned", fmt.Sprintf("%d", ticketCount))
	printKeyValue("Requester addresses", fmt.Sprintf("%d", stats.RequesterEmails))
	printKeyValue("CC addresses", fmt.Sprintf("%d", stats.CCEmails))
	printKeyValue("Avg tickets/email", fmt.Sprintf("%.2f", stats.AvgTicketsPerEmail))

	top := extract.TopByTickets(records, 5)
	if len(top) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Top addresses"))
		for _, r := range top {
			printDetail("%s %s", StyleNumber.Render(fmt.Sprintf("%3d", r.Count)), r.Address)
		}
	}
}
