package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"enrichd/internal/language"
	"enrichd/internal/ledger"
)

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect tracked enrichment requests",
	}
	cmd.AddCommand(newRequestsListCommand(ctx))
	cmd.AddCommand(newRequestsShowCommand(ctx))
	return cmd
}

func newRequestsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var rows []*ledger.Request
			if statusFlag != "" {
				status, ok := ledger.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				rows, err = store.ListByStatus(cmd.Context(), status)
			} else {
				rows, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			interactive := isatty.IsTerminal(os.Stdout.Fd())
			cells := make([][]string, 0, len(rows))
			for _, row := range rows {
				cells = append(cells, []string{
					row.OID,
					string(row.Status),
					row.Language,
					row.RequestSentAt.Local().Format("2006-01-02 15:04"),
					row.Name,
				})
			}
			renderTable(out, interactive, []string{"OID", "STATUS", "LANG", "SENT", "NAME"}, cells)

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, formatStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Only list requests with this status")
	return cmd
}

func newRequestsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <oid>",
		Short: "Show one tracked request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			row, err := rt.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "oid:           %s\n", row.OID)
			fmt.Fprintf(out, "name:          %s\n", row.Name)
			fmt.Fprintf(out, "status:        %s\n", row.Status)
			fmt.Fprintf(out, "language:      %s\n", formatLanguage(row.Language))
			fmt.Fprintf(out, "enrichment:    %s\n", row.EnrichmentID)
			fmt.Fprintf(out, "parent:        %s\n", row.ParentOID)
			fmt.Fprintf(out, "submitted:     %s\n", row.RequestSentAt.Local().Format(time.RFC3339))
			if row.NotificationReceivedAt != nil {
				fmt.Fprintf(out, "notified:      %s\n", row.NotificationReceivedAt.Local().Format(time.RFC3339))
			} else {
				fmt.Fprintf(out, "notified:      never\n")
			}
			fmt.Fprintf(out, "portal:        %s\n", rt.aristote.PortalURL(row.EnrichmentID))
			return nil
		},
	}
}

// formatLanguage renders a language code with its English name when known,
// e.g. "fr (French)".
func formatLanguage(code string) string {
	if code == "" {
		return "auto-detect"
	}
	name := language.DisplayName(code)
	if name == "" || strings.EqualFold(name, code) {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, name)
}

func formatStats(stats map[ledger.Status]int) string {
	if len(stats) == 0 {
		return "no tracked requests"
	}

	keys := make([]string, 0, len(stats))
	for status := range stats {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, stats[ledger.Status(key)]))
	}
	return strings.Join(parts, " ")
}
