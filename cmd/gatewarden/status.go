package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/store"
	"github.com/gatewarden/gatewarden/pkg/errutil"
)

// statusTimeout bounds the whole status probe.
const statusTimeout = 5 * time.Second

// DatabaseStatus holds the probe result for the backing database.
type DatabaseStatus struct {
	Reachable     bool   `json:"reachable"`
	SchemaVersion uint   `json:"schema_version,omitempty"`
	SchemaDirty   bool   `json:"schema_dirty,omitempty"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds flags for the status command.
type statusConfig struct {
	jsonOutput bool
}

// newStatusCmd creates the status subcommand with its flags.
func newStatusCmd() *cobra.Command {
	scfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database connectivity and schema version",
		Long:  `Probe the PostgreSQL database and report reachability and the current schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, scfg)
		},
	}

	cmd.Flags().BoolVar(&scfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, scfg *statusConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url (or DATABASE_URL) is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	status := probeDatabase(ctx, cfg.Database.URL)

	if scfg.jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.Code("STATUS_ENCODE_FAILED").Wrap(err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

// probeDatabase connects, pings, and reads the schema version. Partial
// failures degrade the report rather than abort it.
func probeDatabase(ctx context.Context, databaseURL string) DatabaseStatus {
	var status DatabaseStatus

	db, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = errutil.Code(err)
		if status.Error == "" {
			status.Error = err.Error()
		}
		return status
	}
	defer db.Close()

	status.Reachable = true

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = fmt.Sprintf("schema version unavailable: %v", err)
		return status
	}
	defer func() { _ = migrator.Close() }() //nolint:errcheck // Best effort

	v, dirty, err := migrator.Version()
	if err != nil {
		status.Error = fmt.Sprintf("schema version unavailable: %v", err)
		return status
	}
	status.SchemaVersion = v
	status.SchemaDirty = dirty

	return status
}

// formatStatusTable renders the status as an aligned text table.
func formatStatusTable(status DatabaseStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "FIELD\tVALUE")
	fmt.Fprintf(w, "reachable\t%t\n", status.Reachable)
	if status.Reachable {
		fmt.Fprintf(w, "schema version\t%d\n", status.SchemaVersion)
		fmt.Fprintf(w, "schema dirty\t%t\n", status.SchemaDirty)
	}
	if status.Error != "" {
		fmt.Fprintf(w, "error\t%s\n", status.Error)
	}

	_ = w.Flush() //nolint:errcheck // strings.Builder cannot fail
	return b.String()
}
