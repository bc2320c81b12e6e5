package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rickgao/lotto-engine/internal/app"
	"github.com/rickgao/lotto-engine/internal/drawsync"
)

var syncLocal bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Control draw synchronization",
	Long: `Control draw synchronization.

Available subcommands:
  run    - Run a sweep (remote by default, --local runs it in-process)
  cancel - Ask the running sweep to stop
  status - Show the persisted sync state`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sweep and print its report",
	RunE:  runSync,
}

var syncCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the sweep running on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := remoteClient()
		if err != nil {
			return err
		}
		var out struct {
			Cancelled bool `json:"cancelled"`
		}
		if err := c.do("POST", "/admin/sync/cancel", "", &out); err != nil {
			return err
		}
		if out.Cancelled {
			fmt.Fprintln(cmd.OutOrStdout(), "cancel requested")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "no sweep running")
		}
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := remoteClient()
		if err != nil {
			return err
		}
		var st drawsync.Status
		if err := c.do("GET", "/admin/sync/status", "", &st); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	},
}

func init() {
	syncRunCmd.Flags().BoolVar(&syncLocal, "local", false, "run the sweep in this process against the configured store")
	syncCmd.AddCommand(syncRunCmd, syncCancelCmd, syncStatusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if !syncLocal {
		c, err := remoteClient()
		if err != nil {
			return err
		}
		var rep drawsync.Report
		if err := c.do("POST", "/admin/sync", "wait=true", &rep); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.Sync.Sync(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	return rep.Err
}

func remoteClient() (*adminClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAdminClient(serverURL, cfg.Server.AdminKeyID, cfg.Server.AdminSecret)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
