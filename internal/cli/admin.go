package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lolahq/lola/internal/admin"
	"github.com/lolahq/lola/internal/dashboard"
)

var (
	adminPage      int
	adminPerPage   int
	adminYes       bool
	adminMinutes   int
	adminEvery     time.Duration
	adminExportOut string
	dashboardAddr  string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Review, export, and delete collected responses",
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collected sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := adminService()
		if err != nil {
			return err
		}
		defer cleanup()
		perPage := adminPerPage
		return svc.List(cmd.Context(), adminPage, perPage)
	},
}

var adminShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := adminService()
		if err != nil {
			return err
		}
		defer cleanup()
		return svc.Show(cmd.Context(), args[0])
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and all its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !adminYes && !confirm(fmt.Sprintf("Delete session %s? This cannot be undone", args[0])) {
			fmt.Println("Aborted.")
			return nil
		}
		svc, cleanup, err := adminService()
		if err != nil {
			return err
		}
		defer cleanup()
		return svc.Delete(cmd.Context(), args[0])
	},
}

var adminCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete abandoned sessions older than --minutes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := adminService()
		if err != nil {
			return err
		}
		defer cleanup()
		if adminEvery > 0 {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return svc.RunScheduled(ctx, adminMinutes, adminEvery)
		}
		return svc.Cleanup(cmd.Context(), adminMinutes)
	},
}

var adminExportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export all responses as CSV, or one session as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := adminService()
		if err != nil {
			return err
		}
		defer cleanup()
		if len(args) == 1 {
			out := adminExportOut
			if out == "" {
				out = args[0] + ".json"
			}
			return svc.ExportOne(cmd.Context(), args[0], out)
		}
		out := adminExportOut
		if out == "" {
			out = "responses.csv"
		}
		return svc.ExportAll(cmd.Context(), out)
	},
}

var adminServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local read-only dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := setup()
		if err != nil {
			return err
		}
		defer lg.Close()

		addr := dashboardAddr
		if addr == "" {
			addr = cfg.Dashboard.Addr
		}

		cfgPath := cfgFile
		// Watch the effective config file so edits re-point the backend.
		if cfgPath == "" {
			if home, err := os.UserHomeDir(); err == nil {
				cfgPath = home + "/.lola/lola.json"
			}
		}

		srv := dashboard.New(newClient(cfg, lg), addr, cfgPath, lg.Get())
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	adminListCmd.Flags().IntVar(&adminPage, "page", 1, "page to fetch")
	adminListCmd.Flags().IntVar(&adminPerPage, "per-page", 0, "sessions per page (default from config)")
	adminDeleteCmd.Flags().BoolVar(&adminYes, "yes", false, "skip confirmation")
	adminCleanupCmd.Flags().IntVar(&adminMinutes, "minutes", 30, "drop abandoned sessions older than this")
	adminCleanupCmd.Flags().DurationVar(&adminEvery, "every", 0, "repeat on this interval (e.g. 30m); 0 runs once")
	adminExportCmd.Flags().StringVar(&adminExportOut, "out", "", "output file path")
	adminServeCmd.Flags().StringVar(&dashboardAddr, "addr", "", "listen address (default from config)")

	adminCmd.AddCommand(adminListCmd, adminShowCmd, adminDeleteCmd, adminCleanupCmd, adminExportCmd, adminServeCmd)
	rootCmd.AddCommand(adminCmd)
}

// adminService wires the admin service and returns its release func.
func adminService() (*admin.Service, func(), error) {
	cfg, lg, err := setup()
	if err != nil {
		return nil, nil, err
	}
	if adminPerPage == 0 {
		adminPerPage = cfg.Admin.PerPage
	}
	svc := admin.NewService(newClient(cfg, lg), os.Stdout, lg.Get())
	return svc, func() { lg.Close() }, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
