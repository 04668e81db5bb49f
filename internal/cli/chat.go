package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lolahq/lola/internal/chat"
	"github.com/lolahq/lola/internal/identity"
	"github.com/lolahq/lola/pkg/api"
	"github.com/lolahq/lola/pkg/cleanup"
	"github.com/lolahq/lola/pkg/survey"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the conversational survey",
	Long: `Start a survey session and answer the questionnaire in the terminal.
Leaving before the last question deletes the abandoned session server-side,
best-effort.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, lg, err := setup()
	if err != nil {
		return err
	}
	defer lg.Close()

	client := newClient(cfg, lg)

	clientID, err := identity.Load(cfg.DataDir)
	if err != nil {
		zl := lg.Get()
		zl.Warn().Err(err).Msg("Could not load client identity")
	}
	hostname, _ := os.Hostname()
	meta := api.ClientMeta{
		ClientID:  clientID,
		UserAgent: "lola-cli/" + version,
		Hostname:  hostname,
	}

	var store cleanup.Store = cleanup.NewMemStore()
	if cfg.Cleanup.Enabled {
		sqlStore, err := cleanup.NewSQLiteStore(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			zl := lg.Get()
			zl.Warn().Err(err).Msg("State database unavailable, marker will not persist")
		} else {
			defer sqlStore.Close()
			store = sqlStore
		}
	}

	janitor := cleanup.NewJanitor(store, client, lg.Get())
	machine := survey.NewMachine(client, janitor, meta, lg.Get())

	ctx := context.Background()

	// The terminal analog of pagehide/beforeunload: a shutdown signal fires
	// the one-shot teardown delete even while the loop is blocked on stdin.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		st := machine.Snapshot()
		if st.Phase == survey.PhaseActive {
			janitor.Teardown(st.SessionID)
		}
		lg.Close()
		os.Exit(130)
	}()

	// Previous run's abandoned session, if any.
	janitor.SweepStale(ctx, "")

	runner := chat.NewRunner(machine, janitor, os.Stdin, os.Stdout, lg.Get())
	return runner.Run(ctx)
}
