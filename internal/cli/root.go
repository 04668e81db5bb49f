package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lolahq/lola/internal/config"
	"github.com/lolahq/lola/internal/logger"
	"github.com/lolahq/lola/pkg/api"
)

const version = "0.3.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lola",
	Short: "Lola - conversational business-discovery survey client",
	Long: `Lola is a conversational survey client. The chat command runs the
business-discovery questionnaire against the survey backend; the admin
commands review, export, and delete collected responses.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lola/lola.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// setup loads the config and installs the logger. Every command goes through
// here so that --config and --log-level behave uniformly.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logCfg := logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	}
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lg, nil
}

// newClient builds the backend API client from the loaded config.
func newClient(cfg *config.Config, lg *logger.Logger) *api.Client {
	return api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, lg.Get())
}
