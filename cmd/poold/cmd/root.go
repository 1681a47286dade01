package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/app"
)

const (
	flagHome      = "home"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	logFormatJSON = "json"
)

// NewRootCmd creates the poold root command. Configuration is resolved from
// flags, POOLD_ environment variables and <home>/config/app.toml, in that
// order of precedence.
func NewRootCmd() *cobra.Command {
	v := app.NewViper()

	rootCmd := &cobra.Command{
		Use:   app.Name,
		Short: "CIRO worker pool daemon",
		Long: `poold runs the CIRO worker pool: stake-backed worker registration, tiering,
reputation, slashing and job allocation, served over an HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flagHome, app.DefaultNodeHome, "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String(flagLogFormat, "plain", "log output format (plain|json)")
	for _, name := range []string{flagHome, flagLogLevel, flagLogFormat} {
		// Lookup cannot fail for a flag registered just above.
		_ = v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(
		InitCmd(v),
		StartCmd(v),
		GenesisCmd(v),
		TokenCmd(v),
		AuthCmd(v),
	)

	return rootCmd
}

// loadConfig resolves the configuration and builds the daemon logger. Logs go
// to the command's stderr so that command output on stdout stays clean.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (app.Config, log.Logger, error) {
	cfg, err := app.LoadConfig(v)
	if err != nil {
		return app.Config{}, nil, err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, v.GetString(flagLogFormat))
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(w io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := []log.Option{log.LevelOption(lvl)}
	switch format {
	case "", "plain":
	case logFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log.NewLogger(w, opts...), nil
}

// openApp opens the state database and mounts the application on it.
func openApp(cfg app.Config, logger log.Logger, opts ...app.Option) (*app.App, error) {
	db, err := app.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	application, err := app.New(logger, db, cfg.ChainID, cfg.Authority, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return application, nil
}

// printJSON writes v to the command's stdout, indented.
func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}
