package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/app"
)

const flagOutput = "output"

// GenesisCmd groups the genesis subcommands.
func GenesisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Export and validate genesis files",
	}
	cmd.AddCommand(
		exportGenesisCmd(v),
		validateGenesisCmd(),
	)
	return cmd
}

func exportGenesisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the committed state as a genesis document",
		Long: `Export the committed state as a genesis document. The daemon must not be
running: the state database is opened exclusively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			application, err := openApp(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			gs, err := application.ExportGenesis(cmd.Context())
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString(flagOutput); out != "" {
				if err := app.WriteGenesisFile(out, gs); err != nil {
					return err
				}
				logger.Info("genesis exported", "file", out, "version", application.Version())
				return nil
			}
			return printJSON(cmd, gs)
		},
	}
	cmd.Flags().String(flagOutput, "", "write to this file instead of stdout")
	return cmd
}

func validateGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a genesis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.LoadGenesisFile(args[0]); err != nil {
				return fmt.Errorf("error validating genesis file %s: %w", args[0], err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "File at %s is a valid genesis file\n", args[0])
			return err
		},
	}
}
