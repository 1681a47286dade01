package cmd

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	tokentypes "github.com/ciro-network/ciro/x/token/types"
)

// TokenCmd groups offline token ledger commands.
func TokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token ledger commands run directly against the state",
	}
	cmd.AddCommand(mintCmd(v))
	return cmd
}

func mintCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "mint [account] [amount]",
		Short: "Mint tokens to an account as the configured authority",
		Long: `Mint tokens to an account as the configured authority. The daemon must not
be running.

Example:
  poold token mint alice 5000000000
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := args[0]
			if err := tokentypes.ValidateAccount(account); err != nil {
				return err
			}
			amount, ok := math.NewIntFromString(args[1])
			if !ok {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			cfg, logger, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			application, err := openApp(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			var balance math.Int
			_, err = application.Execute(cmd.Context(), "mint", cfg.Authority, func(ctx sdk.Context) error {
				if err := application.TokenKeeper.Mint(ctx, cfg.Authority, account, amount); err != nil {
					return err
				}
				balance = application.TokenKeeper.BalanceOf(ctx, account)
				return nil
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, tokentypes.Balance{Account: account, Amount: balance})
		},
	}
}
