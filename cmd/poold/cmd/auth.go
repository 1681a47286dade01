package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/api"
)

const flagTTL = "ttl"

// AuthCmd groups API credential commands.
func AuthCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "API credential commands",
	}
	cmd.AddCommand(tokenCmd(v))
	return cmd
}

func tokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [principal]",
		Short: "Issue a bearer token for a principal, signed with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			if cfg.API.JWTSecret == "" {
				return errors.New("api.jwt-secret is not configured")
			}
			ttl, _ := cmd.Flags().GetDuration(flagTTL)

			token, err := api.NewAuthService([]byte(cfg.API.JWTSecret), ttl).GenerateToken(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().Duration(flagTTL, 24*time.Hour, "token lifetime")
	return cmd
}
