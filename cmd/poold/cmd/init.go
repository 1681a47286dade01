package cmd

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/app"
)

const (
	flagOverwrite = "overwrite"
	flagAuthority = "authority"
	flagChainID   = "chain-id"
	flagGenesis   = "genesis"
)

const appConfigTemplate = `# poold configuration. Every key can be overridden with a POOLD_ environment
# variable, e.g. POOLD_API_ADDRESS.

db-backend = "{{ .DBBackend }}"
log-level = "{{ .LogLevel }}"
chain-id = "{{ .ChainID }}"

# Principal allowed to administer the pool.
authority = "{{ .Authority }}"

[api]
address = "{{ .API.Address }}"
jwt-secret = "{{ .API.JWTSecret }}"
cors-origins = [{{ range $i, $o := .API.CORSOrigins }}{{ if $i }}, {{ end }}"{{ $o }}"{{ end }}]
rate-limit-rps = {{ .API.RateLimitRPS }}
read-timeout = "{{ .API.ReadTimeout }}"
write-timeout = "{{ .API.WriteTimeout }}"
request-timeout = "{{ .API.RequestTimeout }}"

[health]
address = "{{ .Health.Address }}"

[telemetry]
enabled = {{ .Telemetry.Enabled }}
otlp-endpoint = "{{ .Telemetry.OTLPEndpoint }}"
sample-rate = {{ .Telemetry.SampleRate }}
environment = "{{ .Telemetry.Environment }}"
prometheus-enabled = {{ .Telemetry.PrometheusEnabled }}
`

// InitCmd writes app.toml and genesis.json under the home directory and
// imports the genesis into a fresh state database.
func InitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration, genesis and state",
		Long: `Initialize the node home: config/app.toml, config/genesis.json and the
state database.

Example:
  poold init --chain-id ciro-testnet-1 --authority ciro_admin --home ~/.poold
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			if authority, _ := cmd.Flags().GetString(flagAuthority); authority != "" {
				cfg.Authority = authority
			}
			if chainID, _ := cmd.Flags().GetString(flagChainID); chainID != "" {
				cfg.ChainID = chainID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			configDir := filepath.Join(cfg.Home, "config")
			appConfigPath := filepath.Join(configDir, "app.toml")
			genFile := filepath.Join(configDir, "genesis.json")

			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
			if !overwrite && fileExists(appConfigPath) {
				return fmt.Errorf("app.toml already exists: %v", appConfigPath)
			}
			if err := os.MkdirAll(configDir, 0o750); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if cfg.API.JWTSecret == "" {
				secret := make([]byte, 32)
				if _, err := rand.Read(secret); err != nil {
					return fmt.Errorf("failed to generate jwt secret: %w", err)
				}
				cfg.API.JWTSecret = hex.EncodeToString(secret)
			}
			if err := writeAppConfig(appConfigPath, cfg); err != nil {
				return err
			}

			gs := app.NewDefaultGenesisState()
			if src, _ := cmd.Flags().GetString(flagGenesis); src != "" {
				if gs, err = app.LoadGenesisFile(src); err != nil {
					return err
				}
			}
			if err := app.WriteGenesisFile(genFile, gs); err != nil {
				return fmt.Errorf("failed to write genesis file: %w", err)
			}

			application, err := openApp(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if application.Initialized() {
				logger.Info("state already initialized, genesis not imported", "version", application.Version())
			} else if err := application.InitChain(cmd.Context(), gs); err != nil {
				return err
			}

			return printJSON(cmd, map[string]interface{}{
				"home":      cfg.Home,
				"chain_id":  cfg.ChainID,
				"authority": cfg.Authority,
				"genesis":   genFile,
				"version":   application.Version(),
			})
		},
	}

	cmd.Flags().Bool(flagOverwrite, false, "overwrite an existing app.toml")
	cmd.Flags().String(flagAuthority, "", "pool administrator principal")
	cmd.Flags().String(flagChainID, "", "chain identifier recorded in block headers")
	cmd.Flags().String(flagGenesis, "", "import this genesis file instead of the default one")

	return cmd
}

func writeAppConfig(path string, cfg app.Config) error {
	tmpl, err := template.New("app.toml").Parse(appConfigTemplate)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return fmt.Errorf("failed to render app.toml: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
