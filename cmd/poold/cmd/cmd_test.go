package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ciro-network/ciro/api"
	"github.com/ciro-network/ciro/app"
)

// runCmd executes poold with args against home and returns its stdout.
func runCmd(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--"+flagHome, home))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func initHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	_, err := runCmd(t, home, "init", "--authority", "ciro_admin", "--chain-id", "ciro-test-1")
	require.NoError(t, err)
	return home
}

func TestInitWritesHome(t *testing.T) {
	home := initHome(t)

	require.FileExists(t, filepath.Join(home, "config", "app.toml"))
	require.FileExists(t, filepath.Join(home, "config", "genesis.json"))

	v := app.NewViper()
	v.Set("home", home)
	cfg, err := app.LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, "ciro_admin", cfg.Authority)
	require.Equal(t, "ciro-test-1", cfg.ChainID)
	require.Len(t, cfg.API.JWTSecret, 64)
	require.Equal(t, app.DefaultConfig().API.ReadTimeout, cfg.API.ReadTimeout)
	require.Equal(t, app.DefaultConfig().API.CORSOrigins, cfg.API.CORSOrigins)

	_, err = runCmd(t, home, "init")
	require.ErrorContains(t, err, "already exists")
}

func TestInitRejectsBadLogLevel(t *testing.T) {
	_, err := runCmd(t, t.TempDir(), "init", "--"+flagLogLevel, "loud")
	require.ErrorContains(t, err, "invalid log level")
}

func TestGenesisValidate(t *testing.T) {
	home := initHome(t)

	out, err := runCmd(t, home, "genesis", "validate", filepath.Join(home, "config", "genesis.json"))
	require.NoError(t, err)
	require.Contains(t, out, "is a valid genesis file")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"token":{}}`), 0o600))
	_, err = runCmd(t, home, "genesis", "validate", bad)
	require.Error(t, err)
}

func TestTokenMintAndExport(t *testing.T) {
	home := initHome(t)

	out, err := runCmd(t, home, "token", "mint", "alice", "1000")
	require.NoError(t, err)
	require.JSONEq(t, `{"account":"alice","amount":"1000"}`, out)

	_, err = runCmd(t, home, "token", "mint", "alice", "lots")
	require.ErrorContains(t, err, "invalid amount")

	out, err = runCmd(t, home, "genesis", "export")
	require.NoError(t, err)

	var gs app.GenesisState
	require.NoError(t, json.Unmarshal([]byte(out), &gs))
	require.NoError(t, gs.Validate())
	require.Len(t, gs.Token.Balances, 1)
	require.Equal(t, "alice", gs.Token.Balances[0].Account)
	require.Equal(t, "1000", gs.Token.Balances[0].Amount.String())

	exported := filepath.Join(t.TempDir(), "exported.json")
	_, err = runCmd(t, home, "genesis", "export", "--"+flagOutput, exported)
	require.NoError(t, err)
	fromFile, err := app.LoadGenesisFile(exported)
	require.NoError(t, err)
	require.Equal(t, "1000", fromFile.Token.Balances[0].Amount.String())
}

func TestTokenMintRequiresInitializedState(t *testing.T) {
	_, err := runCmd(t, t.TempDir(), "token", "mint", "alice", "1000")
	require.ErrorIs(t, err, app.ErrNotInitialized)
}

func TestAuthToken(t *testing.T) {
	home := initHome(t)

	out, err := runCmd(t, home, "auth", "token", "alice")
	require.NoError(t, err)

	v := app.NewViper()
	v.Set("home", home)
	cfg, err := app.LoadConfig(v)
	require.NoError(t, err)

	claims, err := api.NewAuthService([]byte(cfg.API.JWTSecret), 0).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Principal)

	_, err = runCmd(t, t.TempDir(), "auth", "token", "alice")
	require.ErrorContains(t, err, "jwt-secret")
}
