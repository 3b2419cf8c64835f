package miner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/coinminer/client"
)

func TestReadingNonExistingConfigFile(t *testing.T) {
	cfg := Config{
		ConfigFile: "non-existing-file",
	}
	_, err := ReadConfigFile(&cfg)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.ConfigFile = filepath.Join(dir, "config.ini")
	content := "datadir = /tmp\nbaseurl = http://localhost:9000\n\n[Poller]\npoll-interval = 1s\n\n[Mining]\nminer-id = abc\n"
	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte(content), 0o600))

	cfg, err := ReadConfigFile(cfg)
	require.NoError(t, err)
	require.Equal(t, "/tmp", cfg.DataDir)
	require.Equal(t, "http://localhost:9000", cfg.BaseURL)
	require.Equal(t, time.Second, cfg.Poller.Interval)
	require.Equal(t, "abc", cfg.Mining.MinerID)
	// untouched options keep their defaults
	require.Equal(t, "CPEN 442 Coin2022", cfg.Mining.Prefix)
}

func TestReadConfigFilePathNotSet(t *testing.T) {
	cfg, err := ReadConfigFile(&Config{})
	require.NoError(t, err)
	require.Equal(t, &Config{}, cfg)
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "http://cpen442coin.ece.ubc.ca", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Poller.Interval)
	require.Equal(t, 5*time.Second, cfg.Client.RequestTimeout)
	require.Equal(t, 0, cfg.Client.Retries)
	require.EqualValues(t, 1024, cfg.Client.MaxResponseSize)
	require.Equal(t, "free-vbucks", cfg.Mining.MinerID)
	require.Equal(t, 100*time.Millisecond, cfg.Mining.IdleWait)
	require.Positive(t, cfg.Solver.Workers)
	require.Nil(t, cfg.MetricsPort)
	require.False(t, cfg.DisableJournal)
}

func TestParseArgs(t *testing.T) {
	cfg, err := ParseArgs(DefaultConfig(), []string{
		"--miner-id", "abc",
		"--poll-interval", "250ms",
		"--request-retries", "2",
		"--metrics-port", "9100",
		"http://localhost:9000/claim_coin",
		"proxies.txt",
	})
	require.NoError(t, err)
	require.Equal(t, "abc", cfg.Mining.MinerID)
	require.Equal(t, 250*time.Millisecond, cfg.Poller.Interval)
	require.Equal(t, 2, cfg.Client.Retries)
	require.NotNil(t, cfg.MetricsPort)
	require.EqualValues(t, 9100, *cfg.MetricsPort)
	require.Equal(t, "http://localhost:9000/claim_coin", cfg.Args.SubmitURL)
	require.Equal(t, "proxies.txt", cfg.Args.ProxyList)
	require.NoError(t, cfg.Validate())
}

func TestSubmitURLIsRequired(t *testing.T) {
	cfg, err := ParseArgs(DefaultConfig(), nil)
	require.NoError(t, err)
	require.ErrorIs(t, cfg.Validate(), ErrMissingSubmitURL)
}

func TestRequestTimeoutMustBePositive(t *testing.T) {
	cfg, err := ParseArgs(DefaultConfig(), []string{"--request-timeout", "0s", "http://localhost:9000/claim_coin"})
	require.NoError(t, err)
	require.ErrorIs(t, cfg.Validate(), client.ErrInvalidTimeout)
}

func TestSetupConfigFollowsMinerDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.MinerDir = dir

	cfg, err := SetupConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	require.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir)
	require.Equal(t, filepath.Join(dir, "data", "journal"), cfg.JournalDir())
	require.DirExists(t, cfg.DataDir)
	require.DirExists(t, cfg.LogDir)
}

func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("COINMINER_TEST_DIR", "/var/lib")
	require.Equal(t, "/var/lib/coinminer", cleanAndExpandPath("$COINMINER_TEST_DIR/coinminer/"))
	require.Equal(t, "", cleanAndExpandPath(""))
}
