// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2017-2023 The Spacemesh developers

package miner

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/mining"
	"github.com/spacemeshos/coinminer/poller"
	"github.com/spacemeshos/coinminer/solver"
)

const (
	defaultBaseURL        = "http://cpen442coin.ece.ubc.ca"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultJournalDirname = "journal"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
)

// ErrMissingSubmitURL is returned when no submit URL was given on the command line.
var ErrMissingSubmitURL = errors.New("the required argument `submit-url` was not provided")

// Config defines the configuration options for the miner.
type Config struct {
	MinerDir       string  `long:"minerdir"        description:"The base directory that contains the miner's data, logs, configuration file, etc."`
	ConfigFile     string  `long:"configfile"      description:"Path to configuration file"                                                          short:"c"`
	DataDir        string  `long:"datadir"         description:"The directory to store the miner's data within"                                      short:"b"`
	LogDir         string  `long:"logdir"          description:"Directory to log output"`
	DebugLog       bool    `long:"debuglog"        description:"Enable debug logs"`
	JSONLog        bool    `long:"jsonlog"         description:"Whether to log in JSON format"`
	MaxLogFiles    int     `long:"maxlogfiles"     description:"Maximum logfiles to keep (0 keeps all of them)"`
	MaxLogFileSize int     `long:"maxlogfilesize"  description:"Maximum logfile size in MB"`
	MetricsPort    *uint16 `long:"metrics-port"    description:"The port to expose metrics"`
	DisableJournal bool    `long:"disable-journal" description:"Do not record found coins"`

	BaseURL string `long:"baseurl" description:"Base URL of the coin service"`

	Poller poller.Config `group:"Poller"`
	Client client.Config `group:"Client"`
	Mining mining.Config `group:"Mining"`
	Solver solver.Config `group:"Solver"`

	Args struct {
		SubmitURL string `positional-arg-name:"submit-url" description:"URL coins are submitted to"`
		ProxyList string `positional-arg-name:"proxy-list" description:"File with one proxy address per line"`
	} `positional-args:"yes"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	minerDir := "./coinminer"
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		minerDir = filepath.Join(cacheDir, "coinminer")
	}

	return &Config{
		MinerDir:       minerDir,
		DataDir:        filepath.Join(minerDir, defaultDataDirname),
		LogDir:         filepath.Join(minerDir, defaultLogDirname),
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		BaseURL:        defaultBaseURL,
		Poller:         poller.DefaultConfig(),
		Client:         client.DefaultConfig(),
		Mining:         mining.DefaultConfig(),
		Solver:         solver.DefaultConfig(),
	}
}

// JournalDir is where found coins are recorded.
func (c *Config) JournalDir() string {
	return filepath.Join(c.DataDir, defaultJournalDirname)
}

// Validate checks the options that have no usable default.
func (c *Config) Validate() error {
	if c.Args.SubmitURL == "" {
		return ErrMissingSubmitURL
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	return ParseArgs(preCfg, os.Args[1:])
}

// ParseArgs reads values from args.
func ParseArgs(preCfg *Config, args []string) (*Config, error) {
	if _, err := flags.NewParser(preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads config from an ini file.
// It uses the provided `cfg` as a base config and overrides it with the values
// from the config file.
func ReadConfigFile(cfg *Config) (*Config, error) {
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	if err := flags.IniParse(cfg.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %v: %w", cfg.ConfigFile, err)
	}

	return cfg, nil
}

// SetupConfig expands paths and initializes filesystem.
func SetupConfig(cfg *Config) (*Config, error) {
	// Paths left at their defaults follow a non-default miner directory.
	defaultCfg := DefaultConfig()
	if cfg.MinerDir != defaultCfg.MinerDir {
		if cfg.DataDir == defaultCfg.DataDir {
			cfg.DataDir = filepath.Join(cfg.MinerDir, defaultDataDirname)
		}
		if cfg.LogDir == defaultCfg.LogDir {
			cfg.LogDir = filepath.Join(cfg.MinerDir, defaultLogDirname)
		}
	}

	cfg.MinerDir = cleanAndExpandPath(cfg.MinerDir)
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.Args.ProxyList = cleanAndExpandPath(cfg.Args.ProxyList)

	for _, dir := range []string{cfg.MinerDir, cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create %v: %w", dir, err)
		}
	}

	return cfg, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// implement zap.ObjectMarshaler interface.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("baseurl", c.BaseURL)
	enc.AddString("submit-url", c.Args.SubmitURL)
	enc.AddString("proxy-list", c.Args.ProxyList)
	enc.AddString("datadir", c.DataDir)
	enc.AddDuration("poll-interval", c.Poller.Interval)
	enc.AddDuration("request-timeout", c.Client.RequestTimeout)
	enc.AddString("miner-id", c.Mining.MinerID)
	enc.AddInt("solver-workers", c.Solver.Workers)
	enc.AddBool("journal", !c.DisableJournal)
	return nil
}
