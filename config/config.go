package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"

	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/util"
)

const (
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "govmond.log"
	defaultConfigFileName  = "govmond.conf"
	defaultGenesisFileName = "genesis.json"
	defaultDataDirname     = "data"
	DefaultRPCPort         = 8645
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.govmond on Linux
	//   ~/Users/<username>/Library/Application Support/Govmond on MacOS
	DefaultGovmondDir = btcutil.AppDataDir("govmond", false)

	DefaultRPCListener = "127.0.0.1:" + strconv.Itoa(DefaultRPCPort)
)

// Config is the main config for the govmond daemon
type Config struct {
	LogLevel  string `long:"loglevel" description:"Logging level for all subsystems" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	LogFormat string `long:"logformat" description:"Format of the log lines" choice:"auto" choice:"console" choice:"json" choice:"logfmt"`

	GenesisFile string   `long:"genesisfile" description:"Path to the JSON genesis of the registry, used when the db holds no state yet"`
	Nodes       []string `long:"node" description:"Websocket or IPC endpoint of a node to monitor; may be given multiple times"`
	RPCListener string   `long:"rpclistener" description:"the listener for RPC connections, e.g., 127.0.0.1:1234"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Monitor *MonitorConfig `group:"monitor" namespace:"monitor"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	monitorCfg := DefaultMonitorConfig()
	cfg := Config{
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		GenesisFile:    GenesisFile(homePath),
		RPCListener:    DefaultRPCListener,
		DatabaseConfig: DefaultDBConfigWithHomePath(homePath),
		Monitor:        &monitorCfg,
		Metrics:        metrics.DefaultConfig(),
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() Config {
	return DefaultConfigWithHome(DefaultGovmondDir)
}

func ConfigFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func GenesisFile(homePath string) string {
	return filepath.Join(homePath, defaultGenesisFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func DataDir(homePath string) string {
	return filepath.Join(homePath, defaultDataDirname)
}

// LoadConfig initializes and parses the config using the config file in the
// home directory.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load configuration file overwriting defaults with any specified options
//  3. Validate and normalize the result
func LoadConfig(homePath string) (*Config, error) {
	// The home directory is required to have a configuration file with a specific name
	// under it.
	cfgFile := ConfigFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	cfg := DefaultConfigWithHome(homePath)
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	// Make sure everything we just loaded makes sense.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteConfigFile writes cfg with comments and defaults to the config file
// of the home directory.
func WriteConfigFile(homePath string, cfg *Config) error {
	fileParser := flags.NewParser(cfg, flags.Default)
	return flags.NewIniParser(fileParser).WriteFile(ConfigFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults)
}

// Validate checks the given configuration to be sane. This makes sure no
// illegal values or combination of values are set. All file system paths are
// normalized.
func (cfg *Config) Validate() error {
	if cfg.GenesisFile == "" {
		return fmt.Errorf("genesis file not specified")
	}
	cfg.GenesisFile = util.CleanAndExpandPath(cfg.GenesisFile)

	for _, node := range cfg.Nodes {
		if node == "" {
			return fmt.Errorf("empty node endpoint")
		}
	}

	_, err := net.ResolveTCPAddr("tcp", cfg.RPCListener)
	if err != nil {
		return fmt.Errorf("invalid RPC listener address %s, %w", cfg.RPCListener, err)
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("empty database config")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	cfg.DatabaseConfig.DBPath = util.CleanAndExpandPath(cfg.DatabaseConfig.DBPath)

	if cfg.Monitor == nil {
		return fmt.Errorf("empty monitor config")
	}
	if err := cfg.Monitor.Validate(); err != nil {
		return fmt.Errorf("invalid monitor config: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("empty metrics config")
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}
