package config

import (
	"fmt"
	"time"
)

var (
	defaultHeaderBufferSize  = uint32(100)
	defaultDialTimeout       = 10 * time.Second
	defaultDialAttempts      = uint(5)
	defaultDialRetryDelay    = 2 * time.Second
	defaultMaxTrackedHeights = uint64(10000)
	defaultSignerCacheSize   = 4096
)

type MonitorConfig struct {
	HeaderBufferSize  uint32        `long:"headerbuffersize" description:"The number of new headers buffered per node subscription"`
	DialTimeout       time.Duration `long:"dialtimeout" description:"The timeout of each attempt to connect to a node"`
	DialAttempts      uint          `long:"dialattempts" description:"The maximum number of attempts to connect to a node"`
	DialRetryDelay    time.Duration `long:"dialretrydelay" description:"The delay between attempts to connect to a node"`
	MaxTrackedHeights uint64        `long:"maxtrackedheights" description:"The number of most recent heights kept in memory; 0 keeps every height"`
	SignerCacheSize   int           `long:"signercachesize" description:"The number of recovered block signers kept in the cache"`
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		HeaderBufferSize:  defaultHeaderBufferSize,
		DialTimeout:       defaultDialTimeout,
		DialAttempts:      defaultDialAttempts,
		DialRetryDelay:    defaultDialRetryDelay,
		MaxTrackedHeights: defaultMaxTrackedHeights,
		SignerCacheSize:   defaultSignerCacheSize,
	}
}

func (cfg *MonitorConfig) Validate() error {
	if cfg.HeaderBufferSize == 0 {
		return fmt.Errorf("header buffer size must be positive")
	}
	if cfg.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive: %v", cfg.DialTimeout)
	}
	if cfg.DialAttempts == 0 {
		return fmt.Errorf("dial attempts must be positive")
	}
	if cfg.SignerCacheSize <= 0 {
		return fmt.Errorf("signer cache size must be positive: %d", cfg.SignerCacheSize)
	}

	return nil
}
