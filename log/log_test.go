package log_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/log"
)

func TestNewRootLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.NewRootLogger("json", "info", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("new header", zap.Uint64("number", 7), zap.Int("signer_index", 2))
	require.NoError(t, logger.Sync())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["lvl"])
	require.Equal(t, "new header", line["msg"])
	require.EqualValues(t, 7, line["number"])

	buf.Reset()
	logger, err = log.NewRootLogger("logfmt", "warn", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("fork detected", zap.Uint64("number", 9))
	require.True(t, strings.Contains(buf.String(), "number=9"))
	require.False(t, strings.Contains(buf.String(), "hidden"))
}

func TestNewRootLogger_Invalid(t *testing.T) {
	_, err := log.NewRootLogger("xml", "info", &bytes.Buffer{})
	require.Error(t, err)

	_, err = log.NewRootLogger("json", "verbose", &bytes.Buffer{})
	require.Error(t, err)
}

func TestNewRootLoggerWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "govmond.log")
	logger, err := log.NewRootLoggerWithFile(logFile, "logfmt", "info")
	require.NoError(t, err)

	logger.Info("registry loaded", zap.Int("members", 3))
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(content), "members=3")
}
