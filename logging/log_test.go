package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/coinminer/logging"
)

func TestLoggerInContext(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := logging.NewContext(context.Background(), logger)
	require.Same(t, logger, logging.FromContext(ctx))
}

func TestFallbackLogger(t *testing.T) {
	require.NotNil(t, logging.FromContext(context.Background()))
}

func TestLogsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinminer.log")
	logger := logging.NewWithRotation(zap.InfoLevel, path, true, logging.Rotation{MaxSize: 1, MaxBackups: 1})
	logger.Debug("to file only")
	logger.Info("hello", zap.String("coin", "abc"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"coin":"abc"`)
	require.Contains(t, string(data), "to file only")
}
