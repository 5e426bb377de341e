package utils

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRotatingSinkWritesFile(t *testing.T) {
	require.NoError(t, registerRotatingSink())
	require.NoError(t, registerRotatingSink())

	path := filepath.Join(t.TempDir(), "dexarb.log")
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{rotateScheme + ":" + path}

	logger, err := config.Build()
	require.NoError(t, err)
	logger.Info("Route chosen", zap.String("route", "a-b"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Route chosen")
}

func TestRotatingSinkNeedsPath(t *testing.T) {
	_, err := newRotatingSink(&url.URL{Scheme: rotateScheme})
	assert.Error(t, err)

	sink, err := newRotatingSink(&url.URL{Scheme: rotateScheme, Opaque: "dexarb.log"})
	require.NoError(t, err)
	assert.Equal(t, "dexarb.log", sink.(rotatingFile).Filename)
}
