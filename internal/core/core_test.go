package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/config"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.APIKey = "test-key"
	return cfg
}

func TestOpenWiresEveryComponent(t *testing.T) {
	c, err := Open(testConfig(t), false)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Rules)
	assert.NotNil(t, c.Interpreter)
	assert.NotNil(t, c.Entries)
	assert.NotNil(t, c.Index)
	assert.NotNil(t, c.Dedup)
	assert.NotNil(t, c.Profile)
	assert.NotNil(t, c.Oracle)
	assert.NotNil(t, c.Pipeline)
	assert.NotNil(t, c.Reanalyzer)
	assert.NotNil(t, c.Chat)
}

func TestIndexingGuardIsExclusive(t *testing.T) {
	c, err := Open(testConfig(t), false)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.TryBeginIndexing())
	assert.False(t, c.TryBeginIndexing())
	assert.True(t, c.IsIndexing())

	c.FinishIndexing()
	assert.False(t, c.IsIndexing())
	assert.True(t, c.TryBeginIndexing())
	c.FinishIndexing()
}

func TestCloseIsSafeOnce(t *testing.T) {
	c, err := Open(testConfig(t), false)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
