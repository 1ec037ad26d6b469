package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 0.3, c.Analysis.HookLowMax)
	assert.Equal(t, 0.7, c.Analysis.HookHighMin)
	assert.Equal(t, []int64{15, 30, 45, 60}, c.Analysis.DurationEdges)
	assert.Equal(t, 4, c.Analysis.ClusterK)
	assert.Equal(t, uint64(42), c.Analysis.ClusterSeed)
	assert.Len(t, c.Analysis.CorrelationMetrics, 12)
	assert.Equal(t, "retention_rate", c.Analysis.TopVideoMetric)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	c.VideosFile = "videos.csv"
	c.Analysis.ClusterK = 6
	c.Analysis.ClusterFeatures = []string{"views", "retention_rate"}
	require.NoError(t, Save(c, path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "videos.csv", back.VideosFile)
	assert.Equal(t, 6, back.Analysis.ClusterK)
	assert.Equal(t, []string{"views", "retention_rate"}, back.Analysis.ClusterFeatures)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: sqlite\nanalysis:\n  cluster_k: 3\n"), 0o644))
	t.Setenv("SIGNALS_DB_DRIVER", "postgres")
	t.Setenv("SIGNALS_ANALYSIS_CLUSTER_K", "5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 5, c.Analysis.ClusterK)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, Save(&Global{LogMode: "dev"}, ""))
	_, err := os.Stat(filepath.Join(home, ".shortform-signals", "config.yaml"))
	assert.NoError(t, err)
}
