package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tbl", cfg.Table)
	assert.Equal(t, "k8s", cfg.Needle)
	assert.Equal(t, []int{1024, 4096, 8192}, cfg.BatchSizes)
	assert.Equal(t, 3, cfg.Iterations)
}

func TestFileFromEnv(t *testing.T) {
	t.Setenv("FILE", "/data/sample.parquet")
	t.Setenv("NEEDLE", "ziox")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/sample.parquet", cfg.File)
	assert.Equal(t, "ziox", cfg.Needle)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.File = "sample.parquet"
	require.NoError(t, cfg.Validate())

	missing := Default()
	assert.Error(t, missing.Validate())

	badIter := Default()
	badIter.File = "sample.parquet"
	badIter.Iterations = 0
	assert.Error(t, badIter.Validate())

	badBatch := Default()
	badBatch.File = "sample.parquet"
	badBatch.BatchSizes = []int{0}
	assert.Error(t, badBatch.Validate())
}

func TestLoadYAMLSubstitutesEnv(t *testing.T) {
	t.Setenv("SAMPLE_DIR", "/data")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "file: ${SAMPLE_DIR}/sample.parquet\nneedle: k8s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var cfg Config
	require.NoError(t, LoadYAML(path, &cfg))
	assert.Equal(t, "/data/sample.parquet", cfg.File)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "file: sample.parquet\nneedle: ziox\niterations: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sample.parquet", cfg.File)
	assert.Equal(t, "ziox", cfg.Needle)
	assert.Equal(t, 5, cfg.Iterations)
}

func TestLoadSubstitutesEnvInConfigFile(t *testing.T) {
	// ${VAR} references in the config file resolve through the file step.
	t.Setenv("SAMPLE_DIR", "/corpora")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "file: ${SAMPLE_DIR}/sample.parquet\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/corpora/sample.parquet", cfg.File)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	t.Setenv("NEEDLE", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("needle: from-file\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Needle)
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	src := Default()
	src.File = "sample.parquet"
	require.NoError(t, SaveYAML(path, src))

	var loaded Config
	require.NoError(t, LoadYAML(path, &loaded))
	assert.Equal(t, src.File, loaded.File)
	assert.Equal(t, src.BatchSizes, loaded.BatchSizes)
}
