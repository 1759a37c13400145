package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validR2() R2Config {
	return R2Config{
		Bucket:    "summaries",
		Endpoint:  "https://account.r2.cloudflarestorage.com",
		AccessKey: "key",
		SecretKey: "secret",
	}
}

func TestR2ValidateComplete(t *testing.T) {
	assert.NoError(t, validR2().Validate())
}

func TestR2ValidateNamesEveryMissingVariable(t *testing.T) {
	err := R2Config{}.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2_BUCKET")
	assert.Contains(t, err.Error(), "R2_ENDPOINT")
	assert.Contains(t, err.Error(), "R2_ACCESS_KEY")
	assert.Contains(t, err.Error(), "R2_SECRET_KEY")
}

func TestR2ValidateNamesOnlyMissingVariables(t *testing.T) {
	cfg := validR2()
	cfg.SecretKey = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2_SECRET_KEY")
	assert.NotContains(t, err.Error(), "R2_BUCKET")
}

func TestResolveBatchWithoutTaskEnv(t *testing.T) {
	batchSize, offset := ResolveBatch(10, 3)
	assert.Equal(t, 10, batchSize)
	assert.Equal(t, 3, offset)
}

func TestResolveBatchTaskEnvTakesPrecedence(t *testing.T) {
	t.Setenv("CLOUD_RUN_TASK_COUNT", "20")
	t.Setenv("CLOUD_RUN_TASK_INDEX", "7")

	_, err := Load()
	require.NoError(t, err)

	batchSize, offset := ResolveBatch(10, 3)
	assert.Equal(t, 20, batchSize)
	assert.Equal(t, 7, offset)
}

func TestResolveBatchIgnoresPartialTaskEnv(t *testing.T) {
	t.Setenv("CLOUD_RUN_TASK_INDEX", "7")

	_, err := Load()
	require.NoError(t, err)

	batchSize, offset := ResolveBatch(10, 3)
	assert.Equal(t, 10, batchSize)
	assert.Equal(t, 3, offset)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load()

	require.NoError(t, err)
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FEED_URL=https://example.test/repos.json\n"), 0o644))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://example.test/repos.json", cfg.FeedURL)
}

func TestLoadUnreadableEnvFileFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// A directory named .env exists but cannot be read as a file. This must
	// surface as an error, unlike the file simply being absent.
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".env"), 0o755))

	_, err := Load()

	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("WORKER_URL", "http://localhost:8787")
	t.Setenv("R2_BUCKET", "summaries")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787", cfg.WorkerURL)
	assert.Equal(t, "summaries", cfg.R2.Bucket)
	// Default bucket applies when GCS_BUCKET_NAME is unset.
	assert.Equal(t, "govreposcrape-summaries", cfg.GCS.Bucket)
}
