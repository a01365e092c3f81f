package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Instagram.LikerLimit)
	assert.Equal(t, 30, cfg.Instagram.FollowerLimit)
	assert.Equal(t, "https://www.instagram.com", cfg.Instagram.BaseURL)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-2024-08-06", cfg.OpenAI.Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  addr: ":9000"
instagram:
  username: analyst
  password: hunter2
  liker_limit: 25
object_store:
  endpoint: "minio.internal:9000"
  bucket: artifacts
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "analyst", cfg.Instagram.Username)
	assert.Equal(t, 25, cfg.Instagram.LikerLimit)
	assert.Equal(t, "artifacts", cfg.ObjectStore.Bucket)
	// Untouched values keep their defaults.
	assert.Equal(t, 30, cfg.Instagram.FollowerLimit)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENGAGELENS_IG_USERNAME", "envuser")
	t.Setenv("ENGAGELENS_FOLLOWER_LIMIT", "12")
	t.Setenv("ENGAGELENS_STORE_BUCKET", "env-bucket")
	t.Setenv("ENGAGELENS_STORE_USE_SSL", "true")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg := Default()
	cfg.LoadFromEnv()

	assert.Equal(t, "envuser", cfg.Instagram.Username)
	assert.Equal(t, 12, cfg.Instagram.FollowerLimit)
	assert.Equal(t, "env-bucket", cfg.ObjectStore.Bucket)
	assert.True(t, cfg.ObjectStore.UseSSL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("ENGAGELENS_LIKER_LIMIT", "not-a-number")
	t.Setenv("ENGAGELENS_FOLLOWER_LIMIT", "-3")

	cfg := Default()
	cfg.LoadFromEnv()

	assert.Equal(t, 50, cfg.Instagram.LikerLimit)
	assert.Equal(t, 30, cfg.Instagram.FollowerLimit)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Instagram.LikerLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ObjectStore.Bucket = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestHasInstagramCredentials(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.HasInstagramCredentials())

	cfg.Instagram.Username = "analyst"
	assert.False(t, cfg.HasInstagramCredentials())

	cfg.Instagram.Password = "hunter2"
	assert.True(t, cfg.HasInstagramCredentials())
}
