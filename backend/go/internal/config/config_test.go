package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwtSecret: s3cret\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	ps := cfg.PredictionService
	assert.Equal(t, "crop_predictions", ps.UploadNamespace)
	assert.Equal(t, []string{"https://", "http://"}, ps.HostedSchemes)
	assert.Equal(t, UploadModeStaged, ps.UploadMode)
	assert.Equal(t, "predictions", ps.MongoCollection)
	assert.Equal(t, int64(10<<20), ps.MaxUploadBytes)
	assert.Equal(t, []string{"jpg", "jpeg", "png"}, ps.AllowedFormats)
	assert.Equal(t, "info", cfg.Logger.Level)

	us := cfg.UserService
	assert.Equal(t, "profile_pics", us.ProfilePicNamespace)
	assert.Equal(t, int64(5<<20), us.MaxUploadBytes)
	assert.Equal(t, []string{"jpg", "jpeg", "png"}, us.AllowedFormats)
	assert.False(t, cfg.Auth.CookieSecure)
}

func TestLoadConfig_KeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwtSecret: s3cret
predictionService:
  uploadNamespace: leaves
  uploadMode: direct
  hostedSchemes: ["s3://"]
databases:
  minio:
    bucket: photos
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "leaves", cfg.PredictionService.UploadNamespace)
	assert.Equal(t, UploadModeDirect, cfg.PredictionService.UploadMode)
	assert.Equal(t, []string{"s3://"}, cfg.PredictionService.HostedSchemes)
	assert.Equal(t, "photos", cfg.Databases.MinIO.Bucket)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "auth: [not a map"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "logger:\n  level: debug\n"))
	assert.ErrorContains(t, err, "jwtSecret")

	_, err = LoadConfig(writeConfig(t, "auth:\n  jwtSecret: x\npredictionService:\n  uploadMode: ftp\n"))
	assert.ErrorContains(t, err, "uploadMode")

	for _, ttl := range []string{"0s", "-1m", "soon"} {
		_, err = LoadConfig(writeConfig(t, "auth:\n  jwtSecret: x\npredictionService:\n  historyCacheTTL: "+ttl+"\n"))
		assert.ErrorContains(t, err, "historyCacheTTL", ttl)
	}
}

func TestPredictionServiceConfig_CacheTTL(t *testing.T) {
	ttl, err := PredictionServiceConfig{}.CacheTTL()
	require.NoError(t, err)
	assert.Zero(t, ttl)

	ttl, err = PredictionServiceConfig{HistoryCacheTTL: "5m"}.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultConfigPath, ResolvePath())

	t.Setenv(EnvConfigPath, "/etc/agripred.yaml")
	assert.Equal(t, "/etc/agripred.yaml", ResolvePath())
}
