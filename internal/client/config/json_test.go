package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	saved := os.Args
	os.Args = append([]string{"bdocctl"}, args...)
	t.Cleanup(func() { os.Args = saved })
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	withArgs(t)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	require.Equal(t, "http://127.0.0.1:8001", cfg.UserServiceURL)
}

func TestParseJson_OverlaysFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"user_service_url": "https://auth.example.com",
		"generate_timeout": "2m",
		"poll_interval": "500ms"
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	require.Equal(t, "https://auth.example.com", cfg.UserServiceURL)
	require.Equal(t, 2*time.Minute, cfg.GenerateTimeout)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, "downloads", cfg.DownloadDir)
}

func TestParseJson_UnreadableFilePanics(t *testing.T) {
	withArgs(t, "-c", filepath.Join(t.TempDir(), "missing.json"))

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(cfg) })
}

func TestParseFlags_Overlays(t *testing.T) {
	withArgs(t, "-a", "https://auth.example.com", "-o", "/tmp/docs", "-u", "https://app.example.com/?code=x")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	require.Equal(t, "https://auth.example.com", cfg.UserServiceURL)
	require.Equal(t, "/tmp/docs", cfg.DownloadDir)
	require.Equal(t, "https://app.example.com/?code=x", cfg.CallbackURL)
}
