package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 250, cfg.MaxEvents)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Asia/Seoul
ics:
  - url: https://example.com/a.ics
    name: work
analytics:
  workday_start: "08:30"
  workday_end: nonsense
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, "work", cfg.ICS[0].SourceID())
	assert.Equal(t, defaultWorkdayEnd, cfg.Analytics.WorkdayEnd)

	start, end := cfg.WorkdayBounds()
	assert.Equal(t, 8*time.Hour+30*time.Minute, start)
	assert.Equal(t, 18*time.Hour, end)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DAYBOARD_LISTEN", ":9999")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DAYBOARD_BASIC_AUTH_USER", "me")
	t.Setenv("DAYBOARD_BASIC_AUTH_PASSWORD", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, "sk-test", cfg.Summarizer.APIKey)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "me", cfg.BasicAuth.Username)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateWorkdayOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analytics.WorkdayStart = "18:00"
	cfg.Analytics.WorkdayEnd = "09:00"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICS = append(cfg.ICS, ICSConfig{URL: "https://example.com/b.ics", ID: "b"})
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ICS, loaded.ICS)

	assert.Error(t, Save("", cfg))
	assert.Error(t, Save(path, nil))
}

func TestSourceIDFallback(t *testing.T) {
	assert.Equal(t, "id", ICSConfig{ID: "id", Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "u", ICSConfig{URL: "u"}.SourceID())
}
