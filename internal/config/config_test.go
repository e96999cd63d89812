package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SURREAL_URL", "ws://localhost:8000/rpc")
	t.Setenv("SURREAL_NS", "roomchat")
	t.Setenv("SURREAL_DB", "roomchat")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("DISPLAY_TIMEZONE", "")
	t.Setenv("NOTIFICATION_TTL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, defaultServerAddr, cfg.GetServerAddr())
	assert.Equal(t, defaultQueryTimeout, cfg.GetDBQueryTimeout())
	assert.Equal(t, defaultNotificationTTL, cfg.GetNotificationTTL())
	assert.Equal(t, defaultSummaryModel, cfg.GetSummaryModel())
	assert.Equal(t, defaultSummaryRate, cfg.GetSummaryRatePerMinute())
	assert.Equal(t, time.UTC, cfg.GetDisplayLocation())
	assert.NotEmpty(t, cfg.GetSessionSecret())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("REGISTRATION_KEY", "let-me-in")
	t.Setenv("NOTIFICATION_TTL", "2s")
	t.Setenv("SUMMARY_RATE_PER_MINUTE", "3")
	t.Setenv("DISPLAY_TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, "s3cret", cfg.GetSessionSecret())
	assert.Equal(t, "let-me-in", cfg.GetRegistrationKey())
	assert.Equal(t, 2*time.Second, cfg.GetNotificationTTL())
	assert.Equal(t, 3, cfg.GetSummaryRatePerMinute())
}

func TestFromEnv_Errors(t *testing.T) {
	t.Run("missing database settings", func(t *testing.T) {
		t.Setenv("SURREAL_URL", "")
		t.Setenv("SURREAL_NS", "")
		t.Setenv("SURREAL_DB", "")
		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrMissingDatabaseConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NOTIFICATION_TTL", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "NOTIFICATION_TTL")
	})

	t.Run("non-positive duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DB_QUERY_TIMEOUT", "0s")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DB_QUERY_TIMEOUT")
	})

	t.Run("bad timezone", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DISPLAY_TIMEZONE", "Nowhere/Special")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DISPLAY_TIMEZONE")
	})
}

func TestLoadRooms(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "rooms.toml", []byte(`
[[rooms]]
id = "general"
name = "General"
passcode = "open"
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "rooms.yml", []byte(`
rooms:
  - id: ops
    name: Ops
    passcode: s3cr3t
`), 0o644))

	rooms, err := LoadRooms(fs, "rooms.toml")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "General", rooms[0].Name)
	assert.Equal(t, "open", rooms[0].Passcode)

	rooms, err = LoadRooms(fs, "rooms.yml")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "ops", rooms[0].ID)

	_, err = LoadRooms(fs, "missing.toml")
	assert.Error(t, err)
}

func TestParseRooms_Rejects(t *testing.T) {
	cases := map[string]struct {
		ext  string
		data string
	}{
		"unknown extension": {".json", `{}`},
		"no rooms":          {".toml", ``},
		"missing passcode":  {".toml", "[[rooms]]\nid = \"a\"\nname = \"A\"\n"},
		"duplicate id":      {".yaml", "rooms:\n  - {id: a, name: A, passcode: x}\n  - {id: a, name: B, passcode: y}\n"},
		"malformed":         {".toml", "[[rooms]\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRooms(tc.ext, []byte(tc.data))
			assert.Error(t, err)
		})
	}

	_, err := ParseRooms(".ini", nil)
	assert.ErrorIs(t, err, ErrUnsupportedRoomsFormat)
}

func TestGetRooms_ReturnsCopy(t *testing.T) {
	cfg := &Config{}
	rooms, err := ParseRooms(".toml", []byte("[[rooms]]\nid = \"a\"\nname = \"A\"\npasscode = \"x\"\n"))
	require.NoError(t, err)
	cfg.Rooms = rooms

	got := cfg.GetRooms()
	got[0].Name = "changed"
	assert.Equal(t, "A", cfg.GetRooms()[0].Name)
}
