package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "verification", cmd.Use)

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"migrate", "up"}, {"migrate", "down"}} {
		t.Run(filepath.Join(path...), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serve.Flags().Lookup("shutdown-timeout")
	require.NotNil(t, flag)
	assert.Equal(t, "10s", flag.DefValue)
}

func TestResolveDSN(t *testing.T) {
	t.Run("FlagWins", func(t *testing.T) {
		got, err := resolveDSN("postgres://flag/db")
		require.NoError(t, err)
		assert.Equal(t, "postgres://flag/db", got)
	})

	t.Run("FromConfigFile", func(t *testing.T) {
		t.Chdir(t.TempDir())
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://cfg/db\n"), 0o600))
		t.Setenv("CONFIG_PATH", path)

		got, err := resolveDSN("")
		require.NoError(t, err)
		assert.Equal(t, "postgres://cfg/db", got)
	})

	t.Run("Missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("app:\n  tz: UTC\n"), 0o600))
		t.Setenv("CONFIG_PATH", path)
		t.Setenv("DATABASE_URL", "")

		_, err := resolveDSN("")
		assert.ErrorIs(t, err, errNoDatabaseURL)
	})
}

func TestMigrateCommand_ConfigFlagOverridesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "/nonexistent.yaml")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  tz: UTC\n"), 0o600))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", path, "migrate", "up"})
	cmd.SetOut(os.Stderr)

	err := cmd.Execute()
	assert.ErrorIs(t, err, errNoDatabaseURL)
}
