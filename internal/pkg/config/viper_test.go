package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
modules:
  verification:
    code_ttl_seconds: 300
    reveal_code_on_failure: true
mail:
  smtp:
    host: smtp.example.com
    password: ""
instrument:
  log_mask_fields: "code, password,"
app:
  server:
    cors:
      - http://localhost:3000
      - https://jobs.example
`

func TestNewViperFromBytes(t *testing.T) {
	_, err := NewViperFromBytes("", nil)
	require.Error(t, err)

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.GetSecond("modules.verification.code_ttl_seconds"))
	assert.True(t, cfg.GetBool("modules.verification.reveal_code_on_failure"))
	assert.Equal(t, "smtp.example.com", cfg.GetString("mail.smtp.host"))
	assert.Equal(t, []string{"code", "password"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Equal(t, []string{"http://localhost:3000", "https://jobs.example"}, cfg.GetArray("app.server.cors"))
	assert.Nil(t, cfg.GetArray("app.maintenance.endpoints"))
	assert.True(t, cfg.IsSet("modules.verification.reveal_code_on_failure"))
	assert.False(t, cfg.IsSet("modules.verification.unknown"))
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("MAIL_SMTP_PASSWORD", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("mail.smtp.password"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAIL_SENDGRID_API_KEY=sg-key\n"), 0o600))

	t.Setenv("MAIL_SENDGRID_API_KEY", "")
	require.NoError(t, os.Unsetenv("MAIL_SENDGRID_API_KEY"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "sg-key", os.Getenv("MAIL_SENDGRID_API_KEY"))
}
