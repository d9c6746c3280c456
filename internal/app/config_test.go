package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobboard/verification/internal/pkg/config"
)

const shippedConfig = "../../config/config.yaml"

func TestShippedConfig_HMACSecretComesFromEnv(t *testing.T) {
	t.Run("empty without env", func(t *testing.T) {
		t.Setenv("HASH_HMAC_SECRET", "")

		cfg, err := config.NewViper(shippedConfig)
		require.NoError(t, err)
		defer cfg.Close()

		assert.True(t, cfg.IsSet("hash.hmac.secret"))
		assert.Empty(t, cfg.GetString("hash.hmac.secret"))
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("HASH_HMAC_SECRET", "s3cret")

		cfg, err := config.NewViper(shippedConfig)
		require.NoError(t, err)
		defer cfg.Close()

		assert.Equal(t, "s3cret", cfg.GetString("hash.hmac.secret"))
	})
}

func TestShippedConfig_VerificationDefaults(t *testing.T) {
	cfg, err := config.NewViper(shippedConfig)
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, "postgres", cfg.GetString("modules.verification.store"))
	assert.Equal(t, 300, cfg.GetInt("modules.verification.code_ttl_seconds"))
	assert.True(t, cfg.GetBool("modules.verification.reveal_code_on_failure"))
}
