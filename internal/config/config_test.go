package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Bearer: BearerConfig{
			SNSize:         12,
			RLCMode:        "um",
			BearerKind:     "drb",
			Direction:      "downlink",
			LCID:           1,
			DiscardTimerMs: -1,
			MaxCountNotify: 1000,
			MaxCountHard:   2000,
		},
		Security: SecurityConfig{
			IntegAlgo:  "nia0",
			CipherAlgo: "nea0",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate_AcceptsValidConfig(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())
}

func TestValidate_RejectsSRBWith18BitSN(t *testing.T) {
	c := validConfig()
	c.Bearer.BearerKind = "srb"
	c.Bearer.SNSize = 18

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible")
}

func TestValidate_AggregatesMultipleErrors(t *testing.T) {
	c := validConfig()
	c.Bearer.SNSize = 99
	c.Bearer.RLCMode = "bogus"
	c.Security.IntegAlgo = "bogus"

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "sn_size")
	assert.Contains(t, msg, "rlc_mode")
	assert.Contains(t, msg, "integ_algo")
}

func TestValidate_RejectsBadMaxCountOrdering(t *testing.T) {
	c := validConfig()
	c.Bearer.MaxCountNotify = 2000
	c.Bearer.MaxCountHard = 1000

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_count_notify")
}

func TestValidate_RejectsShortKey(t *testing.T) {
	c := validConfig()
	c.Security.KUPEnc = "deadbeef"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k_up_enc")
}

func TestToEntityConfig_RoundTripsFields(t *testing.T) {
	c := validConfig()
	entityCfg, secCfg, err := c.ToEntityConfig()
	require.NoError(t, err)

	assert.Equal(t, uint8(1), entityCfg.LCID)
	assert.Equal(t, uint32(1000), entityCfg.MaxCount.Notify)
	assert.Equal(t, uint32(2000), entityCfg.MaxCount.Hard)
	assert.False(t, secCfg.IntegrityEnabled)
}
