package config

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/multierr"

	"pdcp-tx/pkg/types"
)

// Validate checks that the configuration is structurally valid,
// aggregating every independent field violation with multierr rather
// than stopping at the first.
func (c *Config) Validate() error {
	var err error

	if c.Bearer.SNSize != 12 && c.Bearer.SNSize != 18 {
		err = multierr.Append(err, fmt.Errorf("bearer.sn_size must be 12 or 18, got %d", c.Bearer.SNSize))
	}

	if _, ok := parseRLCMode(c.Bearer.RLCMode); !ok {
		err = multierr.Append(err, fmt.Errorf("bearer.rlc_mode must be 'um' or 'am', got %q", c.Bearer.RLCMode))
	}

	kind, ok := parseBearerKind(c.Bearer.BearerKind)
	if !ok {
		err = multierr.Append(err, fmt.Errorf("bearer.bearer_kind must be 'srb' or 'drb', got %q", c.Bearer.BearerKind))
	} else if kind == types.BearerSRB && c.Bearer.SNSize == 18 {
		err = multierr.Append(err, fmt.Errorf("bearer.bearer_kind=srb is incompatible with bearer.sn_size=18"))
	}

	if _, ok := parseDirection(c.Bearer.Direction); !ok {
		err = multierr.Append(err, fmt.Errorf("bearer.direction must be 'uplink' or 'downlink', got %q", c.Bearer.Direction))
	}

	if c.Bearer.LCID == 0 {
		err = multierr.Append(err, fmt.Errorf("bearer.lcid must be >= 1"))
	}

	if c.Bearer.MaxCountNotify > c.Bearer.MaxCountHard {
		err = multierr.Append(err, fmt.Errorf("bearer.max_count_notify (%d) must be <= bearer.max_count_hard (%d)", c.Bearer.MaxCountNotify, c.Bearer.MaxCountHard))
	}

	if _, ok := parseIntegAlgo(c.Security.IntegAlgo); !ok {
		err = multierr.Append(err, fmt.Errorf("security.integ_algo must be one of nia0..nia3, got %q", c.Security.IntegAlgo))
	}
	if _, ok := parseCipherAlgo(c.Security.CipherAlgo); !ok {
		err = multierr.Append(err, fmt.Errorf("security.cipher_algo must be one of nea0..nea3, got %q", c.Security.CipherAlgo))
	}

	for name, hexKey := range map[string]string{
		"k_rrc_int": c.Security.KRRCInt,
		"k_rrc_enc": c.Security.KRRCEnc,
		"k_up_int":  c.Security.KUPInt,
		"k_up_enc":  c.Security.KUPEnc,
	} {
		if hexKey == "" {
			continue
		}
		if decoded, decErr := hex.DecodeString(hexKey); decErr != nil || len(decoded) != 16 {
			err = multierr.Append(err, fmt.Errorf("security.%s must be 32 hex characters (128 bits), got %q", name, hexKey))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		err = multierr.Append(err, fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}

	if c.Telemetry.Enabled && c.Telemetry.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("telemetry.addr must be set when telemetry.enabled=true"))
	}

	if c.Alert.Enabled && c.Alert.URL == "" {
		err = multierr.Append(err, fmt.Errorf("alert.url must be set when alert.enabled=true"))
	}

	return err
}

func parseRLCMode(s string) (types.RLCMode, bool) {
	switch s {
	case "um":
		return types.RLCUnacknowledged, true
	case "am":
		return types.RLCAcknowledged, true
	default:
		return 0, false
	}
}

func parseBearerKind(s string) (types.BearerKind, bool) {
	switch s {
	case "srb":
		return types.BearerSRB, true
	case "drb":
		return types.BearerDRB, true
	default:
		return 0, false
	}
}

func parseDirection(s string) (types.Direction, bool) {
	switch s {
	case "uplink":
		return types.DirectionUplink, true
	case "downlink":
		return types.DirectionDownlink, true
	default:
		return 0, false
	}
}

func parseIntegAlgo(s string) (types.IntegrityAlgorithm, bool) {
	switch s {
	case "nia0":
		return types.NIA0, true
	case "nia1":
		return types.NIA1, true
	case "nia2":
		return types.NIA2, true
	case "nia3":
		return types.NIA3, true
	default:
		return 0, false
	}
}

func parseCipherAlgo(s string) (types.CipheringAlgorithm, bool) {
	switch s {
	case "nea0":
		return types.NEA0, true
	case "nea1":
		return types.NEA1, true
	case "nea2":
		return types.NEA2, true
	case "nea3":
		return types.NEA3, true
	default:
		return 0, false
	}
}

// key128 decodes a hex-encoded 128-bit key; empty input yields the
// zero key (identity-friendly default for nia0/nea0 bearers).
func key128(hexKey string) (types.Key128, error) {
	var k types.Key128
	if hexKey == "" {
		return k, nil
	}
	decoded, err := hex.DecodeString(hexKey)
	if err != nil {
		return k, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(decoded) != 16 {
		return k, fmt.Errorf("key must decode to 16 bytes, got %d", len(decoded))
	}
	copy(k[:], decoded)
	return k, nil
}

// ToEntityConfig converts the YAML-facing config into the core's
// types.Config/types.SecurityConfig. Validate should be called first;
// ToEntityConfig assumes the enum fields already parse cleanly.
func (c *Config) ToEntityConfig() (types.Config, types.SecurityConfig, error) {
	snSize := types.SN12Bits
	if c.Bearer.SNSize == 18 {
		snSize = types.SN18Bits
	}
	rlcMode, _ := parseRLCMode(c.Bearer.RLCMode)
	bearerKind, _ := parseBearerKind(c.Bearer.BearerKind)
	direction, _ := parseDirection(c.Bearer.Direction)
	integAlgo, _ := parseIntegAlgo(c.Security.IntegAlgo)
	cipherAlgo, _ := parseCipherAlgo(c.Security.CipherAlgo)

	entityCfg := types.Config{
		SNSize:               snSize,
		RLCMode:              rlcMode,
		BearerKind:           bearerKind,
		Direction:            direction,
		LCID:                 c.Bearer.LCID,
		DiscardTimer:         types.DiscardTimer(c.Bearer.DiscardTimerMs),
		StatusReportRequired: c.Bearer.StatusReportRequired,
		MaxCount:             types.MaxCount{Notify: c.Bearer.MaxCountNotify, Hard: c.Bearer.MaxCountHard},
	}

	kRRCInt, err := key128(c.Security.KRRCInt)
	if err != nil {
		return types.Config{}, types.SecurityConfig{}, fmt.Errorf("k_rrc_int: %w", err)
	}
	kRRCEnc, err := key128(c.Security.KRRCEnc)
	if err != nil {
		return types.Config{}, types.SecurityConfig{}, fmt.Errorf("k_rrc_enc: %w", err)
	}
	kUPInt, err := key128(c.Security.KUPInt)
	if err != nil {
		return types.Config{}, types.SecurityConfig{}, fmt.Errorf("k_up_int: %w", err)
	}
	kUPEnc, err := key128(c.Security.KUPEnc)
	if err != nil {
		return types.Config{}, types.SecurityConfig{}, fmt.Errorf("k_up_enc: %w", err)
	}

	secCfg := types.SecurityConfig{
		IntegAlgo:        integAlgo,
		CipherAlgo:       cipherAlgo,
		KRRCInt:          kRRCInt,
		KRRCEnc:          kRRCEnc,
		KUPInt:           kUPInt,
		KUPEnc:           kUPEnc,
		IntegrityEnabled: c.Security.IntegrityEnabled,
		CipheringEnabled: c.Security.CipheringEnabled,
	}

	return entityCfg, secCfg, nil
}
