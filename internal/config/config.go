// Package config loads and validates the YAML configuration for one
// PDCP TX entity simulation run: bearer parameters, security material,
// logging, and the domain-stack collaborators (telemetry sink, alert
// webhook, pcap ingest/capture).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for a pdcp-tx run.
type Config struct {
	Bearer    BearerConfig    `yaml:"bearer"    mapstructure:"bearer"`
	Security  SecurityConfig  `yaml:"security"  mapstructure:"security"`
	Logging   LoggingConfig   `yaml:"logging"   mapstructure:"logging"`
	Pcap      PcapConfig      `yaml:"pcap"      mapstructure:"pcap"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Alert     AlertConfig     `yaml:"alert"     mapstructure:"alert"`
}

// BearerConfig is the wire surface for types.Config (spec.md §6).
type BearerConfig struct {
	SNSize               int    `yaml:"sn_size"                 mapstructure:"sn_size"`
	RLCMode              string `yaml:"rlc_mode"                mapstructure:"rlc_mode"`
	BearerKind           string `yaml:"bearer_kind"             mapstructure:"bearer_kind"`
	Direction            string `yaml:"direction"                mapstructure:"direction"`
	LCID                 uint8  `yaml:"lcid"                    mapstructure:"lcid"`
	DiscardTimerMs       int32  `yaml:"discard_timer_ms"        mapstructure:"discard_timer_ms"`
	StatusReportRequired bool   `yaml:"status_report_required"  mapstructure:"status_report_required"`
	MaxCountNotify       uint32 `yaml:"max_count_notify"        mapstructure:"max_count_notify"`
	MaxCountHard         uint32 `yaml:"max_count_hard"          mapstructure:"max_count_hard"`
}

// SecurityConfig is the wire surface for types.SecurityConfig.
// Keys are hex-encoded 128-bit strings; empty keys decode to all-zero.
type SecurityConfig struct {
	IntegAlgo        string `yaml:"integ_algo"         mapstructure:"integ_algo"`
	CipherAlgo       string `yaml:"cipher_algo"        mapstructure:"cipher_algo"`
	IntegrityEnabled bool   `yaml:"integrity_enabled"  mapstructure:"integrity_enabled"`
	CipheringEnabled bool   `yaml:"ciphering_enabled"  mapstructure:"ciphering_enabled"`
	KRRCInt          string `yaml:"k_rrc_int"          mapstructure:"k_rrc_int"`
	KRRCEnc          string `yaml:"k_rrc_enc"          mapstructure:"k_rrc_enc"`
	KUPInt           string `yaml:"k_up_int"           mapstructure:"k_up_int"`
	KUPEnc           string `yaml:"k_up_enc"           mapstructure:"k_up_enc"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"   mapstructure:"level"`
	File    string `yaml:"file"    mapstructure:"file"`
	Console bool   `yaml:"console" mapstructure:"console"`
}

// PcapConfig drives [PCAP-INGEST] and [PCAP-CAPTURE].
type PcapConfig struct {
	InputFile  string `yaml:"input_file"  mapstructure:"input_file"`
	OutputFile string `yaml:"output_file" mapstructure:"output_file"`
	SourcePort int    `yaml:"source_port" mapstructure:"source_port"`
}

// TelemetryConfig drives [TELEMETRY-SINK].
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"      mapstructure:"enabled"`
	Addr        string `yaml:"addr"         mapstructure:"addr"`
	Channel     string `yaml:"channel"      mapstructure:"channel"`
	IntervalSec int    `yaml:"interval_sec" mapstructure:"interval_sec"`
}

// AlertConfig drives [ALERT-WEBHOOK].
type AlertConfig struct {
	Enabled       bool   `yaml:"enabled"        mapstructure:"enabled"`
	URL           string `yaml:"url"            mapstructure:"url"`
	TimeoutMs     int    `yaml:"timeout_ms"     mapstructure:"timeout_ms"`
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bearer.sn_size", 12)
	v.SetDefault("bearer.rlc_mode", "um")
	v.SetDefault("bearer.bearer_kind", "drb")
	v.SetDefault("bearer.direction", "downlink")
	v.SetDefault("bearer.lcid", 1)
	v.SetDefault("bearer.discard_timer_ms", -1)
	v.SetDefault("bearer.max_count_notify", 0xFFFFFFFF)
	v.SetDefault("bearer.max_count_hard", 0xFFFFFFFF)

	v.SetDefault("security.integ_algo", "nia0")
	v.SetDefault("security.cipher_algo", "nea0")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)

	v.SetDefault("pcap.source_port", 0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.addr", "localhost:6379")
	v.SetDefault("telemetry.channel", "pdcp-tx:metrics")
	v.SetDefault("telemetry.interval_sec", 5)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.timeout_ms", 2000)
}

// Load reads configuration from a YAML file and returns a Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithViper reads configuration using an existing viper instance (for CLI flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Summary returns a human-readable summary of the configuration.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Bearer:      kind=%s mode=%s sn_size=%d lcid=%d\n", c.Bearer.BearerKind, c.Bearer.RLCMode, c.Bearer.SNSize, c.Bearer.LCID))
	sb.WriteString(fmt.Sprintf("  Direction:   %s\n", c.Bearer.Direction))
	sb.WriteString(fmt.Sprintf("  Discard:     %dms\n", c.Bearer.DiscardTimerMs))
	sb.WriteString(fmt.Sprintf("  MaxCount:    notify=%d hard=%d\n", c.Bearer.MaxCountNotify, c.Bearer.MaxCountHard))
	sb.WriteString(fmt.Sprintf("  Security:    integ=%s cipher=%s (integrity=%v ciphering=%v)\n", c.Security.IntegAlgo, c.Security.CipherAlgo, c.Security.IntegrityEnabled, c.Security.CipheringEnabled))
	sb.WriteString(fmt.Sprintf("  Pcap in/out: %s / %s\n", c.Pcap.InputFile, c.Pcap.OutputFile))
	sb.WriteString(fmt.Sprintf("  Telemetry:   enabled=%v addr=%s\n", c.Telemetry.Enabled, c.Telemetry.Addr))
	sb.WriteString(fmt.Sprintf("  Alert:       enabled=%v url=%s\n", c.Alert.Enabled, c.Alert.URL))
	return sb.String()
}
