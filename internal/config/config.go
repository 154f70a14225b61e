package config

import (
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	DBPath        string
	JWTSecret     string
	Port          string
	ControlURL    string
	AuthToken     string
	AgentID       string
	ScenarioPath  string
	WatchScenario bool
	DisableAgent  bool
	Heartbeat     time.Duration
	TLSCert       string
	TLSKey        string
	TLSAuto       bool
	TLSSANs       []string
	Insecure      bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	sans := getEnv("AUTOBRAKE_TLS_SANS", "")
	var sanList []string
	if sans != "" {
		sanList = strings.Split(sans, ",")
	}

	heartbeat := 10 * time.Second
	if v := getEnv("AUTOBRAKE_HEARTBEAT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			heartbeat = d
		}
	}

	return &Config{
		DBPath:        getEnv("AUTOBRAKE_DB", "autobrake.db"),
		JWTSecret:     getEnv("AUTOBRAKE_JWT_SECRET", "dev-secret"),
		Port:          getEnv("PORT", "8080"),
		ControlURL:    getEnv("AUTOBRAKE_CONTROL_URL", "http://localhost:8080"),
		AuthToken:     getEnv("AUTOBRAKE_AUTH_TOKEN", ""),
		AgentID:       getEnv("AUTOBRAKE_AGENT_ID", "local"),
		ScenarioPath:  getEnv("AUTOBRAKE_SCENARIO", ""),
		WatchScenario: getEnv("AUTOBRAKE_SCENARIO_WATCH", "false") == "true",
		DisableAgent:  getEnv("AUTOBRAKE_DISABLE_AGENT", "false") == "true",
		Heartbeat:     heartbeat,
		TLSCert:       getEnv("AUTOBRAKE_TLS_CERT", ""),
		TLSKey:        getEnv("AUTOBRAKE_TLS_KEY", ""),
		TLSAuto:       getEnv("AUTOBRAKE_TLS_AUTO", "false") == "true",
		TLSSANs:       sanList,
		Insecure:      getEnv("AUTOBRAKE_INSECURE_SKIP_VERIFY", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}
