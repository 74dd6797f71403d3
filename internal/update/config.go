package update

import (
	"os"
	"strconv"
	"strings"
)

type RuntimeConfig struct {
	Owner               string
	DBPath              string
	DraftPath           string
	TickSeconds         int
	SuppressionSeconds  int
	WarnCooldownMinutes int
	DueCooldownHours    int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Owner:               "local",
		DBPath:              "domoctl.db",
		DraftPath:           ".domoctl_draft.json",
		TickSeconds:         15,
		SuppressionSeconds:  30,
		WarnCooldownMinutes: 5,
		DueCooldownHours:    6,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("DOMOCTL_OWNER"); ok {
		cfg.Owner = v
	}
	if v, ok := getEnvString("DOMOCTL_DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("DOMOCTL_DRAFT_FILE"); ok {
		cfg.DraftPath = v
	}
	if v, ok := getEnvInt("DOMOCTL_TICK_SECONDS"); ok && v > 0 {
		cfg.TickSeconds = v
	}
	if v, ok := getEnvInt("DOMOCTL_SUPPRESSION_SECONDS"); ok && v > 0 {
		cfg.SuppressionSeconds = v
	}
	if v, ok := getEnvInt("DOMOCTL_WARN_COOLDOWN_MINUTES"); ok && v > 0 {
		cfg.WarnCooldownMinutes = v
	}
	if v, ok := getEnvInt("DOMOCTL_DUE_COOLDOWN_HOURS"); ok && v > 0 {
		cfg.DueCooldownHours = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
