package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// ModeLocal runs against an embedded sqlite file with a fixed identity,
	// for development without MySQL or an identity provider.
	ModeLocal = "local"
	// ModeOnline is the default server mode: MySQL plus JWT auth.
	ModeOnline = "online"

	defaultPort           = "8080"
	defaultAccessTokenTTL = 8 * time.Hour
	defaultLocalUserID    = 1
	defaultLocalRole      = "Administrador"
	defaultLocalDBRelPath = "data/jurist-hub-local.db"
)

// RuntimeFlags collects mode and server settings resolved from the environment.
type RuntimeFlags struct {
	Mode      string
	Port      string
	JWTSecret string
	AccessTTL time.Duration
	Local     LocalRuntime
}

// LocalRuntime describes the fixed identity injected in local mode.
type LocalRuntime struct {
	DBPath string
	UserID uint
	Role   string
}

// LoadRuntimeFlags reads environment variables and derives the current mode.
func LoadRuntimeFlags() RuntimeFlags {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if mode == "" {
		mode = ModeOnline
	}

	flags := RuntimeFlags{
		Mode:      mode,
		Port:      defaultPort,
		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTTL: defaultAccessTokenTTL,
		Local: LocalRuntime{
			DBPath: normalisePath(defaultLocalDBRelPath),
			UserID: defaultLocalUserID,
			Role:   defaultLocalRole,
		},
	}

	if rawPort := strings.TrimSpace(os.Getenv("HTTP_PORT")); rawPort != "" {
		flags.Port = rawPort
	}
	if rawTTL := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_TTL")); rawTTL != "" {
		if parsed, err := time.ParseDuration(rawTTL); err == nil && parsed > 0 {
			flags.AccessTTL = parsed
		}
	}
	if rawPath := strings.TrimSpace(os.Getenv("LOCAL_SQLITE_PATH")); rawPath != "" {
		flags.Local.DBPath = normalisePath(rawPath)
	}
	if rawID := strings.TrimSpace(os.Getenv("LOCAL_USER_ID")); rawID != "" {
		if parsed, err := strconv.ParseUint(rawID, 10, 32); err == nil && parsed > 0 {
			flags.Local.UserID = uint(parsed)
		}
	}
	if rawRole := strings.TrimSpace(os.Getenv("LOCAL_USER_ROLE")); rawRole != "" {
		flags.Local.Role = rawRole
	}

	return flags
}

// normalisePath expands ~ and relative paths to an absolute path.
func normalisePath(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}
