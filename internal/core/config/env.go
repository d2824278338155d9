package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: PYCODEADVISOR_[SECTION]_[KEY]
// (e.g., PYCODEADVISOR_INFERENCE_BACKEND).
func ApplyEnvOverrides(cfg *Config) {
	// Analysis
	setEnvInt(&cfg.Analysis.MaxFiles, "PYCODEADVISOR_ANALYSIS_MAX_FILES")
	setEnvStringList(&cfg.Analysis.ExcludeDirs, "PYCODEADVISOR_ANALYSIS_EXCLUDE_DIRS")
	setEnvStringList(&cfg.Analysis.ExcludeFiles, "PYCODEADVISOR_ANALYSIS_EXCLUDE_FILES")

	// Inference
	setEnvBoolPtr(&cfg.Inference.Enabled, "PYCODEADVISOR_INFERENCE_ENABLED")
	setEnvString(&cfg.Inference.Backend, "PYCODEADVISOR_INFERENCE_BACKEND")
	setEnvString(&cfg.Inference.Model, "PYCODEADVISOR_INFERENCE_MODEL")
	setEnvString(&cfg.Inference.BaseURL, "PYCODEADVISOR_INFERENCE_BASE_URL")
	setEnvInt(&cfg.Inference.TimeoutSeconds, "PYCODEADVISOR_INFERENCE_TIMEOUT_SECONDS")
	setEnvInt(&cfg.Inference.MaxCalls, "PYCODEADVISOR_INFERENCE_MAX_CALLS")
	setEnvInt(&cfg.Inference.WindowSeconds, "PYCODEADVISOR_INFERENCE_WINDOW_SECONDS")

	// Cache
	setEnvInt(&cfg.Cache.TTLHours, "PYCODEADVISOR_CACHE_TTL_HOURS")
	setEnvInt(&cfg.Cache.Capacity, "PYCODEADVISOR_CACHE_CAPACITY")
	setEnvString(&cfg.Cache.Path, "PYCODEADVISOR_CACHE_PATH")
	setEnvBool(&cfg.Cache.Persist, "PYCODEADVISOR_CACHE_PERSIST")

	// Watch
	setEnvInt(&cfg.Watch.DebounceMillis, "PYCODEADVISOR_WATCH_DEBOUNCE_MS")

	// Output
	setEnvString(&cfg.Output.Format, "PYCODEADVISOR_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.Verbose, "PYCODEADVISOR_OUTPUT_VERBOSE")
}

// APIKeyFromEnv resolves the backend credential. The tool-specific variable
// wins over the conventional OPENAI_API_KEY.
func APIKeyFromEnv() string {
	if key := os.Getenv("PYCODEADVISOR_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvStringList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = &b
		}
	}
}
