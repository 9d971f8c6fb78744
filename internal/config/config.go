// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Output    OutputConfig
	TTS       TTSConfig
	Transcode TranscodeConfig
	Server    ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// OutputConfig holds audiobook output configuration.
type OutputConfig struct {
	// BasePath is the root directory under which each book gets its own folder.
	BasePath string
}

// TTSConfig holds speech synthesis configuration.
type TTSConfig struct {
	// APIKey authenticates against the synthesis provider.
	APIKey string
	// Voice is the default narrator voice name.
	Voice string
	// LanguageCode is the default narration language (BCP-47).
	LanguageCode string
	// MaxChunkChars is the per-request character budget for synthesis calls.
	MaxChunkChars int
	// MaxConcurrent is the number of chapters synthesized in parallel.
	// Batches within a chapter always run sequentially.
	MaxConcurrent int
	// RequestsPerMinute paces synthesis calls to stay under provider quota.
	// Zero disables client-side pacing.
	RequestsPerMinute int
}

// TranscodeConfig holds audio transcoding configuration.
type TranscodeConfig struct {
	// Enabled allows disabling MP3 transcoding entirely (default: true).
	Enabled bool
	// FFmpegPath overrides auto-detection of ffmpeg location (default: auto-detect).
	FFmpegPath string
}

// ServerConfig holds the metadata API server configuration.
type ServerConfig struct {
	Port string
}

// Register adds the shared configuration flags to a flag set.
// Each subcommand calls this on its own FlagSet so flags stay scoped.
func Register(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Env, "env", "", "Environment (development, production)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.OutputPath, "output-path", "", "Root directory for converted audiobooks")
	fs.StringVar(&f.APIKey, "api-key", "", "Synthesis provider API key")
	fs.StringVar(&f.Voice, "voice", "", "Default narrator voice")
	fs.StringVar(&f.Language, "language", "", "Default language code (e.g. en-US)")
	fs.StringVar(&f.MaxChunkChars, "max-chunk-chars", "", "Character budget per synthesis request (default: 4000)")
	fs.StringVar(&f.MaxConcurrent, "parallel", "", "Chapters synthesized in parallel (default: 1)")
	fs.StringVar(&f.RequestsPerMinute, "rpm", "", "Synthesis requests per minute, 0 disables pacing (default: 10)")
	fs.StringVar(&f.TranscodeEnabled, "transcode-enabled", "", "Transcode WAV output to MP3 (default: true)")
	fs.StringVar(&f.FFmpegPath, "ffmpeg-path", "", "Path to ffmpeg binary (default: auto-detect)")
	fs.StringVar(&f.Port, "port", "", "Metadata server port (default: 8080)")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "Path to .env file")
	return f
}

// Flags holds raw flag values prior to precedence resolution.
type Flags struct {
	Env               string
	LogLevel          string
	OutputPath        string
	APIKey            string
	Voice             string
	Language          string
	MaxChunkChars     string
	MaxConcurrent     string
	RequestsPerMinute string
	TranscodeEnabled  string
	FFmpegPath        string
	Port              string
	EnvFile           string
}

// Load resolves configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(f *Flags) (*Config, error) {
	if f == nil {
		f = &Flags{EnvFile: ".env"}
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(f.EnvFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.Env, "INKVOICE_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.LogLevel, "INKVOICE_LOG_LEVEL", "info"),
		},
		Output: OutputConfig{
			BasePath: getConfigValue(f.OutputPath, "INKVOICE_OUTPUT_PATH", "./output"),
		},
		TTS: TTSConfig{
			APIKey:            resolveAPIKey(f.APIKey),
			Voice:             getConfigValue(f.Voice, "INKVOICE_VOICE", "Kore"),
			LanguageCode:      getConfigValue(f.Language, "INKVOICE_LANGUAGE", "en-US"),
			MaxChunkChars:     getIntConfigValue(f.MaxChunkChars, "INKVOICE_MAX_CHUNK_CHARS", 4000),
			MaxConcurrent:     getIntConfigValue(f.MaxConcurrent, "INKVOICE_PARALLEL", 1),
			RequestsPerMinute: getIntConfigValue(f.RequestsPerMinute, "INKVOICE_RPM", 10),
		},
		Transcode: TranscodeConfig{
			Enabled:    getBoolConfigValue(f.TranscodeEnabled, "INKVOICE_TRANSCODE_ENABLED", true),
			FFmpegPath: getConfigValue(f.FFmpegPath, "FFMPEG_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(f.Port, "INKVOICE_PORT", "8080"),
		},
	}

	// Expand and validate the output path.
	expanded, err := expandPath(cfg.Output.BasePath)
	if err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}
	cfg.Output.BasePath = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolveAPIKey checks the flag, then the provider's conventional env vars.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Output.BasePath == "" {
		return errors.New("output path cannot be empty after expansion")
	}

	if c.TTS.MaxChunkChars < 1 {
		return fmt.Errorf("max chunk chars must be positive, got %d", c.TTS.MaxChunkChars)
	}

	if c.TTS.MaxConcurrent < 1 {
		return fmt.Errorf("parallel chapter count must be positive, got %d", c.TTS.MaxConcurrent)
	}

	if c.TTS.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative, got %d", c.TTS.RequestsPerMinute)
	}

	// APIKey may be empty: dry runs and the serve/sections commands never call the provider.

	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
