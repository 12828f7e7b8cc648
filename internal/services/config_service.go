package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"luabreak/internal/logger"
)

// ConfigService provides configuration access for luabreak. Values are
// resolved from, in order of precedence: LUABREAK_* environment variables
// (including a .env file in the working directory) and an optional
// luabreak.yaml configuration file.
type ConfigService struct {
	initialized bool
	v           *viper.Viper
}

// NewConfigService creates a new ConfigService instance.
func NewConfigService() *ConfigService {
	return &ConfigService{}
}

// Name returns the service name "config" for registration.
func (c *ConfigService) Name() string {
	return "config"
}

// Initialize loads .env, wires environment variables, and reads the
// optional configuration file. A missing file is not an error.
func (c *ConfigService) Initialize() error {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LUABREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("luabreak")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/luabreak")

	v.SetDefault("breakpoint.enabled", "auto")
	v.SetDefault("prompt.shell", "lua> ")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	c.v = v
	c.initialized = true
	logger.ServiceOperation("config", "initialize", "service ready")
	return nil
}

// TriggerDefault resolves the configured default for the proxy breakpoint's
// enabled state. The second return is false when the value is "auto" (defer
// to interactivity detection) or malformed; a malformed value is a
// configuration error, logged as a warning and otherwise treated as absent.
func (c *ConfigService) TriggerDefault() (enabled bool, ok bool) {
	if !c.initialized {
		return false, false
	}

	raw := strings.TrimSpace(c.v.GetString("breakpoint.enabled"))
	if raw == "" || strings.EqualFold(raw, "auto") {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("breakpoint.enabled is not a boolean; ignoring", "value", raw)
		return false, false
	}
	return parsed, true
}

// ShellPrompt returns the interactive shell prompt string.
func (c *ConfigService) ShellPrompt() string {
	if !c.initialized {
		return "lua> "
	}
	return c.v.GetString("prompt.shell")
}
