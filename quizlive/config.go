package quizlive

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Config controls how the SDK connects.
type Config struct {
	// URL is the fully-resolved WebSocket address, e.g.
	// "ws://localhost:3000/ws/player/ABC123?name=Alice". The SDK does
	// not construct URLs; the session-setup API returns the path.
	URL string `env:"QUIZLIVE_WS_URL"`

	HandshakeTimeout time.Duration `env:"QUIZLIVE_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	// ReadTimeout of 0 disables the per-read deadline. Lobby
	// connections can sit idle for minutes, so 0 is the default.
	ReadTimeout  time.Duration `env:"QUIZLIVE_READ_TIMEOUT" envDefault:"0"`
	WriteTimeout time.Duration `env:"QUIZLIVE_WRITE_TIMEOUT" envDefault:"10s"`

	// AutoReconnect enables the backoff schedule after an unexpected
	// close. Close() always disables it for the client instance.
	AutoReconnect     bool          `env:"QUIZLIVE_AUTO_RECONNECT" envDefault:"true"`
	MaxReconnectTries int           `env:"QUIZLIVE_MAX_RECONNECT_TRIES" envDefault:"5"`
	ReconnectInterval time.Duration `env:"QUIZLIVE_RECONNECT_INTERVAL" envDefault:"1s"`
	MaxReconnectDelay time.Duration `env:"QUIZLIVE_MAX_RECONNECT_DELAY" envDefault:"30s"`

	// Logger defaults to zerolog.Nop().
	Logger zerolog.Logger `env:"-"`
	// Clock drives reconnect timers and countdowns; tests inject a
	// fake one.
	Clock clockwork.Clock `env:"-"`
}

// DefaultConfig returns sensible defaults. Set URL before connecting.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		AutoReconnect:     true,
		MaxReconnectTries: 5,
		ReconnectInterval: time.Second,
		MaxReconnectDelay: 30 * time.Second,
		Logger:            zerolog.Nop(),
		Clock:             clockwork.NewRealClock(),
	}
}

// ConfigFromEnv builds a Config from QUIZLIVE_* environment variables,
// falling back to the same defaults as DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Logger = zerolog.Nop()
	cfg.Clock = clockwork.NewRealClock()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.MaxReconnectTries < 0 {
		c.MaxReconnectTries = 0
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = time.Second
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}
