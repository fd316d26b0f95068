package internal

import (
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Host                string        `env:"HOST,default=127.0.0.1" validate:"required"`
	Port                int           `env:"PORT,default=8080" validate:"min=0,max=65535"`
	LogLevel            string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	EventBufferSize     int           `env:"EVENT_BUFFER_SIZE,default=0" validate:"min=0"`
	LifecycleBufferSize int           `env:"LIFECYCLE_BUFFER_SIZE,default=256" validate:"min=0"`
	OutboxWarnThreshold int           `env:"OUTBOX_WARN_THRESHOLD,default=1000" validate:"min=0"`
	SinkTimeout         time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	MetricInterval      time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	JournalPath         string        `env:"JOURNAL_PATH"`
	JournalLimit        *int          `env:"JOURNAL_LIMIT" validate:"omitempty,min=1"`
	HealthPort          int           `env:"HEALTH_PORT,default=0" validate:"min=0,max=65535"`
	DebugPort           int           `env:"DEBUG_PORT,default=8081" validate:"min=1,max=65535"`
	CensoredWordsFile   string        `env:"CENSORED_WORDS_FILE"`
	CharReplacement     string        `env:"CHARACTER_REPLACEMENT,default=*" validate:"required"`
}

// LoadConfig reads an optional .env file then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("%w: CHARACTER_REPLACEMENT got %q", errors.ErrInvalidCharReplacement, str)
	}
	return r[0], nil
}
