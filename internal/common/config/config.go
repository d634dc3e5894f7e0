package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	HTTPPort       string        `validate:"required,numeric"`
	StoreDriver    string        `validate:"oneof=postgres memory"`
	DatabaseURL    string        `validate:"required_if=StoreDriver postgres"`
	RequestTimeout time.Duration `validate:"gt=0"`
	StaticDir      string

	BcryptCost  int   `validate:"min=4,max=31"`
	HashWorkers int64 `validate:"min=1"`

	QuoteAPIURL  string        `validate:"required,url"`
	QuoteTimeout time.Duration `validate:"gt=0"`

	CircuitBreakerThreshold int32         `validate:"min=1"`
	CircuitBreakerTimeout   time.Duration `validate:"gt=0"`
	CircuitBreakerReset     time.Duration `validate:"gt=0"`

	WebSocket WebSocketConfig
}

type WebSocketConfig struct {
	WriteWait   time.Duration `validate:"gt=0"`
	PongWait    time.Duration `validate:"gt=0"`
	PingPeriod  time.Duration `validate:"gt=0,ltfield=PongWait"`
	MaxMsgSize  int64         `validate:"min=1"`
	SendBufSize int           `validate:"min=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func LoadAppConfig() (AppConfig, error) {
	cfg := AppConfig{
		HTTPPort:       getEnv("PORT", constants.DefaultHTTPPort),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", constants.DefaultStoreDriver)),
		DatabaseURL:    getEnv("DATABASE_URL", constants.DefaultDatabaseURL),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		StaticDir:      getEnv("STATIC_DIR", constants.DefaultStaticDir),

		BcryptCost:  getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost),
		HashWorkers: getInt64Env("HASH_WORKERS", int64(runtime.GOMAXPROCS(0))),

		QuoteAPIURL:  getEnv("QUOTE_API_URL", constants.DefaultQuoteAPIURL),
		QuoteTimeout: getDurationEnv("QUOTE_TIMEOUT", constants.DefaultQuoteTimeout),

		CircuitBreakerThreshold: int32(getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),

		WebSocket: WebSocketConfig{
			WriteWait:   getDurationEnv("WS_WRITE_WAIT", constants.DefaultWebSocketWriteWait),
			PongWait:    getDurationEnv("WS_PONG_WAIT", constants.DefaultWebSocketPongWait),
			PingPeriod:  getDurationEnv("WS_PING_PERIOD", constants.DefaultWebSocketPingPeriod),
			MaxMsgSize:  getInt64Env("WS_MAX_MSG_SIZE", constants.DefaultWebSocketMaxMsgSize),
			SendBufSize: getIntEnv("WS_SEND_BUF_SIZE", constants.DefaultWebSocketSendBufSize),
		},
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return commonerrors.ErrInvalidConfig.WithCause(
				fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()),
			)
		}
		return commonerrors.ErrInvalidConfig.WithCause(err)
	}
	return nil
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:   constants.DefaultWebSocketWriteWait,
		PongWait:    constants.DefaultWebSocketPongWait,
		PingPeriod:  constants.DefaultWebSocketPingPeriod,
		MaxMsgSize:  constants.DefaultWebSocketMaxMsgSize,
		SendBufSize: constants.DefaultWebSocketSendBufSize,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
