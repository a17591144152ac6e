package internal

import (
	"direct-chat/errors"
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	HTTPPort             int           `env:"HTTP_PORT,default=8080"`
	GRPCPort             int           `env:"GRPC_PORT,default=9090"`
	DebugPort            int           `env:"DEBUG_PORT,default=0"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	MaxBodyLength        int           `env:"MAX_BODY_LENGTH,default=4096"`
}

// Validate catches values go-env accepts but the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DeliveryTimeout <= 0:
		return fmt.Errorf("%w: DELIVERY_TIMEOUT must be positive, got %s", errors.ErrInvalidConfig, c.DeliveryTimeout)
	case c.SinkTimeout <= 0:
		return fmt.Errorf("%w: SINK_TIMEOUT must be positive, got %s", errors.ErrInvalidConfig, c.SinkTimeout)
	case c.BufferSize < 1:
		return fmt.Errorf("%w: BUFFER_SIZE must be at least 1, got %d", errors.ErrInvalidConfig, c.BufferSize)
	case c.ConnectionBufferSize < 1:
		return fmt.Errorf("%w: CONNECTION_BUFFER_SIZE must be at least 1, got %d",
			errors.ErrInvalidConfig, c.ConnectionBufferSize)
	case c.MaxBodyLength < 0:
		return fmt.Errorf("%w: MAX_BODY_LENGTH cannot be negative", errors.ErrInvalidConfig)
	case len(c.JWTSecret) < 16:
		return fmt.Errorf("%w: JWT_SECRET must hold at least 16 characters", errors.ErrInvalidConfig)
	}
	return nil
}
