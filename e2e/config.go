package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	GrpcAddr string `envconfig:"E2E_GRPC_ADDR"`
	HTTPAddr string `envconfig:"E2E_HTTP_ADDR"`
	// E2E_JWT_SECRET must match the server JWT_SECRET to sign test tokens
	JWTSecret string `envconfig:"E2E_JWT_SECRET"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
