package observability

import (
	"strings"

	"github.com/smallbiznis/inkpost/internal/config"
)

// Config is the slice of application config the logger, tracer and meter
// providers need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "inkpost"
	}
	obs := cfg.Observability
	return Config{
		ServiceName:   name,
		Environment:   strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:       strings.TrimSpace(cfg.AppVersion),
		LogLevel:      obs.LogLevel,
		LogFormat:     obs.LogFormat,
		OtelEnabled:   obs.OtelEnabled,
		OTLPEndpoint:  obs.OTLPEndpoint,
		OTLPProtocol:  obs.OTLPProtocol,
		SamplingRatio: obs.SamplingRatio,
	}
}

// Debug turns on gin debug mode, console-friendly request logs and error
// stack traces. It holds for LOG_LEVEL=debug and for local environments.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
