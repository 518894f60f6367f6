package cli

import (
	"io"
	"os"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
	"github.com/Backland-Labs/travelbuddy/internal/config"
	"github.com/Backland-Labs/travelbuddy/internal/output"
)

// ConfigLoader interface for dependency injection in tests
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// ClientFactoryBuilder builds the assistant client factory for a configuration
type ClientFactoryBuilder func(cfg *config.Config) assistant.Factory

// Real implementations for production use

// RealConfigLoader implements ConfigLoader using the real config package
type RealConfigLoader struct{}

func (r *RealConfigLoader) Load() (*config.Config, error) {
	return config.New()
}

// NewOpenAIFactory builds breaker-guarded OpenAI clients from cfg
func NewOpenAIFactory(cfg *config.Config) assistant.Factory {
	return assistant.NewBreakerFactory(
		assistant.Options{BaseURL: cfg.BaseURL},
		cfg.Breaker.Threshold,
		cfg.Breaker.Cooldown,
	)
}

// Dependencies struct for injection
type Dependencies struct {
	ConfigLoader ConfigLoader
	Clients      ClientFactoryBuilder
	// NewPrinter creates the printer for a command's output streams
	NewPrinter func(out, err io.Writer) *output.Printer
}

// NewRealDependencies creates production dependencies
func NewRealDependencies() *Dependencies {
	return &Dependencies{
		ConfigLoader: &RealConfigLoader{},
		Clients:      NewOpenAIFactory,
		NewPrinter: func(out, err io.Writer) *output.Printer {
			if out == os.Stdout {
				return output.NewPrinter()
			}
			return output.NewPrinterWithWriters(out, err, false)
		},
	}
}
