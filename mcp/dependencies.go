package mcp

import (
	"github.com/ludo-technologies/pytree/app"
	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/config"
	"github.com/ludo-technologies/pytree/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.FileReader
	config     *config.Config
	configPath string
}

// NewDependencies constructs the dependency set with sane defaults.
// A nil cfg means configuration is discovered per request from the target path.
func NewDependencies(cfg *config.Config, configPath string) *Dependencies {
	return &Dependencies{
		fileReader: service.NewFileReader(),
		config:     cfg,
		configPath: configPath,
	}
}

// ConfigFor returns the configuration for target: the loaded snapshot when
// there is one, otherwise the result of discovery from target.
func (d *Dependencies) ConfigFor(target string) (*config.Config, error) {
	if d.config != nil {
		return d.config, nil
	}
	return config.LoadConfigWithTarget(d.configPath, target)
}

// ParseService returns a parse service reading through the shared file reader
func (d *Dependencies) ParseService() domain.ParseService {
	return service.NewParseService(d.fileReader)
}

// BuildParseUseCase assembles a fresh ParseUseCase with injected dependencies.
// Tool calls never print progress, so no reporter is attached.
func (d *Dependencies) BuildParseUseCase() (*app.ParseUseCase, error) {
	return app.NewParseUseCaseBuilder().
		WithFileReader(d.fileReader).
		WithParseService(d.ParseService()).
		WithFormatter(service.NewParseFormatter()).
		Build()
}
