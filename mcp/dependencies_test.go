package mcp

import (
	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/config"
)

func NewTestDependencies(fr domain.FileReader, cfg *config.Config, path string) *Dependencies {
	return &Dependencies{
		fileReader: fr,
		config:     cfg,
		configPath: path,
	}
}
