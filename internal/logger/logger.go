package logger

import (
	"go.uber.org/zap"
)

type Config struct {
	Development bool
	// OutputPath redirects logs to a file. Empty means stderr.
	OutputPath string
}

func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.OutputPath != "" {
		zc.OutputPaths = []string{cfg.OutputPath}
		zc.ErrorOutputPaths = []string{cfg.OutputPath}
	}
	return zc.Build()
}
