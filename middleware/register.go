package middleware

import (
	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/pipeline"
)

// Register adds the XML request and response stages to reg under
// config.MiddlewareName.
func Register(reg *pipeline.Registry) {
	reg.RegisterRequest(config.MiddlewareName,
		func(cfg *config.Config, logger observability.Logger) (pipeline.RequestStage, error) {
			stage, err := RequestFromConfig(cfg, logger)
			if err != nil {
				return nil, err
			}
			return stage, nil
		})
	reg.RegisterResponse(config.MiddlewareName,
		func(cfg *config.Config, logger observability.Logger) (pipeline.ResponseStage, error) {
			stage, err := ResponseFromConfig(cfg, logger)
			if err != nil {
				return nil, err
			}
			return stage, nil
		})
}
