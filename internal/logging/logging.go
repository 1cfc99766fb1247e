// Package logging builds the shared zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a logger tuned for the given environment: JSON output in
// production, human-readable output everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
