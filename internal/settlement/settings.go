package settlement

import (
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/pkg/errors"
)

const DefaultGatewayTimeout = 15 * time.Second

type Settings struct {
	// Tax is the flat amount added to every cart total.
	Tax            model.Fixed
	GatewayTimeout time.Duration
}

func NewSettings(cfg *config.SettlementConfig) (Settings, error) {
	tax, err := model.ParseFixed(cfg.TaxAmount)
	if err != nil {
		return Settings{}, errors.Wrap(err, "settlement tax amount")
	}
	if tax.IsNegative() {
		return Settings{}, errors.Errorf("settlement tax amount %s is negative", tax)
	}

	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return Settings{Tax: tax, GatewayTimeout: timeout}, nil
}
