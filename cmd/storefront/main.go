// Command storefront serves the product catalog, the shopping cart and the
// mock account API over HTTP.
package main

import (
	"context"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	storefront "github.com/xenking/storefront/internal/app"
)

func main() {
	sdkapp.Run(func(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry) error {
		cfg, err := storefront.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		return storefront.Run(ctx, lg.Named("storefront"), m, cfg)
	})
}
