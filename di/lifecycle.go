package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-propagation/component"
	"github.com/KOMKZ/go-yogan-propagation/event"
	"github.com/KOMKZ/go-yogan-propagation/kafka"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// RegisterCoreProviders registers every provider, layered by dependency.
// Nothing is built until first invoked.
func RegisterCoreProviders(injector do.Injector, opts ConfigOptions) {
	// Layer 0: config
	do.Provide(injector, ProvideConfigLoader(opts))

	// Layer 1: logger
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideCtxLogger("propagate"))

	// Layer 2: infrastructure
	do.Provide(injector, ProvideTelemetryManager)
	do.Provide(injector, ProvideMetricsRegistry)
	do.Provide(injector, ProvideKafkaProducer)

	// Layer 3: propagation
	do.Provide(injector, ProvideEventComponent)
	do.Provide(injector, ProvideEngine)
	do.Provide(injector, ProvidePlaygroundConfig)
	do.Provide(injector, ProvidePlaygroundRunner)
	do.Provide(injector, ProvideHealthAggregator)
	do.Provide(injector, ProvidePlaygroundRouter)
}

// StartCoreComponents builds the components in dependency order so that
// configuration errors surface at startup rather than on first request.
func StartCoreComponents(ctx context.Context, injector do.Injector, log *logger.CtxZapLogger) error {
	if _, err := do.Invoke[*telemetry.Manager](injector); err != nil {
		return fmt.Errorf("%s: %w", component.ComponentTelemetry, err)
	}
	producer, err := do.Invoke[*kafka.Producer](injector)
	if err != nil {
		return fmt.Errorf("%s: %w", component.ComponentKafka, err)
	}
	if _, err := do.Invoke[*event.Component](injector); err != nil {
		return fmt.Errorf("%s: %w", component.ComponentEvent, err)
	}
	if _, err := do.Invoke[*playground.Runner](injector); err != nil {
		return fmt.Errorf("%s: %w", component.ComponentPlayground, err)
	}
	log.DebugCtx(ctx, "core components ready", zap.Bool("kafka", producer != nil))
	return nil
}

// StartHTTPComponents additionally builds the router.
func StartHTTPComponents(ctx context.Context, injector do.Injector, log *logger.CtxZapLogger) error {
	if err := StartCoreComponents(ctx, injector, log); err != nil {
		return err
	}
	if _, err := do.Invoke[*gin.Engine](injector); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	return nil
}

func registerMetrics(i do.Injector, provider component.MetricsProvider) error {
	reg, err := do.Invoke[*telemetry.MetricsRegistry](i)
	if err != nil {
		return err
	}
	if reg == nil {
		return nil
	}
	return reg.Register(provider)
}
