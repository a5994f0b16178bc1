package main

import (
	"context"
	"log/slog"
	"os"

	"docket/config"
	"docket/internal/delivery"
	"docket/internal/delivery/api"
	"docket/internal/delivery/api/middleware"
	"docket/internal/delivery/api/router/handler"
	"docket/internal/infra/auth"
	logs "docket/internal/infra/log"
	"docket/internal/infra/metrics"
	"docket/internal/infra/persistence/postgres"
	"docket/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectMetrics(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectMetrics() fx.Option {
	return fx.Options(
		fx.Provide(
			metrics.NewRegistry,
			metrics.NewHTTPMetrics,
			fx.Annotate(
				metrics.NewAuthMetrics,
				fx.As(fx.Self()),
				fx.As(new(auth.RejectionObserver)),
			),
		),
		fx.Decorate(
			metrics.InstrumentPasswordHasher,
			metrics.InstrumentTokenService,
		),
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewTaskRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewPasswordHasher,
			auth.NewTokenService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewTaskService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewUserHandler,
			handler.NewTaskHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
