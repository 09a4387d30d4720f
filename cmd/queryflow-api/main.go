package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/queryflow/pkg/cmd"
	"github.com/dukex/queryflow/pkg/events"
	"github.com/dukex/queryflow/pkg/log"
	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/otelhelper"
	"github.com/dukex/queryflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort       = 9090
	defaultContextTTL = time.Hour
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "queryflow-api",
		Usage:                 "Turn natural-language questions into validated SQL queries",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (redis://... or memory://)",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL", "REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "context-ttl",
				Usage:   "How long workflow contexts stay retrievable after the last write",
				Value:   defaultContextTTL,
				Sources: cli.EnvVars("CONTEXT_TTL"),
			},
			&cli.IntFlag{
				Name:    "max-retries",
				Usage:   "Retry ceiling for the composition/validation loop",
				Value:   models.DefaultMaxRetries,
				Sources: cli.EnvVars("MAX_RETRIES"),
			},
			&cli.DurationFlag{
				Name:    "stage-delay",
				Usage:   "Artificial pause before each stage, useful for demoing progress",
				Value:   0,
				Sources: cli.EnvVars("STAGE_DELAY"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing (exports via OTLP HTTP)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing QueryFlow API")

			registry, err := cmd.NewRegistry(logger)
			if err != nil {
				return err
			}

			repository, err := cmd.NewPersistence(ctx, logger, command.String("database-url"), command.Duration("context-ttl"))
			if err != nil {
				return err
			}

			defer func() {
				if err := repository.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			eventBus.Handle(events.WorkflowExecutionCompletedEvent, func(ctx context.Context, event any) error {
				if completed, ok := event.(*events.WorkflowExecutionCompleted); ok {
					logger.InfoContext(ctx, "Workflow produced a query",
						"workflow_id", completed.WorkflowID,
						"sql_query", completed.SQLQuery,
						"retry_count", completed.RetryCount,
					)
				}

				return nil
			})

			eventBus.Handle(events.WorkflowExecutionFailedEvent, func(ctx context.Context, event any) error {
				if failed, ok := event.(*events.WorkflowExecutionFailed); ok {
					logger.WarnContext(ctx, "Workflow failed",
						"workflow_id", failed.WorkflowID,
						"feedback", failed.Feedback,
						"retry_count", failed.RetryCount,
					)
				}

				return nil
			})

			if err := eventBus.Subscribe(ctx); err != nil {
				return err
			}

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "queryflow-api")
				if err != nil {
					return err
				}
			}

			executorOpts := []workflow.Option{workflow.WithEventBus(eventBus)}
			if tracer != nil {
				executorOpts = append(executorOpts, workflow.WithTracer(tracer))
			}

			if delay := command.Duration("stage-delay"); delay > 0 {
				executorOpts = append(executorOpts, workflow.WithStageDelay(delay))
			}

			executor := workflow.NewExecutor(registry, repository, logger, executorOpts...)
			manager := workflow.NewManager(repository, executor, command.Int("max-retries"), logger)

			api, err := NewAPI(logger, manager, repository)
			if err != nil {
				return err
			}

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
