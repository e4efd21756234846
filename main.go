package main

import (
	"context"
	"io"
	"mqtt-console/adapters"
	"mqtt-console/application"
	"mqtt-console/ui"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
}

func main() {
	var logger zerolog.Logger

	newLogger := func(ctx *cli.Context, out io.Writer) zerolog.Logger {
		var logWriter io.Writer = out
		if ctx.String(FlagLogWriter.Name) == "console" {
			logWriter = zerolog.ConsoleWriter{
				Out:        out,
				NoColor:    out != os.Stderr,
				TimeFormat: time.RFC3339Nano,
			}
		}

		return zerolog.New(logWriter).With().Timestamp().
			Str("service", "mqtt-console").
			Str("module", "main").
			Logger()
	}

	appContext := func() context.Context {
		appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
		go func() {
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

			<-c

			logger.Warn().Msg("interrupt signal received")
			cancel()
		}()
		return appCtx
	}

	var logFile *os.File

	app := cli.App{
		Name:    "mqtt-console",
		Usage:   "publish to and subscribe on an mqtt broker through a small http api",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			logger = newLogger(ctx, os.Stderr)

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)

			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the http api in front of an mqtt connection",
				Flags: []cli.Flag{
					FlagListen,
					FlagStaticDir,
					FlagLogLimit,
					FlagMQTTClientID,
					FlagMQTTUsername,
					FlagMQTTPassword,
					FlagDemoBroker,
					FlagDemoTopic,
					FlagDemoInterval,
				},
				Action: func(ctx *cli.Context) error {
					logger.Info().Msg("service starting...")
					appCtx := appContext()

					gateway, err := application.NewBrokerGateway(application.BrokerGatewayParams{
						NewMQTTClient: adapters.NewMQTTClientFactory(adapters.MQTTClientParams{
							ClientID: ctx.String(FlagMQTTClientID.Name),
							Username: ctx.String(FlagMQTTUsername.Name),
							Password: ctx.String(FlagMQTTPassword.Name),
							Log:      logger.With().Str("module", "mqtt-client").Logger(),
						}),
						LogLimit: ctx.Int(FlagLogLimit.Name),
						Log:      logger.With().Str("module", "broker-gateway").Logger(),
					})
					if err != nil {
						return err
					}
					defer gateway.Close()

					server, err := adapters.NewAPIServer(adapters.APIServerParams{
						API:       gateway,
						StaticDir: ctx.String(FlagStaticDir.Name),
						Log:       logger.With().Str("module", "api-server").Logger(),
					})
					if err != nil {
						return err
					}

					g, gCtx := errgroup.WithContext(appCtx)
					g.Go(func() error {
						return server.Serve(gCtx, ctx.String(FlagListen.Name))
					})

					if demoBroker := ctx.String(FlagDemoBroker.Name); demoBroker != "" {
						demoPublisher, err := application.NewDemoPublisher(application.DemoPublisherParams{
							MQTTClient: adapters.NewMQTTClient(adapters.MQTTClientParams{
								MQTTUrl:  application.NormalizeBrokerURL(demoBroker),
								Username: ctx.String(FlagMQTTUsername.Name),
								Password: ctx.String(FlagMQTTPassword.Name),
								Log:      logger.With().Str("module", "demo-mqtt-client").Logger(),
							}),
							Topic:    ctx.String(FlagDemoTopic.Name),
							Interval: ctx.Duration(FlagDemoInterval.Name),
							Log:      logger.With().Str("module", "demo-publisher").Logger(),
						})
						if err != nil {
							return err
						}

						g.Go(optionalTask(gCtx, demoPublisher.Run, logger.With().Str("module", "demo-publisher").Logger()))
					}

					logger.Info().Str("listen", ctx.String(FlagListen.Name)).Msg("service started")
					if err := g.Wait(); err != nil {
						return err
					}

					logger.Info().Msg("service terminating...")
					return nil
				},
			},
			{
				Name:  "console",
				Usage: "interactive terminal console backed by the http api",
				Flags: []cli.Flag{
					FlagAPIURL,
					FlagAPITimeout,
					FlagLogPollInterval,
					FlagBroker,
					FlagLogFile,
				},
				Before: func(ctx *cli.Context) error {
					f, err := os.OpenFile(ctx.String(FlagLogFile.Name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
					if err != nil {
						return err
					}
					logFile = f
					logger = newLogger(ctx, f)
					return nil
				},
				After: func(ctx *cli.Context) error {
					if logFile == nil {
						return nil
					}
					return logFile.Close()
				},
				Action: func(ctx *cli.Context) error {
					appCtx := appContext()

					apiClient, err := adapters.NewAPIClient(adapters.APIClientParams{
						BaseURL: ctx.String(FlagAPIURL.Name),
						Timeout: ctx.Duration(FlagAPITimeout.Name),
						Log:     logger.With().Str("module", "api-client").Logger(),
					})
					if err != nil {
						return err
					}

					renderer := &ui.ProgramRenderer{}
					controller, err := application.NewSessionController(application.SessionControllerParams{
						API:             apiClient,
						Renderer:        renderer,
						LogPollInterval: ctx.Duration(FlagLogPollInterval.Name),
						Log:             logger.With().Str("module", "session-controller").Logger(),
					})
					if err != nil {
						return err
					}
					defer controller.Close()

					logger.Info().Str("api", ctx.String(FlagAPIURL.Name)).Msg("console started")
					return ui.Run(appCtx, renderer, ui.ModelParams{
						Controller: controller,
						Broker:     ctx.String(FlagBroker.Name),
						Log:        logger.With().Str("module", "ui").Logger(),
					})
				},
			},
			{
				Name:  "publish",
				Usage: "connect and publish once, or every --interval seconds until interrupted",
				Flags: []cli.Flag{
					FlagAPIURL,
					FlagAPITimeout,
					FlagBroker,
					FlagTopic,
					FlagMessage,
					FlagInterval,
				},
				Action: func(ctx *cli.Context) error {
					appCtx := appContext()

					apiClient, err := adapters.NewAPIClient(adapters.APIClientParams{
						BaseURL: ctx.String(FlagAPIURL.Name),
						Timeout: ctx.Duration(FlagAPITimeout.Name),
						Log:     logger.With().Str("module", "api-client").Logger(),
					})
					if err != nil {
						return err
					}

					controller, err := application.NewSessionController(application.SessionControllerParams{
						API:      apiClient,
						Renderer: newStatusLogger(logger.With().Str("module", "status").Logger()),
						Log:      logger.With().Str("module", "session-controller").Logger(),
					})
					if err != nil {
						return err
					}
					defer controller.Close()

					if _, err := controller.Connect(appCtx, ctx.String(FlagBroker.Name)); err != nil {
						return err
					}

					topic, message := ctx.String(FlagTopic.Name), ctx.String(FlagMessage.Name)
					if ctx.Int(FlagInterval.Name) <= 0 {
						return controller.PublishOnce(appCtx, topic, message)
					}

					interval := time.Duration(ctx.Int(FlagInterval.Name)) * time.Second
					if _, err := controller.StartPeriodic(topic, message, interval); err != nil {
						return err
					}

					<-appCtx.Done()
					controller.StopPeriodic()
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}

// newStatusLogger logs every status change of a headless session.
func newStatusLogger(log zerolog.Logger) application.Renderer {
	var last application.Status
	return application.RendererFunc(func(state application.State) {
		if state.Status == last {
			return
		}
		last = state.Status

		event := log.Info()
		if state.Status.Kind == application.StatusError {
			event = log.Warn()
		}
		if p := state.Periodic; p != nil {
			event = event.Uint64("sent", p.Sent).Uint64("failed", p.Failed)
		}
		event.Str("connection", state.Connection.String()).Msg(state.Status.Text)
	})
}

// optionalTask wraps run for an errgroup so that its failure is logged
// instead of cancelling the rest of the group.
func optionalTask(ctx context.Context, run func(ctx context.Context) error, log zerolog.Logger) func() error {
	return func() error {
		if err := run(ctx); err != nil {
			log.Error().Err(err).Msg("stopped")
		}
		return nil
	}
}
