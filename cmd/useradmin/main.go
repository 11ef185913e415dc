package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flarexio/useradmin"
	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/persistence"
	"github.com/flarexio/useradmin/user"

	transHTTP "github.com/flarexio/useradmin/transport/http"
	transPubSub "github.com/flarexio/useradmin/transport/pubsub"
)

var (
	Version   string = "0.0.0"
	BuildTime string
	GitCommit string
)

var versionCmd = &cli.Command{
	Name:    "version",
	Aliases: []string{"ver", "v"},
	Usage:   "Show version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Show all infomation (include: Version, BuildTime, GitCommit)",
			Value:   false,
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("all") {
			fmt.Println(ctx.App.Version)
		} else {
			cli.ShowVersion(ctx)
		}
		return nil
	},
}

func main() {
	cli.VersionPrinter = func(cli *cli.Context) {
		fmt.Println("Version: " + cli.App.Version)
		fmt.Println("BuildTime: " + BuildTime)
		fmt.Println("GitCommit: " + GitCommit)
	}

	app := &cli.App{
		Name:     "useradmin",
		Usage:    "User management backend for the admin console",
		Version:  Version,
		Commands: []*cli.Command{versionCmd},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Specifies the working directory",
				EnvVars: []string{"USERADMIN_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Specifies the HTTP service port",
				Value:   4000,
				EnvVars: []string{"USERADMIN_HTTP_PORT"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg conf.Log) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Production() {
		zcfg = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build()
}

func run(cli *cli.Context) error {
	err := conf.LoadEnv(cli)
	if err != nil {
		return err
	}

	cfg, err := conf.LoadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Add Persistence
	store, err := persistence.NewUserStore(ctx, cfg.Persistence)
	if err != nil {
		log.Error(err.Error(),
			zap.String("infra", "persistence"),
			zap.String("driver", cfg.Persistence.Driver.String()),
		)
		return err
	}
	defer store.Close()

	// Add Repository and Middlewares
	metrics, err := useradmin.NewMetrics(nil)
	if err != nil {
		return err
	}

	users := user.NewRepository(store)
	users = useradmin.LoggingMiddleware(log)(users)
	users = useradmin.InstrumentingMiddleware(metrics)(users)

	// Add Endpoints
	endpoints := useradmin.NewEndpointSet(users)

	// Add PubSub Transport
	if cfg.NATS.Enabled {
		log := log.With(
			zap.String("infra", "pubsub"),
			zap.String("provider", "nats"),
		)

		opts := []nats.Option{nats.Name(cfg.Name)}
		if cfg.NATS.Creds != "" {
			opts = append(opts, nats.UserCredentials(conf.Path+"/"+cfg.NATS.Creds))
		}

		nc, err := nats.Connect(cfg.NATS.URL, opts...)
		if err != nil {
			log.Error(err.Error())
			return err
		}
		defer nc.Drain()

		log.Info("connected")

		srv, err := micro.AddService(nc, micro.Config{
			Name:        "useradmin",
			Version:     Version,
			Description: "User management backend for the admin console",
			Metadata: map[string]string{
				"id": cfg.Name,
			},
		})

		if err != nil {
			log.Error(err.Error())
			return err
		}
		defer srv.Stop()

		// SUB users.>
		if err := transPubSub.AddEndpoints(srv, endpoints); err != nil {
			log.Error(err.Error())
			return err
		}
	}

	// Add HTTP Transport
	r := gin.New()
	r.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		cors.New(transHTTP.CORSConfig(cfg.CORS.Origins)),
	)

	// GET /metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// GET /healthz
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	transHTTP.AddRoutes(r, endpoints)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(conf.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err.Error(), zap.String("infra", "http"))
		}
	}()

	log.Info("listening",
		zap.Int("port", conf.Port),
		zap.String("driver", cfg.Persistence.Driver.String()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("shutdown", zap.String("signal", sign.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
