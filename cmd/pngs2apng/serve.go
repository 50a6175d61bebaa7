package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pngs2apng/internal/logger"
	"github.com/samcharles93/pngs2apng/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		maxUpload   int64
		readTimeout time.Duration
		workDir     string
	)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the APNG assembly HTTP API",
		Before: setupLogging,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "maximum request body size",
				Value:       server.DefaultMaxUploadBytes,
				Destination: &maxUpload,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.StringFlag{
				Name:        "work-dir",
				Usage:       "directory for staged uploads (default os temp dir)",
				Destination: &workDir,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, appConfig, &addr, &maxUpload, &readTimeout)

			srv := server.NewServer(server.Config{
				MaxUploadBytes: maxUpload,
				WorkDir:        workDir,
				Logger:         log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			srv.Register(e)

			log.Info("starting server", "address", addr, "max_upload_bytes", maxUpload)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(hs *http.Server) error {
					hs.ReadHeaderTimeout = readTimeout
					hs.ReadTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
