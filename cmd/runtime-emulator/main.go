// runtime-emulator serves a local Runtime API for developing and testing
// workers without the real control plane. POST /invoke feeds it work.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/localstack/lambda-runtime-client/internal/config"
	"github.com/localstack/lambda-runtime-client/internal/emulator"
)

type options struct {
	Port     string `long:"port" env:"RUNTIME_EMULATOR_PORT" default:"9001"`
	LogLevel string `long:"log-level" env:"RUNTIME_EMULATOR_LOG_LEVEL" default:"info"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash).ParseArgs(os.Args[1:]); err != nil {
		log.Fatalln(err)
	}
	config.ConfigureLogging(opts.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    ":" + opts.Port,
		Handler: emulator.New().Router(),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Runtime emulator listening on :" + opts.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatalln(err)
	}
}
