// lambda-worker polls the Runtime API for invocations and answers them with
// the built-in echo handler. It exists to exercise the client end to end
// against a Runtime API endpoint (see cmd/runtime-emulator); real deployments
// embed internal/worker with their own Handler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/localstack/lambda-runtime-client/internal/config"
	"github.com/localstack/lambda-runtime-client/internal/runtimeapi"
	"github.com/localstack/lambda-runtime-client/internal/worker"
)

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}
	config.ConfigureLogging(opts.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := runtimeapi.NewClient(opts.RuntimeEndpoint)

	handler, err := newEchoHandler()
	if err != nil {
		log.WithError(err).Error("Initialization failed, reporting init error.")
		if reportErr := client.ReportInitError(ctx, err); reportErr != nil {
			log.WithError(reportErr).Error("Failed to report init error.")
		}
		os.Exit(1)
	}

	log.WithField("endpoint", opts.RuntimeEndpoint).
		WithField("function", opts.FunctionName).
		Info("Starting worker loop.")

	if err := worker.New(client, handler).Run(ctx); err != nil {
		log.Fatalln("Worker loop failed: " + err.Error())
	}
}

// newEchoHandler returns the smoke-test handler: it hands the event payload
// straight back.
func newEchoHandler() (worker.Handler, error) {
	return worker.HandlerFunc(func(_ context.Context, payload []byte) ([]byte, error) {
		return payload, nil
	}), nil
}
