// Package config holds the env-first options for the worker and emulator
// binaries.
package config

import (
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
)

// Options configures the worker process. Everything can come from the
// environment; flags exist for local runs.
type Options struct {
	// RuntimeEndpoint is the Runtime API control endpoint as "host:port".
	RuntimeEndpoint string `long:"runtime-api" env:"AWS_LAMBDA_RUNTIME_API" required:"true" description:"Runtime API endpoint (host:port)"`

	LogLevel string `long:"log-level" env:"LAMBDA_WORKER_LOG_LEVEL" default:"warn" description:"trace, debug, info, warn, error, fatal or panic"`

	FunctionName    string `long:"function-name" env:"AWS_LAMBDA_FUNCTION_NAME" default:"test_function"`
	FunctionVersion string `long:"function-version" env:"AWS_LAMBDA_FUNCTION_VERSION" default:"$LATEST"`
}

// Parse reads Options from args and the environment.
func Parse(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return &opts, nil
}

// ConfigureLogging applies the logrus level, JSON formatter on trace.
func ConfigureLogging(level string) {
	log.SetReportCaller(true)
	switch level {
	case "trace":
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	case "panic":
		log.SetLevel(log.PanicLevel)
	default:
		log.Fatal("Invalid log level: " + level)
	}
}
