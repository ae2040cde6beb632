package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromEnvironment(t *testing.T) {
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")

	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9001", opts.RuntimeEndpoint)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.Equal(t, "test_function", opts.FunctionName)
	assert.Equal(t, "$LATEST", opts.FunctionVersion)
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")

	opts, err := Parse([]string{"--log-level=debug", "--function-name=orders"})
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "orders", opts.FunctionName)
}

func TestParseRequiresRuntimeEndpoint(t *testing.T) {
	// t.Setenv registers the restore; the variable must be absent for the
	// required check to trip.
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")
	require.NoError(t, os.Unsetenv("AWS_LAMBDA_RUNTIME_API"))

	_, err := Parse(nil)
	assert.Error(t, err)
}
