package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tell-rs/tell-go/pkg/tell/errs"
)

const testKey = "0123456789abcdef0123456789abcdef"

// Test 1: New() seeds the production defaults.
func TestDefaults(t *testing.T) {
	cfg, err := New(testKey).Build()
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultFlushInterval, cfg.FlushInterval)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultCloseTimeout, cfg.CloseTimeout)
	assert.Equal(t, DefaultNetworkTimeout, cfg.NetworkTimeout)
	assert.Empty(t, cfg.Service)
	assert.Nil(t, cfg.OnError)
}

// Test 2: every setter lands on the built config.
func TestSetters(t *testing.T) {
	called := false
	cfg, err := New(testKey).
		Service("checkout").
		Endpoint("collector.internal:9000").
		BatchSize(25).
		FlushInterval(3 * time.Second).
		MaxRetries(5).
		CloseTimeout(time.Second).
		NetworkTimeout(10 * time.Second).
		OnError(func(errs.Error) { called = true }).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Service)
	assert.Equal(t, "collector.internal:9000", cfg.Endpoint)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 3*time.Second, cfg.FlushInterval)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.CloseTimeout)
	assert.Equal(t, 10*time.Second, cfg.NetworkTimeout)
	require.NotNil(t, cfg.OnError)
	cfg.OnError(errs.Error{})
	assert.True(t, called)
}

// Test 3: Build decodes the API key into raw bytes.
func TestBuildDecodesKey(t *testing.T) {
	cfg, err := New(testKey).Build()
	require.NoError(t, err)
	want := [16]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	assert.Equal(t, want, cfg.APIKey)
}

// Test 4: a malformed key is the only build failure.
func TestBuildRejectsBadKey(t *testing.T) {
	for _, apiKey := range []string{"", "short", "0123456789abcdef0123456789abcdeg"} {
		_, err := New(apiKey).Build()
		require.Error(t, err, "key %q should fail", apiKey)
		e, ok := err.(errs.Error)
		require.True(t, ok)
		assert.Equal(t, errs.KindConfiguration, e.Kind)
	}
}

// Test 5: the development preset overrides endpoint, batch size, interval.
func TestDevelopmentPreset(t *testing.T) {
	cfg, err := Development(testKey)
	require.NoError(t, err)
	assert.Equal(t, DevEndpoint, cfg.Endpoint)
	assert.Equal(t, DevBatchSize, cfg.BatchSize)
	assert.Equal(t, DevFlushInterval, cfg.FlushInterval)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
}

// Test 6: the production preset matches the plain builder defaults.
func TestProductionPreset(t *testing.T) {
	cfg, err := Production(testKey)
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
}

// Test 7: a supplied logger replaces the no-op default.
func TestLoggerSetter(t *testing.T) {
	var out bytes.Buffer
	cfg, err := New(testKey).Logger(zerolog.New(&out)).Build()
	require.NoError(t, err)

	cfg.Logger.Info().Msg("diagnostic")
	assert.Contains(t, out.String(), "diagnostic")

	quiet, err := New(testKey).Build()
	require.NoError(t, err)
	quiet.Logger.Info().Msg("swallowed")
}
