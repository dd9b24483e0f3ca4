package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{Enabled: true}, &buf, nil)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "build_chains")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ShutdownWithTimeout(context.Background(), shutdown, nil)
	assert.True(t, strings.Contains(buf.String(), "build_chains"))

	_, err = Init(context.Background(), Config{}, nil, nil)
	require.NoError(t, err)
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, Exporter: "zipkin"}, nil, nil)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{SampleRatio: 3}
	cfg.SetDefaults()
	assert.Equal(t, "evflex", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.Exporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}
