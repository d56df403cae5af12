package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("sync", zerolog.InfoLevel, &buf)

	log.Info().Str("uid", "abc").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sync", entry["component"])
	assert.Equal(t, "abc", entry["uid"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewWithOutput_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("sync", zerolog.WarnLevel, &buf)

	log.Info().Msg("dropped")
	assert.Empty(t, buf.Bytes())

	log.Warn().Msg("kept")
	assert.NotEmpty(t, buf.Bytes())
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("ctx", zerolog.DebugLevel, &buf)

	ctx := log.WithContext(context.Background())
	FromContext(ctx).Debug().Msg("via context")

	assert.Contains(t, buf.String(), "via context")
}
