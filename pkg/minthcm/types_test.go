package minthcm_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

func TestDocument_Decode(t *testing.T) {
	doc := minthcm.Document{
		"data": []any{
			map[string]any{
				"type":       "Employees",
				"id":         "1",
				"attributes": map[string]any{"last_name": "Doe"},
			},
		},
	}

	var result struct {
		Data []struct {
			Type       string            `json:"type"`
			ID         string            `json:"id"`
			Attributes map[string]string `json:"attributes"`
		} `json:"data"`
	}

	require.NoError(t, doc.Decode(&result))
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Employees", result.Data[0].Type)
	assert.Equal(t, "Doe", result.Data[0].Attributes["last_name"])
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "UNINITIALIZED", minthcm.StateUninitialized.String())
	assert.Equal(t, "AUTHENTICATED", minthcm.StateAuthenticated.String())
	assert.Equal(t, "LOGGED_OUT", minthcm.StateLoggedOut.String())
	assert.Equal(t, "State(9)", minthcm.State(9).String())
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := minthcm.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	logger.Warn("failed to persist token", map[string]interface{}{"error": "disk full", "attempt": 1})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="failed to persist token"`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("attempt=1")), bytes.Index(buf.Bytes(), []byte("error=")))

	minthcm.NopLogger().Error("ignored", nil)
}
