package jsonlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Level      string            `json:"level"`
	Time       string            `json:"time"`
	Message    string            `json:"message"`
	Properties map[string]string `json:"properties"`
	Trace      string            `json:"trace"`
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []entry {
	t.Helper()
	var entries []entry
	dec := json.NewDecoder(buf)
	for dec.More() {
		var e entry
		require.NoError(t, dec.Decode(&e))
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger(t *testing.T) {
	t.Run("INFO Level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintInfo("starting server", map[string]string{"addr": ":4000", "env": "development"})

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "INFO", entries[0].Level)
		assert.Equal(t, "starting server", entries[0].Message)
		assert.Equal(t, ":4000", entries[0].Properties["addr"])
		assert.Empty(t, entries[0].Trace)
	})

	t.Run("ERROR Level carries a trace", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintError(errors.New("lookup failed"), nil)

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "ERROR", entries[0].Level)
		assert.Equal(t, "lookup failed", entries[0].Message)
		assert.NotEmpty(t, entries[0].Trace)
	})

	t.Run("below minimum level is dropped", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelError)
		l.PrintDebug("noise", nil)
		l.PrintInfo("noise", nil)
		assert.Zero(t, buf.Len())

		l.PrintFatal(errors.New("boom"), nil)
		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "FATAL", entries[0].Level)
	})

	t.Run("Write logs at ERROR", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		_, err := l.Write([]byte("http: TLS handshake error"))
		require.NoError(t, err)

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "ERROR", entries[0].Level)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" error ", LevelError, false},
		{"off", LevelOff, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
