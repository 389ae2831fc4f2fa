package source

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RunnerConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultRunnerConfig()},
		{name: "stdout", cfg: RunnerConfig{ExtractCommand: []string{"cat"}, CountCommand: []string{"echo", "1"}, Stream: StreamStdout}},
		{name: "empty stream defaults", cfg: RunnerConfig{ExtractCommand: []string{"cat"}, CountCommand: []string{"echo", "1"}}},
		{name: "missing extract", cfg: RunnerConfig{CountCommand: []string{"echo"}}, wantErr: true},
		{name: "missing count", cfg: RunnerConfig{ExtractCommand: []string{"cat"}}, wantErr: true},
		{name: "bad stream", cfg: RunnerConfig{ExtractCommand: []string{"cat"}, CountCommand: []string{"echo"}, Stream: "stdin"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, r.cfg.Stream)
		})
	}
}

func TestRunner_Stream(t *testing.T) {
	script := `printf '%s\n' '{split}START{split}' '{split}-id: n1' '{split}BODY_START{split}' 'hello' '{split}BODY_END{split}' '{split}END{split}' >&2; echo diagnostics`

	tests := []struct {
		name   string
		stream string
		script string
	}{
		{name: "stderr", stream: StreamStderr, script: script},
		{name: "stdout", stream: StreamStdout, script: `printf '%s\n' '{split}START{split}' '{split}-id: n1' '{split}BODY_START{split}' 'hello' '{split}BODY_END{split}' '{split}END{split}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(RunnerConfig{
				ExtractCommand: []string{"sh", "-c", tt.script},
				CountCommand:   []string{"echo", "1"},
				Stream:         tt.stream,
			})
			require.NoError(t, err)

			records, sink := collect()
			p := NewParser(testDelim, sink)
			require.NoError(t, r.Stream(context.Background(), testDelim, p))
			require.NoError(t, p.Close())

			require.Len(t, *records, 1)
			assert.Equal(t, "n1", (*records)[0].ID)
			assert.Equal(t, "hello", (*records)[0].Body)
		})
	}
}

func TestRunner_Stream_NonZeroExit(t *testing.T) {
	r, err := NewRunner(RunnerConfig{
		ExtractCommand: []string{"sh", "-c", "echo boom; exit 3"},
		CountCommand:   []string{"echo", "1"},
	})
	require.NoError(t, err)

	err = r.Stream(context.Background(), testDelim, &bytes.Buffer{})
	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr), "want *StreamError, got %v", err)
	assert.Equal(t, 3, streamErr.Code)
	assert.Equal(t, "boom", streamErr.Output)
}

func TestRunner_Stream_MissingBinary(t *testing.T) {
	r, err := NewRunner(RunnerConfig{
		ExtractCommand: []string{"/nonexistent/record-source"},
		CountCommand:   []string{"echo", "1"},
	})
	require.NoError(t, err)

	err = r.Stream(context.Background(), testDelim, &bytes.Buffer{})
	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, -1, streamErr.Code)
}

func TestRunner_Count(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		want    int
		wantErr bool
	}{
		{name: "integer output", command: []string{"echo", " 42 "}, want: 42},
		{name: "not a number", command: []string{"echo", "many"}, wantErr: true},
		{name: "failing command", command: []string{"sh", "-c", "exit 1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(RunnerConfig{ExtractCommand: []string{"true"}, CountCommand: tt.command})
			require.NoError(t, err)

			got, err := r.Count(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDelimiter(t *testing.T) {
	a, err := NewDelimiter()
	require.NoError(t, err)
	b, err := NewDelimiter()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), a)
	assert.NotEqual(t, a, b)
}

func TestTail(t *testing.T) {
	t.Run("short input is trimmed only", func(t *testing.T) {
		assert.Equal(t, "boom", tail("  boom\n"))
	})

	t.Run("long ASCII keeps the last bytes", func(t *testing.T) {
		s := strings.Repeat("a", 600) + "END"
		got := tail(s)
		assert.Len(t, got, 512)
		assert.True(t, strings.HasSuffix(got, "END"))
	})

	t.Run("multibyte input is cut on a rune boundary", func(t *testing.T) {
		// 602 bytes; the naive cut at byte 90 lands inside a 3-byte rune.
		s := "é" + strings.Repeat("日", 200)
		got := tail(s)
		assert.True(t, utf8.ValidString(got), "tail returned invalid UTF-8")
		assert.LessOrEqual(t, len(got), 512)
		assert.Equal(t, strings.Repeat("日", 170), got)
	})
}
