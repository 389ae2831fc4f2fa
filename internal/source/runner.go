package source

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"notechat/internal/contextutil"
)

// Placeholder is replaced by the run delimiter in every command argument.
const Placeholder = "{split}"

// ExtractScript writes every note of Apple Notes to stderr using the marker protocol.
const ExtractScript = `tell application "Notes"
   repeat with eachNote in every note
      set noteId to the id of eachNote
      set noteTitle to the name of eachNote
      set noteBody to the body of eachNote
      set noteCreated to (the creation date of eachNote as «class isot» as string)
      set noteUpdated to (the modification date of eachNote as «class isot» as string)
      set noteContainer to container of eachNote
      log "{split}START{split}"
      log "{split}-id: " & noteId
      log "{split}-created: " & noteCreated
      log "{split}-updated: " & noteUpdated
      log "{split}-folderId: " & (the id of noteContainer)
      log "{split}-folderName: " & (the name of noteContainer)
      log "{split}-title: " & noteTitle
      log "{split}BODY_START{split}"
      log noteBody
      log "{split}BODY_END{split}"
      log "{split}END{split}"
   end repeat
end tell`

// CountScript prints the number of notes.
const CountScript = `tell application "Notes"
    set noteCount to count of notes
end tell`

// Stream names accepted by RunnerConfig.Stream.
const (
	StreamStderr = "stderr"
	StreamStdout = "stdout"
)

// RunnerConfig describes the record source process.
type RunnerConfig struct {
	// ExtractCommand is the program and arguments producing the record stream.
	ExtractCommand []string
	// CountCommand prints the number of records on stdout.
	CountCommand []string
	// Stream selects which output of ExtractCommand carries the records.
	Stream string
}

// DefaultRunnerConfig runs the Apple Notes scripts through osascript.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ExtractCommand: []string{"osascript", "-e", ExtractScript},
		CountCommand:   []string{"osascript", "-e", CountScript},
		Stream:         StreamStderr,
	}
}

// Runner starts the record source process.
type Runner struct {
	cfg RunnerConfig
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if len(cfg.ExtractCommand) == 0 {
		return nil, fmt.Errorf("extract command is required")
	}
	if len(cfg.CountCommand) == 0 {
		return nil, fmt.Errorf("count command is required")
	}
	switch cfg.Stream {
	case "":
		cfg.Stream = StreamStderr
	case StreamStderr, StreamStdout:
	default:
		return nil, fmt.Errorf("stream must be %q or %q, got %q", StreamStderr, StreamStdout, cfg.Stream)
	}
	return &Runner{cfg: cfg}, nil
}

// Stream runs the extract command with delim substituted and copies its record
// stream into w until the process exits. A non-zero exit is a *StreamError.
func (r *Runner) Stream(ctx context.Context, delim string, w io.Writer) error {
	logger := contextutil.LoggerFromContext(ctx)

	args := make([]string, len(r.cfg.ExtractCommand))
	for i, arg := range r.cfg.ExtractCommand {
		args[i] = strings.ReplaceAll(arg, Placeholder, delim)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var diag bytes.Buffer
	if r.cfg.Stream == StreamStdout {
		cmd.Stdout = w
		cmd.Stderr = &diag
	} else {
		cmd.Stderr = w
		cmd.Stdout = &diag
	}

	logger.InfoContext(ctx, "starting record source", "command", args[0], "stream", r.cfg.Stream)
	if err := cmd.Start(); err != nil {
		return &StreamError{Code: -1, Err: fmt.Errorf("failed to start %s: %w", args[0], err)}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &StreamError{Code: exitErr.ExitCode(), Err: err, Output: tail(diag.String())}
		}
		return &StreamError{Code: -1, Err: err}
	}
	return nil
}

// Count runs the count command and parses its integer output.
func (r *Runner) Count(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, r.cfg.CountCommand[0], r.cfg.CountCommand[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run count command: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse record count %q: %w", strings.TrimSpace(string(out)), err)
	}
	return n, nil
}

// NewDelimiter returns a random 16 character hex token for one run.
func NewDelimiter() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate delimiter: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func tail(s string) string {
	const limit = 512
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	start := len(s) - limit
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
