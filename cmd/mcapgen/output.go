package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"
)

// output is where a recording is written. Commit makes the written bytes
// visible under the final name; Abort discards them.
type output interface {
	io.Writer
	Commit() error
	Abort()
}

// openOutput returns the destination for the recording. "-" writes to
// stdout, which is refused when stdout is a terminal unless force is set.
func openOutput(path string, force bool, logger *slog.Logger) (output, error) {
	if path == "-" {
		if !force && term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, fmt.Errorf("refusing to write binary recording to a terminal; redirect stdout or pass --force")
		}
		return stdoutOutput{os.Stdout}, nil
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output %s: %w", tmpPath, err)
	}
	return &fileOutput{file: f, tmpPath: tmpPath, finalPath: path, logger: logger}, nil
}

type stdoutOutput struct{ io.Writer }

func (stdoutOutput) Commit() error { return nil }
func (stdoutOutput) Abort()        {}

// fileOutput writes to a temporary file that is renamed into place once the
// recording is complete, so readers never see a partial file.
type fileOutput struct {
	file      *os.File
	tmpPath   string
	finalPath string
	logger    *slog.Logger
}

func (o *fileOutput) Write(p []byte) (int, error) {
	return o.file.Write(p)
}

func (o *fileOutput) Commit() error {
	if err := o.file.Sync(); err != nil {
		o.Abort()
		return fmt.Errorf("failed to sync output %s: %w", o.tmpPath, err)
	}
	if err := o.file.Close(); err != nil {
		o.file = nil
		o.Abort()
		return fmt.Errorf("failed to close output %s: %w", o.tmpPath, err)
	}
	o.file = nil

	// Renames can fail transiently on Windows while another process holds a handle.
	const maxRetries = 5
	const retryDelay = 100 * time.Millisecond
	var renameErr error
	for i := 0; i < maxRetries; i++ {
		renameErr = os.Rename(o.tmpPath, o.finalPath)
		if renameErr == nil {
			return nil
		}
		o.logger.Warn("Failed to rename temporary output, retrying...", "from", o.tmpPath, "to", o.finalPath, "attempt", i+1, "error", renameErr)
		time.Sleep(retryDelay)
	}
	o.Abort()
	return fmt.Errorf("failed to rename %s to %s after %d retries: %w", o.tmpPath, o.finalPath, maxRetries, renameErr)
}

func (o *fileOutput) Abort() {
	if o.file != nil {
		o.file.Close()
		o.file = nil
	}
	if err := os.Remove(o.tmpPath); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("Failed to remove temporary output", "path", o.tmpPath, "error", err)
	}
}
