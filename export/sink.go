package export

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// =============================================================================
// SINKS - Where rendered exports end up
// =============================================================================

// Sink stores a rendered export and returns where it went.
type Sink interface {
	Name() string
	Put(ctx context.Context, name, contentType string, body []byte) (location string, err error)
}

// FileSink writes exports into a local directory.
type FileSink struct {
	Dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create export dir %s", dir)
	}
	return &FileSink{Dir: dir}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Put(ctx context.Context, name, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// WriterSink copies exports to a caller-supplied writer such as an open
// file handle.
type WriterSink struct {
	W io.Writer
}

func (s *WriterSink) Name() string { return "writer" }

func (s *WriterSink) Put(_ context.Context, name, _ string, body []byte) (string, error) {
	if _, err := s.W.Write(body); err != nil {
		return "", errors.Wrapf(err, "write %s", name)
	}
	return name, nil
}
