package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"neuron-vault-indexer/internal/domain"
)

const maxLineSize = 4 * 1024 * 1024

// FileSource reads JSON envelopes, one per line. Blank lines and lines
// starting with '#' are ignored.
type FileSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewFileSource reads envelopes from r.
func NewFileSource(r io.Reader) *FileSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &FileSource{scanner: scanner}
}

// OpenFileSource opens path for reading. The caller must Close the source.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	src := NewFileSource(f)
	src.closer = f
	return src, nil
}

// Next returns the next event in file order.
func (s *FileSource) Next(ctx context.Context) (domain.Event, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		ev, err := ParseEnvelope(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return ev, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", s.line+1, err)
	}
	return nil, io.EOF
}

// Close releases the underlying file, if any.
func (s *FileSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var _ EventSource = (*FileSource)(nil)
