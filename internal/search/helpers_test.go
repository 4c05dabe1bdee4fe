package search_test

import (
	"context"
	"io"
	"strings"
)

// cancelingSource cancels its context once the scanner starts reading.
type cancelingSource struct {
	content string
	cancel  context.CancelFunc
}

func (s *cancelingSource) Name() string { return "canceling" }

func (s *cancelingSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(&cancelingReader{r: strings.NewReader(s.content), cancel: s.cancel}), nil
}

type cancelingReader struct {
	r      *strings.Reader
	cancel context.CancelFunc
}

func (c *cancelingReader) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}
