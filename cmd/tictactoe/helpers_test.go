package main

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type pipeWriter struct {
	w *io.PipeWriter
}

func (p pipeWriter) write(t *testing.T, s string) {
	t.Helper()
	if _, err := io.WriteString(p.w, s); err != nil {
		t.Fatalf("write input: %v", err)
	}
}

func ioPipe() (io.Reader, pipeWriter) {
	r, w := io.Pipe()
	return r, pipeWriter{w: w}
}
