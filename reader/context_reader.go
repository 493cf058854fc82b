package reader

import (
	"context"
	"io"
)

type readResult struct {
	n   int
	err error
}

// contextReader makes reads from a blocking reader give up once ctx is done.
// The read runs in its own goroutine so that a caller waiting on a pipe or a
// terminal can leave. That goroutine finishes whenever the underlying read
// does.
type contextReader struct {
	ctx context.Context
	r   io.Reader
	buf []byte
}

func newContextReader(ctx context.Context, r io.Reader) *contextReader {
	return &contextReader{ctx: ctx, r: r}
}

func (r *contextReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	// The goroutine may outlive this call, so it must not write into p.
	if cap(r.buf) < len(p) {
		r.buf = make([]byte, len(p))
	}
	buf := r.buf[:len(p)]

	done := make(chan readResult, 1)
	go func() {
		n, err := r.r.Read(buf)
		done <- readResult{n: n, err: err}
	}()

	select {
	case <-r.ctx.Done():
		// buf still belongs to the pending read.
		r.buf = nil
		return 0, r.ctx.Err()
	case res := <-done:
		return copy(p, buf[:res.n]), res.err
	}
}
