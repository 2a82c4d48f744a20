package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves sink I/O off the logging goroutines. Lines are buffered
// per sink and flushed whenever the queue runs dry, so bursts cost one
// syscall per sink instead of one per line.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}

	closeMu sync.RWMutex
	closed  bool

	sinks []*bufio.Writer

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	aw := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, w := range writers {
		if w != nil {
			aw.sinks = append(aw.sinks, bufio.NewWriterSize(w, bufSize))
		}
	}
	go aw.loop()
	return aw
}

// loop owns the sinks; nothing else touches them.
func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.setErr(w.flushSinks())
				return
			}
			w.setErr(w.writeSinks(line))
			if len(w.queue) == 0 {
				w.setErr(w.flushSinks())
			}
		case ack := <-w.flushReq:
			w.drain()
			ack <- w.flushSinks()
		}
	}
}

// drain writes whatever is queued right now without waiting for more.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.setErr(w.writeSinks(line))
		default:
			return
		}
	}
}

var errWriterClosed = errors.New("logger: writer closed")

// Write queues a copy of p. It blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every sink has been flushed.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.Err()
	}
}

// Close drains the queue and reports the first encountered write error.
func (w *asyncWriter) Close() error {
	w.closeMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.closeMu.Unlock()
	<-w.done
	return w.Err()
}

// Err returns the first sink error seen so far.
func (w *asyncWriter) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) writeSinks(p []byte) error {
	var errs []error
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
