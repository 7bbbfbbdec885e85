package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// NewHumanTextHandler returns a handler writing one readable line per
// record: an optional timestamp, the level, the message and the remaining
// attributes in key=value form.
func NewHumanTextHandler(w io.Writer, opts *slog.HandlerOptions,
	logTime bool,
) *HumanTextHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	self := &HumanTextHandler{
		logTime: logTime,
		w:       w,
		opts:    *opts,
		mu:      new(sync.Mutex),
	}
	return self.init()
}

type HumanTextHandler struct {
	logTime bool
	buf     *bytes.Buffer
	stdLog  *log.Logger
	w       io.Writer

	h    slog.Handler
	opts slog.HandlerOptions

	mu *sync.Mutex
}

var _ slog.Handler = (*HumanTextHandler)(nil)

func (self *HumanTextHandler) init() *HumanTextHandler {
	opts := self.opts
	opts.ReplaceAttr = self.replace
	self.h = slog.NewTextHandler(writerFunc(self.write), &opts)
	return self
}

func (self *HumanTextHandler) write(p []byte) (int, error) {
	return self.buf.Write(p)
}

func (self *HumanTextHandler) replace(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			return slog.Attr{}
		}
	}
	if self.opts.ReplaceAttr != nil {
		return self.opts.ReplaceAttr(groups, a)
	}
	return a
}

func (self *HumanTextHandler) Enabled(ctx context.Context, level slog.Level,
) bool {
	return self.h.Enabled(ctx, level)
}

func (self *HumanTextHandler) Handle(ctx context.Context, r slog.Record,
) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.buf = bufPool.Get().(*bytes.Buffer)
	defer self.free()

	if err := self.formatPrefix(r); err != nil {
		return err
	}

	if err := self.h.Handle(ctx, r); err != nil {
		return fmt.Errorf("logger: failed slog handler: %w", err)
	}

	// Discard the trailing '\n' added by slog.TextHandler and the trailing
	// ' ' added by formatPrefix.
	b := bytes.TrimSpace(self.buf.Bytes())
	self.buf.Truncate(len(b))

	self.buf.WriteByte('\n')
	if _, err := self.buf.WriteTo(self.w); err != nil {
		return fmt.Errorf("logger: failed write formatted entry: %w", err)
	}
	return nil
}

func (self *HumanTextHandler) free() {
	// To reduce peak allocation, return only smaller buffers to the pool.
	const maxBufferSize = 16 << 10
	if self.buf.Cap() <= maxBufferSize {
		self.buf.Reset()
		bufPool.Put(self.buf)
	}
	self.buf = nil
}

func (self *HumanTextHandler) formatPrefix(r slog.Record) error {
	if self.logTime {
		if self.stdLog == nil {
			self.stdLog = log.New(writerFunc(self.write), "", log.LstdFlags)
		}
		// output log.LstdFlags
		if err := self.stdLog.Output(2, ""); err != nil {
			return fmt.Errorf("logger: write prefix to log.Output: %w", err)
		}
		// Discard the last byte (\n), added by log.Output.
		self.buf.Truncate(self.buf.Len() - 1)
	}

	self.buf.WriteString(r.Level.String())
	self.buf.WriteByte(' ')
	self.buf.WriteString(r.Message)
	self.buf.WriteByte(' ')
	return nil
}

func (self *HumanTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h := *self
	h.h = self.h.WithAttrs(attrs)
	return &h
}

func (self *HumanTextHandler) WithGroup(name string) slog.Handler {
	h := *self
	h.h = self.h.WithGroup(name)
	return &h
}

type writerFunc func(p []byte) (int, error)

func (fn writerFunc) Write(p []byte) (int, error) { return fn(p) }
