// Package tracelog captures the log lines emitted while serving a single request
// so they can be returned to the caller alongside the result.
package tracelog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "15:04:05.000"

// Recorder collects formatted log lines. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []string
	level zapcore.LevelEnabler
}

// NewRecorder creates a Recorder that keeps entries at or above level.
func NewRecorder(level zapcore.LevelEnabler) *Recorder {
	return &Recorder{level: level}
}

// Lines returns a copy of the recorded lines, never nil.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *Recorder) add(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Core returns a zapcore.Core writing into the recorder.
func (r *Recorder) Core() zapcore.Core {
	return &recordingCore{LevelEnabler: r.level, rec: r}
}

// Logger tees the recorder with base so entries still reach the process log.
func (r *Recorder) Logger(base *zap.Logger) *zap.SugaredLogger {
	if base == nil {
		base = zap.L()
	}
	return zap.New(zapcore.NewTee(base.Core(), r.Core())).Sugar()
}

type recordingCore struct {
	zapcore.LevelEnabler
	rec    *Recorder
	fields []zapcore.Field
}

func (c *recordingCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &recordingCore{LevelEnabler: c.LevelEnabler, rec: c.rec, fields: merged}
}

func (c *recordingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *recordingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	c.rec.add(format(ent, enc.Fields))
	return nil
}

func (c *recordingCore) Sync() error { return nil }

// format renders "[15:04:05.000] INFO message key=value ...", keys sorted.
func format(ent zapcore.Entry, fields map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(ent.Time.Format(timeLayout))
	b.WriteString("] ")
	b.WriteString(ent.Level.CapitalString())
	b.WriteString(" ")
	b.WriteString(ent.Message)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

type ctxKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the global sugared logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}
	return zap.S()
}

// Start creates a recorder for one request and a context carrying its logger.
func Start(ctx context.Context, level zapcore.LevelEnabler) (context.Context, *Recorder) {
	rec := NewRecorder(level)
	return WithLogger(ctx, rec.Logger(zap.L())), rec
}
