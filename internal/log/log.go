package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelErr     Level = "error"
	LevelSuccess Level = "success"
)

var Levels = []string{string(LevelDebug), string(LevelInfo), string(LevelWarn), string(LevelErr)}

type contextKey string

const loggerContextKey contextKey = "prefabmerge-logger-context"

var (
	infoStyle    = lipgloss.NewStyle()
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Logger is a small value-type logger carried through context. Copies are
// cheap; builder methods return modified copies.
type Logger struct {
	level  Level
	fields []zapcore.Field
	writer io.Writer
}

// With returns a new context with the given logger attached.
func With(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

// From returns the logger attached to the context, or a default one.
func From(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return l
	}
	return New()
}

func New() Logger {
	return Logger{
		level:  LevelInfo,
		writer: os.Stderr,
	}
}

func (l Logger) WithLevel(level Level) Logger {
	l.level = level
	return l
}

func (l Logger) WithWriter(w io.Writer) Logger {
	l.writer = w
	return l
}

func (l Logger) WithFields(fields ...zapcore.Field) Logger {
	l.fields = append(append([]zapcore.Field{}, l.fields...), fields...)
	return l
}

func (l Logger) Debug(msg string, fields ...zapcore.Field) {
	if l.level != LevelDebug {
		return
	}
	l.println(debugStyle.Render(msg) + l.renderFields(fields))
}

func (l Logger) Debugf(format string, a ...any) {
	l.Debug(fmt.Sprintf(format, a...))
}

func (l Logger) Info(msg string, fields ...zapcore.Field) {
	if l.level != LevelDebug && l.level != LevelInfo {
		return
	}
	l.println(infoStyle.Render(msg) + l.renderFields(fields))
}

func (l Logger) Infof(format string, a ...any) {
	l.Info(fmt.Sprintf(format, a...))
}

func (l Logger) Warn(msg string, fields ...zapcore.Field) {
	if l.level == LevelErr {
		return
	}
	l.println(warnStyle.Render(msg) + l.renderFields(fields))
}

func (l Logger) Warnf(format string, a ...any) {
	l.Warn(fmt.Sprintf(format, a...))
}

func (l Logger) Error(msg string, fields ...zapcore.Field) {
	l.println(errorStyle.Render(msg) + l.renderFields(fields))
}

func (l Logger) Errorf(format string, a ...any) {
	l.Error(fmt.Sprintf(format, a...))
}

func (l Logger) Success(msg string, fields ...zapcore.Field) {
	l.println(successStyle.Render(msg) + l.renderFields(fields))
}

func (l Logger) Successf(format string, a ...any) {
	l.Success(fmt.Sprintf(format, a...))
}

func (l Logger) Println(s string) { l.println(s) }

func (l Logger) println(s string) {
	fmt.Fprintln(l.writer, s)
}

func (l Logger) renderFields(fields []zapcore.Field) string {
	fields = append(append([]zapcore.Field{}, l.fields...), fields...)
	if len(fields) == 0 {
		return ""
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	data, err := json.Marshal(enc.Fields)
	if err != nil {
		return ""
	}
	return "\t" + string(data)
}
