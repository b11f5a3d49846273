package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed structured-logging field.
type Field interface {
	AddTo(event *zerolog.Event)
	addToContext(ctx zerolog.Context) zerolog.Context
}

type stringField struct {
	key   string
	value string
}

func (f stringField) AddTo(e *zerolog.Event) { e.Str(f.key, f.value) }
func (f stringField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Str(f.key, f.value)
}

type int64Field struct {
	key   string
	value int64
}

func (f int64Field) AddTo(e *zerolog.Event) { e.Int64(f.key, f.value) }
func (f int64Field) addToContext(c zerolog.Context) zerolog.Context {
	return c.Int64(f.key, f.value)
}

type float64Field struct {
	key   string
	value float64
}

func (f float64Field) AddTo(e *zerolog.Event) { e.Float64(f.key, f.value) }
func (f float64Field) addToContext(c zerolog.Context) zerolog.Context {
	return c.Float64(f.key, f.value)
}

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event) { e.Bool(f.key, f.value) }
func (f boolField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Bool(f.key, f.value)
}

type errorField struct {
	value error
}

func (f errorField) AddTo(e *zerolog.Event) { e.Err(f.value) }
func (f errorField) addToContext(c zerolog.Context) zerolog.Context {
	return c.AnErr(zerolog.ErrorFieldName, f.value)
}

type durationField struct {
	key   string
	value time.Duration
}

func (f durationField) AddTo(e *zerolog.Event) { e.Dur(f.key, f.value) }
func (f durationField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Dur(f.key, f.value)
}

// --- Field constructors ---

func String(key, value string) Field {
	return stringField{key: key, value: value}
}

func Int(key string, value int) Field {
	return int64Field{key: key, value: int64(value)}
}

func Int64(key string, value int64) Field {
	return int64Field{key: key, value: value}
}

func Float64(key string, value float64) Field {
	return float64Field{key: key, value: value}
}

func Bool(key string, value bool) Field {
	return boolField{key: key, value: value}
}

func Error(err error) Field {
	return errorField{value: err}
}

func Duration(key string, value time.Duration) Field {
	return durationField{key: key, value: value}
}
