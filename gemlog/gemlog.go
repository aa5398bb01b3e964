// Package gemlog is the structured, per-module logging idiom used across
// this repository: every package declares
//
//	var logger = gemlog.NewModuleLogger(gemlog.ModuleParser)
//
// at file scope, the same call-site convention as the teacher's
// log.NewModuleLogger(log.<Module>), and logs key/value pairs rather than
// formatted strings.
package gemlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Module is a closed enumeration of the subsystems that log. New
// subsystems register a constant here rather than calling NewModuleLogger
// with an arbitrary string.
type Module string

const (
	ModuleParser      Module = "parser"
	ModuleQueue       Module = "queue"
	ModuleCacher      Module = "cacher"
	ModuleConsumer    Module = "consumer"
	ModulePusher      Module = "pusher"
	ModulePriceServer Module = "priceserver"
	ModuleDynode      Module = "dynode"
	ModuleAPI         Module = "api"
	ModuleStorage     Module = "storage"
	ModuleConfig      Module = "config"
	ModuleMetrics     Module = "metrics"
	ModuleCmd         Module = "cmd"
)

// Level is the closed set of severities, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBU"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "EROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "????"
	}
}

var (
	mu        sync.Mutex
	out       = colorable.NewColorableStdout()
	threshold = LevelDebug
)

// SetThreshold sets the minimum level that reaches the writer. The default
// threshold is LevelDebug.
func SetThreshold(l Level) {
	mu.Lock()
	defer mu.Unlock()
	threshold = l
}

// Logger logs key/value pairs tagged with a fixed module name, mirroring
// the teacher's per-package `logger` variable.
type Logger struct {
	module Module
}

// NewModuleLogger returns a Logger bound to module, matching the
// log.NewModuleLogger(log.<Module>) call-site idiom.
func NewModuleLogger(module Module) Logger {
	return Logger{module: module}
}

func (l Logger) log(level Level, msg string, ctx ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < threshold {
		return
	}
	call := stack.Caller(2)
	fmt.Fprintf(out, "%s[%s|%s] %-40s %s %s\n",
		time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		level, l.module, msg, fmt.Sprintf("%+n", call), formatCtx(ctx))
}

func formatCtx(ctx []interface{}) string {
	s := ""
	for i := 0; i+1 < len(ctx); i += 2 {
		s += fmt.Sprintf("%v=%v ", ctx[i], ctx[i+1])
	}
	return s
}

// Debug logs at LevelDebug.
func (l Logger) Debug(msg string, ctx ...interface{}) { l.log(LevelDebug, msg, ctx...) }

// Info logs at LevelInfo.
func (l Logger) Info(msg string, ctx ...interface{}) { l.log(LevelInfo, msg, ctx...) }

// Warn logs at LevelWarn.
func (l Logger) Warn(msg string, ctx ...interface{}) { l.log(LevelWarn, msg, ctx...) }

// Error logs at LevelError.
func (l Logger) Error(msg string, ctx ...interface{}) { l.log(LevelError, msg, ctx...) }

// Crit logs at LevelCrit and terminates the process, mirroring the
// teacher's log.Crit behavior for unrecoverable startup failures (spec §6
// exit codes: non-zero on fatal init failure).
func (l Logger) Crit(msg string, ctx ...interface{}) {
	l.log(LevelCrit, msg, ctx...)
	os.Exit(1)
}
