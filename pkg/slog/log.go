// Package slog is a minimal leveled logging subsystem with colored level
// tags, code location printing at debug levels, and error check shortcuts
// that collapse the common `if err != nil { log }` stanza.
package slog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gookit/color"
)

// The Level s
const (
	Off int32 = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

type LevelSpec struct {
	Name      string
	Colorizer func(a ...interface{}) string
}

// LevelSpecs is the printed tag and color for each Level.
var LevelSpecs = map[int32]LevelSpec{
	Off:   {"", func(a ...interface{}) string { return "" }},
	Fatal: {"FTL", color.Bold.Render},
	Error: {"ERR", color.Red.Render},
	Warn:  {"WRN", color.Yellow.Render},
	Info:  {"INF", color.Green.Render},
	Debug: {"DBG", color.Blue.Render},
	Trace: {"TRC", color.Magenta.Render},
}

var (
	logLevel atomic.Int32
	writerMx sync.Mutex
)

func init() {
	switch strings.ToUpper(os.Getenv("GODEBUG")) {
	case "1", "TRUE", "ON", "DEBUG":
		SetLogLevel(Debug)
	case "TRACE":
		SetLogLevel(Trace)
	case "WARN":
		SetLogLevel(Warn)
	case "ERROR":
		SetLogLevel(Error)
	case "0", "OFF", "FALSE":
		SetLogLevel(Off)
	default:
		SetLogLevel(Info)
	}
}

// SetLogLevel sets the process-wide maximum level that will be printed.
func SetLogLevel(l int32) { logLevel.Store(l) }

// GetLogLevel returns the current maximum printed level.
func GetLogLevel() int32 { return logLevel.Load() }

type (
	// Println prints lists of interfaces with spaces in between.
	Println func(a ...interface{})
	// Printf prints like fmt.Printf surrounded by log details.
	Printf func(format string, a ...interface{})
	// Prints prints a spew.Sdump of the given values.
	Prints func(a ...interface{})
	// Chk prints the error if there is one and returns true if it was
	// non-nil, so it can gate an early return.
	Chk func(e error) bool
	// Errorf formats an error, logs it at the printer's level and returns
	// it.
	Errorf func(format string, a ...interface{}) error
)

// LevelPrinter is the set of printers available at each Level.
type LevelPrinter struct {
	Ln  Println
	F   Printf
	S   Prints
	Chk Chk
	Err Errorf
}

// Log is a collection of LevelPrinter, one per Level.
type Log struct {
	F, E, W, I, D, T LevelPrinter
}

// Check is the set of error check shortcuts, one per Level.
type Check struct {
	F, E, W, I, D, T Chk
}

// New returns a Log and a Check writing to w.
//
//	var log, chk = slog.New(os.Stderr)
func New(w io.Writer) (*Log, *Check) {
	l := &Log{
		F: printer(w, Fatal),
		E: printer(w, Error),
		W: printer(w, Warn),
		I: printer(w, Info),
		D: printer(w, Debug),
		T: printer(w, Trace),
	}
	c := &Check{
		F: l.F.Chk,
		E: l.E.Chk,
		W: l.W.Chk,
		I: l.I.Chk,
		D: l.D.Chk,
		T: l.T.Chk,
	}
	return l, c
}

var std, stdChk = New(os.Stderr)

// GetStd returns the default stderr logger.
func GetStd() *Log { return std }

// GetStdChk returns the default stderr checker.
func GetStdChk() *Check { return stdChk }

func printer(w io.Writer, level int32) LevelPrinter {
	return LevelPrinter{
		Ln: func(a ...interface{}) {
			if logLevel.Load() < level {
				return
			}
			emit(w, level, fmt.Sprintln(a...))
		},
		F: func(format string, a ...interface{}) {
			if logLevel.Load() < level {
				return
			}
			emit(w, level, fmt.Sprintf(format, a...)+"\n")
		},
		S: func(a ...interface{}) {
			if logLevel.Load() < level {
				return
			}
			emit(w, level, spew.Sdump(a...))
		},
		Chk: func(e error) bool {
			if e == nil {
				return false
			}
			if logLevel.Load() >= level {
				emit(w, level, e.Error()+"\n")
			}
			return true
		},
		Err: func(format string, a ...interface{}) error {
			e := fmt.Errorf(format, a...)
			if logLevel.Load() >= level {
				emit(w, level, e.Error()+"\n")
			}
			return e
		},
	}
}

func emit(w io.Writer, level int32, msg string) {
	spec := LevelSpecs[level]
	loc := ""
	if logLevel.Load() >= Debug {
		loc = " " + caller()
	}
	writerMx.Lock()
	defer writerMx.Unlock()
	fmt.Fprintf(w, "%s %s%s %s",
		time.Now().Format(time.StampMilli), spec.Colorizer(spec.Name), loc, msg)
}

func caller() string {
	// skip emit, the printer closure and the call site wrapper
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return ""
	}
	if i := strings.LastIndex(file, "/"); i >= 0 {
		if j := strings.LastIndex(file[:i], "/"); j >= 0 {
			file = file[j+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}
