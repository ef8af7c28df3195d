package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hnrobert/debspawn/internal/console"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const logFileName = "debspawn.log"

var (
	logMu    sync.Mutex
	fileSink *lumberjack.Logger
	minLevel = LevelInfo
	term     *termenv.Output
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func SetLevel(lvl Level) {
	logMu.Lock()
	defer logMu.Unlock()
	minLevel = lvl
}

// SetOutput redirects console output. Colour is used only when colored is true.
func SetOutput(w io.Writer, colored bool) {
	logMu.Lock()
	defer logMu.Unlock()
	term = newTerm(w, colored)
}

func newTerm(w io.Writer, colored bool) *termenv.Output {
	profile := termenv.Ascii
	if colored {
		profile = termenv.ANSI
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile))
}

// Init enables file logging with size-based rotation.
func Init(logDir string, maxSizeMB, maxBackups int) error {
	if logDir == "" {
		return nil
	}
	// If caller passes /var/lib/debspawn, write logs to /var/lib/debspawn/logs.
	// If caller already passes .../logs, keep it as-is.
	resolved := logDir
	if path.Base(filepath.ToSlash(logDir)) != "logs" {
		resolved = filepath.Join(logDir, "logs")
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	if fileSink != nil {
		_ = fileSink.Close()
	}
	sink := &lumberjack.Logger{
		Filename:   filepath.Join(resolved, logFileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	// lumberjack opens lazily on the first write. Open now, while the
	// process still has the credentials it was started with.
	if _, err := sink.Write(nil); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	fileSink = sink
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
}

func Debug(format string, args ...interface{}) {
	log(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	log(LevelError, format, args...)
}

func log(lvl Level, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if lvl < minLevel {
		return
	}

	now := time.Now().Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	var label string
	var color termenv.ANSIColor
	switch lvl {
	case LevelDebug:
		color = termenv.ANSIBlue
		label = "[DBUG] "
	case LevelInfo:
		color = termenv.ANSIGreen
		label = "[INFO] "
	case LevelWarn:
		color = termenv.ANSIYellow
		label = "[WARN] "
	case LevelError:
		color = termenv.ANSIRed
		label = "[EROR] " // 4 chars align
	}

	// File output (no color)
	if fileSink != nil {
		_, _ = fmt.Fprintf(fileSink, "%s %s%s\n", now, label, msg)
	}

	if term == nil {
		term = newTerm(os.Stdout, console.ColoredOutputAllowed())
	}
	fmt.Fprintf(term, "%s %s%s\n", now, term.String(label).Foreground(color), msg)
}
