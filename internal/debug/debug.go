// Package debug is the opt-in trace log switched on by --debug. The store,
// the optimistic controller, the poller and the synthesizer all trace
// through Logf; while tracing is off every call returns after a read lock.
//
// Traces go to ~/.issueboard/debug.log. Every traced launch starts a new
// file, and lumberjack keeps the previous sessions beside it as
// timestamped backups.
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LogFileName is the trace file inside LogDirName.
	LogFileName = "debug.log"
	// LogDirName lives in the user's home directory.
	LogDirName = ".issueboard"

	rotateAtMB   = 5
	keepSessions = 3
)

// sink is one open trace file.
type sink struct {
	rotator *lumberjack.Logger
	out     *log.Logger
}

var (
	mu     sync.RWMutex
	active *sink

	logPath = homeLogPath
)

// openSink creates the directory for path and starts a fresh session file,
// pushing whatever was there into the backups.
func openSink(path string) (*sink, error) {
	//nolint:gosec // G301: lives next to the user config
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotateAtMB,
		MaxBackups: keepSessions,
	}
	if err := rotator.Rotate(); err != nil {
		return nil, fmt.Errorf("start session log %s: %w", path, err)
	}
	return &sink{
		rotator: rotator,
		out:     log.New(rotator, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}, nil
}

func (s *sink) close() {
	if s == nil {
		return
	}
	_ = s.rotator.Close()
}

// swap installs next as the active sink and closes the previous one.
func swap(next *sink) {
	mu.Lock()
	prev := active
	active = next
	mu.Unlock()
	prev.close()
}

// Init turns tracing on or off for this process. Turning it on starts a new
// session file; turning it off closes any file a previous Init opened.
func Init(enable bool) error {
	if !enable {
		swap(nil)
		return nil
	}

	path, err := logPath()
	if err != nil {
		return fmt.Errorf("determine log path: %w", err)
	}
	s, err := openSink(path)
	if err != nil {
		return err
	}
	s.out.Printf("=== issueboard session (pid %d) started %s ===", os.Getpid(), time.Now().Format(time.RFC3339))
	swap(s)
	return nil
}

// Close flushes and closes the session file. Later Log calls are dropped.
func Close() {
	swap(nil)
}

// Log traces v in the manner of fmt.Print.
func Log(v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if active != nil {
		active.out.Print(v...)
	}
}

// Logf traces in the manner of fmt.Printf.
func Logf(format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if active != nil {
		active.out.Printf(format, v...)
	}
}

// Enabled reports whether a session file is open.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return active != nil
}

func homeLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath returns where Init writes the trace.
func GetLogPath() (string, error) {
	return logPath()
}
