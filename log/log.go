// Package log builds the process logger: a console core tee'd into
// day-rotated files under a log directory.
package log

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects where and how much to log.
type Config struct {
	Dir   string
	Name  string
	Level string

	// Console defaults to os.Stdout.
	Console io.Writer
	// Now defaults to time.Now; it picks the rotation slot on every write.
	Now func() time.Time
}

// Logger is a zap logger that owns its log files.
type Logger struct {
	*zap.Logger
	files []*slotFile
}

// Close flushes buffered entries and closes the log files.
func (l *Logger) Close() error {
	_ = l.Sync()
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// Suffix maps a day of the month onto one of three rotation slots.
func Suffix(day int) int {
	switch {
	case day <= 9:
		return 0
	case day <= 19:
		return 1
	default:
		return 2
	}
}

// Path returns the file for name at t and its slot.
func Path(dir, name string, t time.Time) (string, int) {
	suffix := Suffix(t.Day())
	return filepath.Join(dir, fmt.Sprintf("%s-%d.log", name, suffix)), suffix
}

// rotate removes the slot written before the current one wrapped around.
func rotate(dir, name string, suffix int) error {
	stale := filepath.Join(dir, fmt.Sprintf("%s-%d.log", name, (suffix+1)%3))
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// slotFile writes to the file of the current rotation slot. It checks the
// slot on every write and moves to the next file when the day crosses a
// slot boundary.
type slotFile struct {
	dir  string
	name string
	now  func() time.Time

	mu   sync.Mutex
	path string
	f    *os.File
}

func openSlot(dir, name string, now func() time.Time) (*slotFile, error) {
	s := &slotFile{dir: dir, name: name, now: now}
	if err := s.switchTo(now()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *slotFile) switchTo(t time.Time) error {
	path, suffix := Path(s.dir, s.name, t)
	if s.f != nil && path == s.path {
		return nil
	}
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	if err := rotate(s.dir, s.name, suffix); err != nil {
		return fmt.Errorf("failed to rotate %s: %w", s.name, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	s.path, s.f = path, f
	return nil
}

func (s *slotFile) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.switchTo(s.now()); err != nil {
		return 0, err
	}
	return s.f.Write(p)
}

func (s *slotFile) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

func (s *slotFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// New builds the logger. Every entry at or above the level goes to the
// console and to <dir>/<name>-<slot>.log; errors are also collected in
// <dir>/errors-<slot>.log.
func New(cfg Config) (*Logger, error) {
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Name == "" {
		cfg.Name = "stdlog"
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	out, err := openSlot(cfg.Dir, cfg.Name, cfg.Now)
	if err != nil {
		return nil, err
	}
	errFile, err := openSlot(cfg.Dir, "errors", cfg.Now)
	if err != nil {
		out.Close()
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(cfg.Console), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), out, level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), errFile, zapcore.ErrorLevel),
	)

	return &Logger{
		Logger: zap.New(core),
		files:  []*slotFile{out, errFile},
	}, nil
}
