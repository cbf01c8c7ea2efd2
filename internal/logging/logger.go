// Package logging provides config-driven categorized file logging for the
// EnergyGrid console. Logs are written to <config dir>/logs/ with one file
// per category per day. Nothing is written unless debug mode is enabled in
// config.yaml or forced with --verbose.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category names a log stream. Each enabled category gets its own file.
type Category string

const (
	CategoryBoot      Category = "boot"      // startup, config resolution
	CategoryAPI       Category = "api"       // HTTP calls, retries, status codes
	CategoryAuth      Category = "auth"      // session load, refresh, expiry
	CategoryTransform Category = "transform" // key dialect conversion
	CategoryCache     Category = "cache"     // response cache hits and evictions
	CategoryUI        Category = "ui"        // TUI page transitions, renders
	CategoryJobs      Category = "jobs"      // background job polling
	CategoryConfig    Category = "config"    // config loads and watches
)

// loggingConfig mirrors the logging section of config.yaml. Declared here
// rather than imported from internal/config to avoid a cycle.
type loggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// jsonEntry is one log line in json_format mode. Short keys keep the files
// compact.
type jsonEntry struct {
	Timestamp int64  `json:"ts"` // unix milliseconds
	Category  string `json:"cat"`
	Level     string `json:"lvl"`
	Message   string `json:"msg"`
}

type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Logger writes to one category's file. A Logger with a nil inner logger is
// a no-op, which is the production default.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	cfg       loggingConfig
	cfgMu     sync.RWMutex
	logLevel  int
)

const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize points the logging system at the config directory (normally
// ~/.energygrid). Call once at startup, before any Get.
func Initialize(configDir string) error {
	if configDir == "" {
		return fmt.Errorf("config directory required")
	}
	logsDir = filepath.Join(configDir, "logs")

	if err := loadConfig(filepath.Join(configDir, "config.yaml")); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not load config: %v\n", err)
		cfg.Debug = false
	}
	if !cfg.Debug {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("logging initialized, dir=%s level=%s", logsDir, cfg.Level)
	return nil
}

func loadConfig(path string) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = loggingConfig{}
			return nil
		}
		return err
	}
	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// EnableDebug force-enables debug logging regardless of config, used by the
// --verbose flag. Safe to call before or after Initialize.
func EnableDebug() {
	cfgMu.Lock()
	cfg.Debug = true
	logLevel = LevelDebug
	cfgMu.Unlock()

	if logsDir != "" {
		_ = os.MkdirAll(logsDir, 0755)
	}
}

// IsDebugMode reports whether any logging will happen at all.
func IsDebugMode() bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.Debug
}

// IsJSONFormat reports whether log lines are written as JSON.
func IsJSONFormat() bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.JSONFormat
}

// IsCategoryEnabled reports whether a category writes to disk. Categories
// are opt-out: absent from config means enabled when debug mode is on.
func IsCategoryEnabled(category Category) bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()

	if !cfg.Debug {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, ok := cfg.Categories[string(category)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns the logger for a category, creating its file on first use.
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// logJSON writes one structured line, falling back to text when the entry
// cannot be marshaled.
func (l *Logger) logJSON(level, msg string) {
	entry := jsonEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("%s", data)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	if cfg.JSONFormat {
		l.logJSON("debug", fmt.Sprintf(format, args...))
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	if cfg.JSONFormat {
		l.logJSON("info", fmt.Sprintf(format, args...))
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	if cfg.JSONFormat {
		l.logJSON("warn", fmt.Sprintf(format, args...))
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	if cfg.JSONFormat {
		l.logJSON("error", fmt.Sprintf(format, args...))
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CloseAll closes every open log file. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions, no-ops when the category is disabled.

func Boot(format string, args ...any) { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...any) { Get(CategoryBoot).Debug(format, args...) }
func BootError(format string, args ...any) { Get(CategoryBoot).Error(format, args...) }

func API(format string, args ...any) { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...any) { Get(CategoryAPI).Debug(format, args...) }
func APIWarn(format string, args ...any) { Get(CategoryAPI).Warn(format, args...) }

func Auth(format string, args ...any) { Get(CategoryAuth).Info(format, args...) }
func AuthDebug(format string, args ...any) { Get(CategoryAuth).Debug(format, args...) }
func AuthError(format string, args ...any) { Get(CategoryAuth).Error(format, args...) }

func Transform(format string, args ...any) { Get(CategoryTransform).Debug(format, args...) }
func TransformWarn(format string, args ...any) { Get(CategoryTransform).Warn(format, args...) }

func Cache(format string, args ...any) { Get(CategoryCache).Info(format, args...) }
func CacheDebug(format string, args ...any) { Get(CategoryCache).Debug(format, args...) }
func CacheError(format string, args ...any) { Get(CategoryCache).Error(format, args...) }

func UI(format string, args ...any) { Get(CategoryUI).Info(format, args...) }
func UIDebug(format string, args ...any) { Get(CategoryUI).Debug(format, args...) }

func Jobs(format string, args ...any) { Get(CategoryJobs).Info(format, args...) }
func JobsDebug(format string, args ...any) { Get(CategoryJobs).Debug(format, args...) }

func Config(format string, args ...any) { Get(CategoryConfig).Info(format, args...) }
func ConfigWarn(format string, args ...any) { Get(CategoryConfig).Warn(format, args...) }

// RequestLogger scopes log lines to one API request ID so a call can be
// traced across the api and auth categories.
type RequestLogger struct {
	logger    *Logger
	requestID string
}

// WithRequestID creates a request-scoped logger.
func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{logger: Get(category), requestID: requestID}
}

func (r *RequestLogger) Debug(format string, args ...any) {
	r.logger.Debug("[req:%s] %s", r.requestID, fmt.Sprintf(format, args...))
}

func (r *RequestLogger) Info(format string, args ...any) {
	r.logger.Info("[req:%s] %s", r.requestID, fmt.Sprintf(format, args...))
}

func (r *RequestLogger) Error(format string, args ...any) {
	r.logger.Error("[req:%s] %s", r.requestID, fmt.Sprintf(format, args...))
}

// Timer measures one operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning when the operation ran longer than the
// threshold, debug otherwise.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
