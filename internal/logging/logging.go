// internal/logging/logging.go
// Package logging routes the standard logger to stdout and an optional log
// file, and formats the request/response lines written around model calls.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
	debug   bool
)

// Init sends log output to stdout and, when logPath is set, appends it to
// that file as well. Calling Init again replaces the previous file.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close restores stderr output and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// SetDebug toggles LogDebug and request payload logging.
func SetDebug(enabled bool) {
	mu.Lock()
	debug = enabled
	mu.Unlock()
}

// DebugEnabled reports whether debug logging is on.
func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogDebug is LogEvent gated on SetDebug.
func LogDebug(format string, args ...any) {
	if !DebugEnabled() {
		return
	}
	log.Println("[DEBUG] " + fmt.Sprintf(format, args...))
}

// LogRequest writes one line describing traffic between palm and a model or
// embedding host. Payloads are only written in debug mode.
func LogRequest(direction, host, model, endpoint string, payload any) {
	if !DebugEnabled() {
		payload = nil
	}
	msg := buildRequestMessage(direction, host, model, endpoint, payload)
	log.Println(msg)
}

func buildRequestMessage(direction, host, model, endpoint string, payload any) string {
	dir := strings.TrimSpace(direction)
	if dir != "" {
		dir = strings.ToUpper(dir)
	}
	hostValue := strings.TrimSpace(host)
	if hostValue == "" {
		hostValue = "unknown"
	}
	modelValue := strings.TrimSpace(model)
	if modelValue == "" {
		modelValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("host=%s", hostValue))
	parts = append(parts, fmt.Sprintf("model=%s", modelValue))
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", endpoint))
	}
	if payload != nil {
		parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	}
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
