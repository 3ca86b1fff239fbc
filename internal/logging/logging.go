// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// envLog is the environment variable that controls the log level for
// the whole process. Unset or unrecognized values disable logging.
const envLog = "SLOTGRAPH_LOG"

var (
	logger     hclog.Logger
	loggerOnce sync.Once
)

// validLevels are the log levels we accept from the environment.
var validLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "OFF"}

// HCLogger returns the process-wide root logger, creating it on first
// use from the SLOTGRAPH_LOG environment variable.
func HCLogger() hclog.Logger {
	loggerOnce.Do(func() {
		logOutput := io.Writer(os.Stderr)
		level := globalLogLevel()
		if level == hclog.Off {
			logOutput = io.Discard
		}
		logger = hclog.New(&hclog.LoggerOptions{
			Name:              "slotgraph",
			Level:             level,
			Output:            logOutput,
			IndependentLevels: true,
		})
	})
	return logger
}

// Subsystem returns a named sub-logger for one engine subsystem, e.g.
// "slots" or "graphio".
func Subsystem(name string) hclog.Logger {
	return HCLogger().Named(name)
}

func globalLogLevel() hclog.Level {
	envLevel := strings.ToUpper(os.Getenv(envLog))
	if envLevel == "" {
		return hclog.Off
	}
	if isValidLogLevel(envLevel) {
		return hclog.LevelFromString(envLevel)
	}
	return hclog.Trace
}

func isValidLogLevel(level string) bool {
	for _, l := range validLevels {
		if level == l {
			return true
		}
	}
	return false
}
