// Copyright 2024 The Trackplanner Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is H1: it wires zap, through livekit/protocol/logger's
// zapr adapter, as the structured logger every component in this
// module takes by constructor injection. Grounded on the teacher's
// pkg/logger (serverlogger), trimmed of the pion/webrtc-specific
// factory wiring this module has no use for.
package logger

import (
	"github.com/go-logr/zapr"
	"github.com/livekit/protocol/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitProduction configures the global logger with zap's production
// defaults (JSON, info level unless overridden).
func InitProduction(logLevel string) {
	initLogger(zap.NewProductionConfig(), logLevel)
}

// InitDevelopment configures the global logger with zap's development
// defaults (console-friendly, debug level unless overridden).
func InitDevelopment(logLevel string) {
	initLogger(zap.NewDevelopmentConfig(), logLevel)
}

// valid levels: debug, info, warn, error, fatal, panic
func initLogger(config zap.Config, level string) {
	if level != "" {
		lvl := zapcore.Level(0)
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	l, _ := config.Build()
	logger.SetLogger(logger.LogRLogger(zapr.NewLogger(l)), "trackplanner")
}

// GetLogger returns the process-wide logger.Logger, for components
// that don't receive one via constructor injection (mainly cmd/
// wiring).
func GetLogger() logger.Logger {
	return logger.GetLogger()
}
