// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var discard = slog.New(slog.DiscardHandler)

// loggerPtr holds the accelerator logger, already tagged with the
// accelerator name.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(discard)
}

// slogger returns the logger used by every record in this package.
func slogger() *slog.Logger { return loggerPtr.Load() }

// setLogger is reached through glass.SetLogger. nil silences the package.
func setLogger(l *slog.Logger) {
	if l == nil {
		loggerPtr.Store(discard)
		return
	}
	loggerPtr.Store(l.With("accelerator", acceleratorName))
}
