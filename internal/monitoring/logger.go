// Package monitoring carries the process-wide diagnostic logger used by
// the extraction and storage packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf and may be replaced with SetLogger; tests mute it, the CLI
// leaves it alone.
var Logf func(format string, v ...any) = log.Printf

// verbose gates Debugf.
var verbose bool

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetVerbose switches Debugf output on or off.
func SetVerbose(on bool) { verbose = on }

// Debugf logs through Logf only when verbose output is enabled.
func Debugf(format string, v ...any) {
	if verbose {
		Logf(format, v...)
	}
}
