// Package monitoring holds the process-wide diagnostic logger. Packages log
// through Logf so binaries and tests can redirect or mute output without
// threading a logger through every constructor.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, which is how tests silence the monitor loop.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger function that prepends a fixed subsystem tag,
// writing through whatever Logf is at call time.
func Prefixed(tag string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(tag+": "+format, v...)
	}
}
