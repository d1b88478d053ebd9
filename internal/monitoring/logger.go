// Package monitoring routes the analysis pipeline's diagnostic output.
package monitoring

import "log"

// Logf is the process-wide diagnostic logger used by every pipeline stage.
// It defaults to log.Printf; tests swap it out with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. A nil logger mutes output entirely.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Stagef logs a message tagged with the pipeline stage that produced it,
// e.g. "[loader] read 50000 events".
func Stagef(stage, format string, v ...interface{}) {
	Logf("["+stage+"] "+format, v...)
}
