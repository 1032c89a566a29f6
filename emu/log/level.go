package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors logrus levels, lower is more severe.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled bool

func init() {
	// Filtering is done per module, let everything through logrus.
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable turns off all logging, warnings and errors included.
func Disable() {
	disabled = true
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// A Context adds fields to every log entry.
type Context interface {
	AddLogContext(entry *EntryZ)
}

var contexts []Context

// AddContext registers c so that its fields are attached to all entries.
func AddContext(c Context) {
	contexts = append(contexts, c)
}

// RemoveContext unregisters c.
func RemoveContext(c Context) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}
