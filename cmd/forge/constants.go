package main

// DefaultSession is the session used when none is given. Single-user
// installations live entirely in it.
const DefaultSession = "local"

// Default limits for CLI commands.
const (
	DefaultListLimit    = 20
	DefaultHistoryLimit = 50
)

// Valid bulk registration formats.
var validFormats = []string{"json", "csv", "auto"}
