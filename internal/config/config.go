// Package config contains global variables that are set according to
// the command line. They can be accessed from anywhere within
// scaninit.
package config

// Quiet is true if --quiet was passed on the command line.
var Quiet bool

// Debug is true if --debug was passed on the command line, or the
// settings file enables debug mode.
var Debug bool
