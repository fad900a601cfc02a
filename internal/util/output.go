package util

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/replit/scaninit/internal/config"
)

// Logger is the leveled logger used outside of command echoing. Its
// level is raised to debug by SetupLogger when config.Debug is set.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "scaninit",
})

// SetupLogger applies config.Debug and config.Quiet to Logger. It
// must be called after the command line has been parsed.
func SetupLogger() {
	switch {
	case config.Debug:
		Logger.SetLevel(log.DebugLevel)
	case config.Quiet:
		Logger.SetLevel(log.WarnLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

var (
	exit      = os.Exit
	exitMu    sync.Mutex
	exitHooks []func()
)

// OnExit registers f to run, most recent first, before Die or
// DieWithCode terminate the process.
func OnExit(f func()) {
	exitMu.Lock()
	defer exitMu.Unlock()
	exitHooks = append(exitHooks, f)
}

func runExitHooks() {
	exitMu.Lock()
	hooks := exitHooks
	exitHooks = nil
	exitMu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// Die is like fmt.Printf, but writes to stderr, adds a newline, and
// terminates the process.
func Die(format string, a ...interface{}) {
	DieWithCode(1, format, a...)
}

// DieWithCode is Die with a specific exit status.
func DieWithCode(code int, format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	runExitHooks()
	exit(code)
}

// Panicf is a composition of fmt.Sprintf and panic.
func Panicf(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}
