package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/replit/scaninit/internal/util"
)

// LogFileName is the file, inside the runner's temporary directory,
// that receives the tracer's diagnostics.
const LogFileName = "scaninit.dd.log"

// DatadogLogger keeps the tracer's diagnostics out of the step output.
// Each line is timestamped and also emitted at debug level.
type DatadogLogger struct {
	mu  sync.Mutex
	out io.WriteCloser
	now func() time.Time
}

// NewDatadogLogger opens LogFileName under dir, falling back to the
// system temporary directory when dir is empty.
func NewDatadogLogger(dir string) (*DatadogLogger, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(filepath.Join(dir, LogFileName))
	if err != nil {
		return nil, err
	}
	return newDatadogLogger(file), nil
}

func newDatadogLogger(out io.WriteCloser) *DatadogLogger {
	return &DatadogLogger{out: out, now: time.Now}
}

func (l *DatadogLogger) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", l.now().UTC().Format(time.RFC3339), msg)
	util.Logger.Debug("tracer: " + msg)
}

func (l *DatadogLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
