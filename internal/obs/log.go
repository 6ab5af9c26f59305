// Package obs carries the service's observability plumbing: the shared
// JSON-line logger that request logging and audit events write to, and the
// Prometheus metrics for the HTTP surface.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide logger. Everything the API emits, request
// lines and audit events alike, goes through it as one JSON object per line,
// so tests can redirect the whole stream with SetOutput.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest serializes one log entry as a JSON line. Entries that fail to
// marshal (a non-serializable field value) are replaced with a fixed error
// line rather than dropped.
func LogRequest(fields map[string]any) {
	line, err := json.Marshal(fields)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"unserializable log entry"}`)
		return
	}
	Logger().Println(string(line))
}
