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

// Logger returns the process-wide logger. Output is one JSON document per
// line on stdout; prefixes and flags stay off so callers control every field.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest serializes entry as a single JSON line. Handlers never call
// this directly; it backs the request-logging middleware.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		// Keep the stream parseable even when a field refuses to marshal.
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
