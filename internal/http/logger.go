package http

import (
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// leveledLogger adapts minthcm.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger minthcm.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsFromPairs(keysAndValues))
}

// Debug is dropped; the transport logs each attempt itself.
func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFromPairs(keysAndValues))
}

func fieldsFromPairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		value := keysAndValues[i+1]
		if req, ok := value.(*http.Request); ok {
			value = req.Method + " " + req.URL.Redacted()
		}

		fields[key] = value
	}

	return fields
}
