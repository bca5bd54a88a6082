package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

// traceparent is a parsed W3C traceparent header.
type traceparent struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceparent, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceparent{}, false
	}
	return traceparent{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

// resource is the Cloud Trace name Cloud Logging uses to group entries.
func (t traceparent) resource(projectID string) string {
	return fmt.Sprintf("projects/%s/traces/%s", projectID, t.traceID)
}

func (t traceparent) fields(projectID string) []zap.Field {
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", t.resource(projectID)),
		zap.String("logging.googleapis.com/spanId", t.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", t.sampled),
	}
}
