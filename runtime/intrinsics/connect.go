package intrinsics

import (
	"context"
	"strings"
)

// AnalyzeOptions controls how a connector derives a dictionary from a live
// source. Include and Exclude hold namespace-qualified stream names.
type AnalyzeOptions struct {
	Optimize bool
	Include  []string
	Exclude  []string
}

// Selected reports whether the stream passes the include and exclude
// lists, ignoring case. An empty include list selects everything.
func (o AnalyzeOptions) Selected(stream string) bool {
	for _, s := range o.Exclude {
		if strings.EqualFold(s, stream) {
			return false
		}
	}
	if len(o.Include) == 0 {
		return true
	}
	for _, s := range o.Include {
		if strings.EqualFold(s, stream) {
			return true
		}
	}
	return false
}

// Connection is what connector packages return from Open. Reads are
// package-level generic functions of the connector, since the record type
// varies per call.
type Connection interface {
	Write(ctx context.Context, stream string, record any) error
	Analyze(ctx context.Context, opts AnalyzeOptions) ([]byte, error)
	Close() error
}
