package optimizer

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/slotpack/cost"
)

const (
	// DefaultExactThreshold is the largest unit count solved exactly.
	DefaultExactThreshold = 8
	// MaxExactThreshold caps the DP table at 2^16 unit subsets.
	MaxExactThreshold = 16
	// DefaultMaxNodes bounds the exact enumeration.
	DefaultMaxNodes = 2_000_000
)

// Options configure a search.
type Options struct {
	// Model scores candidates. nil uses cost.DefaultParams.
	Model *cost.Model
	// Logger overrides the package logger.
	Logger *zap.Logger
	// ExactThreshold is the largest number of free units searched exactly.
	// 0 means DefaultExactThreshold, negative disables exact search.
	ExactThreshold int
	// MaxNodes bounds exact search nodes. 0 means DefaultMaxNodes.
	MaxNodes int64
	// Workers is the number of goroutines for the exact search.
	// 0 means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the options used when a zero Options is passed.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Model == nil {
		o.Model = cost.NewModel(cost.DefaultParams())
	}
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.ExactThreshold == 0 {
		o.ExactThreshold = DefaultExactThreshold
	}
	if o.ExactThreshold > MaxExactThreshold {
		o.ExactThreshold = MaxExactThreshold
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}
