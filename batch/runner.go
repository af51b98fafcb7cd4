package batch

import (
	"context"

	"github.com/bibassitoula/Impatient/tfidf"
)

// Runner abstracts the compute strategy for a flow: the in-process
// dataflow engine by default, replaceable for tests or alternative
// runtimes.
type Runner interface {
	Run(ctx context.Context, tokens []tfidf.TokenOccurrence, params tfidf.Params) (*tfidf.Result, error)
}

type pipelineRunner struct{}

func (pipelineRunner) Run(ctx context.Context, tokens []tfidf.TokenOccurrence, params tfidf.Params) (*tfidf.Result, error) {
	return tfidf.Run(ctx, tokens, params)
}

var defaultRunner Runner = pipelineRunner{}

// SetDefaultRunner overrides the process-wide compute strategy.
func SetDefaultRunner(r Runner) {
	if r == nil {
		return
	}
	defaultRunner = r
}

// DefaultRunner returns the current process-wide compute strategy.
func DefaultRunner() Runner {
	return defaultRunner
}

// RunCompute executes the dataflow through the configured runner.
func RunCompute(ctx context.Context, tokens []tfidf.TokenOccurrence, params tfidf.Params) (*tfidf.Result, error) {
	return DefaultRunner().Run(ctx, tokens, params)
}
