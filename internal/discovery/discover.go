package discovery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// ExecFunc runs the discovery subprocess and returns its decoded standard
// output. cancelled is true when ctx ended the process early.
type ExecFunc func(ctx context.Context) (output string, cancelled bool, err error)

// Options configures Discover.
type Options struct {
	// Replace drops every existing root once the new payload is known to be valid.
	Replace bool
	Logger  zerolog.Logger
}

// Result summarizes a discovery.
type Result struct {
	Root      *testtree.Node
	Stats     testtree.Stats
	Warnings  []string
	Cancelled bool
}

// Discover runs discovery and builds the resulting tree into reg. On any
// failure reg is left exactly as it was.
func Discover(ctx context.Context, exec ExecFunc, reg *testtree.Registry, opts Options) (*Result, error) {
	log := opts.Logger.With().Str("component", "discovery").Logger()

	output, cancelled, err := exec(ctx)
	if err != nil {
		return nil, err
	}
	if cancelled {
		log.Info().Msg("discovery cancelled")
		return &Result{Cancelled: true}, nil
	}

	payload, err := Decode([]byte(output))
	if err != nil {
		return nil, err
	}

	if opts.Replace {
		reg.Roots().Clear()
	}
	root := Build(payload.Root, reg)
	for _, e := range payload.Errors {
		log.Warn().Str("error", e).Msg("discovery reported an error")
	}

	stats := reg.Stats()
	log.Debug().
		Int("nodes", stats.Nodes).
		Int("leaves", stats.Leaves).
		Str("cwd", payload.Cwd).
		Msg("discovery complete")

	return &Result{Root: root, Stats: stats, Warnings: payload.Errors}, nil
}
