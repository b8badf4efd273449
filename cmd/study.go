package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/app"
	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/store"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start the interactive study session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd)
	},
}

func init() {
	studyCmd.Flags().String("out", "", "Directory for saved diagrams")
}

// runStudy opens the store, builds the pipeline, and launches the TUI.
func runStudy(cmd *cobra.Command) error {
	ctx := cmd.Context()
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	favs, err := favorites.Load(ctx, st.FavoriteRepo(), log.With("component", "favorites"))
	if err != nil {
		return err
	}

	opts := app.Options{
		Ctx:       ctx,
		Favorites: favs,
		OutputDir: outputDir(cmd),
		Log:       log,
	}

	gw, err := newGateway(ctx, st.EventRepo())
	if err != nil {
		// Favorites stay browsable without a provider.
		log.Warn("llm gateway unavailable", "error", err)
		opts.Offline = err.Error()
		gw = &llm.Gateway{}
	}
	opts.Machine = session.NewMachine(session.NewPipeline(gw, log).Deps(log.With("component", "session")))

	return app.Run(ctx, opts)
}

// newGateway validates the LLM configuration and builds every provider.
func newGateway(ctx context.Context, events store.EventRepo) (*llm.Gateway, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}
	return llm.NewGateway(ctx, cfg.LLM, events, log.With("component", "llm"))
}
