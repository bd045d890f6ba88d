package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/factory"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/outcome"
	"github.com/mcoot/rpsroom/internal/transport/memory"
)

func newDemoCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "demo [creator-move] [joiner-move]",
		Short: "Play one room between two in-process sessions",
		Long: `Run two sessions over an in-process broker: the first creates a room, the
second joins it, both submit a move and the outcome each side sees is printed.
Moves not given on the command line are picked at random.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moves, err := demoMoves(args, random.New())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := runDemo(ctx, moves[0], moves[1])
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up if the room has not resolved by then")

	return cmd
}

// demoMoves parses the given moves and fills the rest at random
func demoMoves(args []string, rnd random.Random) ([2]model.Move, error) {
	var moves [2]model.Move
	for i := range moves {
		if i < len(args) {
			m, err := model.ParseMove(args[i])
			if err != nil {
				return moves, fmt.Errorf("%q: %w", args[i], err)
			}
			moves[i] = m
			continue
		}
		moves[i] = model.AllMoves[rnd.Intn(len(model.AllMoves))]
	}
	return moves, nil
}

func runDemo(ctx context.Context, creatorMove, joinerMove model.Move) (DemoResult, error) {
	logger := cfg.Logger()
	broker := memory.NewBroker(logger)
	defer broker.Close()

	creator, err := startDemoApp(ctx, broker)
	if err != nil {
		return DemoResult{}, err
	}
	defer func() { _ = creator.Close() }()

	joiner, err := startDemoApp(ctx, broker)
	if err != nil {
		return DemoResult{}, err
	}
	defer func() { _ = joiner.Close() }()

	roomID, err := creator.Coordinator.CreateRoom(ctx)
	if err != nil {
		return DemoResult{}, fmt.Errorf("create room: %w", err)
	}
	if err := joiner.Coordinator.JoinRoom(ctx, string(roomID)); err != nil {
		return DemoResult{}, fmt.Errorf("join room: %w", err)
	}

	if err := creator.Coordinator.SubmitMove(ctx, creatorMove); err != nil {
		return DemoResult{}, fmt.Errorf("creator move: %w", err)
	}
	if err := joiner.Coordinator.SubmitMove(ctx, joinerMove); err != nil {
		return DemoResult{}, fmt.Errorf("joiner move: %w", err)
	}

	a, err := waitResolved(ctx, creator)
	if err != nil {
		return DemoResult{}, err
	}
	b, err := waitResolved(ctx, joiner)
	if err != nil {
		return DemoResult{}, err
	}

	return DemoResult{
		RoomID:  string(roomID),
		Creator: demoPlayer(a),
		Joiner:  demoPlayer(b),
	}, nil
}

func startDemoApp(ctx context.Context, broker *memory.Broker) (*factory.App, error) {
	app, err := factory.New(ctx, factory.Config{
		Logger:        cfg.Logger(),
		TransportType: factory.TransportTypeMemory,
		Broker:        broker,
	})
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// waitResolved polls until the app's room resolves or ctx ends
func waitResolved(ctx context.Context, app *factory.App) (model.Snapshot, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		snap := app.Coordinator.Snapshot()
		if snap.Phase == model.PhaseResolved {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, fmt.Errorf("room %s did not resolve for %s: %w", snap.RoomID, snap.Identity, ctx.Err())
		case <-ticker.C:
		}
	}
}

func demoPlayer(s model.Snapshot) DemoPlayer {
	return DemoPlayer{
		Identity:   string(s.Identity),
		Move:       string(s.Match.LocalMove),
		Result:     string(s.Match.Result),
		ResultText: outcome.Describe(s.Match.Result),
	}
}
