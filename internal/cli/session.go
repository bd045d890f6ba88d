package cli

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the session's room state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Get(cmd.Context(), "/api/v1/session", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new room and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Post(cmd.Context(), "/api/v1/rooms", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join an existing room by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := strings.TrimSpace(args[0])
			if roomID == "" {
				return errors.New("room id must not be empty")
			}
			var result Session

			if err := client.Post(cmd.Context(), "/api/v1/rooms/"+url.PathEscape(roomID)+"/join", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "move <rock|paper|scissors>",
		Short:     "Submit this session's move for the active room",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"rock", "paper", "scissors"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"move": args[0]}
			var result Session

			if err := client.Post(cmd.Context(), "/api/v1/moves", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Leave the current room so a new one can be played",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Post(cmd.Context(), "/api/v1/session/reset", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
