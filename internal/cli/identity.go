package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/identity"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show this machine's client identity, creating it if needed",
		Long: `Print the identity token used to tag outgoing messages.

The token is generated on first use and stored in the identity file, so every
session started from the same file shares it. No server is contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := identity.NewFileStore(cfg.IdentityFile)

			_, err := store.Load(cmd.Context())
			created := errors.Is(err, identity.ErrNotFound)

			provider := identity.NewProvider(store, random.New(), cfg.Logger())
			id := provider.GetOrCreate(cmd.Context())

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(IdentityResult{
				Identity: string(id),
				File:     store.Path(),
				Created:  created,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.IdentityFile, "file", cfg.IdentityFile, "Identity file path (env: RPS_IDENTITY_FILE)")

	return cmd
}
