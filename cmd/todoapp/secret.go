package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todoapp/todoapp-go/internal/crypto"
)

var genSecretBytes int

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "Generate a random JWT signing secret",
	// Needs no config, and must work while JWT_SECRET is still unset in production.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		secret, err := crypto.RandomSecret(genSecretBytes)
		if err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, secret)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Add it to your environment or .env file:")
		fmt.Fprintf(out, "JWT_SECRET=%s\n", secret)
		return nil
	},
}

func init() {
	genSecretCmd.Flags().IntVar(&genSecretBytes, "bytes", 32, "Number of random bytes")
	rootCmd.AddCommand(genSecretCmd)
}
