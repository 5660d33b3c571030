package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	app := &App{out: out}
	root := &cobra.Command{
		Use:          "gersa",
		Short:        "Shareholder registry and land rent tooling for the Larzac GFA and SCTL",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}
	root.AddCommand(
		newMigrateCmd(app),
		newSeedCmd(app),
		newAnomaliesCmd(app),
		newTotauxCmd(app),
		newPartsCmd(app),
		newFermageCmd(app),
	)
	return root
}
