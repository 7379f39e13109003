// Command bserve runs the demo application.
package main

import (
	"fmt"
	"os"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/bsapp"
	"github.com/advdv/bserve/internal/example"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bserve",
		Short:         "bserve is a minimal HTTP/1.x demo server",
		Long:          "bserve serves the demo routes, one request per connection. It is configured through BS_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newRoutesCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server and block until it receives a signal",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			newApp().Run()
		},
	}
}

func newApp() *bsapp.App {
	return bsapp.NewApp[example.Env](example.Routing,
		bsapp.WithFx(
			fx.Provide(example.NewHandlers),
			fx.Provide(func(logs *zap.Logger) []bserve.Layer {
				return []bserve.Layer{example.Layer(logs.Named("example"))}
			}),
		),
	)
}
