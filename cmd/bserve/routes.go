package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/internal/example"
	"github.com/spf13/cobra"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the demo routes in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// handlers are never called while listing
			return printRoutes(cmd.OutOrStdout(), example.Routing(example.NewHandlers(nil)))
		},
	}
}

func printRoutes(w io.Writer, rt bserve.Router) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATTERN\tNAME")

	for _, r := range rt.Routes() {
		method := string(r.Method)
		if method == "" {
			method = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", method, r.Pattern, r.Name)
	}

	return tw.Flush()
}
