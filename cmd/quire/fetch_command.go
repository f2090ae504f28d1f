package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quire/internal/catalog"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <workno>...",
		Short: "Download one or more purchased works",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := cmd.Context()
			dl, _, store, err := ctx.downloader(cmdCtx)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			out := cmd.OutOrStdout()
			var firstErr error
			for _, arg := range args {
				workno, err := catalog.FindProductID(arg)
				if err != nil {
					return err
				}

				// Always a fresh manifest for downloads; a cached tree may
				// reference expired variant names.
				tree, token, err := ctx.resolveTree(cmdCtx, workno, true)
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", workno, err)
					}
					fmt.Fprintf(out, "%s: %v\n", workno, err)
					continue
				}

				result, err := dl.Work(cmdCtx, token, tree)
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", workno, err)
					}
					fmt.Fprintf(out, "%s: %v\n", workno, err)
					continue
				}

				fmt.Fprintf(out, "%s: %d written (%s), %d skipped, %d failed\n",
					workno, result.Written, formatBytes(result.Bytes), result.Skipped, len(result.Failures))
				for _, failure := range result.Failures {
					fmt.Fprintf(out, "  %s: %v\n", failure.Path, failure.Err)
				}
			}
			return firstErr
		},
	}
	return cmd
}
