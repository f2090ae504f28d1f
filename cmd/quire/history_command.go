package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quire/internal/catalog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [workno]",
		Short: "Show download history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := cmd.Context()
			store, err := ctx.ledgerStore(cmdCtx)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("download history is disabled in the configuration")
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				counts, err := store.Worknos(cmdCtx)
				if err != nil {
					return err
				}
				worknos := make([]string, 0, len(counts))
				for workno := range counts {
					worknos = append(worknos, workno)
				}
				sort.Strings(worknos)

				rows := make([][]string, 0, len(worknos))
				for _, workno := range worknos {
					rows = append(rows, []string{workno, strconv.Itoa(counts[workno])})
				}
				fmt.Fprintln(out, renderTable([]string{"WORKNO", "FILES"}, rows, 2))
				return nil
			}

			workno, err := catalog.FindProductID(args[0])
			if err != nil {
				return err
			}
			records, err := store.Downloads(cmdCtx, workno)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.Path,
					rec.Variant,
					formatBytes(rec.Bytes),
					yesNo(rec.Descrambled),
					rec.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"PATH", "VARIANT", "SIZE", "DESCRAMBLED", "DOWNLOADED"},
				rows, 3))
			return nil
		},
	}
	return cmd
}
