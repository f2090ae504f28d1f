package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quire/internal/catalog"
	"quire/internal/ebook"
)

func newPagesCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "pages <workno> <page-path>",
		Short: "List the reading-order pages of the publication containing a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workno, err := catalog.FindProductID(args[0])
			if err != nil {
				return err
			}
			tree, _, err := ctx.resolveTree(cmd.Context(), workno, refresh)
			if err != nil {
				return err
			}

			seq, err := ebook.NewSequencer(tree, args[1])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, seq.PageCount())
			for i := 0; i < seq.PageCount(); i++ {
				page, err := seq.Page(i)
				if err != nil {
					path, _ := seq.Path(i)
					rows = append(rows, []string{strconv.Itoa(i), path, "-", fmt.Sprintf("unresolvable: %v", err)})
					continue
				}
				geometry := "-"
				if page.Scrambled {
					geometry = fmt.Sprintf("%dx%d", page.Geometry.Width, page.Geometry.Height)
				}
				rows = append(rows, []string{strconv.Itoa(i), page.Path, geometry, yesNo(page.Scrambled)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d pages\n", workno, seq.PageCount())
			fmt.Fprintln(out, renderTable([]string{"#", "PATH", "GEOMETRY", "SCRAMBLED"}, rows, 1))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the manifest cache and fetch a fresh ziptree")
	return cmd
}
