package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quire/internal/catalog"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "tree <workno>",
		Short: "List the assets of a purchased work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workno, err := catalog.FindProductID(args[0])
			if err != nil {
				return err
			}

			tree, _, err := ctx.resolveTree(cmd.Context(), workno, refresh)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, tree.Len())
			for _, path := range tree.Paths() {
				asset, _ := tree.Lookup(path)
				scrambled := false
				for _, key := range asset.VariantKeys() {
					if v, err := asset.Variant(key); err == nil && v.Scrambled {
						scrambled = true
					}
				}
				rows = append(rows, []string{
					path,
					string(asset.Class),
					strings.Join(asset.VariantKeys(), ", "),
					formatBytes(asset.Length),
					yesNo(scrambled),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  revision %s  %d assets\n", tree.Workno, tree.Revision, tree.Len())
			fmt.Fprintln(out, renderTable(
				[]string{"PATH", "CLASS", "VARIANTS", "SIZE", "SCRAMBLED"},
				rows, 4))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the manifest cache and fetch a fresh ziptree")
	return cmd
}
