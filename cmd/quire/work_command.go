package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"quire/internal/catalog"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work <product-id>",
		Short: "Show public catalog information for a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := catalog.FindProductID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Locale, http.DefaultClient, logger)
			work, err := client.ProductInfo(cmd.Context(), productID)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Product", work.ProductID},
				{"Name", work.Name},
				{"Maker", work.MakerID},
				{"Work type", string(work.WorkType)},
				{"Age rating", work.AgeCategory.String()},
			}
			if work.Circle != "" {
				rows = append(rows, []string{"Circle", work.Circle})
			}
			if work.Brand != "" {
				rows = append(rows, []string{"Brand", work.Brand})
			}
			if work.Publisher != "" {
				rows = append(rows, []string{"Publisher", work.Publisher})
			}
			if work.Series != "" {
				rows = append(rows, []string{"Series", work.Series})
			}
			if work.BookType != "" {
				rows = append(rows, []string{"Book type", work.BookType})
			}
			if work.PageCount > 0 {
				rows = append(rows, []string{"Pages", fmt.Sprintf("%d", work.PageCount)})
			}
			if !work.ReleaseDate().IsZero() {
				rows = append(rows, []string{"Released", work.ReleaseDate().Format(time.DateOnly)})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FIELD", "VALUE"}, rows))
			return nil
		},
	}
	return cmd
}
