package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/willow/pkg/canonical"
)

func newHashCmd() *cobra.Command {
	var first, last, birth, death string

	cmd := &cobra.Command{
		Use:     "hash",
		Short:   "Print the canonical identity hash of a person",
		Example: `  willow hash --first John --last Smith --birth 1945-03-15 --death 2020-08-22`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), canonical.BuildHash(first, last, birth, death))
			return nil
		},
	}

	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	cmd.Flags().StringVar(&birth, "birth", "", "birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&death, "death", "", "death date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")

	return cmd
}
