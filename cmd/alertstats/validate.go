package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every listed city has a readable data file",
	Long: `Loads the data file of every city in the city list and reports its row
count. Exits non-zero when any city is missing or has malformed rows.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}

	cities, err := a.service.Cities(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, city := range cities {
		table, err := a.loader.Load(cmd.Context(), city)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", city, err)
			continue
		}
		fmt.Fprintf(w, "PASS  %s: %s rows\n", city, humanize.Comma(int64(table.Len())))
	}

	fmt.Fprintf(w, "\n%d of %d cities passed\n", len(cities)-failed, len(cities))
	if failed > 0 {
		return fmt.Errorf("%d cities failed validation", failed)
	}
	return nil
}
