package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "catalog",
		Short: "List the disease classes in model output order",
		Run: func(cmd *cobra.Command, args []string) {
			if err := printCatalog(cmd.OutOrStdout(), catalog.Default(), formatFlag); err != nil {
				exitErr("catalog", err)
			}
		},
	})
}

func printCatalog(out io.Writer, cat *catalog.Catalog, format string) error {
	entries := cat.Entries()
	if format == "text" {
		for i, e := range entries {
			fmt.Fprintf(out, "%2d  %-12s %s\n", i, e.Plant, e.DisplayName())
		}
		return nil
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	return nil
}
