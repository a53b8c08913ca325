package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gekko3d/siteplan/layout/catalog"
	"github.com/gekko3d/siteplan/layout/dims"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the templates and their base scales",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, _, done, err := session(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	cat, err := catalog.FromConfig(cfg.Templates)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, t := range cat.Templates() {
		s := t.Scale(dims.DefaultMultiplier)
		d := t.RealDimensions()
		authored := "uniform"
		if ct, ok := t.(*catalog.CatalogTemplate); ok {
			if a, ok := ct.AuthoredDimensions(); ok {
				authored = fmt.Sprintf("%.2f x %.2f x %.2f", a.Width, a.Height, a.Length)
			}
		}
		fmt.Fprintf(out, "%-12s %-24s real %.1f x %.1f x %.1f m  authored %s  scale (%.3f, %.3f, %.3f)  options %v\n",
			t.Name(), t.AssetRef(), d.Width, d.Height, d.Length, authored, s.X(), s.Y(), s.Z(), t.ScaleOptions())
	}
	return nil
}
