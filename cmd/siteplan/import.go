package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gekko3d/siteplan"
	"github.com/gekko3d/siteplan/layout/catalog"
)

var (
	importName   string
	importHeight float32
)

var importCmd = &cobra.Command{
	Use:   "import FILE|URL",
	Short: "Measure a model and report the scale that gives it a real height",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "template name")
	importCmd.Flags().Float32Var(&importHeight, "height", 0, "real height in meters")
	_ = importCmd.MarkFlagRequired("name")
	_ = importCmd.MarkFlagRequired("height")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, done, err := session(ctx)
	if err != nil {
		return err
	}
	defer done()

	ws, err := siteplan.NewWorkspace(cfg, siteplan.WorkspaceOptions{Logger: logger})
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.Import(ctx, catalog.ImportRequest{Name: importName, RealHeight: importHeight, AssetRef: args[0]})
	if err != nil {
		return err
	}
	t := res.Template
	a := t.AuthoredSize()
	d := t.RealDimensions()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Template: %s (%s)\n", t.Name(), t.Key())
	fmt.Fprintf(out, "Authored size: %.3f x %.3f x %.3f\n", a.Width, a.Height, a.Length)
	fmt.Fprintf(out, "Recommended scale: %.4f\n", t.RecommendedScale())
	fmt.Fprintf(out, "Real size: %.2f x %.2f x %.2f m\n", d.Width, d.Height, d.Length)
	fmt.Fprintf(out, "Map footprint: %.2f%%\n", res.FootprintPercent)
	return nil
}
