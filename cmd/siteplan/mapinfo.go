package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gekko3d/siteplan/layout/groundmap"
)

var mapinfoCmd = &cobra.Command{
	Use:   "mapinfo [image]",
	Short: "Show the ground map extent in world units and meters",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMapinfo,
}

func init() {
	rootCmd.AddCommand(mapinfoCmd)
}

func runMapinfo(cmd *cobra.Command, args []string) error {
	cfg, _, done, err := session(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	if len(args) == 1 {
		cfg.Ground.Image = args[0]
	}
	m, err := groundmap.Load(cfg.Ground)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w, d := m.Extent()
	rw, rd := m.RealExtent()
	if m.Image != "" {
		fmt.Fprintf(out, "Image: %s (%s)\n", m.Image, m.Format)
	}
	fmt.Fprintf(out, "Pixels: %d x %d\n", m.WidthPx, m.HeightPx)
	fmt.Fprintf(out, "World extent: %.1f x %.1f units at y=%.2f\n", w, d, m.Y)
	fmt.Fprintf(out, "Real extent: %.1f x %.1f m (%.4f m/px, %.4f m/unit)\n", rw, rd, m.MetersPerPixel, m.MetersPerUnit())
	return nil
}
