package main

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/gekko3d/siteplan"
	"github.com/gekko3d/siteplan/internal/observability"
)

var (
	placeX          float32
	placeY          float32
	placeZ          float32
	placeMultiplier float32
	placeDuplicates int
	placeGround     bool
	placeRemove     string
	placeMetrics    bool
)

var placeCmd = &cobra.Command{
	Use:   "place TEMPLATE",
	Short: "Place a template on the map and print the resulting instances",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlace,
}

func init() {
	placeCmd.Flags().Float32Var(&placeX, "x", 0, "map x in world units (default: the template's position)")
	placeCmd.Flags().Float32Var(&placeZ, "z", 0, "map z in world units (default: the template's position)")
	placeCmd.Flags().Float32Var(&placeY, "y", 0, "lift the last instance to this height after placing")
	placeCmd.Flags().BoolVar(&placeGround, "ground", false, "stand the last instance back on the ground after --y")
	placeCmd.Flags().StringVar(&placeRemove, "remove", "", "remove the named instance before printing")
	placeCmd.Flags().Float32Var(&placeMultiplier, "multiplier", 0, "scale multiplier (0 keeps the template default)")
	placeCmd.Flags().IntVar(&placeDuplicates, "duplicates", 0, "number of duplicates of the placed instance")
	placeCmd.Flags().BoolVar(&placeMetrics, "metrics", false, "print placement metrics")
	rootCmd.AddCommand(placeCmd)
}

func runPlace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, done, err := session(ctx)
	if err != nil {
		return err
	}
	defer done()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewPlacementMetrics(reg)
	if err != nil {
		return err
	}
	ws, err := siteplan.NewWorkspace(cfg, siteplan.WorkspaceOptions{Logger: logger, Metrics: metrics})
	if err != nil {
		return err
	}
	defer ws.Close()

	tpl, err := ws.Registry.Catalog().Lookup(args[0])
	if err != nil {
		return err
	}
	at := tpl.DefaultPosition()
	if cmd.Flags().Changed("x") || cmd.Flags().Changed("z") {
		at = mgl32.Vec3{placeX, ws.Map.Y, placeZ}
	}
	if !ws.Map.Contains(at) {
		return errors.Wrapf(siteplan.ErrMissedGround, "(%.1f, %.1f)", at.X(), at.Z())
	}
	inst, err := ws.Registry.Place(ctx, args[0], at).Wait(ctx)
	if err != nil {
		return err
	}
	if placeMultiplier > 0 {
		if _, err := ws.Registry.SetScaleMultiplier(inst, placeMultiplier); err != nil {
			return err
		}
	}
	src := inst
	for i := 0; i < placeDuplicates; i++ {
		if src, err = ws.Registry.Duplicate(ctx, src).Wait(ctx); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("y") {
		p := src.Position()
		if _, err := ws.SetPosition(src.Name, mgl32.Vec3{p.X(), placeY, p.Z()}); err != nil {
			return err
		}
		if placeGround {
			if _, err := ws.DropToGround(src.Name); err != nil {
				return err
			}
		}
	}
	if placeRemove != "" {
		gone, err := ws.Instance(placeRemove)
		if err != nil {
			return err
		}
		if err := ws.Registry.Remove(gone); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, inst := range ws.Registry.Instances() {
		tr := inst.Node.Transform
		box := inst.Bounds()
		fmt.Fprintf(out, "%-16s pos (%.2f, %.2f, %.2f)  scale (%.3f, %.3f, %.3f)  x%.2f  bbox y [%.2f, %.2f]\n",
			inst.Name, tr.Position.X(), tr.Position.Y(), tr.Position.Z(),
			tr.Scale.X(), tr.Scale.Y(), tr.Scale.Z(), inst.Multiplier(), box.Min.Y(), box.Max.Y())
	}
	stats := ws.Stats()
	for _, it := range stats.Items {
		fmt.Fprintf(out, "%-16s %-12s %.1f x %.1f x %.1f m  %d vertices\n",
			it.Name, it.Template, it.Size.Width, it.Size.Height, it.Size.Length, it.Vertices)
	}
	fmt.Fprintf(out, "%d instances, %d vertices, %d materials, selected %q (%s)\n",
		stats.Instances, stats.Vertices, stats.Materials, stats.Selected, stats.Mode)

	if placeMetrics {
		return printMetrics(out, reg)
	}
	return nil
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), labels(m), value(mf.GetType(), m))
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	s := "{"
	for i, l := range m.GetLabel() {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return s + "}"
}

func value(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%gs", h.GetSampleCount(), h.GetSampleSum())
	}
	return "?"
}
