package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bvhToolkit/src/bvh"
	"bvhToolkit/src/export"
	"bvhToolkit/src/extract"
	"bvhToolkit/src/logger"
	"bvhToolkit/src/metrics"
	"bvhToolkit/src/motion"
	"bvhToolkit/src/npy"
	"bvhToolkit/src/remap"
	"bvhToolkit/src/skeleton"
)

func runExtract(ctx context.Context, a *app, args []string) error {
	c := &a.cfg.Extract
	fs := newFlagSet("extract", a.stdout)
	in := fs.String("in", c.Input, "BVH file to sample")
	out := fs.String("out", c.Output, "Destination .npy file")
	frameStart := fs.Int("frame-start", intOr(c.FrameStart, -1), "First frame (default: first frame of the file)")
	frameEnd := fs.Int("frame-end", intOr(c.FrameEnd, -1), "Last frame, inclusive (default: last frame of the file)")
	correction := fs.Float64("correction", c.CorrectionDeg, "Rotation about Z in degrees applied to every orientation")
	scale := fs.Float64("scale", c.Scale, "Scale applied to offsets and root translation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("extract: -in is required")
	}

	c.Input, c.Output, c.CorrectionDeg, c.Scale = *in, *out, *correction, *scale
	c.FrameStart, c.FrameEnd = nil, nil
	if *frameStart >= 0 {
		c.FrameStart = frameStart
	}
	if *frameEnd >= 0 {
		c.FrameEnd = frameEnd
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	tree, err := bvh.ReadFile(*in)
	if err != nil {
		return err
	}
	a.log.Debug(ctx, "file read",
		logger.String("path", *in),
		logger.Int("frames", tree.NFrames()),
		logger.Int("joints", len(tree.GetJoints(false))))

	opts := extract.Options{
		FrameStart:    c.FrameStart,
		FrameEnd:      c.FrameEnd,
		CorrectionDeg: &c.CorrectionDeg,
		Logger:        a.log,
	}
	arr, err := extract.Extract(ctx, bvh.NewArmature(tree, bvh.WithScale(c.Scale)), opts)
	if err != nil {
		return err
	}
	if err := npy.Save(*out, arr, npy.Float32); err != nil {
		return err
	}

	a.metrics.RecordFrames(metrics.StageExtract, arr.Frames)
	a.metrics.ObserveStage(metrics.StageExtract, time.Since(start))
	a.log.Info(ctx, "pose array written",
		logger.String("path", *out),
		logger.Any("shape", arr.Shape()))
	return nil
}

func runRemap(ctx context.Context, a *app, args []string) error {
	c := &a.cfg.Remap
	fs := newFlagSet("remap", a.stdout)
	in := fs.String("in", c.Input, "Source (frames, 51, 7) .npy file")
	out := fs.String("out", c.Output, "Destination .npy file")
	stride := fs.Int("stride", c.Stride, "Keep every n-th frame")
	scale := fs.String("scale", joinFloats(c.Scale), "Per-axis scale around the pelvis, x,y,z")
	widen := fs.Bool("widen", c.Widen, "Push the legs apart along the pelvis lateral axis")
	delta := fs.Float64("delta", c.Delta, "Widening distance")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scaleValues, err := parseFloats(*scale)
	if err != nil {
		return fmt.Errorf("remap: -scale: %w", err)
	}
	c.Stride, c.Scale, c.Widen, c.Delta = *stride, scaleValues, *widen, *delta
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	arr, err := npy.Load(*in)
	if err != nil {
		return err
	}

	opts := append(a.cfg.RemapOptions(), remap.WithLogger(a.log))
	res, err := remap.New(opts...).Remap(ctx, arr)
	if err != nil {
		return err
	}
	if err := npy.Save(*out, res.Keypoints, npy.Float64); err != nil {
		return err
	}

	a.metrics.RecordFrames(metrics.StageRemap, res.Keypoints.Frames)
	a.metrics.SetUnmappedJoints(len(res.Unmapped))
	a.metrics.ObserveStage(metrics.StageRemap, time.Since(start))
	a.log.Info(ctx, "keypoints written",
		logger.String("path", *out),
		logger.Any("shape", res.Keypoints.Shape()))
	return nil
}

func runCSV(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("csv", a.stdout)
	in := fs.String("in", a.cfg.Remap.Output, "Source .npy file")
	out := fs.String("out", "", "Destination CSV file (default: <in>.csv)")
	frameTime := fs.Float64("frame-time", 1, "Seconds between rows")
	bvhPath := fs.String("bvh", "", "Also write the hierarchy of this BVH file")
	hierarchyOut := fs.String("hierarchy-out", "", "Destination hierarchy CSV (default: <bvh>_hierarchy.csv)")
	scale := fs.Float64("scale", a.cfg.Extract.Scale, "Scale applied to hierarchy offsets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start := time.Now()
	arr, err := npy.Load(*in)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = strings.TrimSuffix(*in, ".npy") + ".csv"
	}
	if err := export.WriteKeypoints(arr, jointNames(arr), *out, *frameTime); err != nil {
		return err
	}
	a.log.Info(ctx, "keypoints csv written", logger.String("path", *out))

	if *bvhPath != "" {
		tree, err := bvh.ReadFile(*bvhPath)
		if err != nil {
			return err
		}
		if *hierarchyOut == "" {
			*hierarchyOut = strings.TrimSuffix(*bvhPath, ".bvh") + "_hierarchy.csv"
		}
		if err := export.WriteHierarchy(tree, *hierarchyOut, *scale); err != nil {
			return err
		}
		a.log.Info(ctx, "hierarchy csv written", logger.String("path", *hierarchyOut))
	}

	a.metrics.RecordFrames(metrics.StageExport, arr.Frames)
	a.metrics.ObserveStage(metrics.StageExport, time.Since(start))
	return nil
}

func runPlot(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("plot", a.stdout)
	in := fs.String("in", a.cfg.Remap.Output, "Source .npy file")
	joint := fs.String("joint", skeleton.SMPLRoot, "Joint whose trajectory is plotted")
	csvPath := fs.String("csv", "", "Plot two columns of this CSV file instead")
	x := fs.Int("x", 0, "CSV column on the x axis")
	y := fs.Int("y", 1, "CSV column on the y axis")
	out := fs.String("out", "plot.png", "Destination image, or .html for an interactive chart")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start := time.Now()
	if *csvPath != "" {
		if err := export.PlotCsv(*csvPath, *x, *y, *out); err != nil {
			return err
		}
		a.log.Info(ctx, "csv plot written", logger.String("path", *out))
		return nil
	}

	arr, err := npy.Load(*in)
	if err != nil {
		return err
	}
	index := jointNames(arr).Index(*joint)
	if index == -1 {
		return fmt.Errorf("%w: %s", remap.ErrUnknownJoint, *joint)
	}
	plotFile := export.PlotTrajectory
	if strings.HasSuffix(*out, ".html") {
		plotFile = export.WriteChart
	}
	if err := plotFile(arr, index, *joint, *out); err != nil {
		return err
	}

	a.metrics.ObserveStage(metrics.StageExport, time.Since(start))
	a.log.Info(ctx, "trajectory plot written", logger.String("path", *out))
	return nil
}

// jointNames picks the name list matching the array's joint axis.
func jointNames(arr *motion.Array) skeleton.Names {
	switch arr.Joints {
	case len(skeleton.BVHJointNames):
		return skeleton.BVHJointNames
	case len(skeleton.SMPLJointNames):
		return skeleton.SMPLJointNames
	}
	names := make(skeleton.Names, arr.Joints)
	for i := range names {
		names[i] = "joint_" + strconv.Itoa(i)
	}
	return names
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
