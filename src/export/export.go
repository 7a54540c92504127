// Package export writes motion arrays and skeleton hierarchies as CSV and
// renders joint trajectories as PNG plots.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"bvhToolkit/src/bvh"
	"bvhToolkit/src/motion"
	"bvhToolkit/src/skeleton"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// channelSuffix names the CSV column of each motion channel.
var channelSuffix = []string{"x", "y", "z", "qw", "qx", "qy", "qz"}

// EncodeKeypoints writes one CSV row per frame: the frame time followed by
// every channel of every joint.
func EncodeKeypoints(w io.Writer, a *motion.Array, names skeleton.Names, frameTime float64) error {
	if len(names) != a.Joints {
		return fmt.Errorf("%w: %d names for %d joints", ErrNames, len(names), a.Joints)
	}
	if a.Channels > len(channelSuffix) {
		return fmt.Errorf("%w: %d channels", ErrColumn, a.Channels)
	}

	header := []string{"time"}
	for _, name := range names {
		for c := 0; c < a.Channels; c++ {
			header = append(header, fmt.Sprintf("%s.%s", name, channelSuffix[c]))
		}
	}

	writer := bufio.NewWriter(w)
	fmt.Fprintf(writer, "%s\n", strings.Join(header, ","))
	for t := 0; t < a.Frames; t++ {
		fmt.Fprintf(writer, "%10.5f", float64(t)*frameTime)
		for j := 0; j < a.Joints; j++ {
			for _, v := range a.Sample(t, j) {
				fmt.Fprintf(writer, ",%10.5f", v)
			}
		}
		fmt.Fprintf(writer, "\n")
	}
	return writer.Flush()
}

// WriteKeypoints writes the keypoint array to a CSV file.
func WriteKeypoints(a *motion.Array, names skeleton.Names, filePath string, frameTime float64) error {
	return writeFile(filePath, func(w io.Writer) error {
		return EncodeKeypoints(w, a, names, frameTime)
	})
}

// EncodeHierarchy writes one CSV row per joint, End Sites included, with its
// parent and scaled rest offset.
func EncodeHierarchy(w io.Writer, tree *bvh.BvhTree, scale float64) error {
	writer := bufio.NewWriter(w)
	fmt.Fprintf(writer, "joint,parent,offset.x,offset.y,offset.z\n")
	for _, joint := range tree.GetJoints(true) {
		jointName := joint.Name()
		parentName := ""
		if parent := tree.JointParent(jointName); parent != nil {
			parentName = parent.Name()
		}
		offset := tree.JointOffset(jointName)
		if len(offset) != 3 {
			return fmt.Errorf("%w: joint %s has %d offset values", bvh.ErrInvalidBVH, jointName, len(offset))
		}
		fmt.Fprintf(writer, "%s,%s,%f,%f,%f\n", jointName, parentName, scale*offset[0], scale*offset[1], scale*offset[2])
	}
	return writer.Flush()
}

// WriteHierarchy writes the joint hierarchy to a CSV file.
func WriteHierarchy(tree *bvh.BvhTree, filePath string, scale float64) error {
	return writeFile(filePath, func(w io.Writer) error {
		return EncodeHierarchy(w, tree, scale)
	})
}

func writeFile(filePath string, encode func(io.Writer) error) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filePath, err)
	}
	if err := encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Trajectory builds a line plot of one joint's x, y and z over frames. NaN
// samples are dropped.
func Trajectory(a *motion.Array, joint int, name string) (*plot.Plot, error) {
	if joint < 0 || joint >= a.Joints {
		return nil, fmt.Errorf("%w: joint %d", ErrColumn, joint)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s trajectory", name)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Position"

	colors := []color.Color{
		color.RGBA{R: 220, G: 50, B: 47, A: 255},
		color.RGBA{R: 38, G: 139, B: 34, A: 255},
		color.RGBA{R: 38, G: 100, B: 210, A: 255},
	}
	for c := 0; c < motion.PositionChannels; c++ {
		pts := make(plotter.XYs, 0, a.Frames)
		for t := 0; t < a.Frames; t++ {
			v := a.At(t, joint, c)
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(t), Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = colors[c]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(channelSuffix[c], line)
	}
	p.Legend.Top = true
	return p, nil
}

// PlotTrajectory saves the trajectory plot of one joint as an image. The
// format follows the file extension.
func PlotTrajectory(a *motion.Array, joint int, name, filePath string) error {
	p, err := Trajectory(a, joint, name)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filePath); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

// ChartTrajectory renders one joint's x, y and z over frames as an
// interactive HTML line chart. NaN samples become gaps.
func ChartTrajectory(w io.Writer, a *motion.Array, joint int, name string) error {
	if joint < 0 || joint >= a.Joints {
		return fmt.Errorf("%w: joint %d", ErrColumn, joint)
	}

	frames := make([]int, a.Frames)
	for t := range frames {
		frames[t] = t
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name + " trajectory", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: fmt.Sprintf("frames=%d", a.Frames)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Position", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(frames)
	for c := 0; c < motion.PositionChannels; c++ {
		data := make([]opts.LineData, a.Frames)
		for t := range data {
			v := a.At(t, joint, c)
			if math.IsNaN(v) {
				// "-" is a missing point.
				data[t] = opts.LineData{Value: "-"}
				continue
			}
			data[t] = opts.LineData{Value: v}
		}
		line.AddSeries(channelSuffix[c], data)
	}
	return line.Render(w)
}

// WriteChart saves the HTML trajectory chart of one joint.
func WriteChart(a *motion.Array, joint int, name, filePath string) error {
	return writeFile(filePath, func(w io.Writer) error {
		return ChartTrajectory(w, a, joint, name)
	})
}

// PlotCsv scatters two columns of a CSV file with a header line and saves
// the plot to filePath. Rows holding NaN in either column are skipped.
func PlotCsv(csvPath string, xColumn, yColumn int, filePath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Scan()
	header := strings.Split(scanner.Text(), ",")
	if xColumn < 0 || yColumn < 0 || xColumn >= len(header) || yColumn >= len(header) {
		return fmt.Errorf("%w: %d,%d of %d columns", ErrColumn, xColumn, yColumn, len(header))
	}

	var pts plotter.XYs
	for scanner.Scan() {
		row := strings.Split(scanner.Text(), ",")
		if len(row) != len(header) {
			return fmt.Errorf("%w: row has %d columns, header has %d", ErrColumn, len(row), len(header))
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(row[xColumn]), 64)
		if err != nil {
			return err
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(row[yColumn]), 64)
		if err != nil {
			return err
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	p := plot.New()
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	p.Add(s)

	p.X.Label.Text = header[xColumn]
	p.Y.Label.Text = header[yColumn]

	return p.Save(4*vg.Inch, 4*vg.Inch, filePath)
}
