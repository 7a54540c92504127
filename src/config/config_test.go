package config_test

import (
	"errors"
	"math"
	"testing"

	"bvhToolkit/src/config"
	"bvhToolkit/src/skeleton"

	"github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the pipeline defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Extract.CorrectionDeg, convey.ShouldEqual, -90.0)
			convey.So(cfg.Extract.Scale, convey.ShouldEqual, 1.0)
			convey.So(cfg.Extract.FrameStart, convey.ShouldBeNil)
			convey.So(cfg.Remap.Stride, convey.ShouldEqual, 5)
			convey.So(cfg.Remap.Scale, convey.ShouldResemble, []float64{1, 1, 1.1})
			convey.So(cfg.Remap.Widen, convey.ShouldBeFalse)
			convey.So(cfg.Remap.Delta, convey.ShouldEqual, 0.05)
			convey.So(cfg.RemapLateralAxis(), convey.ShouldResemble, r3.Vec{Y: 1})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default mapping is the built-in table", func() {
			convey.So(cfg.RemapMapping(), convey.ShouldResemble, skeleton.BVHToSMPL)
			convey.So(len(cfg.RemapOptions()), convey.ShouldEqual, 4)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		start, end := 10, 2
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
			{"stride", func(c *config.Config) { c.Remap.Stride = 0 }},
			{"scale length", func(c *config.Config) { c.Remap.Scale = []float64{1, 1} }},
			{"scale nan", func(c *config.Config) { c.Remap.Scale = []float64{1, math.NaN(), 1} }},
			{"zero axis", func(c *config.Config) { c.Remap.LateralAxis = []float64{0, 0, 0} }},
			{"delta", func(c *config.Config) { c.Remap.Delta = math.Inf(1) }},
			{"extract scale", func(c *config.Config) { c.Extract.Scale = 0 }},
			{"frame range", func(c *config.Config) { c.Extract.FrameStart, c.Extract.FrameEnd = &start, &end }},
			{"metrics namespace", func(c *config.Config) { c.Metrics.Namespace = "bvh-toolkit" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_RemapMapping(t *testing.T) {
	convey.Convey("Given mapping overrides", t, func() {
		cfg := config.New()
		cfg.Remap.Mapping = map[string]string{
			"Spine2":    "spine_3",
			"LeftUpLeg": "left_hip",
		}
		cfg.Remap.Widen = true

		m := cfg.RemapMapping()

		convey.Convey("Then new pairs are appended and the table is untouched", func() {
			convey.So(len(m), convey.ShouldEqual, len(skeleton.BVHToSMPL)+1)
			convey.So(m[len(m)-1], convey.ShouldResemble, skeleton.Pair{Source: "Spine2", Target: "spine_3"})
			convey.So(m.Inverse()["spine_3"], convey.ShouldEqual, "Spine2")
			convey.So(len(skeleton.BVHToSMPL), convey.ShouldEqual, 31)
		})

		convey.Convey("Then widening adds an option", func() {
			convey.So(len(cfg.RemapOptions()), convey.ShouldEqual, 5)
		})
	})
}
