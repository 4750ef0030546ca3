package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/scorecard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DefaultFilter, convey.ShouldEqual, "month")
			convey.So(cfg.MonthlyThresholdDays, convey.ShouldEqual, 45)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the monthly threshold is not positive", func() {
			cfg.MonthlyThresholdDays = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the source is unknown", func() {
			cfg.Source = "sheets"

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sheets")
			})
		})

		convey.Convey("When the refresh key ttl is negative", func() {
			cfg.RefreshKeyTTL = -time.Second

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the refresh schedule is not a cron expression", func() {
			cfg.RefreshSchedule = "every morning"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the refresh schedule is a weekday cron expression", func() {
			cfg.RefreshSchedule = "0 7 * * 1-5"

			convey.Convey("Then validation should pass", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file source has no path", func() {
			cfg.SnapshotPath = " "

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfig_StepConfigs(t *testing.T) {
	convey.Convey("Given configured pipeline steps", t, func() {
		cfg := config.New()

		convey.Convey("When none are set", func() {
			convey.Convey("Then no override should be produced", func() {
				convey.So(cfg.StepConfigs(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When steps are set", func() {
			cfg.Steps = []config.Step{{Step: 2, StepName: "Dispatch", DoerName: "ravi"}}
			steps := cfg.StepConfigs()

			convey.Convey("Then they should convert field by field", func() {
				convey.So(steps, convey.ShouldHaveLength, 1)
				convey.So(steps[0].Step, convey.ShouldEqual, 2)
				convey.So(steps[0].StepName, convey.ShouldEqual, "Dispatch")
				convey.So(steps[0].DoerName, convey.ShouldEqual, "ravi")
			})
		})
	})
}
