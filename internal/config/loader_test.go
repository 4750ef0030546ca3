package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/scorecard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Source, convey.ShouldEqual, config.SourceFile)
				convey.So(cfg.MonthlyThresholdDays, convey.ShouldEqual, 45)
				convey.So(cfg.RefreshInterval, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.Steps, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCORECARD_ADDR", ":8080")
			_ = os.Setenv("SCORECARD_REFRESH_INTERVAL", "30s")
			_ = os.Setenv("SCORECARD_MONTHLY_THRESHOLD_DAYS", "60")
			_ = os.Setenv("SCORECARD_TIMEZONE", "Asia/Kolkata")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RefreshInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.MonthlyThresholdDays, convey.ShouldEqual, 60)
				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc.String(), convey.ShouldEqual, "Asia/Kolkata")
			})
		})

		convey.Convey("When loading config with a YAML file carrying step assignments", func() {
			yamlContent := `
addr: ":9090"
source: file
snapshot_path: /data/snapshot.yaml
watch_snapshot: true
steps:
  - step: 1
    step_name: Order Punch
    doer_name: Asha
  - step: 2
    step_name: Dispatch
    doer_name: Ravi
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCORECARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SnapshotPath, convey.ShouldEqual, "/data/snapshot.yaml")
				convey.So(cfg.WatchSnapshot, convey.ShouldBeTrue)
				convey.So(cfg.Steps, convey.ShouldResemble, []config.Step{
					{Step: 1, StepName: "Order Punch", DoerName: "Asha"},
					{Step: 2, StepName: "Dispatch", DoerName: "Ravi"},
				})
				convey.So(cfg.MaxScoresLimit, convey.ShouldEqual, 500) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
default_filter: week
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCORECARD_CONFIG", tmpFile)
			_ = os.Setenv("SCORECARD_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DefaultFilter, convey.ShouldEqual, "week")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCORECARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SCORECARD_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SCORECARD_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When selecting postgres without a database url", func() {
			_ = os.Setenv("SCORECARD_SOURCE", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "database_url")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SCORECARD_MAX_SCORES_LIMIT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown timezone", func() {
			_ = os.Setenv("SCORECARD_TIMEZONE", "Mars/Olympus")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderSteps(t *testing.T) {
	convey.Convey("Given step assignments in a YAML file", t, func() {
		ctx := context.Background()
		defer clearConfigEnvVars()

		convey.Convey("When a step number is repeated", func() {
			tmpFile := createTempConfigFile(`
steps:
  - step: 1
    doer_name: Asha
  - step: 1
    doer_name: Ravi
`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "configured twice")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a step number is zero", func() {
			tmpFile := createTempConfigFile(`
steps:
  - step: 0
    doer_name: Asha
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SCORECARD_CONFIG",
		"SCORECARD_ADDR",
		"SCORECARD_SOURCE",
		"SCORECARD_TIMEZONE",
		"SCORECARD_REFRESH_INTERVAL",
		"SCORECARD_MONTHLY_THRESHOLD_DAYS",
		"SCORECARD_MAX_SCORES_LIMIT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "scorecard-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
