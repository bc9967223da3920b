package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/kabaddi/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "output")
				convey.So(cfg.LastSeason, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			path := createTempConfigFile(t, `
output_dir: /tmp/kabaddi-out
last_season: 3
aggregation: last_non_null
team_aliases:
  BB: Bengaluru Bulls
player_stats:
  - dir: Player_Total_points
    column: total_points
`)

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/kabaddi-out")
				convey.So(cfg.LastSeason, convey.ShouldEqual, 3)
				convey.So(cfg.Aggregation, convey.ShouldEqual, "last_non_null")
				convey.So(cfg.PlayerStats, convey.ShouldHaveLength, 1)
				convey.So(cfg.PlayerStats[0].Dir, convey.ShouldEqual, "Player_Total_points")
			})

			convey.Convey("And the alias table replaces the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TeamAliases, convey.ShouldResemble, map[string]string{"BB": "Bengaluru Bulls"})
			})

			convey.Convey("And maps not in the file keep their defaults", func() {
				convey.So(cfg.ScoringRules, convey.ShouldResemble, config.DefaultScoringRules())
				convey.So(cfg.PlayerStatColumns["Player Name"], convey.ShouldEqual, "player_name")
			})
		})

		convey.Convey("When the file path comes from the environment and env overrides it", func() {
			path := createTempConfigFile(t, "output_dir: from-file\nepochs: 50\n")
			_ = os.Setenv("KABADDI_CONFIG", path)
			_ = os.Setenv("KABADDI_OUTPUT_DIR", "from-env")
			_ = os.Setenv("KABADDI_REPAIR_MATCH_IDS", "true")
			_ = os.Setenv("KABADDI_REPAIR_SEASONS", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "from-env")
				convey.So(cfg.Epochs, convey.ShouldEqual, 50)
				convey.So(cfg.RepairMatchIDs, convey.ShouldBeTrue)
				convey.So(cfg.RepairSeasons, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := createTempConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When env sets an invalid value", func() {
			_ = os.Setenv("KABADDI_LINEAR_COMPONENTS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx, "")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kabaddi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"KABADDI_CONFIG",
		"KABADDI_OUTPUT_DIR",
		"KABADDI_REPAIR_MATCH_IDS",
		"KABADDI_REPAIR_SEASONS",
		"KABADDI_LINEAR_COMPONENTS",
	} {
		_ = os.Unsetenv(k)
	}
}
