package config_test

import (
	"errors"
	"testing"

	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the batch defaults", func() {
			convey.So(cfg.FirstSeason, convey.ShouldEqual, 1)
			convey.So(cfg.LastSeason, convey.ShouldEqual, 7)
			convey.So(cfg.SeasonFilePattern, convey.ShouldEqual, "Season_%d.json")
			convey.So(cfg.PlayerStats, convey.ShouldHaveLength, 11)
			convey.So(cfg.TeamStats, convey.ShouldHaveLength, 14)
			convey.So(cfg.PlayerStats[8], convey.ShouldResemble, model.StatSource{Dir: "Player_super_takels", Column: "super_tackles"})
			convey.So(cfg.TeamAliases["UPY"], convey.ShouldEqual, "U.P. Yoddha")
			convey.So(cfg.Aggregation, convey.ShouldEqual, "last_row")
			convey.So(cfg.LinearComponents, convey.ShouldEqual, 5)
			convey.So(cfg.EmbeddingComponents, convey.ShouldEqual, 2)
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.WinBonus, convey.ShouldEqual, 1.25)
			convey.So(cfg.RepairMatchIDs, convey.ShouldBeFalse)
			convey.So(cfg.RepairSeasons, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And default maps are fresh copies", func() {
			cfg.TeamAliases["Ben"] = "changed"
			convey.So(config.DefaultTeamAliases()["Ben"], convey.ShouldEqual, "Bengaluru Bulls")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break constraints", t, func() {
		convey.Convey("When the season range is inverted", func() {
			cfg := config.New()
			cfg.FirstSeason, cfg.LastSeason = 5, 2

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the aggregation policy is unknown", func() {
			cfg := config.New()
			cfg.Aggregation = "sum"

			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "Aggregation")
		})

		convey.Convey("When a stat source has no column", func() {
			cfg := config.New()
			cfg.TeamStats = append(cfg.TeamStats, model.StatSource{Dir: "Team_extra"})

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When two sources write the same column", func() {
			cfg := config.New()
			cfg.PlayerStats = append(cfg.PlayerStats, model.StatSource{Dir: "Player_raid_points_v2", Column: "Raid_Points"})

			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "mapped twice")
		})

		convey.Convey("When the file pattern has no season placeholder", func() {
			cfg := config.New()
			cfg.SeasonFilePattern = "season.json"

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
