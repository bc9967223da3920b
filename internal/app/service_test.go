package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	service "github.com/okian/kabaddi/internal/app"
	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	m.Run()
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const playerStatsCSV = `Player Name,Season,Team,total_points
Pardeep,1,Patna Pirates,210
Naveen,1,Dabang Delhi K.C.,190
Fazel,1,U Mumba,70
Sandeep,1,Patna Pirates,50
`

// seedInput writes one season of player and team statistics plus the event,
// match and per-season player files.
func seedInput(t *testing.T, dir, playerStats string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "Player_raidpoints", "Season_1.json"), `{"data":[
		{"player_name":"Pardeep","team_name":"Pat","position_name":"Raider","value":200,"match_played":22},
		{"player_name":"Naveen","team_name":"Dab","position_name":"Raider","value":180,"match_played":21},
		{"player_name":"Fazel","team_name":"Mum","position_name":"Defender, Left Corner","value":5,"match_played":20},
		{"player_name":"Sandeep","team_name":"Pat","position_name":"Defender","value":3,"match_played":19}
	]}`)
	writeFile(t, filepath.Join(dir, "Player_tackle_points", "Season_1.json"), `{"data":[
		{"player_name":"Pardeep","team_name":"Pat","position_name":"Raider","value":2},
		{"player_name":"Naveen","team_name":"Dab","position_name":"Raider","value":1},
		{"player_name":"Fazel","team_name":"Mum","position_name":"Defender, Left Corner","value":60},
		{"player_name":"Sandeep","team_name":"Pat","position_name":"Defender","value":45}
	]}`)
	writeFile(t, filepath.Join(dir, "Player_Total_points", "Season_1.json"), `{"data":[
		{"player_name":"Pardeep","team_name":"Pat","position_name":"Raider","value":210},
		{"player_name":"Naveen","team_name":"Dab","position_name":"Raider","value":190},
		{"player_name":"Fazel","team_name":"Mum","position_name":"Defender, Left Corner","value":70},
		{"player_name":"Sandeep","team_name":"Pat","position_name":"Defender","value":50}
	]}`)
	writeFile(t, filepath.Join(dir, "Team_points_scored", "Season_1.json"), `{"data":[
		{"team_name":"Patna Pirates","team_id":6,"value":700,"match_played":22},
		{"team_name":"Dabang Delhi K.C.","team_id":2,"value":650,"match_played":22},
		{"team_name":"U Mumba","team_id":5,"value":600,"match_played":22}
	]}`)
	writeFile(t, filepath.Join(dir, "Team_raid_points", "Season_1.json"), `{"data":[
		{"team_name":"Patna Pirates","value":400},
		{"team_name":"Dabang Delhi K.C.","value":380},
		{"team_name":"U Mumba","value":300}
	]}`)
	writeFile(t, filepath.Join(dir, "DS_event_with_timestamps_clean2.csv"), `event_id,player_name,role,season,event_type,match_id
1,Pardeep,Raider,1,Raid Successful,1
2,Fazel,Defender,1,Tackle Successful,1
3,Sandeep,Defender,1,Tackle Unsuccessful,1
4,Naveen,Raider,1,Raid Successful,2
5,Pardeep,Raider,1,Raid Unsuccessful,2
6,Ghost,Raider,1,Raid Successful,9
`)
	writeFile(t, filepath.Join(dir, "DS_match_modified.csv"), `match_id,season,result
1,1,Patna Pirates beat U Mumba (35-30)
2,1,Dabang Delhi K.C. beat Patna Pirates (40-31)
`)
	writeFile(t, filepath.Join(dir, "player_statistics_all_seasons.csv"), playerStats)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.FirstSeason, cfg.LastSeason = 1, 2
	cfg.Epochs = 20
	return cfg
}

func lines(t *testing.T, path string) []string {
	t.Helper()
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(body), "\n"), "\n")
}

func TestService_New(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then stages refuse to run", func() {
			_, err := svc.Standardize(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.Features(ctx, nil), service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then stopping is a no-op", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded input directory", t, func() {
		cfg := testConfig(t)
		cfg.Workbook = "kabaddi.xlsx"
		cfg.MetricsFile = "kabaddi.prom"
		cfg.RepairMatchIDs = true
		cfg.RepairSeasons = true
		seedInput(t, cfg.InputDir, playerStatsCSV)

		svc := service.New(service.WithConfig(cfg), service.WithRunID("run-1"))

		Convey("When running the whole pipeline", func() {
			err := svc.Run(ctx)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			out := func(file string) string { return filepath.Join(cfg.OutputDir, file) }

			Convey("Then every table is written", func() {
				for _, f := range []string{
					cfg.PlayerStatsOutput, cfg.TeamStatsOutput,
					service.IssuesFile, service.RoleSuccessFile, service.SynergyFile,
					service.ContributionFile, service.MetricContributionFile,
					service.SkillScoresFile, service.FeaturesFile, service.FixedEventsFile,
					service.ManifestFile, cfg.Workbook, cfg.MetricsFile,
				} {
					_, statErr := os.Stat(out(f))
					So(statErr, ShouldBeNil)
				}
			})

			Convey("Then the standardized tables hold one row per entity with z-scores", func() {
				players := lines(t, out(cfg.PlayerStatsOutput))
				So(players, ShouldHaveLength, 5)
				So(players[0], ShouldContainSubstring, "z_score_raid_points")
				teams := lines(t, out(cfg.TeamStatsOutput))
				So(teams, ShouldHaveLength, 4)
			})

			Convey("Then derived tables have the expected shapes", func() {
				So(lines(t, out(service.SynergyFile)), ShouldHaveLength, 5)
				So(lines(t, out(service.RoleSuccessFile)), ShouldHaveLength, 6)
				So(lines(t, out(service.ContributionFile)), ShouldHaveLength, 5)
				features := lines(t, out(service.FeaturesFile))
				So(features, ShouldHaveLength, 6)
				So(features[0], ShouldContainSubstring, "raid_success_rate")
				So(lines(t, out(service.IssuesFile))[1:], ShouldNotBeEmpty)
				So(lines(t, out(service.FixedEventsFile)), ShouldHaveLength, 7)
			})

			Convey("Then the manifest records the run", func() {
				body, readErr := os.ReadFile(out(service.ManifestFile))
				So(readErr, ShouldBeNil)
				var m struct {
					RunID     string `yaml:"run_id"`
					Command   string `yaml:"command"`
					Artifacts []struct {
						Name string `yaml:"name"`
						Rows int    `yaml:"rows"`
					} `yaml:"artifacts"`
				}
				So(yaml.Unmarshal(body, &m), ShouldBeNil)
				So(m.RunID, ShouldEqual, "run-1")
				So(m.Command, ShouldEqual, "run")
				So(len(m.Artifacts), ShouldBeGreaterThanOrEqualTo, 9)
				So(m.Artifacts[0].Name, ShouldEqual, "processed_kabaddi_stats")
				So(m.Artifacts[0].Rows, ShouldEqual, 4)
			})

			Convey("Then the metrics textfile carries table sizes", func() {
				body, readErr := os.ReadFile(out(cfg.MetricsFile))
				So(readErr, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `table="player_synergy"`)
			})

			Convey("And the feature stages can rerun from the written tables", func() {
				again := service.New(service.WithConfig(cfg), service.WithCommand("features"))
				So(again.Start(ctx), ShouldBeNil)
				So(again.Features(ctx, nil), ShouldBeNil)
				So(again.Stop(ctx), ShouldBeNil)
				So(again.Skipped(), ShouldNotContain, "contribution")
				So(lines(t, out(service.ContributionFile)), ShouldHaveLength, 5)
			})
		})
	})
}

func TestService_MissingInputs(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty input directory", t, func() {
		cfg := testConfig(t)
		svc := service.New(service.WithConfig(cfg))

		Convey("When running the whole pipeline", func() {
			err := svc.Run(ctx)

			Convey("Then every stage is skipped without failing the run", func() {
				So(err, ShouldBeNil)
				skipped := svc.Skipped()
				for _, stage := range []string{
					"standardize_player", "standardize_team", "reconcile", "role_success",
					"synergy", "contribution", "metric_contribution", "skill_scores", "assembly",
				} {
					So(skipped, ShouldContain, stage)
				}
			})

			Convey("And the manifest is still written", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(cfg.OutputDir, service.ManifestFile))
				So(statErr, ShouldBeNil)
			})
		})
	})
}

func TestService_SchemaFailure(t *testing.T) {
	ctx := context.Background()

	Convey("Given per-season player statistics without total points", t, func() {
		cfg := testConfig(t)
		seedInput(t, cfg.InputDir, "Player Name,Season,Team\nPardeep,1,Patna Pirates\n")
		svc := service.New(service.WithConfig(cfg))

		Convey("When running the whole pipeline", func() {
			err := svc.Run(ctx)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then the contribution stage fails with a named schema error", func() {
				So(errors.Is(err, service.ErrStageFailed), ShouldBeTrue)
				So(errors.Is(err, table.ErrSchemaMismatch), ShouldBeTrue)
				var schemaErr *table.SchemaError
				So(errors.As(err, &schemaErr), ShouldBeTrue)
				So(schemaErr.Missing, ShouldContain, "total_points")
			})

			Convey("And independent stages still produce their tables", func() {
				_, statErr := os.Stat(filepath.Join(cfg.OutputDir, service.SynergyFile))
				So(statErr, ShouldBeNil)
				So(svc.Skipped(), ShouldContain, "assembly")
			})
		})
	})
}
