package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	app "github.com/okian/kabaddi/internal/app"
	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	m.Run()
}

func writeConfig(t *testing.T, input, output string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kabaddi.yaml")
	body := "input_dir: " + input + "\noutput_dir: " + output + "\nlast_season: 1\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a config file over an empty input directory", t, func() {
		output := filepath.Join(t.TempDir(), "out")
		path := writeConfig(t, t.TempDir(), output)

		convey.Convey("When printing the effective config", func() {
			out, err := execute("config", "--config", path)

			convey.Convey("Then it is YAML carrying file and default values", func() {
				convey.So(err, convey.ShouldBeNil)
				var cfg config.Config
				convey.So(yaml.Unmarshal([]byte(out), &cfg), convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, output)
				convey.So(cfg.LastSeason, convey.ShouldEqual, 1)
				convey.So(cfg.Aggregation, convey.ShouldEqual, "last_row")
			})
		})

		convey.Convey("When running the bare root command", func() {
			_, err := execute("--config", path)

			convey.Convey("Then the run completes and writes its manifest", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(output, app.ManifestFile))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When running single stages", func() {
			for _, stage := range []string{"standardize", "features", "run"} {
				_, err := execute(stage, "--config", path)
				convey.So(err, convey.ShouldBeNil)
			}
		})
	})

	convey.Convey("Given a config file that does not exist", t, func() {
		path := filepath.Join(t.TempDir(), "missing.yaml")

		convey.Convey("Then every command fails with a load error", func() {
			for _, args := range [][]string{{"config"}, {"run"}, {}} {
				_, err := execute(append(args, "--config", path)...)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			}
		})
	})
}
