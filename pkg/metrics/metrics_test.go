package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a fresh registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Registry(), ShouldNotEqual, GetRegistry())
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the custom names", func() {
				manager.tableRows.WithLabelValues("synergy").Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_table_rows")
			})
		})

		Convey("When empty option values are given", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithCustomLabels(nil))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "kabaddi")
				So(manager.subsystem, ShouldEqual, "pipeline")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording loader activity", func() {
			before := testutil.ToFloat64(globalManager.recordsLoaded.WithLabelValues("player"))
			RecordFileLoaded("player")
			RecordFileSkipped("player", "missing")
			RecordRecordsLoaded("player", 4)
			RecordItemSkipped("loader", "not_object")

			Convey("Then counters advance", func() {
				So(testutil.ToFloat64(globalManager.recordsLoaded.WithLabelValues("player")), ShouldEqual, before+4)
				So(testutil.ToFloat64(globalManager.filesSkipped.WithLabelValues("player", "missing")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording stage activity", func() {
			So(func() {
				UpdateTableRows("player_synergy", 3)
				ObserveStage("standardize", 20*time.Millisecond)
				RecordStageError("features", "schema")
				MarkRunFinished(time.Unix(1700000000, 0))
			}, ShouldNotPanic)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.tableRows.WithLabelValues("player_synergy")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.lastRunUnix), ShouldEqual, 1700000000)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a metrics textfile path in a nested directory", t, func() {
		path := filepath.Join(t.TempDir(), "metrics", "kabaddi.prom")
		UpdateTableRows("player_role_success", 7)

		Convey("When writing the textfile", func() {
			err := WriteTextfile(path)

			Convey("Then the exposition is on disk", func() {
				So(err, ShouldBeNil)
				body, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `kabaddi_pipeline_table_rows{table="player_role_success"} 7`)
			})
		})
	})
}
