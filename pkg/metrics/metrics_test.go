package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// brokenCollector always reports an invalid metric, which makes Gather fail.
type brokenCollector struct {
	desc *prometheus.Desc
}

func (c brokenCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c brokenCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, errors.New("boom"))
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the ergofit namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "ergofit")
				So(manager.subsystem, ShouldEqual, "fit")
				So(manager.enabled.Load(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("solver"),
				WithHistogramBuckets([]float64{2, 1}),
				WithMetricsEnabled(false),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then the options shape the exported names", func() {
				So(manager.enabled.Load(), ShouldBeFalse)
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2})
				var buf bytes.Buffer
				So(WriteText(&buf, registry), ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, `test_solver_cache_hits_total{env="test"} 1`)
			})
		})

		Convey("When empty option values are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "ergofit")
				So(manager.subsystem, ShouldEqual, "fit")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		SetEnabled(true)
		Reset(func() { SetEnabled(true) })

		Convey("When recording evaluation metrics", func() {
			RecordEvaluation("road")
			RecordInfeasibleAngle("knee_extension", "leg_unreachable")
			RecordEvaluationLatency(0.2)
			RecordSweepSamples(362)
			RecordFrameConverted()
			RecordFrameDegenerate()

			Convey("Then they appear in the text output", func() {
				var buf bytes.Buffer
				So(WriteText(&buf, GetRegistry()), ShouldBeNil)
				out := buf.String()
				So(out, ShouldContainSubstring, `ergofit_fit_evaluations_total{discipline="road"}`)
				So(out, ShouldContainSubstring, `ergofit_fit_infeasible_angles_total{angle="knee_extension",reason="leg_unreachable"}`)
				So(out, ShouldContainSubstring, "ergofit_fit_evaluation_latency_milliseconds_bucket")
				So(out, ShouldContainSubstring, "ergofit_fit_sweep_samples_total")
			})
		})

		Convey("When recording batch and cache metrics", func() {
			So(func() {
				RecordBatchRow()
				UpdateQueueSize(3)
				UpdateQueueCapacity(64)
				RecordQueueEnqueueError()
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(0.1)
				RecordCacheHit()
				RecordCacheMiss()
				UpdateCacheSize(12)
				UpdateRankedCandidates(4)
				RecordRankingUpdateLatency(0.01)
				RecordErrorByComponent("frame", "degenerate")
			}, ShouldNotPanic)
		})

		Convey("When recorders are disabled", func() {
			registry := prometheus.NewRegistry()
			saved := globalManager
			globalManager = NewManager(WithPrometheusRegistry(registry))
			Reset(func() { globalManager = saved })

			SetEnabled(false)
			RecordCacheHit()

			Convey("Then nothing is counted", func() {
				var buf bytes.Buffer
				So(WriteText(&buf, registry), ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "ergofit_fit_cache_hits_total 0")
			})
		})
	})
}

func TestWriteText(t *testing.T) {
	Convey("Given a gatherer that fails", t, func() {
		registry := prometheus.NewRegistry()
		registry.MustRegister(brokenCollector{desc: prometheus.NewDesc("broken", "always fails", nil, nil)})
		var buf bytes.Buffer
		err := WriteText(&buf, registry)

		Convey("Then the error is an observe failure", func() {
			So(errors.Is(err, ErrExportFailed), ShouldBeTrue)
		})
	})
}
