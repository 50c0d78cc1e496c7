package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.roundsApplied.Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
					if f.GetName() == "test_unit_rounds_applied_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("Then every verdict series exists before the first evaluation", func() {
				So(testutil.CollectAndCount(m.tradeEvaluations), ShouldEqual, len(verdicts))
			})
		})

		Convey("When the same registry is used twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When rounds are recorded", func() {
			before := testutil.ToFloat64(globalManager.roundsApplied)
			RecordRoundApplied(12)
			So(testutil.ToFloat64(globalManager.roundsApplied), ShouldEqual, before+1)

			accepted := testutil.ToFloat64(globalManager.roundsAccepted)
			RecordRoundAccepted()
			So(testutil.ToFloat64(globalManager.roundsAccepted), ShouldEqual, accepted+1)

			So(func() {
				RecordRoundDuplicate()
				RecordRoundFailed()
			}, ShouldNotPanic)
		})

		Convey("When value updates are recorded", func() {
			before := testutil.ToFloat64(globalManager.valueUpdates)
			RecordValueUpdate(-16)
			RecordValueUpdate(2)
			So(testutil.ToFloat64(globalManager.valueUpdates), ShouldEqual, before+2)
		})

		Convey("When trade verdicts are recorded", func() {
			before := testutil.ToFloat64(globalManager.tradeEvaluations.WithLabelValues("fair"))
			So(RecordTradeEvaluation("fair"), ShouldBeNil)
			So(testutil.ToFloat64(globalManager.tradeEvaluations.WithLabelValues("fair")), ShouldEqual, before+1)

			err := RecordTradeEvaluation("lopsided")
			So(errors.Is(err, ErrUnknownVerdict), ShouldBeTrue)
		})

		Convey("When gauges are set", func() {
			UpdatePlayersTotal(42)
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.3)
			So(testutil.ToFloat64(globalManager.playersTotal), ShouldEqual, 42.0)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3.0)
			So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.3)
		})

		Convey("When snapshots are recorded", func() {
			at := time.Unix(1_700_000_000, 0)
			RecordSnapshot(4.5, at)
			So(testutil.ToFloat64(globalManager.snapshotLastUnix), ShouldEqual, 1.7e9)
		})

		Convey("When the remaining helpers are called", func() {
			So(func() {
				RecordTradeSubmission()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				ObserveStore("apply_updates", time.Now())
				RecordEventPublished("tradevalue.values.updated")
				RecordEventPublishError("tradevalue.values.updated")
				RecordHTTPRequest("/votes", "POST", "202")
				RecordHTTPRequestDuration("/votes", "POST", "202", 1.5)
				RecordErrorByComponent("worker", "apply")
				RecordErrorByEndpoint("/votes", "POST", "bad_request")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
