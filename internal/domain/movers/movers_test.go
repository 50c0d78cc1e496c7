package movers_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/internal/domain/movers"
)

func TestParseOrder(t *testing.T) {
	Convey("Given order strings", t, func() {
		o, err := movers.ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, movers.Risers)

		o, err = movers.ParseOrder(" Fallers ")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, movers.Fallers)

		_, err = movers.ParseOrder("sideways")
		So(err, ShouldNotBeNil)
	})
}

func TestBaseline(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	Convey("Given no snapshots", t, func() {
		_, ok := movers.Baseline(nil, now, 30)
		So(ok, ShouldBeFalse)
	})

	Convey("Given snapshots inside and outside the window", t, func() {
		days := []string{"2025-03-20", "2025-01-01", "2025-03-05", "2025-02-27"}
		day, ok := movers.Baseline(days, now, 30)

		Convey("Then the oldest one inside the window is used", func() {
			So(ok, ShouldBeTrue)
			So(day, ShouldEqual, "2025-03-05")
		})

		Convey("Then the input is left unsorted", func() {
			So(days[0], ShouldEqual, "2025-03-20")
		})
	})

	Convey("Given only old snapshots", t, func() {
		day, ok := movers.Baseline([]string{"2024-12-01", "2024-11-15"}, now, 30)

		Convey("Then the oldest overall is used", func() {
			So(ok, ShouldBeTrue)
			So(day, ShouldEqual, "2024-11-15")
		})
	})
}

func TestCompare(t *testing.T) {
	baseline := []model.Player{
		{ID: "1", Value: 8000},
		{ID: "2", Value: 4000},
		{ID: "3", Value: 3000},
		{ID: "4", Value: 0},
	}
	current := []model.Player{
		{ID: "1", Name: "A", Position: "QB", Value: 8100},
		{ID: "2", Name: "B", Position: "WR", Value: 3900},
		{ID: "3", Name: "C", Position: "WR", Value: 3333},
		{ID: "4", Name: "D", Position: "RB", Value: 50},
		{ID: "5", Name: "E", Position: "WR", Value: 7000},
	}

	Convey("Given current values and a baseline", t, func() {
		Convey("When sorting risers", func() {
			out := movers.Compare(current, baseline, "all", movers.Risers)

			Convey("Then players missing from the baseline are skipped", func() {
				So(len(out), ShouldEqual, 4)
			})

			Convey("Then the biggest gain comes first", func() {
				So(out[0].ID, ShouldEqual, "3")
				So(out[0].Change, ShouldEqual, 333)
				So(out[0].OldValue, ShouldEqual, 3000)
				So(out[0].PercentChange, ShouldEqual, 11.1)
				So(out[3].ID, ShouldEqual, "2")
			})

			Convey("Then a zero baseline reports no percentage", func() {
				So(out[2].ID, ShouldEqual, "4")
				So(out[2].PercentChange, ShouldEqual, 0.0)
			})
		})

		Convey("When sorting fallers for one position", func() {
			out := movers.Compare(current, baseline, "wr", movers.Fallers)

			So(len(out), ShouldEqual, 2)
			So(out[0].ID, ShouldEqual, "2")
			So(out[0].Change, ShouldEqual, -100)
			So(out[0].PercentChange, ShouldEqual, -2.5)
			So(out[1].ID, ShouldEqual, "3")
		})
	})
}
