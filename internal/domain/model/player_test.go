package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/tradevalue/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayer(t *testing.T) {
	Convey("Given a player", t, func() {
		p := model.Player{ID: "7", Name: "Logan Webb", Value: 9500, Team: "SF", Position: "Pitcher"}

		Convey("Then Ref carries id and name", func() {
			So(p.Ref(), ShouldResemble, model.PlayerRef{ID: "7", Name: "Logan Webb"})
		})

		Convey("When encoding to JSON", func() {
			b, err := json.Marshal(p)
			So(err, ShouldBeNil)

			Convey("Then empty metadata is omitted", func() {
				s := string(b)
				So(s, ShouldContainSubstring, `"value":9500`)
				So(s, ShouldNotContainSubstring, "headshot")
				So(s, ShouldNotContainSubstring, "rank")
			})
		})
	})
}

func TestValueUpdate(t *testing.T) {
	Convey("Given a value update", t, func() {
		u := model.ValueUpdate{ID: "1", Name: "A", OldValue: 8500, NewValue: 8502}

		Convey("Then Delta is the signed change", func() {
			So(u.Delta(), ShouldEqual, 2)
			So(model.ValueUpdate{OldValue: 10, NewValue: 4}.Delta(), ShouldEqual, -6)
		})

		Convey("And the wire names follow the store contract", func() {
			b, err := json.Marshal(u)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"id":"1","name":"A","oldValue":8500,"newValue":8502}`)
		})
	})
}

func TestSnapshotDayLayout(t *testing.T) {
	Convey("Given a timestamp", t, func() {
		ts := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)

		Convey("Then the snapshot day is the calendar date", func() {
			So(ts.Format(model.SnapshotDayLayout), ShouldEqual, "2025-03-09")
		})
	})
}
