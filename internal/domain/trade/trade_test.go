package trade_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/internal/domain/trade"
)

func player(id string, value int) model.Player {
	return model.Player{ID: id, Name: "P" + id, Value: value}
}

func ids(players []model.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

func TestRawSum(t *testing.T) {
	Convey("Given trade sides", t, func() {
		Convey("Then an empty side sums to zero", func() {
			So(trade.RawSum(nil), ShouldEqual, 0)
		})
		Convey("Then values are added", func() {
			So(trade.RawSum([]model.Player{player("1", 4000), player("2", 3100), player("3", 3000)}), ShouldEqual, 10100)
		})
	})
}

func TestRawAdjustment(t *testing.T) {
	Convey("Given a top-of-market piece", t, func() {
		adj, err := trade.RawAdjustment(9000, 9000, 9500)

		Convey("Then the premium matches the formula", func() {
			So(err, ShouldBeNil)
			So(adj, ShouldAlmostEqual, 5313.097, 0.001)
		})
	})

	Convey("Given increasing values", t, func() {
		low, err1 := trade.RawAdjustment(3000, 9000, 9500)
		high, err2 := trade.RawAdjustment(6000, 9000, 9500)

		Convey("Then the premium increases", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(high, ShouldBeGreaterThan, low)
		})
	})

	Convey("Given a zero denominator", t, func() {
		_, errTop := trade.RawAdjustment(100, 0, 9500)
		_, errPool := trade.RawAdjustment(100, 100, 0)

		Convey("Then it fails with invalid input", func() {
			So(errors.Is(errTop, trade.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(errPool, trade.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestTeamAdjustment(t *testing.T) {
	Convey("Given an empty side", t, func() {
		other := []model.Player{player("1", 9000), player("2", 100)}
		adj, err := trade.TeamAdjustment(nil, other, 9000, 9500)

		Convey("Then the adjustment is zero regardless of the other side", func() {
			So(err, ShouldBeNil)
			So(adj, ShouldEqual, 0.0)
		})
	})

	Convey("Given sides of equal size", t, func() {
		side := []model.Player{player("1", 5000)}
		other := []model.Player{player("2", 4000)}
		adj, err := trade.TeamAdjustment(side, other, 5000, 9500)

		Convey("Then no adjustment is earned", func() {
			So(err, ShouldBeNil)
			So(adj, ShouldEqual, 0.0)
		})
	})

	Convey("Given a side with fewer pieces", t, func() {
		side := []model.Player{player("1", 9000)}
		other := []model.Player{player("2", 4000), player("3", 4000), player("4", 1000)}
		adj, err := trade.TeamAdjustment(side, other, 9000, 9500)

		Convey("Then the raw premium is scaled by the piece multiplier", func() {
			So(err, ShouldBeNil)
			raw, _ := trade.RawAdjustment(9000, 9000, 9500)
			So(adj, ShouldAlmostEqual, 1.3*raw, 1e-6)
		})
	})
}

func TestEvaluate(t *testing.T) {
	sideA := []model.Player{player("a1", 5000), player("a2", 5000)}
	sideB := []model.Player{player("b1", 4000), player("b2", 3100), player("b3", 3000)}
	universe := append(append([]model.Player{}, sideA...), sideB...)
	universe = append(universe,
		player("x", 9500),
		player("s4", 4700),
		player("s1", 4000),
		player("s6", 3300),
		player("s2", 4100),
		player("s5", 4806),
		player("s3", 3800),
	)

	Convey("Given two pieces for three", t, func() {
		v, err := trade.Evaluate(sideA, sideB, universe)

		Convey("Then the smaller side earns a positive adjustment", func() {
			So(err, ShouldBeNil)
			So(v.RawA, ShouldEqual, 10000)
			So(v.RawB, ShouldEqual, 10100)
			So(v.AdjustmentA, ShouldEqual, 4105)
			So(v.AdjustmentB, ShouldEqual, 0)
			So(v.FinalA, ShouldEqual, 14105)
			So(v.FinalB, ShouldEqual, 10100)
			So(v.Difference, ShouldEqual, 4005)
		})

		Convey("Then the side with the smaller final value is unfavored", func() {
			So(v.Status, ShouldEqual, trade.Unfavors)
			So(v.Unfavored, ShouldEqual, trade.SideB)
		})

		Convey("Then suggestions are the closest four inside the window", func() {
			So(ids(v.Suggestions), ShouldResemble, []string{"s1", "s2", "s3", "s4"})
		})

		Convey("Then evaluating again yields the same verdict", func() {
			again, err := trade.Evaluate(sideA, sideB, universe)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, v)
		})
	})

	Convey("Given a difference of exactly the fair threshold", t, func() {
		a := []model.Player{player("1", 5000)}
		b := []model.Player{player("2", 4800)}
		v, err := trade.Evaluate(a, b, append(a, b...))

		Convey("Then the trade is fair", func() {
			So(err, ShouldBeNil)
			So(v.Difference, ShouldEqual, 200)
			So(v.Status, ShouldEqual, trade.Fair)
			So(v.Unfavored, ShouldEqual, trade.Side(""))
			So(v.Suggestions, ShouldBeEmpty)
		})
	})

	Convey("Given a difference one past the threshold", t, func() {
		a := []model.Player{player("1", 4799)}
		b := []model.Player{player("2", 5000)}
		v, err := trade.Evaluate(a, b, append(a, b...))

		Convey("Then side A is unfavored", func() {
			So(err, ShouldBeNil)
			So(v.Difference, ShouldEqual, 201)
			So(v.Status, ShouldEqual, trade.Unfavors)
			So(v.Unfavored, ShouldEqual, trade.SideA)
		})
	})

	Convey("Given an empty side", t, func() {
		v, err := trade.Evaluate(sideA, nil, universe)

		Convey("Then the verdict is incomplete", func() {
			So(err, ShouldBeNil)
			So(v.Status, ShouldEqual, trade.Incomplete)
			So(v.FinalA, ShouldEqual, 10000)
			So(v.Suggestions, ShouldBeEmpty)
		})
	})

	Convey("Given an empty universe", t, func() {
		_, err := trade.Evaluate(sideA, sideB, nil)

		Convey("Then it fails with invalid input", func() {
			So(errors.Is(err, trade.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given a player on both sides", t, func() {
		_, err := trade.Evaluate(sideA, append([]model.Player{player("a1", 5000)}, sideB...), universe)

		Convey("Then it fails with an overlap error", func() {
			So(errors.Is(err, trade.ErrOverlap), ShouldBeTrue)
			So(errors.Is(err, trade.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestSuggest(t *testing.T) {
	Convey("Given candidates on the window edge", t, func() {
		universe := []model.Player{player("edge", 1200), player("in", 1199), player("far", 5000)}
		out := trade.Suggest(1000, universe, nil, nil)

		Convey("Then the edge is excluded", func() {
			So(ids(out), ShouldResemble, []string{"in"})
		})
	})

	Convey("Given equal distances", t, func() {
		universe := []model.Player{player("above", 1100), player("below", 900)}
		out := trade.Suggest(1000, universe, nil, nil)

		Convey("Then universe order breaks the tie", func() {
			So(ids(out), ShouldResemble, []string{"above", "below"})
		})
	})

	Convey("Given a zero difference", t, func() {
		out := trade.Suggest(0, []model.Player{player("1", 0)}, nil, nil)

		Convey("Then nothing is suggested", func() {
			So(out, ShouldBeEmpty)
		})
	})
}
