package scoring_test

import (
	"math"
	"testing"

	scoring "github.com/okian/bout/internal/domain/scoring"
	"github.com/okian/bout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger_Add(t *testing.T) {
	Convey("Given a ledger won at 7", t, func() {
		l := scoring.NewLedger(7)

		Convey("When adding points", func() {
			old, updated := l.Add(types.A, 2)

			Convey("Then the total grows and the old value is reported", func() {
				So(old, ShouldEqual, 0)
				So(updated, ShouldEqual, 2)
				So(l.Points(types.A), ShouldEqual, 2)
				So(l.Points(types.B), ShouldEqual, 0)
			})
		})

		Convey("When a correction would go below zero", func() {
			l.Add(types.B, 1)
			old, updated := l.Add(types.B, -3)

			Convey("Then the total is clamped at zero", func() {
				So(old, ShouldEqual, 1)
				So(updated, ShouldEqual, 0)
				So(l.Points(types.B), ShouldEqual, 0)
			})
		})
	})
}

func TestLedger_AddHuge(t *testing.T) {
	Convey("Given a ledger where A already has 3", t, func() {
		l := scoring.NewLedger(7)
		l.Add(types.A, 3)

		Convey("When the largest possible amount is added", func() {
			old, updated := l.Add(types.A, math.MaxInt)

			Convey("Then the total saturates instead of wrapping", func() {
				So(old, ShouldEqual, 3)
				So(updated, ShouldEqual, math.MaxInt)
				winner, ok := l.Winner()
				So(ok, ShouldBeTrue)
				So(winner, ShouldEqual, types.A)
			})

			Convey("And adding more keeps it there", func() {
				_, again := l.Add(types.A, 1)
				So(again, ShouldEqual, math.MaxInt)
				_, down := l.Add(types.A, math.MinInt)
				So(down, ShouldEqual, 0)
			})
		})
	})
}

func TestLedger_Winner(t *testing.T) {
	Convey("Given a ledger won at 7", t, func() {
		l := scoring.NewLedger(7)

		Convey("When nobody reached the target", func() {
			l.Add(types.A, 6)
			l.Add(types.B, 5)

			Convey("Then there is no winner", func() {
				So(l.HasWinner(), ShouldBeFalse)
				_, ok := l.Winner()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When A reaches 7 against 5", func() {
			l.Add(types.A, 7)
			l.Add(types.B, 5)

			Convey("Then A wins", func() {
				w, ok := l.Winner()
				So(ok, ShouldBeTrue)
				So(w, ShouldEqual, types.A)
			})
		})

		Convey("When both reached the target", func() {
			l.Add(types.B, 8)
			l.Add(types.A, 7)

			Convey("Then A takes precedence", func() {
				w, _ := l.Winner()
				So(w, ShouldEqual, types.A)
			})
		})

		Convey("When the target is lowered", func() {
			l.Add(types.B, 3)
			l.SetTarget(3)

			Convey("Then the new target applies", func() {
				So(l.Target(), ShouldEqual, 3)
				w, ok := l.Winner()
				So(ok, ShouldBeTrue)
				So(w, ShouldEqual, types.B)
			})
		})

		Convey("When reset", func() {
			l.Add(types.A, 4)
			l.Reset()

			Convey("Then both totals are zero", func() {
				So(l.Pair().Total(), ShouldEqual, 0)
			})
		})
	})
}
