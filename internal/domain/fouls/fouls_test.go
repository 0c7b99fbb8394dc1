package fouls_test

import (
	"testing"

	"github.com/okian/bout/internal/domain/fouls"
	"github.com/okian/bout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker_Award(t *testing.T) {
	Convey("Given a tracker awarding a point every 2 fouls", t, func() {
		var awards []types.Competitor
		tr := fouls.NewTracker(2, func(b types.Competitor) { awards = append(awards, b) })

		Convey("When A commits one foul", func() {
			old, updated := tr.Add(types.A)

			Convey("Then nothing is awarded yet", func() {
				So(old, ShouldEqual, 0)
				So(updated, ShouldEqual, 1)
				So(awards, ShouldBeEmpty)
			})
		})

		Convey("When A commits two fouls", func() {
			tr.Add(types.A)
			tr.Add(types.A)

			Convey("Then B is awarded exactly one point", func() {
				So(awards, ShouldResemble, []types.Competitor{types.B})
			})

			Convey("And two more fouls award B again", func() {
				tr.Add(types.A)
				tr.Add(types.A)
				So(awards, ShouldResemble, []types.Competitor{types.B, types.B})
			})
		})

		Convey("When B commits two fouls", func() {
			tr.Add(types.B)
			tr.Add(types.B)

			Convey("Then A is awarded", func() {
				So(awards, ShouldResemble, []types.Competitor{types.A})
			})
		})

		Convey("When a foul is removed and re-added across a multiple", func() {
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Remove(types.A)
			tr.Add(types.A)

			Convey("Then the multiple awards again", func() {
				So(awards, ShouldResemble, []types.Competitor{types.B, types.B})
			})
		})

		Convey("When removing drops onto a multiple", func() {
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Remove(types.A)

			Convey("Then the decrement does not award", func() {
				So(tr.Fouls(types.A), ShouldEqual, 2)
				So(awards, ShouldHaveLength, 1)
			})
		})
	})
}

func TestTracker_Remove(t *testing.T) {
	Convey("Given an empty tracker", t, func() {
		tr := fouls.NewTracker(2, nil)

		Convey("When removing at zero", func() {
			old, updated := tr.Remove(types.B)

			Convey("Then it is a no-op", func() {
				So(old, ShouldEqual, 0)
				So(updated, ShouldEqual, 0)
				So(tr.Fouls(types.B), ShouldEqual, 0)
			})
		})

		Convey("When fouls are recorded and reset", func() {
			tr.Add(types.A)
			tr.Add(types.B)
			tr.Reset()

			Convey("Then both counts are zero", func() {
				So(tr.Pair().Total(), ShouldEqual, 0)
			})
		})

		Convey("When the threshold changes to 3", func() {
			awarded := 0
			tr = fouls.NewTracker(2, func(types.Competitor) { awarded++ })
			tr.SetThreshold(3)
			tr.Add(types.A)
			tr.Add(types.A)
			So(awarded, ShouldEqual, 0)
			tr.Add(types.A)
			So(awarded, ShouldEqual, 1)
		})
	})
}
