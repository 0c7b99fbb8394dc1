package exits_test

import (
	"testing"

	"github.com/okian/bout/internal/domain/exits"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker_Penalty(t *testing.T) {
	Convey("Given a tracker warning every 3 exits", t, func() {
		var penalties []types.Competitor
		tr := exits.NewTracker(3, func(c types.Competitor) { penalties = append(penalties, c) })

		Convey("When A goes from 2 to 3 exits", func() {
			tr.Add(types.A)
			tr.Add(types.A)
			So(penalties, ShouldBeEmpty)
			tr.Add(types.A)

			Convey("Then the penalty fires exactly once", func() {
				So(penalties, ShouldResemble, []types.Competitor{types.A})
				So(tr.Warnings(types.A), ShouldEqual, 1)
			})

			Convey("And exits 4 and 5 do not refire", func() {
				tr.Add(types.A)
				tr.Add(types.A)
				So(penalties, ShouldHaveLength, 1)
			})

			Convey("And the sixth exit fires the next level", func() {
				tr.Add(types.A)
				tr.Add(types.A)
				tr.Add(types.A)
				So(penalties, ShouldResemble, []types.Competitor{types.A, types.A})
				So(tr.Warnings(types.A), ShouldEqual, 2)
			})

			Convey("And oscillating around the threshold does not refire", func() {
				tr.Remove(types.A)
				So(tr.Warnings(types.A), ShouldEqual, 0)
				tr.Add(types.A)
				So(penalties, ShouldHaveLength, 1)
			})
		})

		Convey("When B reaches 3 exits", func() {
			tr.Add(types.B)
			tr.Add(types.B)
			tr.Add(types.B)

			Convey("Then the offender is B", func() {
				So(penalties, ShouldResemble, []types.Competitor{types.B})
				So(tr.WarningPair(), ShouldResemble, model.Pair{0, 1})
			})
		})

		Convey("When reset after a penalty", func() {
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Reset()
			tr.Add(types.A)
			tr.Add(types.A)
			tr.Add(types.A)

			Convey("Then the high-water mark is cleared too", func() {
				So(penalties, ShouldHaveLength, 2)
			})
		})
	})
}

func TestTracker_Remove(t *testing.T) {
	Convey("Given an empty tracker", t, func() {
		tr := exits.NewTracker(3, nil)

		Convey("When removing at zero", func() {
			old, updated := tr.Remove(types.A)

			Convey("Then the count stays at zero", func() {
				So(old, ShouldEqual, 0)
				So(updated, ShouldEqual, 0)
				So(tr.Exits(types.A), ShouldEqual, 0)
			})
		})

		Convey("When a nil callback tracker crosses the threshold", func() {
			for i := 0; i < 3; i++ {
				tr.Add(types.B)
			}

			Convey("Then it does not panic and counts warnings", func() {
				So(tr.Pair().Get(types.B), ShouldEqual, 3)
				So(tr.Warnings(types.B), ShouldEqual, 1)
			})
		})
	})
}
