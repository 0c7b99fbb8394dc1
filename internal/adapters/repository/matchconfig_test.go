package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/bout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchConfigPersistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := NewMemoryStore()

		Convey("When loading", func() {
			cfg := LoadMatchConfig(ctx, s, DefaultConfigKey, nil)

			Convey("Then the defaults are returned", func() {
				So(cfg, ShouldResemble, model.DefaultMatchConfig())
			})
		})

		Convey("When a config is saved", func() {
			want := model.MatchConfig{PointsToWin: 5, FoulsForPoint: 3, ExitsForWarning: 2, MaxTimeInSeconds: 120}
			So(SaveMatchConfig(ctx, s, DefaultConfigKey, want), ShouldBeNil)

			Convey("Then it is stored in the persisted JSON format", func() {
				raw, err := s.Get(ctx, DefaultConfigKey)
				So(err, ShouldBeNil)
				So(raw, ShouldEqual, `{"pointsToWin":5,"foulsForPoint":3,"exitsForWarning":2,"maxTimeInSeconds":120}`)
			})

			Convey("Then it loads back", func() {
				So(LoadMatchConfig(ctx, s, DefaultConfigKey, nil), ShouldResemble, want)
			})
		})

		Convey("When saving an invalid config", func() {
			err := SaveMatchConfig(ctx, s, DefaultConfigKey, model.MatchConfig{PointsToWin: -1, FoulsForPoint: 1, ExitsForWarning: 1, MaxTimeInSeconds: 1})

			Convey("Then nothing is written", func() {
				So(errors.Is(err, model.ErrInvalidMatchConfig), ShouldBeTrue)
				_, getErr := s.Get(ctx, DefaultConfigKey)
				So(errors.Is(getErr, ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given stored values that do not qualify", t, func() {
		cases := []struct{ name, raw string }{
			{"not json", `pointsToWin=7`},
			{"missing field", `{"pointsToWin":7,"foulsForPoint":2,"exitsForWarning":3}`},
			{"string number", `{"pointsToWin":"7","foulsForPoint":2,"exitsForWarning":3,"maxTimeInSeconds":90}`},
			{"null field", `{"pointsToWin":null,"foulsForPoint":2,"exitsForWarning":3,"maxTimeInSeconds":90}`},
			{"fraction", `{"pointsToWin":7.5,"foulsForPoint":2,"exitsForWarning":3,"maxTimeInSeconds":90}`},
			{"zero", `{"pointsToWin":7,"foulsForPoint":0,"exitsForWarning":3,"maxTimeInSeconds":90}`},
			{"negative", `{"pointsToWin":7,"foulsForPoint":2,"exitsForWarning":3,"maxTimeInSeconds":-90}`},
			{"array", `[7,2,3,90]`},
		}

		for _, tc := range cases {
			s := NewMemoryStore()
			So(s.Set(ctx, DefaultConfigKey, tc.raw), ShouldBeNil)

			Convey("Then "+tc.name+" falls back to defaults", func() {
				So(LoadMatchConfig(ctx, s, DefaultConfigKey, nil), ShouldResemble, model.DefaultMatchConfig())
			})
		}
	})

	Convey("Given extra fields next to valid ones", t, func() {
		s := NewMemoryStore()
		So(s.Set(ctx, DefaultConfigKey, `{"pointsToWin":3,"foulsForPoint":1,"exitsForWarning":1,"maxTimeInSeconds":30,"theme":"dark"}`), ShouldBeNil)

		Convey("Then the known fields are used", func() {
			So(LoadMatchConfig(ctx, s, DefaultConfigKey, nil), ShouldResemble,
				model.MatchConfig{PointsToWin: 3, FoulsForPoint: 1, ExitsForWarning: 1, MaxTimeInSeconds: 30})
		})
	})
}
