package service_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/adapters/sink"
	service "github.com/okian/bout/internal/app"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// lockedBuffer lets the whistle write while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec := &recordingSink{}
		whistle := &lockedBuffer{}
		svc := service.New(
			service.WithSinks(rec, sink.NewAnalytics(), sink.NewWhistle(whistle)),
			service.WithRetryDelay(time.Millisecond),
			service.WithClockOptions(clock.WithInterval(5*time.Millisecond)),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a bout is won on points", func() {
			m, err := svc.OpenMatch(ctx, "mat-1")
			So(err, ShouldBeNil)
			So(m.Start(ctx), ShouldBeTrue)
			m.AddPoints(ctx, types.A, 5)
			m.AddFoul(ctx, types.B)
			m.AddFoul(ctx, types.B) // awards A its sixth point
			m.AddPoints(ctx, types.A, 1)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every notification arrives in emission order", func() {
				So(rec.kinds(), ShouldResemble, []model.NotificationKind{
					model.NotifyMatchStarted,
					model.NotifyPointsChanged,
					model.NotifyFoulsChanged,
					model.NotifyFoulsChanged,
					model.NotifyPointsChanged,
					model.NotifyPointsChanged,
					model.NotifyMatchFinished,
				})
			})

			Convey("And the whistle announces the winner", func() {
				So(whistle.String(), ShouldEqual, "\a[mat-1] A wins by points\n")
			})

			Convey("And the service reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When a bout runs out of time level on everything", func() {
			_, err := svc.UpdateConfig(ctx, model.MatchConfig{PointsToWin: 7, FoulsForPoint: 2, ExitsForWarning: 3, MaxTimeInSeconds: 1})
			So(err, ShouldBeNil)
			m, err := svc.OpenMatch(ctx, "mat-2")
			So(err, ShouldBeNil)
			So(m.Start(ctx), ShouldBeTrue)

			n, ok := rec.waitFor(model.NotifyMatchFinished)
			_ = svc.Stop(ctx)

			Convey("Then it finishes as a draw", func() {
				So(ok, ShouldBeTrue)
				p := n.Payload.(model.FinishedPayload)
				So(p.Reason, ShouldEqual, types.ReasonDraw)
				So(p.Winner, ShouldBeNil)
				So(whistle.String(), ShouldEqual, "\a[mat-2] draw\n")
			})
		})

	})
}

func TestServiceIntegration_FastClock(t *testing.T) {
	Convey("Given a service whose clocks tick every few milliseconds", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(repository.SaveMatchConfig(ctx, store, repository.DefaultConfigKey,
			model.MatchConfig{PointsToWin: 7, FoulsForPoint: 2, ExitsForWarning: 3, MaxTimeInSeconds: 3}), ShouldBeNil)
		rec := &recordingSink{}
		svc := service.New(
			service.WithStore(store),
			service.WithSinks(rec),
			service.WithClockOptions(clock.WithInterval(5*time.Millisecond)),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When B leads as time runs out", func() {
			m, _ := svc.OpenMatch(ctx, "mat-3")
			So(m.Start(ctx), ShouldBeTrue)
			m.AddPoints(ctx, types.B, 1)
			n, ok := rec.waitFor(model.NotifyMatchFinished)

			Convey("Then B wins on time with the clock at zero", func() {
				So(ok, ShouldBeTrue)
				p := n.Payload.(model.FinishedPayload)
				So(p.Reason, ShouldEqual, types.ReasonTime)
				So(*p.Winner, ShouldEqual, types.B)
				So(p.Snapshot.Clock.RemainingSeconds, ShouldEqual, 0)
				So(p.Snapshot.Clock.Running, ShouldBeFalse)
				So(m.Phase(ctx), ShouldEqual, types.PhaseFinished)
			})
		})
	})
}
