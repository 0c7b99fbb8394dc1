package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/bout/internal/adapters/repository"
	service "github.com/okian/bout/internal/app"
	"github.com/okian/bout/internal/config"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

// recordingSink keeps every delivered notification.
type recordingSink struct {
	mu  sync.Mutex
	got []model.Notification
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Deliver(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recordingSink) kinds() []model.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NotificationKind, len(r.got))
	for i, n := range r.got {
		out[i] = n.Kind
	}
	return out
}

// waitFor polls until a notification of kind was delivered.
func (r *recordingSink) waitFor(kind model.NotificationKind) (model.Notification, bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, n := range r.got {
			if n.Kind == kind {
				r.mu.Unlock()
				return n, true
			}
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	return model.Notification{}, false
}

// brokenStore reads nothing and refuses writes.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", repository.ErrNotFound }
func (brokenStore) Set(context.Context, string, string) error   { return errors.New("disk full") }
func (brokenStore) Close() error                                { return nil }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 1)
			So(stats["queueSize"], ShouldEqual, 1024)
			So(svc.Config(context.Background()), ShouldResemble, model.DefaultMatchConfig())
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(64),
			service.WithWorkerCount(0), // ignored
		)

		Convey("Then they show in the stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 4)
			So(stats["queueSize"], ShouldEqual, 64)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When opening a match before starting", func() {
			_, err := svc.OpenMatch(ctx, "mat-1")

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When notifying before starting", func() {
			Convey("Then the notification is dropped quietly", func() {
				So(func() { svc.Notify(ctx, model.Notification{Kind: model.NotifyMatchReset}) }, ShouldNotPanic)
			})
		})

		Convey("When started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			_, err := svc.OpenMatch(ctx, "mat-1")
			So(err, ShouldBeNil)

			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is stopped with no matches left", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats["matches"], ShouldEqual, 0)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_StoredConfig(t *testing.T) {
	Convey("Given a store holding custom rules", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		custom := model.MatchConfig{PointsToWin: 5, FoulsForPoint: 2, ExitsForWarning: 3, MaxTimeInSeconds: 60}
		So(repository.SaveMatchConfig(ctx, store, repository.DefaultConfigKey, custom), ShouldBeNil)

		svc := service.New(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then new matches use them", func() {
			So(svc.Config(ctx), ShouldResemble, custom)
			m, err := svc.OpenMatch(ctx, "mat-1")
			So(err, ShouldBeNil)
			So(m.Config(ctx), ShouldResemble, custom)
			So(m.Snapshot(ctx).Clock.RemainingSeconds, ShouldEqual, 60)
		})
	})

	Convey("Given a store holding garbage under a custom key", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.Set(ctx, "mat-rules", `{"pointsToWin":"many"}`), ShouldBeNil)

		svc := service.New(service.WithStore(store), service.WithStoreKey("mat-rules"))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then the defaults are used", func() {
			So(svc.Config(ctx), ShouldResemble, model.DefaultMatchConfig())
		})
	})
}

func TestService_Tables(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the same table is opened twice", func() {
			m1, err := svc.OpenMatch(ctx, "mat-2")
			So(err, ShouldBeNil)
			m2, err := svc.OpenMatch(ctx, "mat-2")
			So(err, ShouldBeNil)
			_, err = svc.OpenMatch(ctx, "mat-1")
			So(err, ShouldBeNil)

			Convey("Then one match serves the table", func() {
				So(m1, ShouldEqual, m2)
				So(svc.Tables(), ShouldResemble, []string{"mat-1", "mat-2"})
				got, ok := svc.Match("mat-2")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, m1)
			})

			Convey("Then closing it stops the match", func() {
				So(svc.CloseMatch(ctx, "mat-2"), ShouldBeTrue)
				So(svc.CloseMatch(ctx, "mat-2"), ShouldBeFalse)
				So(m1.Start(ctx), ShouldBeFalse)
				_, ok := svc.Match("mat-2")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When matches run on two tables", func() {
			a, _ := svc.OpenMatch(ctx, "mat-1")
			b, _ := svc.OpenMatch(ctx, "mat-2")
			So(a.Start(ctx), ShouldBeTrue)
			a.AddPoints(ctx, types.A, 3)

			Convey("Then their counts are independent", func() {
				So(a.Snapshot(ctx).Points, ShouldResemble, model.Pair{3, 0})
				So(b.Snapshot(ctx).Points, ShouldResemble, model.Pair{0, 0})
				So(a.ID(), ShouldNotEqual, b.ID())
			})
		})
	})
}

func TestService_UpdateConfig(t *testing.T) {
	Convey("Given a service with an idle and a running table", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		rec := &recordingSink{}
		svc := service.New(service.WithStore(store), service.WithSinks(rec))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		idle, _ := svc.OpenMatch(ctx, "mat-1")
		running, _ := svc.OpenMatch(ctx, "mat-2")
		So(running.Start(ctx), ShouldBeTrue)

		Convey("When the rules change", func() {
			cfg := model.MatchConfig{PointsToWin: 4, FoulsForPoint: 1, ExitsForWarning: 2, MaxTimeInSeconds: 120}
			res, err := svc.UpdateConfig(ctx, cfg)

			Convey("Then the idle table takes them and the running one waits for reset", func() {
				So(err, ShouldBeNil)
				So(res.Applied, ShouldResemble, []string{"mat-1"})
				So(res.Deferred, ShouldResemble, []string{"mat-2"})
				So(idle.Config(ctx), ShouldResemble, cfg)
				So(running.Config(ctx), ShouldResemble, model.DefaultMatchConfig())
				pending, ok := running.Pending(ctx)
				So(ok, ShouldBeTrue)
				So(pending, ShouldResemble, cfg)
			})

			Convey("Then they are persisted and announced", func() {
				So(repository.LoadMatchConfig(ctx, store, repository.DefaultConfigKey, nil), ShouldResemble, cfg)
				n, ok := rec.waitFor(model.NotifyConfigChanged)
				So(ok, ShouldBeTrue)
				So(n.Payload, ShouldResemble, model.ConfigPayload{Config: cfg})
			})

			Convey("Then restoring defaults persists 7/2/3/90", func() {
				_, err := svc.ResetConfig(ctx)
				So(err, ShouldBeNil)
				So(svc.Config(ctx), ShouldResemble, model.DefaultMatchConfig())
				So(repository.LoadMatchConfig(ctx, store, repository.DefaultConfigKey, nil), ShouldResemble, model.DefaultMatchConfig())
			})
		})

		Convey("When the rules are invalid", func() {
			_, err := svc.UpdateConfig(ctx, model.MatchConfig{PointsToWin: 0, FoulsForPoint: 1, ExitsForWarning: 1, MaxTimeInSeconds: 1})

			Convey("Then nothing changes", func() {
				So(errors.Is(err, model.ErrInvalidMatchConfig), ShouldBeTrue)
				So(svc.Config(ctx), ShouldResemble, model.DefaultMatchConfig())
			})
		})
	})

	Convey("Given a store that refuses writes", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithStore(brokenStore{}))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		m, _ := svc.OpenMatch(ctx, "mat-1")

		Convey("When the rules change", func() {
			cfg := model.MatchConfig{PointsToWin: 3, FoulsForPoint: 2, ExitsForWarning: 3, MaxTimeInSeconds: 90}
			_, err := svc.UpdateConfig(ctx, cfg)

			Convey("Then the save error is reported but the rules are in force", func() {
				So(errors.Is(err, service.ErrConfigNotSaved), ShouldBeTrue)
				So(svc.Config(ctx), ShouldResemble, cfg)
				So(m.Config(ctx), ShouldResemble, cfg)
			})
		})
	})
}

func TestService_FromConfig(t *testing.T) {
	Convey("Given process configuration with the point_opponent policy", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.ExitPenalty = "point_opponent"
		cfg.WorkerCount = 2
		cfg.QueueSize = 8

		Convey("When a service is built from it", func() {
			opts, err := service.FromConfig(cfg)
			So(err, ShouldBeNil)
			svc := service.New(append(opts, service.WithStore(repository.NewMemoryStore()))...)
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then the pool and queue follow the configuration", func() {
				stats := svc.GetStats()
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 8)
			})

			Convey("Then an exit warning gives the opponent a point", func() {
				m, openErr := svc.OpenMatch(ctx, "t1")
				So(openErr, ShouldBeNil)
				for i := 0; i < model.DefaultExitsForWarning; i++ {
					m.AddExit(ctx, types.A)
				}
				snap := m.Snapshot(ctx)
				So(snap.Points[types.B], ShouldEqual, 1)
				So(snap.Fouls[types.A], ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unknown timeline order", t, func() {
		cfg := config.New()
		cfg.TimelineOrder = "sideways"

		Convey("Then no options are built", func() {
			opts, err := service.FromConfig(cfg)
			So(opts, ShouldBeNil)
			So(errors.Is(err, types.ErrInvalidOrder), ShouldBeTrue)
		})
	})
}
