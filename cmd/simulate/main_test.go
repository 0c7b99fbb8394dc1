package main

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/bout/internal/config"
	"github.com/okian/bout/internal/simulate"
	"github.com/okian/bout/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory store and a fast clock", t, func() {
		cfg := config.New()
		cfg.StoreBackend = "memory"
		cfg.Whistle = false
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		convey.Convey("When a few bouts are simulated", func() {
			var out bytes.Buffer
			err := run(ctx, cfg, &simulate.Config{
				Bouts:       2,
				Actions:     10,
				Workers:     2,
				BoutTimeout: 5 * time.Second,
			}, time.Millisecond, &out)

			convey.Convey("Then a summary is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldStartWith, "bouts 2, finished 2,")
				convey.So(out.String(), convey.ShouldContainSubstring, "wins A ")
			})
		})
	})
}
