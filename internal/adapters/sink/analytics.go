// Package sink holds the collaborators notifications are delivered to.
package sink

import (
	"context"
	"fmt"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/pkg/metrics"
)

// Analytics turns notifications into Prometheus counters and histograms.
type Analytics struct{}

// NewAnalytics creates the analytics sink.
func NewAnalytics() *Analytics { return &Analytics{} }

func (a *Analytics) Name() string { return "analytics" }

// Deliver records n. Only a payload of the wrong type fails.
func (a *Analytics) Deliver(_ context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: matches worker.Sink
	switch n.Kind {
	case model.NotifyMatchStarted:
		metrics.RecordMatchStarted()
	case model.NotifyMatchFinished:
		p, ok := n.Payload.(model.FinishedPayload)
		if !ok {
			return unexpected(n)
		}
		metrics.RecordMatchFinished(string(p.Reason), p.Snapshot.Status.WinnerName(), float64(p.Snapshot.ElapsedSeconds))
	case model.NotifyPointsChanged, model.NotifyFoulsChanged, model.NotifyExitsChanged:
		p, ok := n.Payload.(model.ChangePayload)
		if !ok {
			return unexpected(n)
		}
		direction := "up"
		if p.Delta < 0 {
			direction = "down"
		}
		metrics.RecordScoreChange(string(p.Kind), p.Competitor.String(), direction)
	case model.NotifyConfigChanged:
		metrics.RecordConfigChange()
	}
	return nil
}

func unexpected(n model.Notification) error { //nolint:gocritic // hugeParam
	return fmt.Errorf("%w: %s carries %T", ErrUnexpectedPayload, n.Kind, n.Payload)
}
