package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/keypoints/internal/logger"
	"github.com/kailas-cloud/keypoints/internal/metrics"
)

// Stage names a pipeline step. StagePipeline brackets a whole run.
type Stage string

// Pipeline stages in execution order.
const (
	StagePipeline Stage = "pipeline"
	StageSegment  Stage = "segment"
	StageEmbed    Stage = "embed"
	StageSelect   Stage = "select"
)

// Phase tells whether an event opens or closes a stage.
type Phase string

// Event phases.
const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// Event is a progress notification. Items is the stage input size on start
// and the output size on a successful end. Duration and Err are set on end only.
type Event struct {
	Stage    Stage
	Phase    Phase
	Items    int
	Duration time.Duration
	Err      error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}

// InstrumentedObserver logs stage events and records extraction metrics.
// The request logger from ctx is preferred over the base logger.
type InstrumentedObserver struct {
	logger *zap.Logger
}

// NewInstrumentedObserver creates an observer. Metrics must be registered by the caller.
func NewInstrumentedObserver(logger *zap.Logger) *InstrumentedObserver {
	return &InstrumentedObserver{logger: logger}
}

// Observe implements Observer.
func (o *InstrumentedObserver) Observe(ctx context.Context, ev Event) {
	l := logpkg.FromContextOr(ctx, o.logger)

	if ev.Phase == PhaseStart {
		l.Debug("extraction stage started",
			zap.String("stage", string(ev.Stage)),
			zap.Int("items", ev.Items),
		)
		return
	}

	status := "success"
	if ev.Err != nil {
		status = "error"
	}
	metrics.ExtractionStageDuration.WithLabelValues(string(ev.Stage), status).Observe(ev.Duration.Seconds())

	if ev.Stage == StagePipeline {
		metrics.ExtractionRunsTotal.WithLabelValues(status).Inc()
		if ev.Err == nil {
			metrics.ExtractionKeyPoints.Observe(float64(ev.Items))
		}
	}

	if ev.Err != nil {
		l.Warn("extraction stage failed",
			zap.String("stage", string(ev.Stage)),
			zap.Duration("duration", ev.Duration),
			zap.Error(ev.Err),
		)
		return
	}
	l.Debug("extraction stage finished",
		zap.String("stage", string(ev.Stage)),
		zap.Int("items", ev.Items),
		zap.Duration("duration", ev.Duration),
	)
}
