package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// Publisher forwards classification events to the broker in the background.
// It satisfies detection.Publisher.
type Publisher struct {
	client   Client
	config   Config
	metrics  Metrics
	log      logger.Logger
	inflight chan struct{}
	wg       sync.WaitGroup
}

// NewPublisher returns a Publisher sending on cfg.Topic through client.
func NewPublisher(client Client, cfg Config, metrics Metrics) *Publisher {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = DefaultConfig().MaxInflight
	}
	return &Publisher{
		client:   client,
		config:   cfg,
		metrics:  metrics,
		log:      GetLogger().Module("publisher"),
		inflight: make(chan struct{}, maxInflight),
	}
}

// PublishClassification never blocks the request path. The publish runs in
// its own goroutine bounded by the publish timeout and outlives ctx's
// cancellation so a finished HTTP request does not abort it.
func (p *Publisher) PublishClassification(ctx context.Context, event *detection.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.metrics.IncrementErrors("marshal")
		p.log.Error("failed to encode classification event", logger.Error(err))
		return
	}

	select {
	case p.inflight <- struct{}{}:
	default:
		p.metrics.IncrementErrors("dropped")
		p.log.Warn("too many pending publishes, dropping event", logger.String("file", event.File))
		return
	}

	p.wg.Go(func() {
		defer func() { <-p.inflight }()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.PublishTimeout)
		defer cancel()

		if err := p.client.Publish(pubCtx, p.config.Topic, payload); err != nil {
			p.log.WithContext(ctx).Warn("failed to publish classification event",
				logger.String("topic", p.config.Topic),
				logger.String("file", event.File),
				logger.Error(err))
			return
		}
		p.log.WithContext(ctx).Debug("classification event published",
			logger.String("topic", p.config.Topic),
			logger.Int("bytes", len(payload)))
	})
}

// Close waits for in-flight publishes and disconnects the client.
func (p *Publisher) Close() {
	p.wg.Wait()
	p.client.Disconnect()
}
