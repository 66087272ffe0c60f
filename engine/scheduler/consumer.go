package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/natsutil"
)

// Consumer drives report_status messages through Advance with bounded
// concurrency: many goroutines, one per in-flight message, gated by a
// semaphore channel of capacity Workers — the same shape as
// pkg/fn.ParMap's worker pool, generalized from a fixed-size slice to an
// open-ended NATS message stream.
type Consumer struct {
	Deps    Deps
	Workers int

	sub *nats.Subscription
	ch  chan *nats.Msg
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewConsumer builds a Consumer bound to deps. workers <= 0 defaults to 4.
func NewConsumer(deps Deps, workers int) *Consumer {
	if workers <= 0 {
		workers = 4
	}
	return &Consumer{
		Deps:    deps,
		Workers: workers,
		ch:      make(chan *nats.Msg, 64),
		sem:     make(chan struct{}, workers),
	}
}

// Start subscribes to ReportStatusSubject and begins dispatching messages
// to the worker pool. Call Stop to unsubscribe and drain in-flight work.
func (c *Consumer) Start() error {
	sub, err := c.Deps.NC.ChanSubscribe(ReportStatusSubject, c.ch)
	if err != nil {
		return fmt.Errorf("scheduler: subscribe %s: %w", ReportStatusSubject, err)
	}
	c.sub = sub

	go c.dispatch()
	return nil
}

// Stop unsubscribes and waits for in-flight handlers to finish.
func (c *Consumer) Stop() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			return err
		}
	}
	close(c.ch)
	c.wg.Wait()
	return nil
}

func (c *Consumer) dispatch() {
	for msg := range c.ch {
		c.wg.Add(1)
		c.sem <- struct{}{}
		go func(msg *nats.Msg) {
			defer func() { <-c.sem; c.wg.Done() }()
			c.handle(msg)
		}(msg)
	}
}

func (c *Consumer) handle(msg *nats.Msg) {
	log := c.Deps.logger()

	var state core.ReportState
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		log.Error("scheduler: unmarshal failed", "error", err)
		return
	}

	retries := retryCount(msg)
	ctx := context.Background()

	updated, hasNext, err := Advance(ctx, c.Deps, state)
	if err != nil {
		requeueOrDrop(c.Deps, msg, state, err, retries)
		return
	}

	log.Info("scheduler: stage advanced", "report_id", updated.ID, "last_stage", updated.LastStage)

	if !hasNext {
		return
	}

	if err := natsutil.Publish(ctx, c.Deps.NC, ReportStatusSubject, updated); err != nil {
		log.Error("scheduler: republish failed", "report_id", updated.ID, "error", err)
	}
}

// retryCount reads the X-Retry-Count header NATS core carries as plain
// message metadata, since it has no delivery-count field of its own.
func retryCount(msg *nats.Msg) int {
	if msg.Header == nil {
		return 0
	}
	retries := 0
	if v := msg.Header.Get(retryHeader); v != "" {
		fmt.Sscanf(v, "%d", &retries)
	}
	return retries
}

// requeueOrDrop implements the manual-ack/requeue adaptation of "the broker
// redelivers on unacked message": republish to the same subject with an
// incremented retry header, or give up to the DLQ past MaxRetries.
func requeueOrDrop(deps Deps, msg *nats.Msg, state core.ReportState, stageErr error, retries int) {
	log := deps.logger()
	retries++
	log.Error("scheduler: stage failed",
		"report_id", state.ID,
		"last_stage", state.LastStage,
		"retry", retries,
		"error", stageErr,
	)

	if retries >= MaxRetries {
		dlq := dlqMessage{State: state, Error: stageErr.Error(), Retries: retries}
		data, err := json.Marshal(dlq)
		if err != nil {
			log.Error("scheduler: marshal DLQ message failed", "error", err)
			return
		}
		if err := deps.NC.Publish(DLQSubject, data); err != nil {
			log.Error("scheduler: DLQ publish failed", "report_id", state.ID, "error", err)
		}
		return
	}

	retryMsg := nats.NewMsg(ReportStatusSubject)
	retryMsg.Data = msg.Data
	retryMsg.Header = nats.Header{}
	retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
	if err := deps.NC.PublishMsg(retryMsg); err != nil {
		log.Error("scheduler: retry publish failed", "report_id", state.ID, "error", err)
	}
}

// Publisher adapts a NATS connection to core.Publisher, letting an external
// caller (e.g. cmd/reportctl submitting a fresh report) enqueue the first
// report_status message the same way the scheduler republishes later ones.
type Publisher struct {
	NC *nats.Conn
}

// Publish implements core.Publisher.
func (p Publisher) Publish(ctx context.Context, s core.ReportState) error {
	return natsutil.Publish(ctx, p.NC, ReportStatusSubject, s)
}

var _ core.Publisher = Publisher{}
