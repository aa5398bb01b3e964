package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Shopify/sarama"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
)

// Handler is the contract a consumer implements: ShouldProcess is a
// pre-filter that acks without doing work when it returns false, and
// strictly precedes Process for any given delivery (spec §4.2 obligation
// 6). Process returns the number of units it handled, used only for
// status reporting.
type Handler interface {
	ShouldProcess(envelope Envelope) bool
	Process(ctx context.Context, envelope Envelope) (count int, err error)
}

// RunnerConfig controls a Runner's concurrency and retry policy, sourced
// from config.Consumer.
type RunnerConfig struct {
	Name          string
	MaxConcurrent int
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	GracePeriod   time.Duration
}

// Runner drives a Handler over deliveries from one or more sarama topics,
// enforcing the six consumer-runner obligations of spec §4.2. It does not
// itself hold a sync.Once singleton state the way the teacher's
// kafka.Consumer does — one Runner per consumer instance, constructed
// explicitly.
type Runner struct {
	cfg     RunnerConfig
	handler Handler
	cache   *cacher.Client
	status  *statusTracker

	sem      chan struct{}
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewRunner builds a Runner. cache may be nil, in which case status
// flushes are skipped (used in tests).
func NewRunner(cfg RunnerConfig, handler Handler, cache *cacher.Client) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 30 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		handler:  handler,
		cache:    cache,
		status:   newStatusTracker(cfg.Name),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		shutdown: make(chan struct{}),
	}
}

// Run consumes from group over topics until ctx is canceled or Shutdown is
// called, mirroring the teacher's Consumer.Subscribe select loop over
// (response, cancel, ctx.Done()).
func (r *Runner) Run(ctx context.Context, group sarama.ConsumerGroup, topics []string) error {
	defer group.Close()

	res := make(chan error, 1)
	for {
		go func() {
			res <- group.Consume(ctx, topics, r)
		}()

		select {
		case err := <-res:
			if err != nil {
				logger.Error("consumer group session ended with error", "consumer", r.cfg.Name, "err", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.shutdown:
				return nil
			default:
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-r.shutdown:
			return nil
		}
	}
}

// Shutdown stops new deliveries from being accepted and waits up to
// GracePeriod for in-flight deliveries to finish (spec §4.2 obligation 5).
func (r *Runner) Shutdown() {
	close(r.shutdown)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(r.cfg.GracePeriod):
		logger.Warn("shutdown grace period elapsed with deliveries still in flight", "consumer", r.cfg.Name)
	}
}

// Setup satisfies sarama.ConsumerGroupHandler.
func (r *Runner) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup satisfies sarama.ConsumerGroupHandler.
func (r *Runner) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim satisfies sarama.ConsumerGroupHandler. Deliveries within one
// claim have no ordering guarantee relative to each other once
// MaxConcurrent > 1 (spec §4.2 obligation 6); each delivery still runs
// ShouldProcess strictly before Process.
func (r *Runner) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-r.shutdown:
			return nil
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			select {
			case r.sem <- struct{}{}:
			case <-r.shutdown:
				return nil
			}

			r.wg.Add(1)
			go func(msg *sarama.ConsumerMessage) {
				defer r.wg.Done()
				defer func() { <-r.sem }()
				r.handleDelivery(session, msg)
			}(message)
		}
	}
}

func (r *Runner) handleDelivery(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) {
	var envelope Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		logger.Error("dropping malformed delivery", "consumer", r.cfg.Name, "err", err)
		session.MarkMessage(msg, "")
		r.flushStatus()
		return
	}

	if !r.handler.ShouldProcess(envelope) {
		session.MarkMessage(msg, "")
		return
	}

	attempt := headerAttempt(msg.Headers)
	start := time.Now()
	ctx := context.Background()
	_, err := r.handler.Process(ctx, envelope)
	duration := time.Since(start)

	if err == nil {
		session.MarkMessage(msg, "")
		r.status.recordSuccess(duration)
		r.flushStatus()
		return
	}

	r.status.recordError(duration, err.Error())
	r.flushStatus()

	if errs.Retryable(err) && attempt < r.cfg.MaxRetries {
		backoff := r.backoffFor(attempt)
		logger.Warn("retrying delivery after error", "consumer", r.cfg.Name, "attempt", attempt, "backoff", backoff, "err", err)
		select {
		case <-time.After(backoff):
		case <-r.shutdown:
			return
		}
		attempt++
		if retryErr := r.retryInline(ctx, envelope, attempt); retryErr == nil {
			session.MarkMessage(msg, "")
			r.status.recordSuccess(time.Since(start))
			r.flushStatus()
			return
		}
	}

	logger.Error("dead-lettering delivery after exhausting retries", "consumer", r.cfg.Name, "err", err)
	session.MarkMessage(msg, "")
}

// retryInline re-runs ShouldProcess/Process for a delivery that sarama has
// already delivered once; sarama has no native requeue, so retries happen
// in-process rather than via redelivery (spec §6 notes this approximation).
func (r *Runner) retryInline(ctx context.Context, envelope Envelope, attempt int) error {
	for a := attempt; a <= r.cfg.MaxRetries; a++ {
		if !r.handler.ShouldProcess(envelope) {
			return nil
		}
		_, err := r.handler.Process(ctx, envelope)
		if err == nil {
			return nil
		}
		if !errs.Retryable(err) {
			return err
		}
		select {
		case <-time.After(r.backoffFor(a)):
		case <-r.shutdown:
			return err
		}
	}
	return errs.Transientf(nil, "exhausted retries")
}

func (r *Runner) backoffFor(attempt int) time.Duration {
	d := r.cfg.BaseDelay << uint(attempt)
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		return r.cfg.MaxDelay
	}
	return d
}

func (r *Runner) flushStatus() {
	if r.cache == nil {
		return
	}
	key := cacher.NewConsumerStatusKey(r.cfg.Name)
	if err := r.cache.Set(key, r.status.snapshot()); err != nil {
		logger.Warn("failed to flush consumer status", "consumer", r.cfg.Name, "err", err)
	}
}

// Status returns the Runner's current ConsumerStatus snapshot, the same
// value flushStatus writes to the cache.
func (r *Runner) Status() primitives.ConsumerStatus {
	return r.status.snapshot()
}

func headerAttempt(headers []*sarama.RecordHeader) int {
	for _, h := range headers {
		if string(h.Key) == HeaderAttempt {
			n := 0
			for _, c := range h.Value {
				if c < '0' || c > '9' {
					return 0
				}
				n = n*10 + int(c-'0')
			}
			return n
		}
	}
	return 0
}
