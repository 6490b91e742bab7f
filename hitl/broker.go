package hitl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstpixel/agent-workflow/workflow"
)

// DefaultPollInterval is how often Ask re-reads the store for answers
// written by another process.
const DefaultPollInterval = time.Second

// Broker mediates between suspended workflow nodes and whoever answers
// their input requests. Ask blocks until Answer resolves the request,
// either in process through the broker or out of process through the
// shared store.
type Broker struct {
	store        Store
	logger       *zap.Logger
	timeout      time.Duration
	pollInterval time.Duration

	mu      sync.Mutex
	waiters map[string]chan string
}

// NewBroker creates a broker over the store.
func NewBroker(store Store, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		store:        store,
		logger:       logger.With(zap.String("component", "hitl_broker")),
		pollInterval: DefaultPollInterval,
		waiters:      make(map[string]chan string),
	}
}

// WithTimeout bounds how long Ask waits for an answer. Zero waits until
// the context ends.
func (b *Broker) WithTimeout(d time.Duration) *Broker {
	b.timeout = d
	return b
}

// WithPollInterval sets how often Ask re-reads the store. Zero disables
// polling, leaving in-process Answer calls as the only resolution path.
func (b *Broker) WithPollInterval(d time.Duration) *Broker {
	b.pollInterval = d
	return b
}

// Ask registers a pending request and blocks until it is answered, the
// timeout elapses, or the context ends. Unanswered requests are marked
// canceled in the store on the way out.
func (b *Broker) Ask(ctx context.Context, runID, node, prompt string) (string, error) {
	req := &Request{
		ID:        uuid.NewString(),
		RunID:     runID,
		Node:      node,
		Prompt:    prompt,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.store.Save(ctx, req); err != nil {
		return "", err
	}

	ch := make(chan string, 1)
	b.mu.Lock()
	b.waiters[req.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.waiters, req.ID)
		b.mu.Unlock()
	}()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	b.logger.Info("awaiting user input",
		zap.String("request_id", req.ID),
		zap.String("run_id", runID),
		zap.String("node", node),
	)

	var poll <-chan time.Time
	if b.pollInterval > 0 {
		ticker := time.NewTicker(b.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}
	for {
		select {
		case answer := <-ch:
			return answer, nil
		case <-poll:
			cur, err := b.store.Load(ctx, req.ID)
			if err != nil {
				continue
			}
			if cur.Status == StatusAnswered {
				return cur.Answer, nil
			}
		case <-ctx.Done():
			b.cancelRequest(req)
			return "", fmt.Errorf("input request for node %s: %w", node, ctx.Err())
		}
	}
}

// Answer resolves a pending request with the given value, unblocking an
// in-process Ask immediately.
func (b *Broker) Answer(ctx context.Context, id, value string) error {
	req, err := b.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyResolved, id, req.Status)
	}
	req.Status = StatusAnswered
	req.Answer = value
	req.ResolvedAt = time.Now().UTC()
	if err := b.store.Update(ctx, req); err != nil {
		return err
	}

	b.mu.Lock()
	ch, ok := b.waiters[id]
	b.mu.Unlock()
	if ok {
		select {
		case ch <- value:
		default:
		}
	}
	b.logger.Info("input request answered",
		zap.String("request_id", id),
		zap.String("node", req.Node),
	)
	return nil
}

// Pending lists the unanswered requests for a run.
func (b *Broker) Pending(ctx context.Context, runID string) ([]*Request, error) {
	return b.store.ListPending(ctx, runID)
}

func (b *Broker) cancelRequest(req *Request) {
	req.Status = StatusCanceled
	req.ResolvedAt = time.Now().UTC()
	// The waiting run is already past its deadline; give the store write
	// its own short budget.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.store.Update(ctx, req); err != nil {
		b.logger.Warn("failed to mark request canceled",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
	}
}

// Port binds the broker to one run as a workflow input port.
func (b *Broker) Port(runID string) workflow.InputPort {
	return &brokerPort{broker: b, runID: runID}
}

type brokerPort struct {
	broker *Broker
	runID  string
}

func (p *brokerPort) RequestUserInput(ctx context.Context, node, priorContext string) (string, error) {
	return p.broker.Ask(ctx, p.runID, node, priorContext)
}
