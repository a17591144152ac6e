// Package runtime handles live connection bindings, delivery and event propagation.
// It orchestrates the system without containing storage or transport details.
package runtime

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain/event"
	"direct-chat/runtime/workers"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.EventPublisher = (*Orchestrator)(nil)

// Orchestrator owns the domain event channel and the supervised workers draining it.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	domainEvents   chan event.DomainEvent
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	started        bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:          log,
		supervisor:   supervisor,
		domainEvents: make(chan event.DomainEvent, bufferSize),
		sinkTimeout:  sinkTimeout,
	}
}

// Add registers sinks receiving every published event. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
	return o
}

// Publish never blocks the delivery path: when the buffer is full the event is dropped.
func (o *Orchestrator) Publish(e event.DomainEvent) {
	select {
	case o.domainEvents <- e:
	default:
		o.log.Debug(fmt.Sprintf("Domain event channel full, dropping %T", e))
	}
}

// Start registers the fanout worker and blocks while the supervisor runs.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true
	fanout := workers.NewEventFanout(o.log, o.domainEvents, o.sinkTimeout, o.permanentSinks...)
	o.supervisor.Add(fanout)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "sinks", len(o.permanentSinks))
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised context, workers return once their current event is handled.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
