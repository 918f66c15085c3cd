package events

import (
	"context"
	"time"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Sink is the transport events are written to. The Kafka producer
// implements it; NopSink discards events when no brokers are configured.
type Sink interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// NopSink discards every event
type NopSink struct{}

// Publish does nothing
func (NopSink) Publish(context.Context, string, string, interface{}) error { return nil }

// SimulationCompleted is emitted after a simulation result is stored
type SimulationCompleted struct {
	BaseEvent
	SimulationID     string `json:"simulation_id"`
	TotalProfit      string `json:"total_profit"`
	EfficiencyScore  string `json:"efficiency_score"`
	OnTimeDeliveries int    `json:"on_time_deliveries"`
	LateDeliveries   int    `json:"late_deliveries"`
}

// StepReport is one deploy step's outcome inside DeployCompleted
type StepReport struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// DeployCompleted is emitted when the deploy pipeline finishes
type DeployCompleted struct {
	BaseEvent
	Succeeded bool         `json:"succeeded"`
	Steps     []StepReport `json:"steps"`
}

// DataLoaded is emitted after the initial data loader ran
type DataLoaded struct {
	BaseEvent
	DriversLoaded int      `json:"drivers_loaded"`
	RoutesLoaded  int      `json:"routes_loaded"`
	OrdersLoaded  int      `json:"orders_loaded"`
	Errors        []string `json:"errors,omitempty"`
}

// Publisher publishes domain events
type Publisher struct {
	sink Sink
	log  *logger.Logger
}

// NewPublisher creates a new event publisher. A nil sink discards events.
func NewPublisher(sink Sink, log *logger.Logger) *Publisher {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &Publisher{
		sink: sink,
		log:  log.With("component", "events"),
	}
}

// PublishSimulationCompleted publishes a simulation completed event
func (p *Publisher) PublishSimulationCompleted(ctx context.Context, event *SimulationCompleted) error {
	return p.publish(ctx, TopicSimulations, event.SimulationID, event)
}

// PublishDeployCompleted publishes a deploy completed event
func (p *Publisher) PublishDeployCompleted(ctx context.Context, event *DeployCompleted) error {
	for i := range event.Steps {
		event.Steps[i].Error = SanitizeUTF8(event.Steps[i].Error)
	}
	return p.publish(ctx, TopicDeploys, event.ID, event)
}

// PublishDataLoaded publishes a data loaded event
func (p *Publisher) PublishDataLoaded(ctx context.Context, event *DataLoaded) error {
	for i := range event.Errors {
		event.Errors[i] = SanitizeUTF8(event.Errors[i])
	}
	return p.publish(ctx, TopicDataLoads, event.ID, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.sink.Publish(ctx, topic, key, event); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	p.log.Debugw("Event published", "topic", topic, "key", key)
	return nil
}
