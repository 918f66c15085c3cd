package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/pkg/logger"
)

type recordingSink struct {
	topics []string
	keys   []string
	events []interface{}
	err    error
}

func (s *recordingSink) Publish(_ context.Context, topic, key string, event interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	s.keys = append(s.keys, key)
	s.events = append(s.events, event)
	return nil
}

func TestPublisher_SimulationCompleted(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, logger.Nop())

	err := p.PublishSimulationCompleted(context.Background(), &SimulationCompleted{
		BaseEvent:    NewBaseEvent(TypeSimulationCompleted, "simulation", "u1"),
		SimulationID: "abcd1234",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{TopicSimulations}, sink.topics)
	assert.Equal(t, []string{"abcd1234"}, sink.keys)
}

func TestPublisher_DeployCompletedSanitizesErrors(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, logger.Nop())

	event := &DeployCompleted{
		BaseEvent: NewBaseEvent(TypeDeployCompleted, "deploy", ""),
		Steps:     []StepReport{{Name: "install", Status: "failed", Error: "bad\xffbyte"}},
	}
	require.NoError(t, p.PublishDeployCompleted(context.Background(), event))

	require.Len(t, sink.events, 1)
	published := sink.events[0].(*DeployCompleted)
	assert.Equal(t, "badbyte", published.Steps[0].Error)
}

func TestPublisher_WrapsSinkErrors(t *testing.T) {
	p := NewPublisher(&recordingSink{err: errors.New("broker down")}, logger.Nop())

	err := p.PublishDataLoaded(context.Background(), &DataLoaded{BaseEvent: NewBaseEvent(TypeDataLoaded, "dataload", "")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicDataLoads)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewPublisher_NilSinkDiscards(t *testing.T) {
	p := NewPublisher(nil, logger.Nop())
	assert.NoError(t, p.PublishDataLoaded(context.Background(), &DataLoaded{}))
}
