//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "verifdesk/pkg/platform/audit"
	"verifdesk/pkg/platform/audit/kafka"
	"verifdesk/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *kafka.Publisher
	topic     string
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redpanda = mgr.GetRedpanda(s.T())
	s.topic = "verifdesk.audit.test"

	publisher, err := kafka.New(s.redpanda.Brokers, "verifdesk-test", s.topic)
	s.Require().NoError(err)
	s.publisher = publisher

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.publisher.EnsureTopic(ctx))
	s.Require().NoError(s.publisher.EnsureTopic(ctx), "ensuring an existing topic is a no-op")
}

func (s *PublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *PublisherSuite) TestAppendIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := audit.Event{
		Category:   audit.CategoryCompliance,
		Timestamp:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Action:     string(audit.EventDecisionApplied),
		Subject:    "VER-2024-001",
		ActorID:    "ctrl-1",
		Decision:   "approve",
		FromStatus: "pending",
		ToStatus:   "approved",
	}
	s.Require().NoError(s.publisher.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	s.Equal("VER-2024-001", string(records[0].Key))
	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal(event.ToStatus, got.ToStatus)
	s.True(event.Timestamp.Equal(got.Timestamp))
}
