package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	url string
}

func (c testConfig) GetRedisURL() string                 { return c.url }
func (c testConfig) GetRedisTLSInsecure() bool           { return false }
func (c testConfig) GetAsynqQueueName() string           { return "test" }
func (c testConfig) GetAsynqConcurrency() int            { return 1 }
func (c testConfig) GetSweepInterval() time.Duration     { return time.Minute }
func (c testConfig) GetReconcileInterval() time.Duration { return time.Minute }

func TestSweepPayloadRoundTrip(t *testing.T) {
	task, err := NewCommissionReleaseSweepTask(SweepPayload{TriggeredBy: "admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskCommissionReleaseSweep {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	payload, err := ParseSweepPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.TriggeredBy != "admin" {
		t.Fatalf("expected triggeredBy to survive the round trip, got %q", payload.TriggeredBy)
	}
}

func TestParseSweepPayloadRejectsGarbage(t *testing.T) {
	task := asynq.NewTask(TaskCloserReconcile, []byte("{"))
	if _, err := ParseSweepPayload(task); err == nil {
		t.Fatal("expected a parse error for a malformed payload")
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("expected an error when redis is not configured")
	}
}

func TestClientEnqueuesToConfiguredQueue(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testConfig{url: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueAssignPending(context.Background(), SweepPayload{TriggeredBy: "scheduler"}); err != nil {
		t.Fatalf("unexpected enqueue error: %v", err)
	}

	if !srv.Exists("asynq:{test}:pending") {
		t.Fatalf("expected the task on the test queue, keys: %v", srv.Keys())
	}
}
