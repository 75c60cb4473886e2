package kafka

import (
	"context"
	"testing"
	"time"
)

func TestProducerShutsDownOnCancel(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "orders.test", 8)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not drain and close after cancellation")
	}
}

func TestPublishDoesNotBlockCaller(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "orders.test", 2)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.Publish([]byte("order-1"), MustMarshal(map[string]string{"n": "v"}))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on the broker")
	}

	cancel()
	p.WaitClosed()
}
