package hub

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func receiveWithin(t *testing.T, sub *Subscription, d time.Duration) ([]byte, bool) {
	t.Helper()
	type result struct {
		msg []byte
		ok  bool
	}
	ch := make(chan result, 1)
	go func() {
		msg, ok := sub.Receive()
		ch <- result{msg, ok}
	}()
	select {
	case r := <-ch:
		return r.msg, r.ok
	case <-time.After(d):
		t.Fatal("timeout waiting for Receive")
		return nil, false
	}
}

func TestHub_PublishNoSubscribers(t *testing.T) {
	h := New(DefaultConfig(), nil)

	n, err := h.Publish([]byte("hello"))
	if err != nil {
		t.Fatalf("Publish with no subscribers failed: %v", err)
	}
	if n != 0 {
		t.Errorf("delivered = %d, want 0", n)
	}
	if h.Stats().Published != 1 {
		t.Errorf("Published = %d, want 1", h.Stats().Published)
	}
}

func TestHub_FanOutInOrder(t *testing.T) {
	h := New(DefaultConfig(), nil)

	subs := make([]*Subscription, 3)
	for i := range subs {
		sub, err := h.Subscribe()
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		subs[i] = sub
	}

	for i := 0; i < 5; i++ {
		n, err := h.Publish([]byte(fmt.Sprintf("msg-%d", i)))
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if n != 3 {
			t.Errorf("delivered = %d, want 3", n)
		}
	}

	for s, sub := range subs {
		for i := 0; i < 5; i++ {
			msg, ok := receiveWithin(t, sub, time.Second)
			if !ok {
				t.Fatalf("sub %d: Receive returned false", s)
			}
			if want := fmt.Sprintf("msg-%d", i); string(msg) != want {
				t.Errorf("sub %d: got %q, want %q", s, msg, want)
			}
		}
	}
}

func TestHub_NoReplay(t *testing.T) {
	h := New(DefaultConfig(), nil)

	early, _ := h.Subscribe()
	h.Publish([]byte("cycle-1"))

	late, _ := h.Subscribe()
	h.Publish([]byte("cycle-2"))

	msg, _ := receiveWithin(t, early, time.Second)
	if string(msg) != "cycle-1" {
		t.Errorf("early subscriber got %q, want cycle-1", msg)
	}

	msg, _ = receiveWithin(t, late, time.Second)
	if string(msg) != "cycle-2" {
		t.Errorf("late subscriber got %q, want cycle-2 (no replay)", msg)
	}
	if late.Pending() != 0 {
		t.Errorf("late subscriber pending = %d, want 0", late.Pending())
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := New(Config{QueueSize: 2}, nil)

	slow, _ := h.Subscribe()
	fast, _ := h.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			h.Publish([]byte(fmt.Sprintf("msg-%d", i)))
			// Fast subscriber keeps up
			msg, ok := fast.Receive()
			if !ok || string(msg) != fmt.Sprintf("msg-%d", i) {
				t.Errorf("fast subscriber got %q, %v", msg, ok)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on slow subscriber")
	}

	// Slow subscriber kept the first two, missed the rest
	if slow.Pending() != 2 {
		t.Errorf("slow pending = %d, want 2", slow.Pending())
	}
	if stats := h.Stats(); stats.MaxPending != 2 || stats.QueueSize != 2 {
		t.Errorf("MaxPending = %d, QueueSize = %d; want 2, 2", stats.MaxPending, stats.QueueSize)
	}
	msg, _ := receiveWithin(t, slow, time.Second)
	if string(msg) != "msg-0" {
		t.Errorf("slow first message = %q, want msg-0", msg)
	}

	stats := h.Stats()
	if stats.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", stats.Dropped)
	}
	if stats.Delivered != 7 {
		t.Errorf("Delivered = %d, want 7", stats.Delivered)
	}
}

func TestHub_SubscriptionClose(t *testing.T) {
	h := New(DefaultConfig(), nil)

	sub, _ := h.Subscribe()
	other, _ := h.Subscribe()
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}

	sub.Close()
	sub.Close() // idempotent

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after Close", h.Len())
	}

	n, err := h.Publish([]byte("after"))
	if err != nil || n != 1 {
		t.Errorf("Publish() = %d, %v; want 1, nil", n, err)
	}

	if _, ok := sub.Receive(); ok {
		t.Error("Receive on closed subscription should return false")
	}
	msg, ok := receiveWithin(t, other, time.Second)
	if !ok || string(msg) != "after" {
		t.Errorf("other got %q, %v", msg, ok)
	}
}

func TestHub_CloseUnblocksSubscribers(t *testing.T) {
	h := New(DefaultConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		sub, _ := h.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := sub.Receive(); ok {
				t.Error("Receive should return false after hub Close")
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	h.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub Close did not unblock subscribers")
	}

	if _, err := h.Subscribe(); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrClosed", err)
	}
	if _, err := h.Publish([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	h.Close() // idempotent
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	h := New(Config{QueueSize: 1000}, nil)

	const messages = 200

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Churn subscribers while publishing
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				sub, err := h.Subscribe()
				if err != nil {
					return
				}
				sub.Close()
			}
		}()
	}

	steady, _ := h.Subscribe()
	for i := 0; i < messages; i++ {
		if _, err := h.Publish([]byte(fmt.Sprintf("%d", i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	for i := 0; i < messages; i++ {
		msg, ok := receiveWithin(t, steady, time.Second)
		if !ok || string(msg) != fmt.Sprintf("%d", i) {
			t.Fatalf("steady subscriber message %d = %q, %v", i, msg, ok)
		}
	}
}

func TestNew_DefaultQueueSize(t *testing.T) {
	h := New(Config{}, nil)
	sub, _ := h.Subscribe()
	if sub.queue.capacity != 100 {
		t.Errorf("queue capacity = %d, want 100", sub.queue.capacity)
	}
}
