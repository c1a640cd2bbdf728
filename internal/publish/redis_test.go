package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ksurct/common/gamepad"
)

func newTestPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{Addr: mr.Addr(), TTL: 5 * time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func testSnapshot() gamepad.Snapshot {
	return gamepad.Snapshot{
		Controller: "pad0",
		Seq:        7,
		Buttons:    map[string]bool{"a": true},
		Axes:       map[string]float64{"left_x": -0.5},
		Connected:  true,
	}
}

func TestNewFailsWithoutRedis(t *testing.T) {
	if _, err := New(Config{Addr: "127.0.0.1:1"}, zerolog.Nop()); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestPublishSetsLatestKey(t *testing.T) {
	p, mr := newTestPublisher(t)
	ctx := context.Background()

	p.Publish(ctx, testSnapshot())

	val, err := mr.Get("ksurct:pad:pad0:latest")
	if err != nil {
		t.Fatal(err)
	}
	var snap gamepad.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 7 || !snap.Buttons["a"] {
		t.Errorf("stored snapshot = %+v", snap)
	}

	if ttl := mr.TTL("ksurct:pad:pad0:latest"); ttl != 5*time.Second {
		t.Errorf("latest key TTL = %s, want 5s", ttl)
	}

	published, failed := p.Stats()
	if published != 1 || failed != 0 {
		t.Errorf("stats = %d published, %d failed", published, failed)
	}
}

func TestPublishFanOut(t *testing.T) {
	p, mr := newTestPublisher(t)
	ctx := context.Background()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = sub.Close() }()
	pubsub := sub.Subscribe(ctx, "ksurct:pad:pad0")
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	p.Publish(ctx, testSnapshot())

	select {
	case msg := <-pubsub.Channel():
		var snap gamepad.Snapshot
		if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
			t.Fatal(err)
		}
		if snap.Controller != "pad0" {
			t.Errorf("controller = %q", snap.Controller)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published snapshot")
	}
}

func TestPublishFailureIsNonFatal(t *testing.T) {
	p, mr := newTestPublisher(t)
	mr.Close()

	p.Publish(context.Background(), testSnapshot())

	published, failed := p.Stats()
	if published != 0 || failed != 1 {
		t.Errorf("stats = %d published, %d failed", published, failed)
	}
}

func TestLatest(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()

	if _, ok, err := p.Latest(ctx, "pad0"); err != nil || ok {
		t.Fatalf("empty latest = ok %v, err %v", ok, err)
	}

	p.Publish(ctx, testSnapshot())

	snap, ok, err := p.Latest(ctx, "pad0")
	if err != nil || !ok {
		t.Fatalf("latest = ok %v, err %v", ok, err)
	}
	if snap.Axes["left_x"] != -0.5 {
		t.Errorf("left_x = %v", snap.Axes["left_x"])
	}
}
