package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

func startNATS(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoSigs:    true,
		NoLog:     true,
	})
	if err != nil {
		t.Fatalf("creating nats server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("nats server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func sampleGame() artsociety.Snapshot {
	return artsociety.Snapshot{
		ID:            "g1",
		CreatedAt:     time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
		PrestigeOrder: artsociety.DefaultPrestigeOrder(),
		Players: []artsociety.Participant{
			{ID: "p1", PlayerID: "a", Name: "Ana", FinalScore: artsociety.Ptr(12)},
			{ID: "p2", Name: "Ben", FinalScore: artsociety.Ptr(30)},
		},
		Version: 1,
	}
}

func receive(t *testing.T, ch chan []byte) Event {
	t.Helper()
	select {
	case data := <-ch:
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestGameRecorded(t *testing.T) {
	at := time.Date(2025, 6, 1, 21, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	e := GameRecorded(sampleGame(), at)

	if e.Type != TypeGameRecorded || e.GameID != "g1" {
		t.Errorf("event = %+v", e)
	}
	if e.At.Location() != time.UTC {
		t.Errorf("at not in UTC: %v", e.At)
	}
	if e.Winner == nil || e.Winner.Name != "Ben" || e.Winner.PlayerID != "" {
		t.Errorf("winner = %+v, want Ben", e.Winner)
	}
	if len(e.Scores) != 2 || e.Scores[0].PlayerID != "a" || *e.Scores[1].Score != 30 {
		t.Errorf("scores = %+v", e.Scores)
	}
}

func TestGameRecordedWithoutScores(t *testing.T) {
	g := sampleGame()
	for i := range g.Players {
		g.Players[i].FinalScore = nil
	}
	if e := GameRecorded(g, time.Now()); e.Winner != nil {
		t.Errorf("winner = %+v, want none", e.Winner)
	}
}

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()
	a, c := b.Subscribe(), b.Subscribe()
	if b.Subscribers() != 2 {
		t.Fatalf("subscribers = %d, want 2", b.Subscribers())
	}

	if err := b.Publish(context.Background(), GameRecorded(sampleGame(), time.Now())); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, ch := range []chan []byte{a, c} {
		if e := receive(t, ch); e.GameID != "g1" {
			t.Errorf("game id = %q", e.GameID)
		}
	}

	b.Unsubscribe(a)
	if b.Subscribers() != 1 {
		t.Errorf("subscribers = %d after unsubscribe, want 1", b.Subscribers())
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	e := GameRecorded(sampleGame(), time.Now())
	for range cap(ch) + 5 {
		if err := b.Publish(context.Background(), e); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
}

func TestNATSPublishAndRelay(t *testing.T) {
	ns := startNATS(t)
	const subject = "artsociety.games"

	pub, err := NewNATS(ns.ClientURL(), subject, slog.Default())
	if err != nil {
		t.Fatalf("NewNATS: %v", err)
	}
	defer pub.Close()

	if err := pub.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	b := NewBroker()
	ch := b.Subscribe()
	stop, err := pub.Relay(b)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, GameRecorded(sampleGame(), time.Now())); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	e := receive(t, ch)
	if e.GameID != "g1" || e.Winner == nil || e.Winner.Name != "Ben" {
		t.Errorf("relayed event = %+v", e)
	}
}

func TestNATSReusesExistingStream(t *testing.T) {
	ns := startNATS(t)

	first, err := NewNATS(ns.ClientURL(), "artsociety.games", slog.Default())
	if err != nil {
		t.Fatalf("first NewNATS: %v", err)
	}
	defer first.Close()

	second, err := NewNATS(ns.ClientURL(), "artsociety.games", slog.Default())
	if err != nil {
		t.Fatalf("second NewNATS: %v", err)
	}
	second.Close()

	if err := second.Check(context.Background()); err == nil {
		t.Error("Check succeeded on a closed connection")
	}
}

func TestNATSUnreachable(t *testing.T) {
	if _, err := NewNATS("nats://127.0.0.1:1", "artsociety.games", slog.Default()); err == nil {
		t.Fatal("expected connection error")
	}
}
