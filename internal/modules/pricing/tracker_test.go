package pricing

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_OnlyCurrentApplies(t *testing.T) {
	tr := NewTracker()
	first := tr.Begin()
	second := tr.Begin()
	if first == second {
		t.Fatal("Begin returned the same id twice")
	}

	ran := 0
	if tr.Apply(first, func() { ran++ }) {
		t.Error("superseded id applied")
	}
	if !tr.Apply(second, func() { ran++ }) {
		t.Error("current id not applied")
	}
	if tr.Apply("", func() { ran++ }) {
		t.Error("empty id applied")
	}
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
}

func TestTracker_ConcurrentBegin(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	applied := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := tr.Begin()
			applied <- tr.Apply(id, func() {})
		}()
	}
	wg.Wait()
	close(applied)

	// The last Begin always wins, so at least one Apply succeeds.
	n := 0
	for ok := range applied {
		if ok {
			n++
		}
	}
	if n == 0 {
		t.Fatal("no request applied")
	}
}

func TestTrackers_Release(t *testing.T) {
	ts := NewTrackers()
	a := ts.For("session-a")
	if ts.For("session-a") != a {
		t.Fatal("For returned a different tracker for the same session")
	}

	old := a.Begin()
	newer := a.Begin()
	ts.Release("session-a", old)
	if ts.Len() != 1 {
		t.Fatal("session released while a newer request is running")
	}
	ts.Release("session-a", newer)
	if ts.Len() != 0 {
		t.Fatal("session not released after its latest request")
	}
}

func TestTrackers_SlowEmitDoesNotBlockOtherSessions(t *testing.T) {
	ts := NewTrackers()
	slow := ts.For("slow-session")
	id := slow.Begin()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	applied := make(chan struct{})
	go func() {
		defer close(applied)
		slow.Apply(id, func() {
			close(entered)
			<-unblock
		})
	}()
	<-entered

	released := make(chan struct{})
	go func() {
		defer close(released)
		ts.Release("slow-session", id)
	}()
	// Let Release reach the tracker that is busy emitting.
	time.Sleep(20 * time.Millisecond)

	got := make(chan *Tracker, 1)
	go func() { got <- ts.For("other-session") }()
	select {
	case tr := <-got:
		if tr == slow {
			t.Error("other session shares the slow session's tracker")
		}
	case <-time.After(time.Second):
		t.Error("For on another session blocked behind a slow emit")
	}

	close(unblock)
	<-applied
	<-released
	if ts.Len() != 1 {
		t.Errorf("Len = %d, want 1 (slow session released, other kept)", ts.Len())
	}
}
