package progress

import "testing"

func TestCancelIsIdempotentAndObservable(t *testing.T) {
	c := New(4)
	if c.Cancelled() {
		t.Fatal("fresh controller must not be cancelled")
	}
	c.Cancel()
	c.Cancel()
	if !c.Cancelled() {
		t.Fatal("expected Cancelled() to report true after Cancel()")
	}
}

func TestTransitionEmitsEventAndSnapshot(t *testing.T) {
	c := New(4)
	c.Transition(2, 16, Running, 0, nil)
	c.Transition(2, 16, Solved, 16, nil)
	c.Close()

	var last Event
	for ev := range c.Events() {
		last = ev
	}
	if last.State != Solved || last.Block != 2 || last.BytesRecovered != 16 {
		t.Fatalf("unexpected last event: %+v", last)
	}

	snap := c.Snapshot()
	if snap[2] != Solved {
		t.Fatalf("snapshot: block 2 state = %s, want solved", snap[2])
	}
}

func TestTransitionNeverBlocksOnFullBuffer(t *testing.T) {
	c := New(1)
	for i := 0; i < 10; i++ {
		c.Transition(i, 16, Running, 0, nil)
	}
	// No assertion beyond "this returns" — a blocking send here would hang
	// the test, which is the property under test.
}
