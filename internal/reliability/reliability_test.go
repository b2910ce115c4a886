package reliability

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestUnknownHostGetsDefaultTimeout(t *testing.T) {
	tr := NewTracker()
	if got := tr.TimeoutFor("https://fresh.example/page"); got != DefaultTimeout {
		t.Fatalf("TimeoutFor = %v, want %v", got, DefaultTimeout)
	}
	if got := tr.TimeoutFor("not a url"); got != DefaultTimeout {
		t.Fatalf("TimeoutFor(bad url) = %v, want %v", got, DefaultTimeout)
	}
}

func TestTimeoutStaysDefaultUntilThreeSuccesses(t *testing.T) {
	tr := NewTracker()
	u := "https://slow.example/a"
	tr.Record(u, true, 8*time.Second, 200)
	tr.Record(u, true, 8*time.Second, 200)
	if got := tr.TimeoutFor(u); got != DefaultTimeout {
		t.Fatalf("TimeoutFor after 2 successes = %v, want %v", got, DefaultTimeout)
	}
	tr.Record(u, true, 8*time.Second, 200)
	if got := tr.TimeoutFor(u); got != 12*time.Second {
		t.Fatalf("TimeoutFor after 3 successes = %v, want 12s", got)
	}
}

func TestTimeoutTracksAverageResponseTime(t *testing.T) {
	tr := NewTracker()
	u := "https://steady.example/"
	for _, elapsed := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second} {
		tr.Record(u, true, elapsed, 200)
	}
	// avg 4s, scaled by 1.5 inside the [5s, 30s] clamp.
	if got := tr.TimeoutFor(u); got != 6*time.Second {
		t.Fatalf("TimeoutFor = %v, want 6s", got)
	}
}

func TestTimeoutClamping(t *testing.T) {
	tr := NewTracker()
	fast := "https://fast.example/"
	for i := 0; i < 3; i++ {
		tr.Record(fast, true, 500*time.Millisecond, 200)
	}
	if got := tr.TimeoutFor(fast); got != MinTimeout {
		t.Fatalf("fast host TimeoutFor = %v, want clamp to %v", got, MinTimeout)
	}

	slow := "https://glacial.example/"
	for i := 0; i < 3; i++ {
		tr.Record(slow, true, 40*time.Second, 200)
	}
	if got := tr.TimeoutFor(slow); got != MaxTimeout {
		t.Fatalf("slow host TimeoutFor = %v, want clamp to %v", got, MaxTimeout)
	}
}

func TestZeroElapsedCountsNoAverage(t *testing.T) {
	tr := NewTracker()
	u := "https://instant.example/"
	for i := 0; i < 3; i++ {
		tr.Record(u, true, 0, 200)
	}
	// Three successes but no timing history: adapt to the minimum.
	if got := tr.TimeoutFor(u); got != MinTimeout {
		t.Fatalf("TimeoutFor = %v, want %v", got, MinTimeout)
	}
	s, ok := tr.Snapshot("instant.example")
	if !ok {
		t.Fatalf("Snapshot missing")
	}
	if s.AvgResponseTime != 0 || s.SuccessCount != 3 {
		t.Fatalf("Snapshot = avg %v successes %d, want 0 and 3", s.AvgResponseTime, s.SuccessCount)
	}
}

func TestFailuresFeedTheAverageToo(t *testing.T) {
	tr := NewTracker()
	u := "https://mixed.example/"
	tr.Record(u, false, 10*time.Second, 503)
	tr.Record(u, true, 6*time.Second, 200)
	tr.Record(u, true, 2*time.Second, 200)
	tr.Record(u, true, 2*time.Second, 200)
	// avg over all four timed observations is 5s, failure included.
	if got := tr.TimeoutFor(u); got != 7500*time.Millisecond {
		t.Fatalf("TimeoutFor = %v, want 7.5s", got)
	}
}

func TestStatusCodeHistogram(t *testing.T) {
	tr := NewTracker()
	u := "https://codes.example/"
	tr.Record(u, true, time.Second, 200)
	tr.Record(u, true, time.Second, 200)
	tr.Record(u, false, time.Second, 404)
	tr.Record(u, false, 0, 0) // transport error, no code

	s, ok := tr.Snapshot("codes.example")
	if !ok {
		t.Fatalf("Snapshot missing")
	}
	if s.StatusCodes[200] != 2 || s.StatusCodes[404] != 1 {
		t.Fatalf("StatusCodes = %v, want 200:2 404:1", s.StatusCodes)
	}
	if len(s.StatusCodes) != 2 {
		t.Fatalf("StatusCodes has %d entries, want 2", len(s.StatusCodes))
	}
	if s.FailureCount != 2 {
		t.Fatalf("FailureCount = %d, want 2", s.FailureCount)
	}
}

func TestHostsDoNotShareState(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 3; i++ {
		tr.Record("https://a.example/", true, 20*time.Second, 200)
	}
	if got := tr.TimeoutFor("https://b.example/"); got != DefaultTimeout {
		t.Fatalf("b.example TimeoutFor = %v, want %v", got, DefaultTimeout)
	}
}

func TestConcurrentRecordsAllLand(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u := fmt.Sprintf("https://h%d.example/", n%2)
			for j := 0; j < 50; j++ {
				tr.Record(u, j%2 == 0, time.Duration(j)*time.Millisecond, 200)
			}
		}(i)
	}
	wg.Wait()
	for _, host := range []string{"h0.example", "h1.example"} {
		s, ok := tr.Snapshot(host)
		if !ok {
			t.Fatalf("Snapshot(%s) missing", host)
		}
		if s.SuccessCount+s.FailureCount != 100 {
			t.Fatalf("%s observations = %d, want 100", host, s.SuccessCount+s.FailureCount)
		}
	}
}
