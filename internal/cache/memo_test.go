package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoComputesOnce(t *testing.T) {
	m := NewMemo()
	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Get(m, K("answer"), fn)
		if err != nil || got != 42 {
			t.Fatalf("unexpected result %d err=%v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 computation, got %d", calls)
	}
	if m.Computations("answer") != 1 {
		t.Fatalf("probe reported %d computations", m.Computations("answer"))
	}
	if got := testutil.ToFloat64(m.computed.WithLabelValues("answer")); got != 1 {
		t.Fatalf("computations counter = %v", got)
	}
	if got := testutil.ToFloat64(m.hits.WithLabelValues("answer")); got != 2 {
		t.Fatalf("hits counter = %v", got)
	}
}

func TestMemoKeysByArguments(t *testing.T) {
	m := NewMemo()
	double := func(n int) int {
		return Must(m, K("double", n), func() int { return n * 2 })
	}

	if double(2) != 4 || double(3) != 6 || double(2) != 4 {
		t.Fatal("unexpected doubled values")
	}
	if got := m.Computations("double"); got != 2 {
		t.Fatalf("expected one computation per distinct argument, got %d", got)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
}

func TestMemoCachesErrors(t *testing.T) {
	m := NewMemo()
	boom := errors.New("boom")
	calls := 0
	fn := func() (float64, error) {
		calls++
		return 0, boom
	}

	for i := 0; i < 2; i++ {
		if _, err := Get(m, K("failing"), fn); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected failure to be memoized, got %d calls", calls)
	}
}

func TestMemoNestedKeys(t *testing.T) {
	m := NewMemo()
	leaf := func() int { return Must(m, K("leaf"), func() int { return 1 }) }
	mid := func() int { return Must(m, K("mid"), func() int { return leaf() + leaf() }) }
	top := Must(m, K("top"), func() int { return mid() + leaf() })

	if top != 3 {
		t.Fatalf("unexpected top %d", top)
	}
	for _, metric := range []string{"leaf", "mid", "top"} {
		if m.Computations(metric) != 1 {
			t.Fatalf("%s computed %d times", metric, m.Computations(metric))
		}
	}
}

func TestMemoConcurrentFirstCallers(t *testing.T) {
	m := NewMemo()
	var calls int32
	release := make(chan struct{})
	fn := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Get(m, K("slow"), fn)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single computation, got %d", got)
	}
	for i, r := range results {
		if r != "done" {
			t.Fatalf("caller %d got %q", i, r)
		}
	}
}

func TestKeyString(t *testing.T) {
	if got := K("revenue_by_date", "2009-02-07").String(); got != "revenue_by_date(2009-02-07)" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := K("top_revenue_earners", 20, "x").Args; got != "20,x" {
		t.Fatalf("unexpected args %q", got)
	}
}
