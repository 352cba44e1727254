package samplesource

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/fieldsense-data/habitat.report/internal/timeutil"
)

// MockPort implements Porter over an in-memory pipe. Writes from the mux are
// captured for inspection.
type MockPort struct {
	io.Reader

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
	closeFn func() error
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

// Written returns everything the mux has sent to the node so far.
func (m *MockPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

// NewMock creates a Mux backed by a mock port that emits the given fixture
// lines in order, one per interval, then stops.
func NewMock(lines []string, interval time.Duration) *Mux[*MockPort] {
	return NewMockWithClock(lines, interval, timeutil.RealClock{})
}

// NewMockWithClock is NewMock with an injected clock so tests can control the
// replay pacing.
func NewMockWithClock(lines []string, interval time.Duration, clk timeutil.Clock) *Mux[*MockPort] {
	r, w := io.Pipe()
	mock := &MockPort{
		Reader:  r,
		closeFn: r.Close,
	}

	go func() {
		defer w.Close()
		for _, line := range lines {
			clk.Sleep(interval)
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return
			}
		}
	}()

	return New(mock)
}
