package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/tell-rs/tell-go/pkg/tell/config"
	"github.com/tell-rs/tell-go/pkg/tell/errs"
	"github.com/tell-rs/tell-go/pkg/tell/transport"
	"github.com/tell-rs/tell-go/pkg/tell/wire"
)

const testKey = "0123456789abcdef0123456789abcdef"

// mockTransport captures frames instead of touching the network.
type mockTransport struct {
	mu      sync.Mutex
	frames  [][]byte
	failing bool
	closed  bool
}

func (m *mockTransport) SendFrame(frame []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return false
	}
	owned := make([]byte, len(frame))
	copy(owned, frame)
	m.frames = append(m.frames, owned)
	return true
}

func (m *mockTransport) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockTransport) getFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

func (m *mockTransport) setFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

func (m *mockTransport) waitFrames(t *testing.T, n int, timeout time.Duration) [][]byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if frames := m.getFrames(); len(frames) >= n {
			return frames
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(m.getFrames()))
	return nil
}

type errorSink struct {
	mu   sync.Mutex
	errs []errs.Error
}

func (s *errorSink) callback(e errs.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, e)
}

func (s *errorSink) get() []errs.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]errs.Error, len(s.errs))
	copy(out, s.errs)
	return out
}

func testConfig(t *testing.T, batchSize int, flushInterval time.Duration, sink *errorSink) config.Config {
	t.Helper()
	b := config.New(testKey).
		Service("worker-test").
		BatchSize(batchSize).
		FlushInterval(flushInterval)
	if sink != nil {
		b = b.OnError(sink.callback)
	}
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	return cfg
}

func startTestWorker(t *testing.T, cfg config.Config, primary *mockTransport, retry *mockTransport) *Worker {
	t.Helper()
	dial := func() transport.Sender { return retry }
	w := start(cfg, primary, dial)
	t.Cleanup(func() {
		select {
		case <-w.Close():
		case <-time.After(2 * time.Second):
		}
	})
	return w
}

func testEvent(name string) QueuedEvent {
	return QueuedEvent{
		Type:      wire.EventTrack,
		Timestamp: 1700000000000,
		DeviceID:  [16]byte{1},
		SessionID: [16]byte{2},
		EventName: name,
		Payload:   []byte(`{"user_id":"u1"}`),
	}
}

func testLog(level wire.LogLevel) QueuedLog {
	return QueuedLog{
		Level:     level,
		Timestamp: 1700000000000,
		SessionID: [16]byte{2},
		Service:   "worker-test",
		Payload:   []byte(`{"message":"m"}`),
	}
}

// Test 1: reaching the batch size flushes without waiting for the interval.
func TestSizeBasedFlush(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 3, time.Hour, nil), mt, nil)

	for i := 0; i < 3; i++ {
		w.SendEvent(testEvent("Page Viewed"))
	}

	frames := mt.waitFrames(t, 1, 2*time.Second)
	batch := wire.ReadBatch(frames[0])
	if batch.SchemaType() != wire.SchemaEvent {
		t.Errorf("expected event schema, got %d", batch.SchemaType())
	}
	if got := wire.ReadEventData(batch.Data()).Len(); got != 3 {
		t.Errorf("expected 3 records, got %d", got)
	}
}

// Test 2: a partial batch flushes when the interval elapses.
func TestIntervalFlush(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 100, 100*time.Millisecond, nil), mt, nil)

	w.SendEvent(testEvent("Feature Used"))

	frames := mt.waitFrames(t, 1, 2*time.Second)
	batch := wire.ReadBatch(frames[0])
	if got := wire.ReadEventData(batch.Data()).Len(); got != 1 {
		t.Errorf("expected 1 record, got %d", got)
	}
}

// Test 3: Flush delivers everything enqueued before it, and the completion
// channel closes only after hand-off.
func TestFlush(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 100, time.Hour, nil), mt, nil)

	w.SendEvent(testEvent("A"))
	w.SendEvent(testEvent("B"))

	select {
	case <-w.Flush():
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not complete")
	}

	frames := mt.getFrames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame at flush completion, got %d", len(frames))
	}
	if got := wire.ReadEventData(wire.ReadBatch(frames[0]).Data()).Len(); got != 2 {
		t.Errorf("expected 2 records, got %d", got)
	}
}

// Test 4: events and logs never share a batch.
func TestBatchHomogeneity(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 100, time.Hour, nil), mt, nil)

	w.SendEvent(testEvent("A"))
	w.SendLog(testLog(wire.LevelInfo))
	w.SendEvent(testEvent("B"))
	w.SendLog(testLog(wire.LevelError))

	select {
	case <-w.Flush():
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not complete")
	}

	frames := mt.getFrames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}

	var sawEvents, sawLogs bool
	for _, frame := range frames {
		batch := wire.ReadBatch(frame)
		switch batch.SchemaType() {
		case wire.SchemaEvent:
			sawEvents = true
			if got := wire.ReadEventData(batch.Data()).Len(); got != 2 {
				t.Errorf("expected 2 events, got %d", got)
			}
		case wire.SchemaLog:
			sawLogs = true
			if got := wire.ReadLogData(batch.Data()).Len(); got != 2 {
				t.Errorf("expected 2 logs, got %d", got)
			}
		default:
			t.Errorf("unexpected schema %d", batch.SchemaType())
		}
	}
	if !sawEvents || !sawLogs {
		t.Error("expected one event batch and one log batch")
	}
}

// Test 5: batch ids start at 1 and increase by 1 per batch.
func TestBatchIDMonotonic(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 2, time.Hour, nil), mt, nil)

	for i := 0; i < 6; i++ {
		w.SendEvent(testEvent("E"))
	}

	frames := mt.waitFrames(t, 3, 2*time.Second)
	for i, frame := range frames {
		if got := wire.ReadBatch(frame).BatchID(); got != uint64(i+1) {
			t.Errorf("frame %d: expected batch id %d, got %d", i, i+1, got)
		}
	}
}

// Test 6: batches carry the configured API key and wire version.
func TestBatchEnvelope(t *testing.T) {
	mt := &mockTransport{}
	cfg := testConfig(t, 1, time.Hour, nil)
	w := startTestWorker(t, cfg, mt, nil)

	w.SendEvent(testEvent("E"))

	frames := mt.waitFrames(t, 1, 2*time.Second)
	batch := wire.ReadBatch(frames[0])
	if string(batch.APIKey()) != string(cfg.APIKey[:]) {
		t.Errorf("api key mismatch: %x", batch.APIKey())
	}
	if batch.Version() != wire.DefaultVersion {
		t.Errorf("expected version %d, got %d", wire.DefaultVersion, batch.Version())
	}
}

// Test 7: events are stamped with the configured service name.
func TestServiceStamping(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 1, time.Hour, nil), mt, nil)

	w.SendEvent(testEvent("E"))

	frames := mt.waitFrames(t, 1, 2*time.Second)
	data := wire.ReadEventData(wire.ReadBatch(frames[0]).Data())
	var e wire.Event
	if !data.At(&e, 0) {
		t.Fatal("event missing")
	}
	if e.Service() != "worker-test" {
		t.Errorf("expected service worker-test, got %q", e.Service())
	}
}

// Test 8: the mailbox is bounded and overflow discards the oldest message.
func TestQueueDropsOldest(t *testing.T) {
	w := &Worker{} // not started; exercises only the mailbox

	for i := 0; i < 2*MaxQueueSize; i++ {
		w.enqueue(message{kind: msgEvent, event: QueuedEvent{Timestamp: uint64(i)}})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) != MaxQueueSize {
		t.Fatalf("expected queue of %d, got %d", MaxQueueSize, len(w.queue))
	}
	// The survivors are the most recent MaxQueueSize messages.
	if got := w.queue[0].event.Timestamp; got != MaxQueueSize {
		t.Errorf("expected oldest survivor %d, got %d", MaxQueueSize, got)
	}
	if got := w.queue[len(w.queue)-1].event.Timestamp; got != 2*MaxQueueSize-1 {
		t.Errorf("expected newest survivor %d, got %d", 2*MaxQueueSize-1, got)
	}
}

// Test 9: a failed send with retries disabled reports a network error.
func TestNoRetriesConfigured(t *testing.T) {
	sink := &errorSink{}
	mt := &mockTransport{failing: true}
	cfg := testConfig(t, 1, time.Hour, sink)
	cfg.MaxRetries = 0
	w := startTestWorker(t, cfg, mt, &mockTransport{})

	w.SendEvent(testEvent("E"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(sink.get()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	got := sink.get()
	if len(got) == 0 {
		t.Fatal("expected a network error")
	}
	if got[0].Kind != errs.KindNetwork {
		t.Errorf("expected network error, got %v", got[0])
	}
}

// Test 10: a failed send is retried on a separate connection and delivered.
func TestRetryDelivers(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for about a second")
	}
	primary := &mockTransport{failing: true}
	retry := &mockTransport{}
	cfg := testConfig(t, 1, time.Hour, nil)
	cfg.MaxRetries = 3
	w := startTestWorker(t, cfg, primary, retry)

	w.SendEvent(testEvent("E"))

	frames := retry.waitFrames(t, 1, 5*time.Second)
	batch := wire.ReadBatch(frames[0])
	if batch.SchemaType() != wire.SchemaEvent {
		t.Errorf("expected event schema on retry path, got %d", batch.SchemaType())
	}
	if len(primary.getFrames()) != 0 {
		t.Error("primary transport should have captured nothing")
	}
}

// Test 11: Close flushes pending records and stops the loop; the transport
// is closed and later sends are never delivered.
func TestClose(t *testing.T) {
	mt := &mockTransport{}
	cfg := testConfig(t, 100, time.Hour, nil)
	w := start(cfg, mt, func() transport.Sender { return &mockTransport{} })

	w.SendEvent(testEvent("before close"))

	select {
	case <-w.Close():
	case <-time.After(2 * time.Second):
		t.Fatal("close did not complete")
	}

	frames := mt.getFrames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame from the final flush, got %d", len(frames))
	}

	select {
	case <-w.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker goroutine did not exit")
	}

	mt.mu.Lock()
	closed := mt.closed
	mt.mu.Unlock()
	if !closed {
		t.Error("transport not closed")
	}

	w.SendEvent(testEvent("after close"))
	time.Sleep(100 * time.Millisecond)
	if got := len(mt.getFrames()); got != 1 {
		t.Errorf("expected no frames after close, got %d", got)
	}
}

// Test 12: an empty flush produces no frames.
func TestFlushEmpty(t *testing.T) {
	mt := &mockTransport{}
	w := startTestWorker(t, testConfig(t, 100, time.Hour, nil), mt, nil)

	select {
	case <-w.Flush():
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not complete")
	}
	if got := len(mt.getFrames()); got != 0 {
		t.Errorf("expected no frames, got %d", got)
	}
}

func BenchmarkSendEvent(b *testing.B) {
	cfg, err := config.New(testKey).BatchSize(1000).FlushInterval(time.Hour).Build()
	if err != nil {
		b.Fatalf("failed to build config: %v", err)
	}
	mt := &mockTransport{}
	w := start(cfg, mt, func() transport.Sender { return &mockTransport{} })
	defer func() {
		select {
		case <-w.Close():
		case <-time.After(2 * time.Second):
		}
	}()

	e := testEvent("Page Viewed")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.SendEvent(e)
	}
}

func BenchmarkConcurrentSendEvent(b *testing.B) {
	cfg, err := config.New(testKey).BatchSize(1000).FlushInterval(time.Hour).Build()
	if err != nil {
		b.Fatalf("failed to build config: %v", err)
	}
	mt := &mockTransport{}
	w := start(cfg, mt, func() transport.Sender { return &mockTransport{} })
	defer func() {
		select {
		case <-w.Close():
		case <-time.After(2 * time.Second):
		}
	}()

	e := testEvent("Page Viewed")
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			w.SendEvent(e)
		}
	})
}
