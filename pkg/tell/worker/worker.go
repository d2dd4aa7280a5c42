// Package worker owns the background delivery loop.
//
// A Worker receives queued records and control signals through a bounded
// mailbox, batches them, encodes batches into wire frames, and hands frames
// to the transport. Producers never block: when the mailbox is full the
// oldest message is discarded. A single goroutine consumes the mailbox; up
// to eight short-lived retry goroutines resend failed frames over their own
// connections.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"

	"github.com/tell-rs/tell-go/pkg/tell/config"
	"github.com/tell-rs/tell-go/pkg/tell/errs"
	"github.com/tell-rs/tell-go/pkg/tell/transport"
	"github.com/tell-rs/tell-go/pkg/tell/wire"
)

const (
	// MaxQueueSize bounds the mailbox; overflow drops the oldest message.
	MaxQueueSize = 10000

	// MaxRetryTasks bounds the number of concurrent retry goroutines.
	MaxRetryTasks = 8

	// retryMaxDelay caps the per-attempt backoff delay.
	retryMaxDelay = 30 * time.Second
)

// QueuedEvent is an immutable analytics record handed to the worker.
type QueuedEvent struct {
	Type      wire.EventType
	Timestamp uint64
	DeviceID  [16]byte
	SessionID [16]byte
	EventName string
	Payload   []byte
}

// QueuedLog is an immutable log record handed to the worker.
type QueuedLog struct {
	Level     wire.LogLevel
	Timestamp uint64
	SessionID [16]byte
	Source    string
	Service   string
	Payload   []byte
}

type msgKind uint8

const (
	msgEvent msgKind = iota
	msgLog
	msgFlush
	msgClose
)

// message is the mailbox variant: exactly one payload is active per kind.
// Flush and close carry a completion channel closed after the flush they
// were drained with.
type message struct {
	kind  msgKind
	event QueuedEvent
	log   QueuedLog
	done  chan struct{}
}

// Worker runs the delivery loop on its own goroutine, started by New.
type Worker struct {
	cfg  config.Config
	dial func() transport.Sender

	mu    sync.Mutex
	queue []message
	wake  chan struct{}

	// consumer-goroutine state
	trans    transport.Sender
	events   []QueuedEvent
	logs     []QueuedLog
	dataBuf  []byte
	batchBuf []byte

	batchCounter atomic.Uint64

	retryMu     sync.Mutex
	retryActive int
	retryWG     conc.WaitGroup

	stopped chan struct{}
}

// New validates the endpoint, opens nothing yet, and starts the worker
// goroutine. The only error is a Configuration error from the endpoint
// parse.
func New(cfg config.Config) (*Worker, error) {
	t, err := transport.New(cfg.Endpoint, cfg.NetworkTimeout, cfg.Logger)
	if err != nil {
		return nil, err
	}
	dial := func() transport.Sender {
		rt, _ := transport.New(cfg.Endpoint, cfg.NetworkTimeout, cfg.Logger)
		return rt
	}
	return start(cfg, t, dial), nil
}

// start wires a worker around an existing transport and retry dialer.
// Tests use it to substitute capturing fakes.
func start(cfg config.Config, t transport.Sender, dial func() transport.Sender) *Worker {
	w := &Worker{
		cfg:      cfg,
		dial:     dial,
		wake:     make(chan struct{}, 1),
		trans:    t,
		events:   make([]QueuedEvent, 0, cfg.BatchSize),
		logs:     make([]QueuedLog, 0, cfg.BatchSize),
		dataBuf:  make([]byte, 0, 64*1024),
		batchBuf: make([]byte, 0, 64*1024),
		stopped:  make(chan struct{}),
	}
	go w.run()
	return w
}

// SendEvent enqueues an event record. Never blocks.
func (w *Worker) SendEvent(e QueuedEvent) {
	w.enqueue(message{kind: msgEvent, event: e})
}

// SendLog enqueues a log record. Never blocks.
func (w *Worker) SendLog(l QueuedLog) {
	w.enqueue(message{kind: msgLog, log: l})
}

// Flush requests a flush of both buffers. The returned channel is closed
// once every record enqueued before this call has been handed to the
// transport (or the retry pool).
func (w *Worker) Flush() <-chan struct{} {
	done := make(chan struct{})
	w.enqueue(message{kind: msgFlush, done: done})
	return done
}

// Close requests a final flush and stops the worker. The returned channel
// is closed after the flush; the transport is closed and the goroutine
// exits afterwards. Messages enqueued after close are accepted but never
// consumed.
func (w *Worker) Close() <-chan struct{} {
	done := make(chan struct{})
	w.enqueue(message{kind: msgClose, done: done})
	return done
}

func (w *Worker) enqueue(m message) {
	w.mu.Lock()
	wasEmpty := len(w.queue) == 0
	if len(w.queue) >= MaxQueueSize {
		w.queue = w.queue[1:]
	}
	w.queue = append(w.queue, m)
	w.mu.Unlock()

	// Wake the consumer only on the empty->non-empty transition.
	if wasEmpty {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

func (w *Worker) run() {
	defer close(w.stopped)

	nextFlush := time.Now().Add(w.cfg.FlushInterval)
	timer := time.NewTimer(w.cfg.FlushInterval)
	defer timer.Stop()

	for {
		select {
		case <-w.wake:
		case <-timer.C:
		}

		w.mu.Lock()
		local := w.queue
		w.queue = nil
		w.mu.Unlock()

		var flushPending, closePending bool
		var completions []chan struct{}

		for i := range local {
			m := &local[i]
			switch m.kind {
			case msgEvent:
				w.events = append(w.events, m.event)
				if len(w.events) >= w.cfg.BatchSize {
					w.flushEvents()
				}
			case msgLog:
				w.logs = append(w.logs, m.log)
				if len(w.logs) >= w.cfg.BatchSize {
					w.flushLogs()
				}
			case msgFlush:
				flushPending = true
				completions = append(completions, m.done)
			case msgClose:
				flushPending = true
				closePending = true
				completions = append(completions, m.done)
			}
		}

		now := time.Now()
		if !now.Before(nextFlush) {
			flushPending = true
			nextFlush = now.Add(w.cfg.FlushInterval)
		}

		if flushPending {
			w.flushEvents()
			w.flushLogs()
			for _, done := range completions {
				close(done)
			}
		}

		if closePending {
			w.trans.Close()
			w.retryWG.Wait()
			return
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(time.Until(nextFlush))
	}
}

func (w *Worker) flushEvents() {
	if len(w.events) == 0 {
		return
	}
	events := w.events
	w.events = make([]QueuedEvent, 0, w.cfg.BatchSize)

	service := w.cfg.Service
	if service == "" {
		service = config.DefaultService
	}

	params := make([]wire.EventParams, 0, len(events))
	for i := range events {
		e := &events[i]
		params = append(params, wire.EventParams{
			Type:      e.Type,
			Timestamp: e.Timestamp,
			Service:   service,
			DeviceID:  e.DeviceID[:],
			SessionID: e.SessionID[:],
			EventName: e.EventName,
			Payload:   e.Payload,
		})
	}

	w.dataBuf = w.dataBuf[:0]
	var dataStart int
	w.dataBuf, dataStart = wire.AppendEventData(w.dataBuf, params)
	w.sendBatch(wire.SchemaEvent, w.dataBuf[dataStart:])
}

func (w *Worker) flushLogs() {
	if len(w.logs) == 0 {
		return
	}
	logs := w.logs
	w.logs = make([]QueuedLog, 0, w.cfg.BatchSize)

	params := make([]wire.LogEntryParams, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		params = append(params, wire.LogEntryParams{
			Type:      wire.LogEventLog,
			SessionID: l.SessionID[:],
			Level:     l.Level,
			Timestamp: l.Timestamp,
			Source:    l.Source,
			Service:   l.Service,
			Payload:   l.Payload,
		})
	}

	w.dataBuf = w.dataBuf[:0]
	var dataStart int
	w.dataBuf, dataStart = wire.AppendLogData(w.dataBuf, params)
	w.sendBatch(wire.SchemaLog, w.dataBuf[dataStart:])
}

func (w *Worker) sendBatch(schema wire.SchemaType, data []byte) {
	w.batchBuf = w.batchBuf[:0]
	w.batchBuf = wire.AppendBatch(w.batchBuf, &wire.BatchParams{
		APIKey:  w.cfg.APIKey,
		Schema:  schema,
		Version: wire.DefaultVersion,
		BatchID: w.batchCounter.Add(1),
		Data:    data,
	})
	w.sendOrRetry(w.batchBuf)
}

// sendOrRetry makes one attempt on the worker's own transport, then either
// reports the failure or hands a copy of the frame to the retry pool.
func (w *Worker) sendOrRetry(frame []byte) {
	if w.trans.SendFrame(frame) {
		return
	}

	if w.cfg.MaxRetries <= 0 {
		w.reportError(errs.Network("send failed, no retries configured"))
		return
	}

	w.retryMu.Lock()
	if w.retryActive >= MaxRetryTasks {
		w.retryMu.Unlock()
		w.reportError(errs.Network("send failed, retry pool full"))
		return
	}
	w.retryActive++
	w.retryMu.Unlock()

	owned := make([]byte, len(frame))
	copy(owned, frame)
	w.retryWG.Go(func() { w.retrySend(owned) })
}

// retrySend resends a frame over its own connection with exponential
// backoff: 1 s base, x1.5 per attempt, 20% jitter, 30 s cap.
func (w *Worker) retrySend(frame []byte) {
	defer func() {
		w.retryMu.Lock()
		w.retryActive--
		w.retryMu.Unlock()
	}()

	t := w.dial()
	defer t.Close()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 1.5
	bo.RandomizationFactor = 0.2
	bo.MaxInterval = retryMaxDelay

	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		delay := bo.NextBackOff()
		if delay == backoff.Stop || delay > retryMaxDelay {
			delay = retryMaxDelay
		}
		time.Sleep(delay)

		if t.SendFrame(frame) {
			return
		}
	}

	w.reportError(errs.Network("send failed after %d retries", w.cfg.MaxRetries))
}

func (w *Worker) reportError(err errs.Error) {
	w.cfg.Logger.Warn().Str("kind", err.Kind.String()).Msg(err.Message)
	if w.cfg.OnError != nil {
		w.cfg.OnError(err)
	}
}
