package tell

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tell-rs/tell-go/pkg/tell/config"
	"github.com/tell-rs/tell-go/pkg/tell/errs"
	"github.com/tell-rs/tell-go/pkg/tell/events"
	"github.com/tell-rs/tell-go/pkg/tell/props"
	"github.com/tell-rs/tell-go/pkg/tell/validate"
	"github.com/tell-rs/tell-go/pkg/tell/wire"
	"github.com/tell-rs/tell-go/pkg/tell/worker"
)

// LogLevel is the RFC 5424 severity ordinal, re-exported for callers.
type LogLevel = wire.LogLevel

// Log severities, most to least severe.
const (
	LevelEmergency = wire.LevelEmergency
	LevelAlert     = wire.LevelAlert
	LevelCritical  = wire.LevelCritical
	LevelError     = wire.LevelError
	LevelWarning   = wire.LevelWarning
	LevelNotice    = wire.LevelNotice
	LevelInfo      = wire.LevelInfo
	LevelDebug     = wire.LevelDebug
	LevelTrace     = wire.LevelTrace
)

// Client is the SDK entry point. Ingestion methods validate on the calling
// goroutine, compose the payload bytes, and enqueue; they never perform I/O
// and never block on the network. Flush and Close wait, bounded by the
// configured close timeout.
type Client struct {
	w            *worker.Worker
	deviceID     [16]byte
	sessionMu    sync.RWMutex
	sessionID    [16]byte
	super        superProps
	closeTimeout time.Duration
	onError      errs.Callback
}

// New builds a client and starts its worker. The only failure mode is a
// Configuration error from the endpoint parse; the API key was already
// validated when the config was built.
func New(cfg config.Config) (*Client, error) {
	w, err := worker.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		w:            w,
		deviceID:     newUUID(),
		sessionID:    newUUID(),
		closeTimeout: cfg.CloseTimeout,
		onError:      cfg.OnError,
	}, nil
}

// Track records an analytics event for a user. Super-properties are merged
// before the event properties, so event keys win under last-key-wins.
func (c *Client) Track(userID, eventName string, properties *props.Props) {
	if !validate.CheckUserID(userID) {
		c.report(errs.Validation("userId", "is required"))
		return
	}
	if !validate.CheckEventName(eventName) {
		reason := "is required"
		if eventName != "" {
			reason = "must be at most 256 characters"
		}
		c.report(errs.Validation("eventName", reason))
		return
	}

	sp := c.super.raw()
	buf := make([]byte, 0, 32+len(userID)+len(sp)+propsLen(properties))
	buf = append(buf, `{"user_id":"`...)
	buf = props.AppendEscaped(buf, userID)
	buf = append(buf, '"')
	buf = appendFragment(buf, sp)
	buf = appendFragment(buf, rawProps(properties))
	buf = append(buf, '}')

	c.sendEvent(wire.EventTrack, eventName, buf)
}

// Identify associates traits with a user. Super-properties are not merged.
func (c *Client) Identify(userID string, traits *props.Props) {
	if !validate.CheckUserID(userID) {
		c.report(errs.Validation("userId", "is required"))
		return
	}

	buf := make([]byte, 0, 32+len(userID)+propsLen(traits))
	buf = append(buf, `{"user_id":"`...)
	buf = props.AppendEscaped(buf, userID)
	buf = append(buf, '"')
	if !traits.Empty() {
		buf = append(buf, `,"traits":{`...)
		buf = append(buf, traits.Raw()...)
		buf = append(buf, '}')
	}
	buf = append(buf, '}')

	c.sendEvent(wire.EventIdentify, "", buf)
}

// Group associates a user with a group.
func (c *Client) Group(userID, groupID string, properties *props.Props) {
	if !validate.CheckUserID(userID) {
		c.report(errs.Validation("userId", "is required"))
		return
	}
	if groupID == "" {
		c.report(errs.Validation("groupId", "is required"))
		return
	}

	sp := c.super.raw()
	buf := make([]byte, 0, 48+len(userID)+len(groupID)+len(sp)+propsLen(properties))
	buf = append(buf, `{"group_id":"`...)
	buf = props.AppendEscaped(buf, groupID)
	buf = append(buf, `","user_id":"`...)
	buf = props.AppendEscaped(buf, userID)
	buf = append(buf, '"')
	buf = appendFragment(buf, sp)
	buf = appendFragment(buf, rawProps(properties))
	buf = append(buf, '}')

	c.sendEvent(wire.EventGroup, "", buf)
}

// Revenue records a completed order as a track event named
// events.OrderCompleted.
func (c *Client) Revenue(userID string, amount float64, currency, orderID string, properties *props.Props) {
	if !validate.CheckUserID(userID) {
		c.report(errs.Validation("userId", "is required"))
		return
	}
	if amount <= 0 {
		c.report(errs.Validation("amount", "must be positive"))
		return
	}
	if currency == "" {
		c.report(errs.Validation("currency", "is required"))
		return
	}
	if orderID == "" {
		c.report(errs.Validation("orderId", "is required"))
		return
	}

	sp := c.super.raw()
	buf := make([]byte, 0, 96+len(userID)+len(currency)+len(orderID)+len(sp)+propsLen(properties))
	buf = append(buf, `{"user_id":"`...)
	buf = props.AppendEscaped(buf, userID)
	buf = append(buf, `","amount":`...)
	buf = strconv.AppendFloat(buf, amount, 'g', -1, 64)
	buf = append(buf, `,"currency":"`...)
	buf = props.AppendEscaped(buf, currency)
	buf = append(buf, `","order_id":"`...)
	buf = props.AppendEscaped(buf, orderID)
	buf = append(buf, '"')
	buf = appendFragment(buf, sp)
	buf = appendFragment(buf, rawProps(properties))
	buf = append(buf, '}')

	c.sendEvent(wire.EventTrack, events.OrderCompleted, buf)
}

// Alias links a previous identity to a user id.
func (c *Client) Alias(previousID, userID string) {
	if previousID == "" {
		c.report(errs.Validation("previousId", "is required"))
		return
	}
	if !validate.CheckUserID(userID) {
		c.report(errs.Validation("userId", "is required"))
		return
	}

	buf := make([]byte, 0, 40+len(previousID)+len(userID))
	buf = append(buf, `{"previous_id":"`...)
	buf = props.AppendEscaped(buf, previousID)
	buf = append(buf, `","user_id":"`...)
	buf = props.AppendEscaped(buf, userID)
	buf = append(buf, `"}`...)

	c.sendEvent(wire.EventAlias, "", buf)
}

// Log records a structured log line. An empty service resolves to "app";
// the service travels on the log envelope, not in the payload.
func (c *Client) Log(level LogLevel, message, service string, data *props.Props) {
	if !validate.CheckLogMessage(message) {
		reason := "is required"
		if message != "" {
			reason = "must be at most 65536 characters"
		}
		c.report(errs.Validation("message", reason))
		return
	}
	if !validate.CheckServiceName(service) {
		c.report(errs.Validation("service", "must be at most 256 characters"))
		return
	}
	if service == "" {
		service = config.DefaultService
	}

	buf := make([]byte, 0, 16+len(message)+propsLen(data))
	buf = append(buf, `{"message":"`...)
	buf = props.AppendEscaped(buf, message)
	buf = append(buf, '"')
	buf = appendFragment(buf, rawProps(data))
	buf = append(buf, '}')

	c.w.SendLog(worker.QueuedLog{
		Level:     level,
		Timestamp: nowMillis(),
		SessionID: c.readSessionID(),
		Service:   service,
		Payload:   buf,
	})
}

// LogEmergency logs at severity 0.
func (c *Client) LogEmergency(message, service string, data *props.Props) {
	c.Log(LevelEmergency, message, service, data)
}

// LogAlert logs at severity 1.
func (c *Client) LogAlert(message, service string, data *props.Props) {
	c.Log(LevelAlert, message, service, data)
}

// LogCritical logs at severity 2.
func (c *Client) LogCritical(message, service string, data *props.Props) {
	c.Log(LevelCritical, message, service, data)
}

// LogError logs at severity 3.
func (c *Client) LogError(message, service string, data *props.Props) {
	c.Log(LevelError, message, service, data)
}

// LogWarning logs at severity 4.
func (c *Client) LogWarning(message, service string, data *props.Props) {
	c.Log(LevelWarning, message, service, data)
}

// LogNotice logs at severity 5.
func (c *Client) LogNotice(message, service string, data *props.Props) {
	c.Log(LevelNotice, message, service, data)
}

// LogInfo logs at severity 6.
func (c *Client) LogInfo(message, service string, data *props.Props) {
	c.Log(LevelInfo, message, service, data)
}

// LogDebug logs at severity 7.
func (c *Client) LogDebug(message, service string, data *props.Props) {
	c.Log(LevelDebug, message, service, data)
}

// LogTrace logs at severity 8.
func (c *Client) LogTrace(message, service string, data *props.Props) {
	c.Log(LevelTrace, message, service, data)
}

// Register upserts super-properties merged into every track, group, and
// revenue payload. Last value wins per key.
func (c *Client) Register(properties *props.Props) {
	if properties.Empty() {
		return
	}
	c.super.register(properties.Raw())
}

// Unregister removes one super-property. Absent keys are a no-op.
func (c *Client) Unregister(key string) {
	c.super.unregister(key)
}

// ResetSession rotates the session id. Records already enqueued keep the
// old id.
func (c *Client) ResetSession() {
	id := newUUID()
	c.sessionMu.Lock()
	c.sessionID = id
	c.sessionMu.Unlock()
}

// Flush delivers everything enqueued so far, waiting up to the close
// timeout. Expiry returns silently.
func (c *Client) Flush() {
	select {
	case <-c.w.Flush():
	case <-time.After(c.closeTimeout):
	}
}

// Close flushes and stops the worker, waiting up to the close timeout.
// Calls after Close remain safe no-ops.
func (c *Client) Close() {
	select {
	case <-c.w.Close():
	case <-time.After(c.closeTimeout):
	}
}

func (c *Client) sendEvent(typ wire.EventType, eventName string, payload []byte) {
	c.w.SendEvent(worker.QueuedEvent{
		Type:      typ,
		Timestamp: nowMillis(),
		DeviceID:  c.deviceID,
		SessionID: c.readSessionID(),
		EventName: eventName,
		Payload:   payload,
	})
}

func (c *Client) readSessionID() [16]byte {
	c.sessionMu.RLock()
	id := c.sessionID
	c.sessionMu.RUnlock()
	return id
}

func (c *Client) report(err errs.Error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// appendFragment appends `,<fragment>` when the fragment is non-empty.
func appendFragment(buf, fragment []byte) []byte {
	if len(fragment) == 0 {
		return buf
	}
	buf = append(buf, ',')
	return append(buf, fragment...)
}

func rawProps(p *props.Props) []byte {
	if p.Empty() {
		return nil
	}
	return p.Raw()
}

func propsLen(p *props.Props) int {
	if p == nil {
		return 0
	}
	return len(p.Raw())
}

func newUUID() [16]byte {
	return [16]byte(uuid.New())
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
