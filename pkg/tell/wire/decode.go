package wire

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// The readers below follow the flatc-generated accessor pattern over
// flatbuffers.Table, so any buffer they accept is by construction readable by
// stock FlatBuffers tooling. A missing slot returns the zero value: nil for
// byte vectors, "" for strings. Batch.Version is the exception and returns
// DefaultVersion.

// Batch is a read-only view over an encoded batch envelope.
type Batch struct {
	tab flatbuffers.Table
}

// ReadBatch interprets buf as an encoded batch starting at its root offset.
func ReadBatch(buf []byte) *Batch {
	n := flatbuffers.GetUOffsetT(buf)
	b := &Batch{}
	b.tab.Bytes = buf
	b.tab.Pos = n
	return b
}

// APIKey returns the 16 raw key bytes, or nil when absent.
func (b *Batch) APIKey() []byte {
	o := flatbuffers.UOffsetT(b.tab.Offset(4))
	if o != 0 {
		return b.tab.ByteVector(o + b.tab.Pos)
	}
	return nil
}

// SchemaType reports which decoder the payload belongs to.
func (b *Batch) SchemaType() SchemaType {
	o := flatbuffers.UOffsetT(b.tab.Offset(6))
	if o != 0 {
		return SchemaType(b.tab.GetByte(o + b.tab.Pos))
	}
	return SchemaUnknown
}

// Version returns the wire version byte, DefaultVersion when absent.
func (b *Batch) Version() uint8 {
	o := flatbuffers.UOffsetT(b.tab.Offset(8))
	if o != 0 {
		return b.tab.GetByte(o + b.tab.Pos)
	}
	return DefaultVersion
}

// BatchID returns the sender's batch counter, 0 when absent.
func (b *Batch) BatchID() uint64 {
	o := flatbuffers.UOffsetT(b.tab.Offset(10))
	if o != 0 {
		return b.tab.GetUint64(o + b.tab.Pos)
	}
	return 0
}

// Data returns the nested EventData or LogData bytes, or nil when absent.
func (b *Batch) Data() []byte {
	o := flatbuffers.UOffsetT(b.tab.Offset(12))
	if o != 0 {
		return b.tab.ByteVector(o + b.tab.Pos)
	}
	return nil
}

// Event is a read-only view over one encoded event table.
type Event struct {
	tab flatbuffers.Table
}

func (e *Event) init(buf []byte, pos flatbuffers.UOffsetT) {
	e.tab.Bytes = buf
	e.tab.Pos = pos
}

// ReadEvent interprets buf as a standalone encoded event.
func ReadEvent(buf []byte) *Event {
	n := flatbuffers.GetUOffsetT(buf)
	e := &Event{}
	e.init(buf, n)
	return e
}

func (e *Event) Type() EventType {
	o := flatbuffers.UOffsetT(e.tab.Offset(4))
	if o != 0 {
		return EventType(e.tab.GetByte(o + e.tab.Pos))
	}
	return EventUnknown
}

func (e *Event) Timestamp() uint64 {
	o := flatbuffers.UOffsetT(e.tab.Offset(6))
	if o != 0 {
		return e.tab.GetUint64(o + e.tab.Pos)
	}
	return 0
}

func (e *Event) Service() string {
	o := flatbuffers.UOffsetT(e.tab.Offset(8))
	if o != 0 {
		return string(e.tab.ByteVector(o + e.tab.Pos))
	}
	return ""
}

func (e *Event) DeviceID() []byte {
	o := flatbuffers.UOffsetT(e.tab.Offset(10))
	if o != 0 {
		return e.tab.ByteVector(o + e.tab.Pos)
	}
	return nil
}

func (e *Event) SessionID() []byte {
	o := flatbuffers.UOffsetT(e.tab.Offset(12))
	if o != 0 {
		return e.tab.ByteVector(o + e.tab.Pos)
	}
	return nil
}

func (e *Event) EventName() string {
	o := flatbuffers.UOffsetT(e.tab.Offset(14))
	if o != 0 {
		return string(e.tab.ByteVector(o + e.tab.Pos))
	}
	return ""
}

// Payload returns the pre-serialized JSON payload bytes, or nil when absent.
func (e *Event) Payload() []byte {
	o := flatbuffers.UOffsetT(e.tab.Offset(16))
	if o != 0 {
		return e.tab.ByteVector(o + e.tab.Pos)
	}
	return nil
}

// EventData is a read-only view over an encoded event container.
type EventData struct {
	tab flatbuffers.Table
}

// ReadEventData interprets buf as an encoded EventData structure.
func ReadEventData(buf []byte) *EventData {
	n := flatbuffers.GetUOffsetT(buf)
	d := &EventData{}
	d.tab.Bytes = buf
	d.tab.Pos = n
	return d
}

// Len reports the number of events in the container.
func (d *EventData) Len() int {
	o := flatbuffers.UOffsetT(d.tab.Offset(4))
	if o != 0 {
		return d.tab.VectorLen(o)
	}
	return 0
}

// At positions obj over the j-th event and reports whether it exists.
func (d *EventData) At(obj *Event, j int) bool {
	o := flatbuffers.UOffsetT(d.tab.Offset(4))
	if o != 0 {
		x := d.tab.Vector(o)
		x += flatbuffers.UOffsetT(j) * 4
		x = d.tab.Indirect(x)
		obj.init(d.tab.Bytes, x)
		return true
	}
	return false
}

// LogEntry is a read-only view over one encoded log entry table.
type LogEntry struct {
	tab flatbuffers.Table
}

func (l *LogEntry) init(buf []byte, pos flatbuffers.UOffsetT) {
	l.tab.Bytes = buf
	l.tab.Pos = pos
}

// ReadLogEntry interprets buf as a standalone encoded log entry.
func ReadLogEntry(buf []byte) *LogEntry {
	n := flatbuffers.GetUOffsetT(buf)
	l := &LogEntry{}
	l.init(buf, n)
	return l
}

func (l *LogEntry) Type() LogEventType {
	o := flatbuffers.UOffsetT(l.tab.Offset(4))
	if o != 0 {
		return LogEventType(l.tab.GetByte(o + l.tab.Pos))
	}
	return LogEventUnknown
}

func (l *LogEntry) SessionID() []byte {
	o := flatbuffers.UOffsetT(l.tab.Offset(6))
	if o != 0 {
		return l.tab.ByteVector(o + l.tab.Pos)
	}
	return nil
}

func (l *LogEntry) Level() LogLevel {
	o := flatbuffers.UOffsetT(l.tab.Offset(8))
	if o != 0 {
		return LogLevel(l.tab.GetByte(o + l.tab.Pos))
	}
	return LevelEmergency
}

func (l *LogEntry) Timestamp() uint64 {
	o := flatbuffers.UOffsetT(l.tab.Offset(10))
	if o != 0 {
		return l.tab.GetUint64(o + l.tab.Pos)
	}
	return 0
}

func (l *LogEntry) Source() string {
	o := flatbuffers.UOffsetT(l.tab.Offset(12))
	if o != 0 {
		return string(l.tab.ByteVector(o + l.tab.Pos))
	}
	return ""
}

func (l *LogEntry) Service() string {
	o := flatbuffers.UOffsetT(l.tab.Offset(14))
	if o != 0 {
		return string(l.tab.ByteVector(o + l.tab.Pos))
	}
	return ""
}

// Payload returns the pre-serialized JSON payload bytes, or nil when absent.
func (l *LogEntry) Payload() []byte {
	o := flatbuffers.UOffsetT(l.tab.Offset(16))
	if o != 0 {
		return l.tab.ByteVector(o + l.tab.Pos)
	}
	return nil
}

// LogData is a read-only view over an encoded log container.
type LogData struct {
	tab flatbuffers.Table
}

// ReadLogData interprets buf as an encoded LogData structure.
func ReadLogData(buf []byte) *LogData {
	n := flatbuffers.GetUOffsetT(buf)
	d := &LogData{}
	d.tab.Bytes = buf
	d.tab.Pos = n
	return d
}

// Len reports the number of log entries in the container.
func (d *LogData) Len() int {
	o := flatbuffers.UOffsetT(d.tab.Offset(4))
	if o != 0 {
		return d.tab.VectorLen(o)
	}
	return 0
}

// At positions obj over the j-th log entry and reports whether it exists.
func (d *LogData) At(obj *LogEntry, j int) bool {
	o := flatbuffers.UOffsetT(d.tab.Offset(4))
	if o != 0 {
		x := d.tab.Vector(o)
		x += flatbuffers.UOffsetT(j) * 4
		x = d.tab.Indirect(x)
		obj.init(d.tab.Bytes, x)
		return true
	}
	return false
}
