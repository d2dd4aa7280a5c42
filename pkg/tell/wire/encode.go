// Package wire produces and reads the SDK's FlatBuffers-compatible binary
// layout without a schema compiler.
//
// Encoders write tables, vtables, and vectors directly into a caller-provided
// byte slice, so the worker can reuse its buffers across batches. The reader
// side (decode.go) is built on the FlatBuffers runtime, which doubles as a
// compatibility check for the hand-rolled layout.
//
// All integers are little-endian. A table is a 4-byte signed offset to its
// vtable followed by inline fields; offsets within a table point forward and
// are stored relative to the offset's own position. Byte vectors are a u32
// length followed by the bytes; strings add a trailing NUL. The first 4 bytes
// of an encoded structure are the root offset, relative to the structure's
// first byte.
package wire

import "encoding/binary"

const (
	apiKeyLen = 16
	uuidLen   = 16

	// DefaultVersion is the compile-time wire version byte.
	DefaultVersion = 100
)

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func align4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// appendByteVector writes [u32 length][data] and returns the new slice and
// the vector's start position.
func appendByteVector(buf, data []byte) ([]byte, int) {
	start := len(buf)
	buf = appendU32(buf, uint32(len(data)))
	buf = append(buf, data...)
	return buf, start
}

// appendString writes [u32 length][data][NUL] and returns the new slice and
// the string's start position.
func appendString(buf []byte, s string) ([]byte, int) {
	start := len(buf)
	buf = appendU32(buf, uint32(len(s)))
	buf = append(buf, s...)
	buf = append(buf, 0)
	return buf, start
}

// patchOffset stores target-offsetPos at offsetPos (forward reference).
func patchOffset(buf []byte, offsetPos, target int) {
	binary.LittleEndian.PutUint32(buf[offsetPos:], uint32(target-offsetPos))
}

func patchU32(buf []byte, pos int, v uint32) {
	binary.LittleEndian.PutUint32(buf[pos:], v)
}

// EventParams carries one event's fields into the encoder. Nil slices and
// empty strings mean the field is absent on the wire.
type EventParams struct {
	Type      EventType
	Timestamp uint64
	Service   string
	DeviceID  []byte // 16 bytes or nil
	SessionID []byte // 16 bytes or nil
	EventName string
	Payload   []byte
}

// AppendEvent encodes a single event as a standalone structure (root offset
// first) and returns the extended buffer.
//
// Vtable is 18 bytes (4 header + 7 slots, padded to 20); the inline table is
// 36 bytes: soffset, four forward offsets, timestamp at +20, event_type at
// +28, service offset at +32.
func AppendEvent(buf []byte, p *EventParams) []byte {
	hasDeviceID := p.DeviceID != nil
	hasSessionID := p.SessionID != nil
	hasService := p.Service != ""
	hasEventName := p.EventName != ""
	hasPayload := len(p.Payload) > 0

	rootPos := len(buf)
	buf = append(buf, 0, 0, 0, 0)

	vtableStart := len(buf)
	buf = appendU16(buf, 18) // vtable_size = 4 + 7*2
	buf = appendU16(buf, 36) // table_size
	buf = appendU16(buf, 28) // field 0: event_type
	buf = appendU16(buf, 20) // field 1: timestamp
	buf = appendU16(buf, slot(hasService, 32))
	buf = appendU16(buf, slot(hasDeviceID, 4))
	buf = appendU16(buf, slot(hasSessionID, 8))
	buf = appendU16(buf, slot(hasEventName, 12))
	buf = appendU16(buf, slot(hasPayload, 16))
	buf = append(buf, 0, 0) // vtable alignment padding

	tableStart := len(buf)
	buf = appendU32(buf, uint32(tableStart-vtableStart)) // soffset

	deviceIDOffPos := len(buf)
	buf = appendU32(buf, 0)
	sessionIDOffPos := len(buf)
	buf = appendU32(buf, 0)
	eventNameOffPos := len(buf)
	buf = appendU32(buf, 0)
	payloadOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = appendU64(buf, p.Timestamp)
	buf = append(buf, byte(p.Type), 0, 0, 0)

	serviceOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = align4(buf)

	var deviceIDStart, sessionIDStart, serviceStart, eventNameStart, payloadStart int
	if hasDeviceID {
		buf, deviceIDStart = appendByteVector(buf, p.DeviceID)
		buf = align4(buf)
	}
	if hasSessionID {
		buf, sessionIDStart = appendByteVector(buf, p.SessionID)
		buf = align4(buf)
	}
	if hasService {
		buf, serviceStart = appendString(buf, p.Service)
		buf = align4(buf)
	}
	if hasEventName {
		buf, eventNameStart = appendString(buf, p.EventName)
		buf = align4(buf)
	}
	if hasPayload {
		buf, payloadStart = appendByteVector(buf, p.Payload)
	}

	patchU32(buf, rootPos, uint32(tableStart-rootPos))

	if hasDeviceID {
		patchOffset(buf, deviceIDOffPos, deviceIDStart)
	}
	if hasSessionID {
		patchOffset(buf, sessionIDOffPos, sessionIDStart)
	}
	if hasService {
		patchOffset(buf, serviceOffPos, serviceStart)
	}
	if hasEventName {
		patchOffset(buf, eventNameOffPos, eventNameStart)
	}
	if hasPayload {
		patchOffset(buf, payloadOffPos, payloadStart)
	}
	return buf
}

// AppendEventData encodes the EventData container (a table holding a vector
// of Event tables) and returns the extended buffer and the container's start
// position within it.
func AppendEventData(buf []byte, events []EventParams) ([]byte, int) {
	dataStart := len(buf)

	rootPos := len(buf)
	buf = append(buf, 0, 0, 0, 0)

	vtableStart := len(buf)
	buf = appendU16(buf, 6) // vtable_size
	buf = appendU16(buf, 8) // table_size
	buf = appendU16(buf, 4) // field 0: events vector
	buf = append(buf, 0, 0) // align vtable

	tableStart := len(buf)
	buf = appendU32(buf, uint32(tableStart-vtableStart))

	eventsOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = align4(buf)

	vecStart := len(buf)
	buf = appendU32(buf, uint32(len(events)))

	offsetsStart := len(buf)
	for range events {
		buf = appendU32(buf, 0)
	}
	buf = align4(buf)

	tablePositions := make([]int, 0, len(events))
	for i := range events {
		buf = align4(buf)
		eventStart := len(buf)
		buf = AppendEvent(buf, &events[i])
		rootOffset := binary.LittleEndian.Uint32(buf[eventStart:])
		tablePositions = append(tablePositions, eventStart+int(rootOffset))
	}

	for i, pos := range tablePositions {
		patchOffset(buf, offsetsStart+i*4, pos)
	}
	patchOffset(buf, eventsOffPos, vecStart)
	patchU32(buf, rootPos, uint32(tableStart-dataStart))

	return buf, dataStart
}

// LogEntryParams carries one log entry's fields into the encoder.
type LogEntryParams struct {
	Type      LogEventType
	SessionID []byte // 16 bytes or nil
	Level     LogLevel
	Timestamp uint64
	Source    string
	Service   string
	Payload   []byte
}

// AppendLogEntry encodes a single log entry as a standalone structure.
//
// Vtable is 18 bytes; the inline table is 32 bytes: soffset, four forward
// offsets, timestamp at +20, event_type at +28, level at +29.
func AppendLogEntry(buf []byte, p *LogEntryParams) []byte {
	hasSessionID := p.SessionID != nil
	hasSource := p.Source != ""
	hasService := p.Service != ""
	hasPayload := len(p.Payload) > 0

	rootPos := len(buf)
	buf = append(buf, 0, 0, 0, 0)

	vtableStart := len(buf)
	buf = appendU16(buf, 18) // vtable_size = 4 + 7*2
	buf = appendU16(buf, 32) // table_size
	buf = appendU16(buf, 28) // field 0: event_type
	buf = appendU16(buf, slot(hasSessionID, 4))
	buf = appendU16(buf, 29) // field 2: level
	buf = appendU16(buf, 20) // field 3: timestamp
	buf = appendU16(buf, slot(hasSource, 8))
	buf = appendU16(buf, slot(hasService, 12))
	buf = appendU16(buf, slot(hasPayload, 16))
	buf = append(buf, 0, 0) // align vtable

	tableStart := len(buf)
	buf = appendU32(buf, uint32(tableStart-vtableStart))

	sessionIDOffPos := len(buf)
	buf = appendU32(buf, 0)
	sourceOffPos := len(buf)
	buf = appendU32(buf, 0)
	serviceOffPos := len(buf)
	buf = appendU32(buf, 0)
	payloadOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = appendU64(buf, p.Timestamp)
	buf = append(buf, byte(p.Type), byte(p.Level), 0, 0)

	buf = align4(buf)

	var sessionIDStart, sourceStart, serviceStart, payloadStart int
	if hasSessionID {
		buf, sessionIDStart = appendByteVector(buf, p.SessionID)
		buf = align4(buf)
	}
	if hasSource {
		buf, sourceStart = appendString(buf, p.Source)
		buf = align4(buf)
	}
	if hasService {
		buf, serviceStart = appendString(buf, p.Service)
		buf = align4(buf)
	}
	if hasPayload {
		buf, payloadStart = appendByteVector(buf, p.Payload)
	}

	patchU32(buf, rootPos, uint32(tableStart-rootPos))

	if hasSessionID {
		patchOffset(buf, sessionIDOffPos, sessionIDStart)
	}
	if hasSource {
		patchOffset(buf, sourceOffPos, sourceStart)
	}
	if hasService {
		patchOffset(buf, serviceOffPos, serviceStart)
	}
	if hasPayload {
		patchOffset(buf, payloadOffPos, payloadStart)
	}
	return buf
}

// AppendLogData encodes the LogData container over a list of log entries and
// returns the extended buffer and the container's start position.
func AppendLogData(buf []byte, logs []LogEntryParams) ([]byte, int) {
	dataStart := len(buf)

	rootPos := len(buf)
	buf = append(buf, 0, 0, 0, 0)

	vtableStart := len(buf)
	buf = appendU16(buf, 6)
	buf = appendU16(buf, 8)
	buf = appendU16(buf, 4)
	buf = append(buf, 0, 0)

	tableStart := len(buf)
	buf = appendU32(buf, uint32(tableStart-vtableStart))

	logsOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = align4(buf)

	vecStart := len(buf)
	buf = appendU32(buf, uint32(len(logs)))

	offsetsStart := len(buf)
	for range logs {
		buf = appendU32(buf, 0)
	}
	buf = align4(buf)

	tablePositions := make([]int, 0, len(logs))
	for i := range logs {
		buf = align4(buf)
		entryStart := len(buf)
		buf = AppendLogEntry(buf, &logs[i])
		rootOffset := binary.LittleEndian.Uint32(buf[entryStart:])
		tablePositions = append(tablePositions, entryStart+int(rootOffset))
	}

	for i, pos := range tablePositions {
		patchOffset(buf, offsetsStart+i*4, pos)
	}
	patchOffset(buf, logsOffPos, vecStart)
	patchU32(buf, rootPos, uint32(tableStart-dataStart))

	return buf, dataStart
}

// BatchParams wraps already-encoded EventData or LogData bytes with the
// batch envelope fields.
type BatchParams struct {
	APIKey  [16]byte
	Schema  SchemaType
	Version uint8 // 0 means DefaultVersion
	BatchID uint64
	Data    []byte
}

// AppendBatch encodes the Batch table. The batch_id slot is omitted when the
// id is 0 and the version byte defaults to DefaultVersion when 0. The
// source_ip slot is reserved and always absent.
func AppendBatch(buf []byte, p *BatchParams) []byte {
	hasBatchID := p.BatchID != 0
	version := p.Version
	if version == 0 {
		version = DefaultVersion
	}

	base := len(buf)
	buf = append(buf, 0, 0, 0, 0)

	vtableStart := len(buf)
	buf = appendU16(buf, 16) // vtable_size = 4 + 6*2
	buf = appendU16(buf, 32) // table_size
	buf = appendU16(buf, 4)  // field 0: api_key
	buf = appendU16(buf, 24) // field 1: schema_type
	buf = appendU16(buf, 25) // field 2: version
	buf = appendU16(buf, slot(hasBatchID, 16))
	buf = appendU16(buf, 8) // field 4: data
	buf = appendU16(buf, 0) // field 5: source_ip, reserved

	tableStart := len(buf)
	buf = appendU32(buf, uint32(tableStart-vtableStart))

	apiKeyOffPos := len(buf)
	buf = appendU32(buf, 0)
	dataOffPos := len(buf)
	buf = appendU32(buf, 0)

	buf = appendU32(buf, 0) // source_ip placeholder, unused

	buf = appendU64(buf, p.BatchID)
	buf = append(buf, byte(p.Schema), version, 0, 0, 0, 0, 0, 0) // pad to 32

	buf = align4(buf)

	var apiKeyStart, dataStart int
	buf, apiKeyStart = appendByteVector(buf, p.APIKey[:])
	buf = align4(buf)
	buf, dataStart = appendByteVector(buf, p.Data)

	patchU32(buf, base, uint32(tableStart-base))
	patchOffset(buf, apiKeyOffPos, apiKeyStart)
	patchOffset(buf, dataOffPos, dataStart)
	return buf
}

func slot(present bool, off uint16) uint16 {
	if present {
		return off
	}
	return 0
}
