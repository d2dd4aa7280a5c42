package tell

import (
	"sort"
	"strconv"
	"sync"

	"github.com/tell-rs/tell-go/pkg/tell/props"
)

// superProps is the shared key -> pre-encoded-JSON-value map merged into
// track, group, and revenue payloads. Values are stored without the key or
// colon. Reads return a cached serialized fragment rebuilt on write, so the
// per-ingestion cost is a lock and a slice copy regardless of map size.
type superProps struct {
	mu      sync.RWMutex
	entries map[string][]byte
	cache   []byte
}

// raw returns the comma-separated `"key":value` fragment in key order, or
// nil when empty. The returned slice is replaced, never mutated, on write.
func (s *superProps) raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// register upserts every entry parsed from a Props raw fragment. Last value
// wins for duplicate keys.
func (s *superProps) register(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string][]byte)
	}
	parsePropsInto(raw, s.entries)
	s.rebuild()
}

// unregister erases one key. Absent keys are a no-op.
func (s *superProps) unregister(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	s.rebuild()
}

func (s *superProps) rebuild() {
	if len(s.entries) == 0 {
		s.cache = nil
		return
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 0, 64)
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '"')
		buf = props.AppendEscaped(buf, k)
		buf = append(buf, '"', ':')
		buf = append(buf, s.entries[k]...)
	}
	s.cache = buf
}

// parsePropsInto walks a Props raw fragment (`"key":value,...`) and upserts
// each pair into m. Keys are unescaped; values keep their encoded bytes.
func parsePropsInto(raw []byte, m map[string][]byte) {
	i, n := 0, len(raw)
	for i < n {
		if raw[i] != '"' {
			return
		}
		i++

		var key []byte
		for i < n && raw[i] != '"' {
			if raw[i] == '\\' && i+1 < n {
				switch raw[i+1] {
				case '"':
					key = append(key, '"')
				case '\\':
					key = append(key, '\\')
				case '/':
					key = append(key, '/')
				case 'b':
					key = append(key, '\b')
				case 'f':
					key = append(key, '\f')
				case 'n':
					key = append(key, '\n')
				case 'r':
					key = append(key, '\r')
				case 't':
					key = append(key, '\t')
				case 'u':
					if i+6 <= n {
						if v, err := strconv.ParseUint(string(raw[i+2:i+6]), 16, 8); err == nil {
							key = append(key, byte(v))
							i += 4
							break
						}
					}
					key = append(key, '\\', 'u')
				default:
					key = append(key, '\\', raw[i+1])
				}
				i += 2
			} else {
				key = append(key, raw[i])
				i++
			}
		}
		if i < n {
			i++ // closing quote
		}
		if i < n && raw[i] == ':' {
			i++
		}

		valueStart := i
		if i < n && raw[i] == '"' {
			i++
			for i < n {
				if raw[i] == '\\' && i+1 < n {
					i += 2
				} else if raw[i] == '"' {
					i++
					break
				} else {
					i++
				}
			}
		} else {
			for i < n && raw[i] != ',' {
				i++
			}
		}

		value := make([]byte, i-valueStart)
		copy(value, raw[valueStart:i])
		m[string(key)] = value

		if i < n && raw[i] == ',' {
			i++
		}
	}
}
