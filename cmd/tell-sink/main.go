// Command tell-sink is a development collector. It accepts framed batches
// over TCP, prints a summary of each, and can record the raw frames to a
// gzip capture file for later inspection.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/tell-rs/tell-go/pkg/tell/wire"
)

// maxFrameSize rejects frames larger than a sane batch could be.
const maxFrameSize = 64 << 20

func main() {
	var (
		addr   = flag.String("addr", ":50000", "listen address")
		record = flag.String("record", "", "optional gzip capture file for raw frames")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var rec *recorder
	if *record != "" {
		var err error
		rec, err = newRecorder(*record)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open capture file")
		}
		defer rec.Close()
		logger.Info().Str("file", *record).Msg("recording frames")
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to listen")
	}
	logger.Info().Str("addr", *addr).Msg("tell-sink listening")

	s := &sink{log: logger, rec: rec}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go s.serve(conn)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ln.Close()
	s.closeConns()
	s.wg.Wait()
}

type sink struct {
	log zerolog.Logger
	rec *recorder

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func (s *sink) serve(conn net.Conn) {
	defer s.wg.Done()
	s.track(conn, true)
	defer s.track(conn, false)
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	s.log.Info().Str("peer", peer).Msg("connected")

	var header [4]byte
	for {
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Warn().Err(err).Str("peer", peer).Msg("read failed")
			}
			s.log.Info().Str("peer", peer).Msg("disconnected")
			return
		}
		length := binary.BigEndian.Uint32(header[:])
		if length > maxFrameSize {
			s.log.Warn().Uint32("len", length).Str("peer", peer).Msg("oversized frame, dropping connection")
			return
		}
		frame := make([]byte, length)
		if _, err := io.ReadFull(conn, frame); err != nil {
			s.log.Warn().Err(err).Str("peer", peer).Msg("truncated frame")
			return
		}

		if s.rec != nil {
			s.rec.Write(header[:], frame)
		}
		s.describe(peer, frame)
	}
}

func (s *sink) describe(peer string, frame []byte) {
	batch := wire.ReadBatch(frame)
	ev := s.log.Info().
		Str("peer", peer).
		Uint64("batch_id", batch.BatchID()).
		Uint8("version", batch.Version()).
		Int("bytes", len(frame))

	switch batch.SchemaType() {
	case wire.SchemaEvent:
		data := wire.ReadEventData(batch.Data())
		ev = ev.Str("schema", "event").Int("records", data.Len())
		var e wire.Event
		for i := 0; i < data.Len(); i++ {
			if data.At(&e, i) {
				s.log.Debug().
					Str("type", "event").
					Str("name", e.EventName()).
					Str("service", e.Service()).
					RawJSON("payload", e.Payload()).
					Msg("record")
			}
		}
	case wire.SchemaLog:
		data := wire.ReadLogData(batch.Data())
		ev = ev.Str("schema", "log").Int("records", data.Len())
		var l wire.LogEntry
		for i := 0; i < data.Len(); i++ {
			if data.At(&l, i) {
				s.log.Debug().
					Str("type", "log").
					Str("level", l.Level().String()).
					Str("service", l.Service()).
					RawJSON("payload", l.Payload()).
					Msg("record")
			}
		}
	default:
		ev = ev.Str("schema", "unknown")
	}
	ev.Msg("batch")
}

func (s *sink) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *sink) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// recorder appends length-prefixed frames to a gzip capture file.
type recorder struct {
	mu sync.Mutex
	f  *os.File
	gz *gzip.Writer
}

func newRecorder(path string) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &recorder{f: f, gz: gzip.NewWriter(f)}, nil
}

func (r *recorder) Write(header, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gz.Write(header)
	r.gz.Write(frame)
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gz.Close()
	r.f.Close()
}
