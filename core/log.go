package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// csvLogHeader matches the field order LogEntry is written in.
var csvLogHeader = []string{
	"loop_index", "alt", "roll", "pitch", "yaw", "v_batt",
	"u_thr", "u_roll", "u_pitch", "u_yaw", "u_x", "u_y", "mot",
}

// CSVLogSink writes one CSV file per arm cycle under Dir, named
// "<sessionID>.csv". Append never blocks the caller (the ISR): entries are
// dropped, not queued indefinitely, once the channel buffer is full.
type CSVLogSink struct {
	Dir        string
	BufferSize int // channel depth; 0 means a sensible default

	mu      sync.Mutex
	entries chan LogEntry
	done    chan struct{}
	dropped uint64
}

// Start opens "<Dir>/<sessionID>.csv", writes the header, and launches the
// consumer goroutine that drains entries and flushes them to disk.
func (s *CSVLogSink) Start(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("quadfc/core: log sink: mkdir %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, sessionID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quadfc/core: log sink: create %s: %w", path, err)
	}

	bufSize := s.BufferSize
	if bufSize <= 0 {
		bufSize = 512
	}
	s.entries = make(chan LogEntry, bufSize)
	s.done = make(chan struct{})
	s.dropped = 0

	go s.run(f, s.entries, s.done)
	return nil
}

func (s *CSVLogSink) run(f *os.File, entries <-chan LogEntry, done chan<- struct{}) {
	defer close(done)
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write(csvLogHeader)
	for e := range entries {
		_ = w.Write(entryToRow(e))
	}
	w.Flush()
}

func entryToRow(e LogEntry) []string {
	row := make([]string, 0, len(csvLogHeader))
	row = append(row,
		strconv.FormatUint(e.LoopIndex, 10),
		strconv.FormatFloat(e.Alt, 'f', -1, 64),
		strconv.FormatFloat(e.Roll, 'f', -1, 64),
		strconv.FormatFloat(e.Pitch, 'f', -1, 64),
		strconv.FormatFloat(e.Yaw, 'f', -1, 64),
		strconv.FormatFloat(e.VBatt, 'f', -1, 64),
		strconv.FormatFloat(e.UThr, 'f', -1, 64),
		strconv.FormatFloat(e.URoll, 'f', -1, 64),
		strconv.FormatFloat(e.UPitch, 'f', -1, 64),
		strconv.FormatFloat(e.UYaw, 'f', -1, 64),
		strconv.FormatFloat(e.UX, 'f', -1, 64),
		strconv.FormatFloat(e.UY, 'f', -1, 64),
	)
	motStr := ""
	for i, m := range e.Mot {
		if i > 0 {
			motStr += ";"
		}
		motStr += strconv.FormatFloat(m, 'f', -1, 64)
	}
	row = append(row, motStr)
	return row
}

// Append enqueues one entry. If the consumer can't keep up the entry is
// dropped rather than blocking the feedback loop.
func (s *CSVLogSink) Append(entry LogEntry) {
	s.mu.Lock()
	ch := s.entries
	s.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- entry:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Stop closes the entry channel and waits for the consumer to flush and
// close the file.
func (s *CSVLogSink) Stop() error {
	s.mu.Lock()
	ch := s.entries
	done := s.done
	s.entries = nil
	s.mu.Unlock()

	if ch == nil {
		return nil
	}
	close(ch)
	<-done
	return nil
}

// Dropped reports how many entries were discarded because the consumer
// fell behind during the most recent (or current) session.
func (s *CSVLogSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
