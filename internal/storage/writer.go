package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

// WriterService appends published rankings to an NDJSON history file.
// It is the only writer of FilePath.
type WriterService struct {
	FilePath string
	Log      *slog.Logger
}

// Start drains input until it is closed. When the history file cannot be
// opened, input is still drained so the producer never stalls, and the open
// error is returned once input closes.
func (w *WriterService) Start(input <-chan domain.Snapshot) error {
	log := w.Log
	if log == nil {
		log = slog.Default()
	}
	f, err := w.open()
	if err != nil {
		log.Error("history disabled", "path", w.FilePath, "err", err)
		for range input {
		}
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for snap := range input {
		// one line per snapshot
		if err := enc.Encode(snap); err != nil {
			log.Error("history write failed", "seq", snap.Seq, "err", err)
			continue
		}
		log.Debug("snapshot recorded", "seq", snap.Seq, "timeframe", snap.Query.Timeframe)
	}
	return nil
}

func (w *WriterService) open() (*os.File, error) {
	if dir := filepath.Dir(w.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return f, nil
}

// LoadHistory returns the last limit snapshots in path, oldest first.
// A missing file is an empty history; undecodable lines are skipped.
// With a positive limit only the last limit lines of the file are read.
func LoadHistory(path string, limit int) ([]domain.Snapshot, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat history: %w", err)
	}
	var off int64
	if limit > 0 {
		if off, err = tailOffset(f, st.Size(), limit); err != nil {
			return nil, fmt.Errorf("seek history: %w", err)
		}
	}

	var snaps []domain.Snapshot
	scanner := bufio.NewScanner(io.NewSectionReader(f, off, st.Size()-off))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var s domain.Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err == nil {
			snaps = append(snaps, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[len(snaps)-limit:]
	}
	return snaps, nil
}

const tailBlock = 32 * 1024

// tailOffset returns where the last n lines of a size-byte file begin,
// scanning backwards a block at a time.
func tailOffset(r io.ReaderAt, size int64, n int) (int64, error) {
	buf := make([]byte, tailBlock)
	seen := 0
	pos := size
	for pos > 0 {
		chunk := int64(len(buf))
		if pos < chunk {
			chunk = pos
		}
		pos -= chunk
		if _, err := r.ReadAt(buf[:chunk], pos); err != nil {
			return 0, err
		}
		for i := chunk - 1; i >= 0; i-- {
			// the final newline terminates the last line, it does not start one
			if buf[i] != '\n' || pos+i == size-1 {
				continue
			}
			seen++
			if seen == n {
				return pos + i + 1, nil
			}
		}
	}
	return 0, nil
}
