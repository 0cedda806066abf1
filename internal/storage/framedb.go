package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/san-kum/wavestring/internal/sim"
	"github.com/san-kum/wavestring/internal/wave"
)

var ErrInvalidRunID = errors.New("storage: run id must be non-empty and contain no '|'")

type keyedFrame struct {
	runID string
	frame sim.Frame
}

// FrameDB buffers frames and writes them to badger in batches. Keys are
// runID|BigEndian(steps), so a prefix scan returns one run in step order.
// A frame with the same step count as an earlier one replaces it.
type FrameDB struct {
	mu        sync.Mutex
	db        *badger.DB
	batchSize int
	buffer    []keyedFrame
}

func OpenFrameDB(path string, batchSize int) (*FrameDB, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	return openFrameDB(opts, path, batchSize)
}

// OpenMemFrameDB opens a FrameDB that keeps everything in memory.
func OpenMemFrameDB(batchSize int) (*FrameDB, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return openFrameDB(opts, ":memory:", batchSize)
}

func openFrameDB(opts badger.Options, path string, batchSize int) (*FrameDB, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("frame db open failed", "path", path, "err", err)
		return nil, fmt.Errorf("storage: open frame db: %w", err)
	}

	slog.Info("frame db opened", "path", path, "batch_size", batchSize)

	return &FrameDB{
		db:        db,
		batchSize: batchSize,
		buffer:    make([]keyedFrame, 0, batchSize),
	}, nil
}

func frameKey(runID string, steps int) []byte {
	key := make([]byte, 0, len(runID)+1+8)
	key = append(key, runID...)
	key = append(key, '|')
	return binary.BigEndian.AppendUint64(key, uint64(steps))
}

func encodeFrame(f sim.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFrame(data []byte) (sim.Frame, error) {
	var f sim.Frame
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f)
	return f, err
}

func validRunID(runID string) bool {
	return runID != "" && !bytes.ContainsRune([]byte(runID), '|')
}

// WriteFrame queues a frame and writes the batch once it is full. The
// field is copied.
func (d *FrameDB) WriteFrame(runID string, f sim.Frame) error {
	f.Field = f.Field.Clone()
	return d.queue(runID, f)
}

// queue takes ownership of f.Field.
func (d *FrameDB) queue(runID string, f sim.Frame) error {
	if !validRunID(runID) {
		return ErrInvalidRunID
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.buffer = append(d.buffer, keyedFrame{runID: runID, frame: f})
	if len(d.buffer) >= d.batchSize {
		return d.flushLocked()
	}
	return nil
}

func (d *FrameDB) writeBatch(frames []keyedFrame) error {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, kf := range frames {
		v, err := encodeFrame(kf.frame)
		if err != nil {
			return fmt.Errorf("storage: encode frame: %w", err)
		}
		if err := wb.Set(frameKey(kf.runID, kf.frame.Steps), v); err != nil {
			slog.Error("frame db batch set failed", "run", kf.runID, "steps", kf.frame.Steps, "err", err)
			return fmt.Errorf("storage: write batch: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("frame db batch flush failed", "err", err)
		return fmt.Errorf("storage: flush batch: %w", err)
	}
	return nil
}

func (d *FrameDB) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked()
}

func (d *FrameDB) flushLocked() error {
	if len(d.buffer) == 0 {
		return nil
	}
	err := d.writeBatch(d.buffer)
	d.buffer = d.buffer[:0]
	return err
}

// Frames returns the flushed frames of one run in step order.
func (d *FrameDB) Frames(runID string) ([]sim.Frame, error) {
	if !validRunID(runID) {
		return nil, ErrInvalidRunID
	}
	prefix := append([]byte(runID), '|')
	frames := make([]sim.Frame, 0)

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				f, err := decodeFrame(val)
				if err != nil {
					return fmt.Errorf("storage: decode frame: %w", err)
				}
				frames = append(frames, f)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return frames, err
}

// Runs lists the run ids with at least one flushed frame.
func (d *FrameDB) Runs() ([]string, error) {
	runs := make([]string, 0)

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			i := bytes.IndexByte(key, '|')
			if i < 0 {
				continue
			}
			id := string(key[:i])
			if len(runs) == 0 || runs[len(runs)-1] != id {
				runs = append(runs, id)
			}
		}
		return nil
	})

	return runs, err
}

// Close flushes pending frames and closes the database. A flush failure
// is reported even when the close succeeds.
func (d *FrameDB) Close() error {
	d.mu.Lock()
	slog.Info("frame db closing", "pending", len(d.buffer))
	flushErr := d.flushLocked()
	d.mu.Unlock()
	closeErr := d.db.Close()

	if flushErr != nil {
		return fmt.Errorf("storage: flush on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("storage: close frame db: %w", closeErr)
	}
	return nil
}

// Recorder writes every observed frame of one run to a FrameDB.
type Recorder struct {
	db    *FrameDB
	runID string
	err   error
}

func NewRecorder(db *FrameDB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

func (r *Recorder) OnFrame(t float64, steps int, field wave.Field) {
	if r.err != nil {
		return
	}
	// the runner hands each frame a snapshot nobody mutates
	if err := r.db.queue(r.runID, sim.Frame{Time: t, Steps: steps, Field: field}); err != nil {
		slog.Error("frame not recorded", "run", r.runID, "steps", steps, "err", err)
		r.err = err
	}
}

// Err returns the first write failure, after which recording stops.
func (r *Recorder) Err() error { return r.err }
