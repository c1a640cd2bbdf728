package record

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// FrameStore persists recording frames in Badger:
//   - frames: key = "rec:<id>:f:<seq BE8>" (JSON Frame)
//   - meta:   key = "rec:<id>:meta" (JSON Meta)
//
// The big-endian sequence suffix keeps iteration in capture order.
type FrameStore struct {
	db *badger.DB
}

// OpenFrameStore opens (or creates) the frame store at path.
func OpenFrameStore(path string) (*FrameStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &FrameStore{db: db}, nil
}

func (s *FrameStore) Close() error { return s.db.Close() }

func frameKey(id string, seq uint64) []byte {
	key := make([]byte, 0, len("rec:")+len(id)+len(":f:")+8)
	key = append(key, "rec:"...)
	key = append(key, id...)
	key = append(key, ":f:"...)
	return binary.BigEndian.AppendUint64(key, seq)
}

func metaKey(id string) []byte {
	return []byte("rec:" + id + ":meta")
}

// AppendFrame writes one frame of a recording.
func (s *FrameStore) AppendFrame(ctx context.Context, id string, frame Frame) error {
	buf, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(id, frame.Seq), buf)
	})
}

// PutMeta writes the recording's metadata record.
func (s *FrameStore) PutMeta(ctx context.Context, meta Meta) error {
	buf, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(meta.ID), buf)
	})
}

// GetMeta reads the recording's metadata. ErrNotFound for unknown IDs.
func (s *FrameStore) GetMeta(ctx context.Context, id string) (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// ScanFrames streams the recording's frames in sequence order.
func (s *FrameStore) ScanFrames(ctx context.Context, id string, fn func(Frame) error) error {
	prefix := []byte("rec:" + id + ":f:")
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var frame Frame
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &frame)
			}); err != nil {
				return err
			}
			if err := fn(frame); err != nil {
				return err
			}
		}
		return nil
	})
}

// Frames returns all frames of a recording in capture order.
func (s *FrameStore) Frames(ctx context.Context, id string) ([]Frame, error) {
	var frames []Frame
	err := s.ScanFrames(ctx, id, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

// DeleteRecording drops a recording's frames and metadata.
func (s *FrameStore) DeleteRecording(ctx context.Context, id string) error {
	return s.db.DropPrefix([]byte("rec:" + id + ":"))
}
