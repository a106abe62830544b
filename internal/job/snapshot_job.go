package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/redline/internal/filestore"
)

type Snapshotter interface {
	WriteSnapshot(w io.Writer) error
	ReadSnapshot(r io.Reader) error
}

// SnapshotJob writes the in-memory store to the file store on a schedule.
type SnapshotJob struct {
	store Snapshotter
	files filestore.Store
	key   string
}

func NewSnapshotJob(store Snapshotter, files filestore.Store, key string) *SnapshotJob {
	return &SnapshotJob{store: store, files: files, key: key}
}

func (j *SnapshotJob) Name() string {
	return "store_snapshot"
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	var buf bytes.Buffer
	if err := j.store.WriteSnapshot(&buf); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	size := int64(buf.Len())
	if err := j.files.Save(ctx, j.key, bytes.NewReader(buf.Bytes()), size); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logutil.GetLogger(ctx).Debug("snapshot saved", zap.String("key", j.key), zap.Int64("size", size))
	return nil
}

// Restore loads the last snapshot into the store. A missing snapshot is not
// an error and reports false.
func (j *SnapshotJob) Restore(ctx context.Context) (bool, error) {
	rc, err := j.files.Open(ctx, j.key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open snapshot: %w", err)
	}
	defer rc.Close()
	if err := j.store.ReadSnapshot(rc); err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}
	logutil.GetLogger(ctx).Info("snapshot restored", zap.String("key", j.key))
	return true, nil
}
