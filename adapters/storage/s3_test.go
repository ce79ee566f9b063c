package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/Skryldev/steg-extractor/adapters/storage"
	"github.com/Skryldev/steg-extractor/core"
)

// fakeS3 is an in-memory S3Client double.
type fakeS3 struct {
	objects  map[string][]byte
	modified map[string]time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (f *fakeS3) key(bucket, key string) string { return bucket + "/" + key }

func (f *fakeS3) PutObject(_ context.Context, bucket, key string, body io.Reader, _ map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	k := f.key(bucket, key)
	f.objects[k] = data
	f.modified[k] = time.Now()
	return nil
}

func (f *fakeS3) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := f.objects[f.key(bucket, key)]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeS3) DeleteObject(_ context.Context, bucket, key string) error {
	k := f.key(bucket, key)
	delete(f.objects, k)
	delete(f.modified, k)
	return nil
}

func (f *fakeS3) HeadObject(_ context.Context, bucket, key string) (bool, error) {
	_, ok := f.objects[f.key(bucket, key)]
	return ok, nil
}

func (f *fakeS3) ListObjects(_ context.Context, bucket string) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	prefix := bucket + "/"
	for k, mod := range f.modified {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = mod
		}
	}
	return out, nil
}

func TestS3_PutGetExists(t *testing.T) {
	client := newFakeS3()
	st, err := storage.NewS3(client, "extracted")
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	ctx := context.Background()
	key := core.StorageKey{Path: "decoded_9.png"}
	data := []byte{0x89, 'P', 'N', 'G'}

	if err := st.Put(ctx, key, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := st.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists: %t, %v", ok, err)
	}

	rc, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, data) {
		t.Errorf("stored bytes differ: got %x", got)
	}
}

func TestS3_PutRefusesOverwrite(t *testing.T) {
	st, err := storage.NewS3(newFakeS3(), "extracted")
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	ctx := context.Background()
	key := core.StorageKey{Path: "x.bin"}

	if err := st.Put(ctx, key, bytes.NewReader([]byte("a")), nil); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := st.Put(ctx, key, bytes.NewReader([]byte("b")), nil); err == nil {
		t.Error("second Put on the same key must fail")
	}
}

func TestS3_NilClient(t *testing.T) {
	if _, err := storage.NewS3(nil, "b"); err == nil {
		t.Error("nil client must be rejected")
	}
}

func TestS3_SweepExpired(t *testing.T) {
	client := newFakeS3()
	st, err := storage.NewS3(client, "extracted")
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	ctx := context.Background()

	if err := st.Put(ctx, core.StorageKey{Path: "old.bin"}, bytes.NewReader([]byte("o")), nil); err != nil {
		t.Fatalf("Put old: %v", err)
	}
	if err := st.Put(ctx, core.StorageKey{Path: "new.bin"}, bytes.NewReader([]byte("n")), nil); err != nil {
		t.Fatalf("Put new: %v", err)
	}
	client.modified[client.key("extracted", "old.bin")] = time.Now().Add(-48 * time.Hour)

	removed, err := st.SweepExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
	if ok, _ := st.Exists(ctx, core.StorageKey{Path: "old.bin"}); ok {
		t.Error("expired object survived the sweep")
	}
	if ok, _ := st.Exists(ctx, core.StorageKey{Path: "new.bin"}); !ok {
		t.Error("fresh object was swept")
	}
}
