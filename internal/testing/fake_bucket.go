package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tierstack/tierstack/internal/platform/s3"
)

// FakeBucket is an in-memory object store with the JSON methods of the S3
// client. Missing objects yield errors wrapping s3.ErrObjectNotFound.
type FakeBucket struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

// NewFakeBucket creates an empty object store.
func NewFakeBucket() *FakeBucket {
	return &FakeBucket{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

// EnsureBucket records the bucket.
func (f *FakeBucket) EnsureBucket(_ context.Context, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

// PutJSON stores v. The bucket must have been ensured.
func (f *FakeBucket) PutJSON(_ context.Context, bucket, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.buckets[bucket] {
		return fmt.Errorf("bucket %s does not exist", bucket)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.objects[bucket+"/"+key] = data
	return nil
}

// GetJSON decodes the object into v.
func (f *FakeBucket) GetJSON(_ context.Context, bucket, key string, v any) error {
	f.mu.Lock()
	data, ok := f.objects[bucket+"/"+key]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s/%s", s3.ErrObjectNotFound, bucket, key)
	}
	return json.Unmarshal(data, v)
}

// DeleteObject removes the object.
func (f *FakeBucket) DeleteObject(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	return nil
}

// Keys returns the stored object paths as "bucket/key".
func (f *FakeBucket) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}
