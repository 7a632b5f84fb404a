package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tierstack/tierstack/internal/manifest"
)

// DefaultOutputsFile is the local outputs document next to the config.
const DefaultOutputsFile = ".tierstack/outputs.json"

// ErrNoOutputs is returned when a store holds no outputs document.
var ErrNoOutputs = errors.New("no outputs recorded")

// StackOutputs is the document written after apply. It tells operators
// where the stack is reachable and holds the outputs of every resource.
type StackOutputs struct {
	Project          string             `json:"project"`
	Environment      string             `json:"environment"`
	Region           string             `json:"region"`
	PublicURL        string             `json:"publicUrl,omitempty"`
	BackendURL       string             `json:"backendUrl,omitempty"`
	DatabaseEndpoint string             `json:"databaseEndpoint,omitempty"`
	SecretARN        string             `json:"secretArn,omitempty"`
	ClusterName      string             `json:"clusterName,omitempty"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	Resources        map[string]Outputs `json:"resources"`
}

// CollectOutputs builds the outputs document from the state. Missing
// resources leave their fields empty, so a partial apply still records
// what exists.
func CollectOutputs(ctx *Context) *StackOutputs {
	out := &StackOutputs{
		Project:     ctx.Config.Project,
		Environment: ctx.Config.Environment,
		Region:      ctx.Config.Region,
		UpdatedAt:   time.Now().UTC(),
		Resources:   ctx.State.Snapshot(),
	}

	if lb, ok := ctx.State.Get(manifest.KeyPublicLB); ok && lb.DNSName != "" {
		out.PublicURL = "http://" + lb.DNSName
	}
	if lb, ok := ctx.State.Get(manifest.KeyInternalLB); ok && lb.DNSName != "" {
		out.BackendURL = "http://" + lb.DNSName
	}
	if db, ok := ctx.State.Get(manifest.KeyDBInstance); ok && db.Endpoint != "" {
		out.DatabaseEndpoint = db.Endpoint + ":" + strconv.Itoa(db.Port)
	}
	if secret, ok := ctx.State.Get(manifest.KeySecret); ok {
		out.SecretARN = secret.ARN
	}
	if _, ok := ctx.State.Get(manifest.KeyCluster); ok {
		out.ClusterName = ctx.NameOf(manifest.KeyCluster)
	}
	return out
}

// OutputsStore persists the outputs document.
type OutputsStore interface {
	Save(ctx context.Context, out *StackOutputs) error
	// Load returns ErrNoOutputs when nothing was saved.
	Load(ctx context.Context) (*StackOutputs, error)
	Delete(ctx context.Context) error
}

// FileStore keeps the outputs document in a local file.
type FileStore struct {
	Path string
}

// Save writes the document with owner-only permissions; it names the
// database secret.
func (s FileStore) Save(_ context.Context, out *StackOutputs) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create outputs directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}
	return nil
}

// Load reads the document.
func (s FileStore) Load(_ context.Context) (*StackOutputs, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoOutputs
		}
		return nil, fmt.Errorf("failed to read outputs: %w", err)
	}
	var out StackOutputs
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse outputs %s: %w", s.Path, err)
	}
	return &out, nil
}

// Delete removes the file. A missing file is not an error.
func (s FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove outputs: %w", err)
	}
	return nil
}

// ObjectStore is the subset of the S3 client the bucket store uses.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutJSON(ctx context.Context, bucket, key string, v any) error
	GetJSON(ctx context.Context, bucket, key string, v any) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// BucketStore keeps the outputs document in S3.
type BucketStore struct {
	Client ObjectStore
	Bucket string
	Key    string

	// NotFound reports whether a GetJSON error means the document is missing.
	NotFound func(error) bool
}

// Save ensures the bucket and uploads the document.
func (s BucketStore) Save(ctx context.Context, out *StackOutputs) error {
	if err := s.Client.EnsureBucket(ctx, s.Bucket); err != nil {
		return err
	}
	return s.Client.PutJSON(ctx, s.Bucket, s.Key, out)
}

// Load downloads the document.
func (s BucketStore) Load(ctx context.Context) (*StackOutputs, error) {
	var out StackOutputs
	if err := s.Client.GetJSON(ctx, s.Bucket, s.Key, &out); err != nil {
		if s.NotFound != nil && s.NotFound(err) {
			return nil, ErrNoOutputs
		}
		return nil, err
	}
	return &out, nil
}

// Delete removes the document. The bucket is kept; it may hold other stacks.
func (s BucketStore) Delete(ctx context.Context) error {
	return s.Client.DeleteObject(ctx, s.Bucket, s.Key)
}

// Stores writes to every store and reads from the first that has a
// document.
type Stores []OutputsStore

// Save writes to all stores and joins their errors.
func (ss Stores) Save(ctx context.Context, out *StackOutputs) error {
	var errs []error
	for _, s := range ss {
		if err := s.Save(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load returns the first document found.
func (ss Stores) Load(ctx context.Context) (*StackOutputs, error) {
	for _, s := range ss {
		out, err := s.Load(ctx)
		if errors.Is(err, ErrNoOutputs) {
			continue
		}
		return out, err
	}
	return nil, ErrNoOutputs
}

// Delete removes the document from every store.
func (ss Stores) Delete(ctx context.Context) error {
	var errs []error
	for _, s := range ss {
		if err := s.Delete(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
