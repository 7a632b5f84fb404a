package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, region string, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{s3: client, region: region}
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func errorXML(code, message string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>%s</Code>
  <Message>%s</Message>
</Error>`, code, message)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client := NewClient(aws.Config{Region: "eu-west-1"}, "")
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.region != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %s", client.region)
	}

	custom := NewClient(aws.Config{Region: "eu-west-1"}, "http://localhost:4566")
	if custom.s3.Options().BaseEndpoint == nil || *custom.s3.Options().BaseEndpoint != "http://localhost:4566" {
		t.Error("expected custom endpoint to be set")
	}
	if !custom.s3.Options().UsePathStyle {
		t.Error("expected path-style addressing for a custom endpoint")
	}
}

func TestCreateBucket_LocationConstraint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region     string
		wantInBody bool
	}{
		{"eu-west-1", true},
		{"us-east-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			t.Parallel()

			var body []byte
			var mu sync.Mutex
			client := testClient(t, tt.region, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				body, _ = io.ReadAll(r.Body)
				mu.Unlock()
				w.WriteHeader(200)
			}))

			if err := client.CreateBucket(context.Background(), "state-bucket"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			mu.Lock()
			defer mu.Unlock()
			got := strings.Contains(string(body), "<LocationConstraint>"+tt.region+"</LocationConstraint>")
			if got != tt.wantInBody {
				t.Errorf("location constraint in body = %v, want %v (body %q)", got, tt.wantInBody, body)
			}
		})
	}
}

func TestCreateBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, errorXML("BucketAlreadyOwnedByYou", "you already own it"))
	}))

	if err := client.CreateBucket(context.Background(), "state-bucket"); err != nil {
		t.Fatalf("expected nil error for already owned bucket, got: %v", err)
	}
}

func TestCreateBucket_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 403, errorXML("AccessDenied", "Access Denied"))
	}))

	err := client.CreateBucket(context.Background(), "state-bucket")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to create bucket state-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestBucketExists(t *testing.T) {
	t.Parallel()

	t.Run("exists", func(t *testing.T) {
		client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
		}))
		exists, err := client.BucketExists(context.Background(), "state-bucket")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exists {
			t.Fatal("expected bucket to exist")
		}
	})

	t.Run("missing", func(t *testing.T) {
		client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(404)
		}))
		exists, err := client.BucketExists(context.Background(), "state-bucket")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exists {
			t.Fatal("expected bucket to not exist")
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(403)
		}))
		_, err := client.BucketExists(context.Background(), "state-bucket")
		if err == nil {
			t.Fatal("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to check bucket state-bucket") {
			t.Errorf("unexpected error message: %v", err)
		}
	})
}

// isConfigQuery reports whether a PUT targets a bucket subresource rather
// than the bucket itself.
func isConfigQuery(q string) bool {
	return strings.Contains(q, "publicAccessBlock") || strings.Contains(q, "versioning")
}

func TestEnsureBucket_CreatesAndHardens(t *testing.T) {
	t.Parallel()

	var requests []string
	var mu sync.Mutex

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.RawQuery)
		mu.Unlock()
		if r.Method == http.MethodHead {
			w.WriteHeader(404)
			return
		}
		w.WriteHeader(200)
	}))

	if err := client.EnsureBucket(context.Background(), "state-bucket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 4 {
		t.Fatalf("expected 4 requests, got %d: %v", len(requests), requests)
	}
	if !strings.HasPrefix(requests[0], "HEAD") {
		t.Errorf("expected HeadBucket first, got %q", requests[0])
	}
	if !strings.HasPrefix(requests[1], "PUT") || isConfigQuery(requests[1]) {
		t.Errorf("expected CreateBucket second, got %q", requests[1])
	}
	if !strings.HasPrefix(requests[2], "PUT") || !strings.Contains(requests[2], "publicAccessBlock") {
		t.Errorf("expected PutPublicAccessBlock third, got %q", requests[2])
	}
	if !strings.HasPrefix(requests[3], "PUT") || !strings.Contains(requests[3], "versioning") {
		t.Errorf("expected PutBucketVersioning last, got %q", requests[3])
	}
}

func TestEnsureBucket_ExistingBucketSkipsCreate(t *testing.T) {
	t.Parallel()

	var creates int
	var mu sync.Mutex

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && !isConfigQuery(r.URL.RawQuery) {
			mu.Lock()
			creates++
			mu.Unlock()
		}
		w.WriteHeader(200)
	}))

	if err := client.EnsureBucket(context.Background(), "state-bucket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if creates != 0 {
		t.Errorf("expected no CreateBucket call, got %d", creates)
	}
}

func TestPutObject_Success(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	var capturedPath string
	var mu sync.Mutex

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			capturedPath = r.URL.Path
			capturedBody, _ = io.ReadAll(r.Body)
			mu.Unlock()
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	}))

	data := []byte("hello world")
	if err := client.PutObject(context.Background(), "state-bucket", "shop/prod/outputs.json", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(capturedBody, data) {
		t.Errorf("expected body %q, got %q", data, capturedBody)
	}
	if capturedPath != "/state-bucket/shop/prod/outputs.json" {
		t.Errorf("unexpected path %s", capturedPath)
	}
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 500, errorXML("InternalError", "Internal Error"))
	}))

	err := client.PutObject(context.Background(), "state-bucket", "key", []byte("data"))
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to put object key in bucket state-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestGetObject_Success(t *testing.T) {
	t.Parallel()

	expected := []byte("object content here")
	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(expected)))
		w.WriteHeader(200)
		_, _ = w.Write(expected)
	}))

	data, err := client.GetObject(context.Background(), "state-bucket", "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, expected) {
		t.Errorf("expected %q, got %q", expected, data)
	}
}

func TestGetObject_NotFound(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 404, errorXML("NoSuchKey", "The specified key does not exist."))
	}))

	_, err := client.GetObject(context.Background(), "state-bucket", "missing-key")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestGetObject_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 403, errorXML("AccessDenied", "Access Denied"))
	}))

	_, err := client.GetObject(context.Background(), "state-bucket", "key")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if errors.Is(err, ErrObjectNotFound) {
		t.Fatal("access denied must not look like a missing object")
	}
}

func TestPutGetJSON(t *testing.T) {
	t.Parallel()

	type doc struct {
		PublicURL string `json:"public_url"`
	}

	var stored []byte
	var mu sync.Mutex
	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			stored, _ = io.ReadAll(r.Body)
			w.WriteHeader(200)
		case http.MethodGet:
			w.WriteHeader(200)
			_, _ = w.Write(stored)
		default:
			w.WriteHeader(405)
		}
	}))

	in := doc{PublicURL: "http://shop-prod-public-alb.example.com"}
	if err := client.PutJSON(context.Background(), "state-bucket", "outputs.json", in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out doc
	if err := client.GetJSON(context.Background(), "state-bucket", "outputs.json", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("not valid json{{{"))
	}))

	var out map[string]string
	err := client.GetJSON(context.Background(), "state-bucket", "outputs.json", &out)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to unmarshal outputs.json") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDeleteObject(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			w.WriteHeader(204)
		}))
		if err := client.DeleteObject(context.Background(), "state-bucket", "key"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			xmlResponse(w, 403, errorXML("AccessDenied", "Access Denied"))
		}))
		err := client.DeleteObject(context.Background(), "state-bucket", "key")
		if err == nil || !strings.Contains(err.Error(), "failed to delete object key from bucket state-bucket") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDeleteBucket_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, errorXML("BucketNotEmpty", "The bucket you tried to delete is not empty"))
	}))

	err := client.DeleteBucket(context.Background(), "state-bucket")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to delete bucket state-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestListObjects_Paginates(t *testing.T) {
	t.Parallel()

	var prefixes []string
	var mu sync.Mutex

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		prefixes = append(prefixes, r.URL.Query().Get("prefix"))
		mu.Unlock()

		if r.URL.Query().Get("continuation-token") == "" {
			xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>state-bucket</Name>
  <Prefix>shop/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>2</MaxKeys>
  <IsTruncated>true</IsTruncated>
  <NextContinuationToken>page-2</NextContinuationToken>
  <Contents><Key>shop/dev/outputs.json</Key><Size>100</Size></Contents>
  <Contents><Key>shop/prod/outputs.json</Key><Size>100</Size></Contents>
</ListBucketResult>`)
			return
		}
		xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>state-bucket</Name>
  <Prefix>shop/</Prefix>
  <KeyCount>1</KeyCount>
  <MaxKeys>2</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>shop/staging/outputs.json</Key><Size>100</Size></Contents>
</ListBucketResult>`)
	}))

	keys, err := client.ListObjects(context.Background(), "state-bucket", "shop/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"shop/dev/outputs.json", "shop/prod/outputs.json", "shop/staging/outputs.json"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range prefixes {
		if p != "shop/" {
			t.Errorf("expected prefix shop/, got %q", p)
		}
	}
}

func TestListObjects_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, "eu-west-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 404, errorXML("NoSuchBucket", "The specified bucket does not exist"))
	}))

	_, err := client.ListObjects(context.Background(), "missing-bucket", "")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to list objects in bucket missing-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}
