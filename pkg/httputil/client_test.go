package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSingleton(t *testing.T) {
	c1 := Client(TierMedium)
	c2 := Client(TierMedium)
	if c1 != c2 {
		t.Error("Client() should return the same instance for the same tier")
	}

	if Client(TierFast) == Client(TierSlow) {
		t.Error("Different tiers should return different clients")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		tier    TimeoutTier
		want    time.Duration
		getFunc func() *http.Client
	}{
		{TierFast, 5 * time.Second, FastClient},
		{TierMedium, 30 * time.Second, MediumClient},
		{TierSlow, 60 * time.Second, SlowClient},
	}

	for _, tt := range tests {
		c := tt.getFunc()
		if c.Timeout != tt.want {
			t.Errorf("Tier %d: got timeout %v, want %v", tt.tier, c.Timeout, tt.want)
		}
	}
}

func TestReadResponseBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxSize int64
		wantLen int
	}{
		{"normal read", "hello world", 1024, 11},
		{"truncated read", strings.Repeat("x", 1000), 100, 100},
		{"default max size", "test", 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResponseBody(strings.NewReader(tt.input), tt.maxSize)
			if err != nil {
				t.Fatalf("ReadResponseBody() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("ReadResponseBody() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestReadErrorBody(t *testing.T) {
	largeError := strings.Repeat("error details ", 100000) // ~1.4MB
	got, err := ReadErrorBody(strings.NewReader(largeError))
	if err != nil {
		t.Fatalf("ReadErrorBody() error = %v", err)
	}
	if len(got) > 1024*1024 {
		t.Errorf("ReadErrorBody() should truncate to 1MB, got %d bytes", len(got))
	}
}

func TestDrainAndClose(t *testing.T) {
	r := &trackingReader{Reader: bytes.NewReader([]byte("test data"))}
	DrainAndClose(io.NopCloser(r))
	if !r.fullyRead {
		t.Error("DrainAndClose should fully drain the body")
	}
}

func TestDrainAndCloseNil(t *testing.T) {
	// Should not panic on nil
	DrainAndClose(nil)
}

type trackingReader struct {
	io.Reader
	fullyRead bool
}

func (r *trackingReader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	if err == io.EOF {
		r.fullyRead = true
	}
	return
}

func TestClientConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := MediumClient()
	for i := range 10 {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
		DrainAndClose(resp.Body)
	}
}
