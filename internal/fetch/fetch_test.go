package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClean_RemovesNoiseElements(t *testing.T) {
	in := `<html><head>
		<meta charset="utf-8">
		<meta name="description" content="drop me">
		<link rel="stylesheet" href="app.css">
		<title>Keep me</title>
	</head><body>
		<audio src="clip.mp3"></audio>
		<script>window.__ctx = {"payload": true};</script>
		<p>conversation text</p>
	</body></html>`

	out, err := Clean(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	for _, gone := range []string{"<meta", "<link", "<audio"} {
		if strings.Contains(out, gone) {
			t.Errorf("Clean() kept %s element", gone)
		}
	}
	for _, kept := range []string{"Keep me", `{"payload": true}`, "conversation text"} {
		if !strings.Contains(out, kept) {
			t.Errorf("Clean() dropped %q", kept)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "chatscope/") {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`<html><head><meta charset="utf-8"></head><body>hello</body></html>`))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	out, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("Fetch() = %q, want body content", out)
	}
	if strings.Contains(out, "<meta") {
		t.Error("Fetch() did not clean the page")
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("Fetch() should fail on non-200 status")
	}
}

func TestFetch_OversizedBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>" + strings.Repeat("x", 2048) + "</body></html>"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	c.maxBody = 1024

	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Fetch() should reject a body over the cap")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Fetch() error = %v, want size rejection", err)
	}
}

func TestFetch_BadURLs(t *testing.T) {
	c := NewClient(time.Second)

	for _, raw := range []string{
		"",
		"ftp://example.com/page",
		"file:///etc/passwd",
		"https://",
		"not a url at all\x00",
	} {
		_, err := c.Fetch(context.Background(), raw)
		if !errors.Is(err, ErrBadURL) {
			t.Errorf("Fetch(%q) error = %v, want ErrBadURL", raw, err)
		}
	}
}
