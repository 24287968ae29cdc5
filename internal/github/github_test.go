package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok")
}

func contentJSON(w http.ResponseWriter, text string) {
	_ = json.NewEncoder(w).Encode(map[string]string{
		"content":  base64.StdEncoding.EncodeToString([]byte(text)),
		"encoding": "base64",
	})
}

func requireStatus(t *testing.T, err error, status int) *Error {
	t.Helper()
	var ghErr *Error
	if !errors.As(err, &ghErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ghErr.StatusCode != status {
		t.Fatalf("status %d, want %d (%s)", ghErr.StatusCode, status, ghErr.Message)
	}
	return ghErr
}

func TestDefaultBranch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/psf/requests" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Fatalf("unexpected accept header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": "develop"})
	})

	branch, err := c.DefaultBranch(context.Background(), "psf", "requests")
	if err != nil {
		t.Fatalf("default branch: %v", err)
	}
	if branch != "develop" {
		t.Fatalf("expected develop, got %s", branch)
	}
}

func TestDefaultBranchMissingIsBadRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"default_branch": null}`))
	})
	_, err := c.DefaultBranch(context.Background(), "a", "b")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestAnonymousRequestsOmitAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("expected no auth header")
		}
		_, _ = w.Write([]byte(`{"default_branch":"main"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "").DefaultBranch(context.Background(), "a", "b"); err != nil {
		t.Fatalf("default branch: %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`, http.StatusNotFound, "Repository: not found (or private)"},
		{"rate limited", http.StatusForbidden, `{"message":"API rate limit exceeded for 1.2.3.4"}`, http.StatusTooManyRequests, "rate limit"},
		{"forbidden", http.StatusForbidden, `{"message":"Forbidden"}`, http.StatusForbidden, "private or access denied"},
		{"server error", http.StatusInternalServerError, strings.Repeat("e", 500), http.StatusBadGateway, "GitHub API error (500): " + strings.Repeat("e", 200)},
		{"malformed json", http.StatusOK, `not json`, http.StatusBadGateway, "Malformed GitHub response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.DefaultBranch(context.Background(), "a", "b")
			ghErr := requireStatus(t, err, tt.want)
			if !strings.Contains(ghErr.Message, tt.msg) {
				t.Fatalf("message %q does not contain %q", ghErr.Message, tt.msg)
			}
			if tt.name == "server error" && strings.Contains(ghErr.Message, strings.Repeat("e", 201)) {
				t.Fatalf("body excerpt not capped: %d chars", len(ghErr.Message))
			}
		})
	}
}

func TestTransportFailureIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient(srv.URL, "")
	srv.Close()

	_, err := c.DefaultBranch(context.Background(), "a", "b")
	ghErr := requireStatus(t, err, http.StatusBadGateway)
	if !strings.HasPrefix(ghErr.Message, "Failed to connect to GitHub") {
		t.Fatalf("unexpected message: %s", ghErr.Message)
	}
	if ghErr.Unwrap() == nil {
		t.Fatalf("expected wrapped transport error")
	}
}

func TestTree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/psf/requests/git/trees/main" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Fatalf("expected recursive=1, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"tree":[
			{"path":"README.md","type":"blob","size":100},
			{"path":"src","type":"tree"},
			{"path":"src/app.py","type":"blob","size":200}
		]}`))
	})

	entries, err := c.Tree(context.Background(), "psf", "requests", "main")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	want := []models.TreeEntry{
		{Path: "README.md", Kind: models.KindBlob, Size: 100},
		{Path: "src", Kind: models.KindTree},
		{Path: "src/app.py", Kind: models.KindBlob, Size: 200},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestTreeNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Tree(context.Background(), "a", "b", "main")
	ghErr := requireStatus(t, err, http.StatusNotFound)
	if ghErr.Message != "Repository tree: not found (or private)" {
		t.Fatalf("unexpected message: %s", ghErr.Message)
	}
}

func TestFileContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/psf/requests/contents/docs/my file.md" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		// GitHub wraps base64 content at 60 columns.
		enc := base64.StdEncoding.EncodeToString([]byte("# Requests\nHTTP for Humans."))
		_ = json.NewEncoder(w).Encode(map[string]string{"content": enc[:20] + "\n" + enc[20:], "encoding": "base64"})
	})

	got, err := c.FileContent(context.Background(), "psf", "requests", "docs/my file.md")
	if err != nil {
		t.Fatalf("file content: %v", err)
	}
	if got != "# Requests\nHTTP for Humans." {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestFileContentReplacesInvalidUTF8(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  base64.StdEncoding.EncodeToString([]byte("ok\xffok")),
			"encoding": "base64",
		})
	})
	got, err := c.FileContent(context.Background(), "a", "b", "bin.dat")
	if err != nil {
		t.Fatalf("file content: %v", err)
	}
	if got != "ok�ok" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestFileContentUnexpectedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":"","encoding":"none"}`))
	})
	_, err := c.FileContent(context.Background(), "a", "b", "big.bin")
	ghErr := requireStatus(t, err, http.StatusBadGateway)
	if ghErr.Message != "Unexpected content format for 'big.bin'" {
		t.Fatalf("unexpected message: %s", ghErr.Message)
	}
}

func TestFetchFilesDropsFailures(t *testing.T) {
	var inFlight, peak int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/missing.py"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/broken.py"):
			_, _ = w.Write([]byte(`{"encoding":"none"}`))
		default:
			contentJSON(w, "content of "+strings.TrimPrefix(r.URL.Path, "/repos/a/b/contents/"))
		}
	})

	paths := []string{"missing.py", "broken.py"}
	for i := 0; i < 30; i++ {
		paths = append(paths, "src/f"+string(rune('a'+i%26))+string(rune('0'+i/26))+".py")
	}

	got := c.FetchFiles(context.Background(), "a", "b", paths)
	if len(got) != 30 {
		t.Fatalf("expected 30 files, got %d", len(got))
	}
	if _, ok := got["missing.py"]; ok {
		t.Fatalf("failed file should be absent")
	}
	if got["src/fa0.py"] != "content of src/fa0.py" {
		t.Fatalf("unexpected content: %q", got["src/fa0.py"])
	}
	if p := atomic.LoadInt32(&peak); p > MaxConcurrentFetches {
		t.Fatalf("peak concurrency %d exceeds %d", p, MaxConcurrentFetches)
	}
}

func TestFetchFilesEmpty(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "")
	if got := c.FetchFiles(context.Background(), "a", "b", nil); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}
