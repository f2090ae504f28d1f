package play

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testZiptree = `{
  "hash": "h",
  "workno": "RJ123456",
  "playfile": {
    "a.jpg": {"type": "image", "length": 4, "image": {"optimized": {"crypt": false, "name": "aaaaa0000001.jpg", "length": 4}}}
  },
  "tree": [{"type": "file", "name": "a.jpg", "hashname": "a.jpg"}]
}`

func TestDownloadToken(t *testing.T) {
	var gotWorkno string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/download_token", func(w http.ResponseWriter, r *http.Request) {
		gotWorkno = r.URL.Query().Get("workno")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
  "url": "https://play.dl.example.com/content/RJ123456/",
  "cookies": {"CloudFront-Policy": "pol", "CloudFront-Signature": "sig", "CloudFront-Key-Pair-Id": "kp"},
  "expires": "2022-09-24T17:42:01+0900"
}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	token, err := client.DownloadToken(context.Background(), "RJ123456")
	if err != nil {
		t.Fatalf("DownloadToken: %v", err)
	}
	if gotWorkno != "RJ123456" {
		t.Errorf("workno param = %q", gotWorkno)
	}
	if token.URL != "https://play.dl.example.com/content/RJ123456/" {
		t.Errorf("token URL = %q", token.URL)
	}
	if token.ExpiresAt.IsZero() {
		t.Error("expiry not parsed")
	}
	params := token.Params()
	for key, want := range map[string]string{"Policy": "pol", "Signature": "sig", "Key-Pair-Id": "kp"} {
		if got := params.Get(key); got != want {
			t.Errorf("param %s = %q, want %q", key, got, want)
		}
	}
}

func TestZipTreeAndFetchFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/content/RJ123456/ziptree.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Policy") != "pol" {
			t.Errorf("ziptree request missing signed params: %v", r.URL.Query())
		}
		io.WriteString(w, testZiptree)
	})
	mux.HandleFunc("/content/RJ123456/aaaaa0000001.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	token := Token{
		URL:    server.URL + "/content/RJ123456/",
		params: map[string][]string{"Policy": {"pol"}},
	}

	tree, err := client.ZipTree(context.Background(), token)
	if err != nil {
		t.Fatalf("ZipTree: %v", err)
	}
	if tree.Workno != "RJ123456" || tree.Len() != 1 {
		t.Fatalf("tree = %s with %d assets", tree.Workno, tree.Len())
	}

	body, err := client.FetchFile(context.Background(), token, "aaaaa0000001.jpg")
	if err != nil {
		t.Fatalf("FetchFile: %v", err)
	}
	defer body.Close()
	payload, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(payload) != "data" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestAuthorizeSetsReferer(t *testing.T) {
	var loginHit bool
	var gotReferer string
	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		loginHit = true
	})
	mux.HandleFunc("/api/authorize", func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	if err := client.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !loginHit {
		t.Error("login endpoint not hit")
	}
	if gotReferer != server.URL+"/" {
		t.Errorf("referer = %q", gotReferer)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	if _, err := client.DownloadToken(context.Background(), "RJ000001"); !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("err = %v, want ErrUnexpectedStatus", err)
	}
}
