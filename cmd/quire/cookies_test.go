package main

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCookieJar(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		"# This is a generated file. Do not edit.\n" +
		"\n" +
		".dlsite.com\tTRUE\t/\tTRUE\t2147483647\tsession\tabc123\n" +
		"#HttpOnly_.dlsite.com\tTRUE\t/\tTRUE\t2147483647\ttoken\txyz789\n" +
		"play.dlsite.com\tFALSE\t/\tFALSE\t0\tlocale\tja\n"
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write cookie file: %v", err)
	}

	jar, err := loadCookieJar(path)
	if err != nil {
		t.Fatalf("loadCookieJar: %v", err)
	}

	playURL := &url.URL{Scheme: "https", Host: "play.dlsite.com"}
	got := map[string]string{}
	for _, c := range jar.Cookies(playURL) {
		got[c.Name] = c.Value
	}
	if got["session"] != "abc123" {
		t.Errorf("session cookie = %q, want abc123", got["session"])
	}
	if got["token"] != "xyz789" {
		t.Errorf("httponly cookie = %q, want xyz789", got["token"])
	}
	if got["locale"] != "ja" {
		t.Errorf("host cookie = %q, want ja", got["locale"])
	}
}

func TestLoadCookieJarEmptyPath(t *testing.T) {
	jar, err := loadCookieJar("")
	if err != nil {
		t.Fatalf("loadCookieJar: %v", err)
	}
	if cookies := jar.Cookies(&url.URL{Scheme: "https", Host: "play.dlsite.com"}); len(cookies) != 0 {
		t.Errorf("empty jar returned cookies: %v", cookies)
	}
}

func TestLoadCookieJarRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte("not a cookie line\n"), 0o644); err != nil {
		t.Fatalf("write cookie file: %v", err)
	}
	if _, err := loadCookieJar(path); err == nil {
		t.Fatal("expected parse error")
	}
}
