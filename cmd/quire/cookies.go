package main

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// loadCookieJar builds a cookie jar from a Netscape-format cookie file. An
// empty path yields an empty jar, which only works against test servers.
func loadCookieJar(path string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return jar, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	byDomain, err := parseNetscapeCookies(file)
	if err != nil {
		return nil, fmt.Errorf("cookie file %s: %w", path, err)
	}
	for domain, cookies := range byDomain {
		jar.SetCookies(&url.URL{Scheme: "https", Host: domain}, cookies)
	}
	return jar, nil
}

func parseNetscapeCookies(file *os.File) (map[string][]*http.Cookie, error) {
	byDomain := make(map[string][]*http.Cookie)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		// HttpOnly cookies are commented out by browsers but still valid.
		if strings.HasPrefix(text, httpOnlyPrefix) {
			text = strings.TrimPrefix(text, httpOnlyPrefix)
		} else if strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab-separated fields, got %d", line, len(fields))
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: expiry %q: %w", line, fields[4], err)
		}

		domain := strings.TrimPrefix(fields[0], ".")
		cookie := &http.Cookie{
			Name:   fields[5],
			Value:  fields[6],
			Path:   fields[2],
			Domain: domain,
			Secure: strings.EqualFold(fields[3], "TRUE"),
		}
		if expiry > 0 {
			cookie.Expires = time.Unix(expiry, 0)
		}
		byDomain[domain] = append(byDomain[domain], cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return byDomain, nil
}
