package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func TestNegotiate(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"gzip":               encGzip,
		"gzip, deflate, br":  encGzip,
		"zstd, gzip":         encZstd,
		"gzip, zstd;q=0":     encGzip,
		"zstd;q=0, gzip;q=0": "",
		"identity":           "",
		"GZIP;q=0.5, ZSTD":   encZstd,
	}
	for in, want := range cases {
		if got := negotiate(in); got != want {
			t.Fatalf("negotiate(%q) got %q want %q", in, got, want)
		}
	}
}

var body = strings.Repeat(`{"metric":"P( P > C)","conversion":0.97}`, 64)

func serveBody(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestCompressionRoundTrip(t *testing.T) {
	h := Compression(http.HandlerFunc(serveBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/clients/homw/report", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != encGzip {
		t.Fatalf("encoding got %q", rec.Header().Get("Content-Encoding"))
	}
	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, _ := io.ReadAll(gr)
	if string(got) != body {
		t.Fatalf("gzip body mismatch")
	}

	req.Header.Set("Accept-Encoding", "zstd")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	zr, err := zstd.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()
	got, _ = io.ReadAll(zr)
	if string(got) != body {
		t.Fatalf("zstd body mismatch")
	}
}

func TestCompressionNoBody(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "zstd")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must stay empty, got %d bytes enc=%q", rec.Body.Len(), rec.Header().Get("Content-Encoding"))
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "client not found", http.StatusNotFound)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients/nope/report", nil))

	id := rec.Header().Get(HeaderRequestID)
	if id == "" {
		t.Fatalf("missing %s header", HeaderRequestID)
	}
	line := buf.String()
	for _, want := range []string{"msg=http.access", "status=404", "level=WARN", "request_id=" + id} {
		if !strings.Contains(line, want) {
			t.Fatalf("access log missing %q: %s", want, line)
		}
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil ranking")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status got %d want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "http.panic") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}
