package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.ics")
	want := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	l := NewLoader(time.Second)
	got, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(time.Second)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.ics"))

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
}

func TestLoadEmptyLocation(t *testing.T) {
	l := NewLoader(time.Second)
	_, err := l.Load(context.Background(), "")

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
}

func TestLoadFromURL(t *testing.T) {
	want := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(want)
	}))
	defer srv.Close()

	l := NewLoader(time.Second)
	got, err := l.Load(context.Background(), srv.URL+"/schedule.ics")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := NewLoader(time.Second)
	_, err := l.Load(context.Background(), srv.URL+"/gone.ics")

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, err.Error(), "404")
}

func TestLoadUnreachableHost(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	l := NewLoader(time.Second)
	_, err := l.Load(context.Background(), url)

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
}

func TestIsURL(t *testing.T) {
	require.True(t, IsURL("https://example.com/cal.ics"))
	require.True(t, IsURL("http://example.com/cal.ics"))
	require.False(t, IsURL("./cal.ics"))
	require.False(t, IsURL("/home/user/cal.ics"))
	require.False(t, IsURL("httpfile.ics"))
}

func TestRedact(t *testing.T) {
	require.Equal(t,
		"https://cloud.example.net/...(redacted)",
		Redact("https://cloud.example.net/lu/web/ri6965Qy.ics?token=secret"))

	// A bare host without a path still gets the suffix.
	require.Equal(t,
		"https://cloud.example.net/...(redacted)",
		Redact("https://cloud.example.net"))

	// File paths pass through; they carry no credentials.
	require.Equal(t, "/home/user/cal.ics", Redact("/home/user/cal.ics"))
}
