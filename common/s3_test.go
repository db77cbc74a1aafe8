package common

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_PROFILE", "")
}

func TestS3Put_CompatibleEndpoint(t *testing.T) {
	isolateAWS(t)

	var gotMethod, gotPath, gotType, gotCache, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotType, gotCache = r.Header.Get("Content-Type"), r.Header.Get("Cache-Control")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(context.Background(), S3Config{Region: "us-east-1", Endpoint: srv.URL, UsePathStyle: true})
	require.NoError(t, err)

	err = s.Put(context.Background(), "archive", "news/2026/10/14/c1.json",
		strings.NewReader(`{"cycleId":"c1"}`), "application/json", "public, max-age=300", "")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/archive/news/2026/10/14/c1.json", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "public, max-age=300", gotCache)
	assert.Contains(t, gotBody, `{"cycleId":"c1"}`)
}

func TestS3Put_WrapsErrors(t *testing.T) {
	isolateAWS(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer srv.Close()

	s, err := NewS3(context.Background(), S3Config{Region: "us-east-1", Endpoint: srv.URL, UsePathStyle: true})
	require.NoError(t, err)

	err = s.Put(context.Background(), "archive", "k.json", strings.NewReader("{}"), "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://archive/k.json")
	assert.Contains(t, err.Error(), "AccessDenied")
}
