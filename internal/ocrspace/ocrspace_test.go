package ocrspace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0644))
	return path
}

func TestExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "scan.jpg", header.Filename)
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"  Halo dunia  "}],"IsErroredOnProcessing":false}`))
	}))
	defer srv.Close()

	c := NewClientWithBase("test-key", srv.URL)
	text, err := c.ExtractText(context.Background(), writeTestImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Halo dunia", text)
}

func TestExtractTextNoTextFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":""}],"IsErroredOnProcessing":false}`))
	}))
	defer srv.Close()

	c := NewClientWithBase("k", srv.URL)
	text, err := c.ExtractText(context.Background(), writeTestImage(t))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractTextProcessingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[],"IsErroredOnProcessing":true,"ErrorMessage":["bad image"]}`))
	}))
	defer srv.Close()

	c := NewClientWithBase("k", srv.URL)
	_, err := c.ExtractText(context.Background(), writeTestImage(t))
	assert.Error(t, err)
}

func TestExtractTextServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBase("k", srv.URL)
	_, err := c.ExtractText(context.Background(), writeTestImage(t))
	assert.Error(t, err)
}
