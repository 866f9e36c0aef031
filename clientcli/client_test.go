package clientcli_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/filebox/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-key"

func newClient(t *testing.T, server *httptest.Server) *clientcli.Client {
	t.Helper()
	client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL, APIKey: apiKey})
	require.NoError(t, err)
	return client
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errCode, "message": message})
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
	})

	t.Run("empty endpoint uses default", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)
		assert.Equal(t, clientcli.DefaultEndpoint, client.Endpoint())
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8000/"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", client.Endpoint())
	})

	t.Run("options applied", func(t *testing.T) {
		custom := &http.Client{}
		client, err := clientcli.New(&clientcli.Config{}, clientcli.WithHTTPClient(custom), clientcli.WithTimeout(time.Second))
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, time.Second, custom.Timeout)
	})
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	result, err := newClient(t, server).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
}

func TestClient_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpoint, APIKey: apiKey})
	require.NoError(t, err)

	_, err = client.List(context.Background())
	assert.ErrorIs(t, err, clientcli.ErrConnectionFailure)
}

func TestClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, apiKey, r.Header.Get("X-API-KEY"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"filename":"b.txt","uploaded_at":1700000100.25},{"filename":"a.txt","uploaded_at":1700000000}]`)
	}))
	defer server.Close()

	result, err := newClient(t, server).List(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, []string{"b.txt", "a.txt"}, result.Names())
	assert.Equal(t, int64(1700000100), result.Items[0].UploadedAt.Unix())
	assert.Equal(t, 250*time.Millisecond, time.Duration(result.Items[0].UploadedAt.Nanosecond()))
}

func TestClient_List_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
	}))
	defer server.Close()

	_, err := newClient(t, server).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, clientcli.ErrUnauthorized)
	assert.NotErrorIs(t, err, clientcli.ErrNotFound)

	var apiErr *clientcli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.Equal(t, "Invalid API key", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "401")
}

func TestClient_Upload(t *testing.T) {
	var gotName, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, apiKey, r.Header.Get("X-API-KEY"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		gotName, gotContent = header.Filename, string(data)

		_ = json.NewEncoder(w).Encode(map[string]any{"filename": header.Filename, "size": len(data)})
	}))
	defer server.Close()

	localPath := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(localPath, []byte("test content"), 0o600))

	result, err := newClient(t, server).Upload(context.Background(), clientcli.UploadOptions{LocalPath: localPath})
	require.NoError(t, err)

	assert.Equal(t, "report.txt", gotName)
	assert.Equal(t, "test content", gotContent)
	assert.Equal(t, localPath, result.LocalPath)
	assert.Equal(t, "report.txt", result.Filename)
	assert.Equal(t, int64(12), result.Size)
}

func TestClient_Upload_CustomFilename(t *testing.T) {
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			gotName = header.Filename
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"filename": gotName, "size": 1})
	}))
	defer server.Close()

	localPath := filepath.Join(t.TempDir(), "local.bin")
	require.NoError(t, os.WriteFile(localPath, []byte("x"), 0o600))

	_, err := newClient(t, server).Upload(context.Background(), clientcli.UploadOptions{LocalPath: localPath, Filename: "remote.bin"})
	require.NoError(t, err)
	assert.Equal(t, "remote.bin", gotName)
}

func TestClient_Upload_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
	}))
	defer server.Close()
	client := newClient(t, server)

	t.Run("empty path", func(t *testing.T) {
		_, err := client.Upload(context.Background(), clientcli.UploadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyPath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: filepath.Join(t.TempDir(), "nope")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("server rejects", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), "big.bin")
		require.NoError(t, os.WriteFile(localPath, make([]byte, 4096), 0o600))

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: localPath})
		assert.ErrorIs(t, err, clientcli.ErrTooLarge)
	})
}

func TestClient_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiKey, r.Header.Get("X-API-KEY"))
		switch r.URL.Path {
		case "/download/notes.txt":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = io.WriteString(w, "file content")
		case "/download/my file.txt":
			_, _ = io.WriteString(w, "spaced")
		default:
			writeError(w, http.StatusNotFound, "not_found", "File not found")
		}
	}))
	defer server.Close()
	client := newClient(t, server)

	t.Run("to file", func(t *testing.T) {
		dir := t.TempDir()
		localPath := filepath.Join(dir, "out", "notes.txt")

		result, body, err := client.Download(context.Background(), clientcli.DownloadOptions{Filename: "notes.txt", LocalPath: localPath})
		require.NoError(t, err)
		assert.Nil(t, body)
		assert.Equal(t, localPath, result.LocalPath)
		assert.Equal(t, int64(12), result.Size)

		data, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "file content", string(data))

		entries, err := os.ReadDir(filepath.Join(dir, "out"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp files left behind")
	})

	t.Run("to stdout", func(t *testing.T) {
		result, body, err := client.Download(context.Background(), clientcli.DownloadOptions{Filename: "notes.txt", LocalPath: "-"})
		require.NoError(t, err)
		require.NotNil(t, body)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "file content", string(data))
		assert.Equal(t, "-", result.LocalPath)
	})

	t.Run("escaped name", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), "my file.txt")
		_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{Filename: "my file.txt", LocalPath: localPath})
		require.NoError(t, err)

		data, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "spaced", string(data))
	})

	t.Run("not found leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{Filename: "ghost.txt", LocalPath: filepath.Join(dir, "ghost.txt")})
		assert.ErrorIs(t, err, clientcli.ErrNotFound)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty filename", func(t *testing.T) {
		_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyPath)
	})

	t.Run("unsafe filename without local path", func(t *testing.T) {
		for _, name := range []string{"../escaped.txt", "sub/notes.txt", ".filebox-x.part"} {
			_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{Filename: name})
			assert.ErrorIs(t, err, clientcli.ErrUnsafeFilename, name)
		}
	})
}

func TestClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/delete/a.txt", "/delete/b.txt":
			_ = json.NewEncoder(w).Encode(map[string]string{"deleted": r.URL.Path[len("/delete/"):]})
		default:
			writeError(w, http.StatusNotFound, "not_found", "File not found")
		}
	}))
	defer server.Close()
	client := newClient(t, server)

	results, err := client.Delete(context.Background(), clientcli.DeleteOptions{Filenames: []string{"a.txt", "missing.txt", "b.txt"}})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Deleted)
	assert.NoError(t, results[0].Err)
	assert.False(t, results[1].Deleted)
	assert.ErrorIs(t, results[1].Err, clientcli.ErrNotFound)
	assert.True(t, results[2].Deleted, "a failure must not stop later deletes")

	assert.True(t, clientcli.HasDeleteErrors(results))
	assert.False(t, clientcli.HasDeleteErrors(results[:1]))

	_, err = client.Delete(context.Background(), clientcli.DeleteOptions{})
	assert.ErrorIs(t, err, clientcli.ErrNoPaths)
}

func TestAPIError_Is(t *testing.T) {
	err := &clientcli.APIError{StatusCode: http.StatusNotFound, Body: "gone"}

	assert.True(t, errors.Is(err, clientcli.ErrNotFound))
	assert.False(t, errors.Is(err, clientcli.ErrUnauthorized))
	assert.False(t, errors.Is(err, errors.New("x")))
	assert.True(t, err.IsNotFound())
	assert.Equal(t, "server error: 404 - gone", err.Error())
}
