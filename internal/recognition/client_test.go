package recognition

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type trackedFile struct {
	io.Reader
	closed bool
}

func (f *trackedFile) Close() error {
	f.closed = true
	return nil
}

type received struct {
	fields   map[string][]string
	fileName string
	fileData string
}

func recognitionServer(t *testing.T, status int, reply string, got *received) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got.fields = r.MultipartForm.Value
		file, header, err := r.FormFile(FieldFile)
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
		} else {
			defer file.Close()
			data, _ := io.ReadAll(file)
			got.fileName = header.Filename
			got.fileData = string(data)
		}
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
}

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecognize(t *testing.T) {
	const reply = `{"status":"success","result":{"artist":"Imagine Dragons","title":"Warriors"}}`
	var got received
	srv := recognitionServer(t, http.StatusOK, reply, &got)
	defer srv.Close()

	path := writeSample(t, "audio.mp3", "audio bytes")
	client := NewClient(srv.URL, "test", "apple_music,spotify", srv.Client())

	resp, err := client.Recognize(context.Background(), path)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if resp != reply {
		t.Errorf("Recognize() = %q, want %q", resp, reply)
	}
	if got.fileName != "audio.mp3" {
		t.Errorf("uploaded file name = %q, want audio.mp3", got.fileName)
	}
	if got.fileData != "audio bytes" {
		t.Errorf("uploaded file data = %q", got.fileData)
	}
}

func TestRecognizeSendsExactlyFixedFields(t *testing.T) {
	files := []struct {
		name    string
		content string
	}{
		{"audio.mp3", "first"},
		{"another track.mp3", strings.Repeat("z", 4096)},
		{"empty.mp3", ""},
	}

	for _, f := range files {
		t.Run(f.name, func(t *testing.T) {
			var got received
			srv := recognitionServer(t, http.StatusOK, "ok", &got)
			defer srv.Close()

			client := NewClient(srv.URL, "test", "apple_music,spotify", srv.Client())
			if _, err := client.Recognize(context.Background(), writeSample(t, f.name, f.content)); err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}

			if len(got.fields) != 2 {
				t.Errorf("got %d form fields, want 2: %v", len(got.fields), got.fields)
			}
			want := map[string]string{FieldReturn: "apple_music,spotify", FieldAPIToken: "test"}
			for key, val := range want {
				if v := got.fields[key]; len(v) != 1 || v[0] != val {
					t.Errorf("field %s = %v, want [%s]", key, v, val)
				}
			}
		})
	}
}

func TestRecognizeClosesFile(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		closed  bool
		wantErr bool
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name:    "unreachable",
			closed:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {}
			}
			srv := httptest.NewServer(handler)
			endpoint := srv.URL
			if tt.closed {
				srv.Close()
			} else {
				defer srv.Close()
			}

			file := &trackedFile{Reader: strings.NewReader("audio")}
			client := NewClient(endpoint, "test", "apple_music,spotify", nil)
			client.open = func(name string) (io.ReadCloser, error) { return file, nil }

			_, err := client.Recognize(context.Background(), "audio.mp3")
			if (err != nil) != tt.wantErr {
				t.Errorf("Recognize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !file.closed {
				t.Error("file handle was not closed")
			}
		})
	}
}

func TestRecognizeErrorKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		endpoint string
		wantKind Kind
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.mp3"), endpoint: srv.URL, wantKind: KindFilesystem},
		{name: "bad status", path: writeSample(t, "audio.mp3", "x"), endpoint: srv.URL, wantKind: KindNetwork},
		{name: "bad endpoint", path: writeSample(t, "audio.mp3", "x"), endpoint: "://nope", wantKind: KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.endpoint, "test", "spotify", srv.Client()).Recognize(context.Background(), tt.path)
			var recErr *Error
			if !errors.As(err, &recErr) {
				t.Fatalf("Recognize() error = %v, want *Error", err)
			}
			if recErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", recErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestRecognizeMissingFileUnwraps(t *testing.T) {
	_, err := NewClient("http://localhost", "test", "spotify", nil).Recognize(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Recognize() error = %v, want os.ErrNotExist", err)
	}
}

func TestRecognizeReturnsBodyOnErrorStatus(t *testing.T) {
	const reply = `{"status":"error","error":{"error_code":900,"error_message":"Recognition failed: authorization failed"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(reply))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "bad", "spotify", srv.Client()).Recognize(context.Background(), writeSample(t, "audio.mp3", "x"))
	var recErr *Error
	if !errors.As(err, &recErr) || recErr.Kind != KindNetwork {
		t.Fatalf("Recognize() error = %v, want network error", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q should mention the status", err)
	}
	if resp != reply {
		t.Errorf("Recognize() body = %q, want %q", resp, reply)
	}
}

func TestNewClientOpensFromDisk(t *testing.T) {
	client := NewClient("http://localhost", "test", "spotify", nil)
	f, err := client.open(writeSample(t, "audio.mp3", "bytes"))
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "bytes" {
		t.Errorf("open() read %q, want bytes", data)
	}
}
