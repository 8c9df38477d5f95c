package registry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDownloadFileDecodesLatin1(t *testing.T) {
	// "Gültig" encoded as ISO-8859-1 is invalid UTF-8 and must be re-decoded
	latin1, err := charmap.ISO8859_1.NewEncoder().String("Name;Inhaber;Gültig bis;Wirkstoff\nAspirin;Bayer;2027;Acetylsalicylsäure\n")
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(latin1))
	}))
	defer ts.Close()

	t.Chdir(t.TempDir())

	if err := os.MkdirAll("files", 0750); err != nil {
		t.Fatalf("failed to create files dir: %v", err)
	}
	if err := downloadFile("Swissmedic", ts.URL); err != nil {
		t.Fatalf("downloadFile failed: %v", err)
	}

	data, err := os.ReadFile("files/Swissmedic.txt")
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !strings.Contains(string(data), "Gültig") {
		t.Errorf("expected Latin-1 content decoded to UTF-8, got:\n%s", data)
	}
}

func TestDownloadFileKeepsUTF8(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Name\tApplicant\tValid\tIngredient\nAspirin\tBayer\t2027\tAcetylsalicylsäure\n"))
	}))
	defer ts.Close()

	t.Chdir(t.TempDir())

	if err := os.MkdirAll("files", 0750); err != nil {
		t.Fatalf("failed to create files dir: %v", err)
	}
	if err := downloadFile("FDA", ts.URL); err != nil {
		t.Fatalf("downloadFile failed: %v", err)
	}

	data, err := os.ReadFile("files/FDA.txt")
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !strings.Contains(string(data), "Acetylsalicylsäure") {
		t.Errorf("expected UTF-8 content preserved, got:\n%s", data)
	}
}

func TestDownloadFileUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	t.Chdir(t.TempDir())

	if err := downloadFile("Swissmedic", ts.URL); err == nil {
		t.Fatal("expected an error for a failing upstream")
	}
}
