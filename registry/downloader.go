// Package registry provides functionality for downloading and parsing
// authorized-product registries from Swissmedic and the FDA.
package registry

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kerlann/pharmatools/logging"
	"golang.org/x/text/encoding/charmap"
)

// Registry export URLs. Both are published as delimited text files.
var registryFiles = map[string]string{
	"Swissmedic": "https://www.swissmedic.ch/dam/swissmedic/en/dokumente/listen/zugelassene_arzneimittel.txt",
	"FDA":        "https://www.fda.gov/media/drug-approvals/products.txt",
}

func downloadFile(name string, url string) error {

	path := "files/" + name + ".txt"
	cleanPath := filepath.Clean(path)
	if !strings.HasPrefix(cleanPath, "files/") {
		return fmt.Errorf("invalid filepath: %s", path)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
	}
	response, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err = response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d downloading %s", response.StatusCode, url)
	}

	// The Swissmedic export is ISO-8859-1, the FDA one UTF-8. Read the
	// content first and decode only when needed.
	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var reader io.Reader
	if utf8.Valid(bodyBytes) {
		reader = bytes.NewReader(bodyBytes)
	} else {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	}

	outFile, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", cleanPath, err)
	}
	defer func() {
		if err = outFile.Close(); err != nil {
			logging.Warn("Failed to close output file", "error", err)
		}
	}()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	for scanner.Scan() {
		_, err = io.WriteString(outFile, scanner.Text()+"\n")
		if err != nil {
			return fmt.Errorf("failed to write to file %s: %w", cleanPath, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error in %s: %w", path, err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", name))
	return nil
}

// Download all registry exports concurrently
func downloadAll() error {

	path := filepath.Join(".", "files")
	err := os.MkdirAll(path, 0750)
	if err != nil {
		return fmt.Errorf("failed to create files directory: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errors []error

	for name, url := range registryFiles {
		wg.Add(1)

		go func(name string, url string) {
			defer wg.Done()
			if err := downloadFile(name, url); err != nil {
				mu.Lock()
				errors = append(errors, err)
				mu.Unlock()
			}
		}(name, url)

	}
	wg.Wait()

	if len(errors) > 0 {
		logging.Error("Download errors occurred", "errors", errors)
		return fmt.Errorf("download errors: %v", errors)
	}

	return nil
}
