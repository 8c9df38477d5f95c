package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kerlann/pharmatools/interfaces"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/registry/entities"
)

// Compile-time check to ensure Parser implements the RegistryParser interface
var _ interfaces.RegistryParser = (*Parser)(nil)

// Parser downloads and parses all registry exports.
type Parser struct{}

// NewParser creates a new registry parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseAll downloads both registry exports and parses them into products,
// returning the merged list plus a per-source index.
func (p *Parser) ParseAll() ([]entities.Product, map[string][]entities.Product, error) {
	if err := downloadAll(); err != nil {
		return nil, nil, fmt.Errorf("registry download failed: %w", err)
	}
	return parseLocalFiles()
}

// parseLocalFiles parses the already-downloaded files concurrently.
func parseLocalFiles() ([]entities.Product, map[string][]entities.Product, error) {
	var wg sync.WaitGroup
	wg.Add(2)

	swissChan := make(chan []entities.Product, 1)
	fdaChan := make(chan []entities.Product, 1)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		products, err := parseSwissmedic(filepath.Join("files", "Swissmedic.txt"))
		if err != nil {
			errChan <- err
			return
		}
		swissChan <- products
	}()

	go func() {
		defer wg.Done()
		products, err := parseFDA(filepath.Join("files", "FDA.txt"))
		if err != nil {
			errChan <- err
			return
		}
		fdaChan <- products
	}()

	wg.Wait()
	close(swissChan)
	close(fdaChan)
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, nil, err
	}

	swiss := <-swissChan
	fda := <-fdaChan

	bySource := map[string][]entities.Product{
		entities.SourceSwissmedic: swiss,
		entities.SourceFDA:        fda,
	}

	all := make([]entities.Product, 0, len(swiss)+len(fda))
	all = append(all, swiss...)
	all = append(all, fda...)

	logging.Info("Registry parsing completed",
		"swissmedic_products", len(swiss),
		"fda_products", len(fda))

	return all, bySource, nil
}

// parseSwissmedic parses the semicolon-separated Swissmedic export.
// Expected columns: name;license_holder;valid_until;active_substance
func parseSwissmedic(path string) ([]entities.Product, error) {
	return parseDelimited(path, ";", entities.SourceSwissmedic)
}

// parseFDA parses the tab-separated FDA product export.
// Expected columns: name, license_holder, valid_until, active_substance
func parseFDA(path string) ([]entities.Product, error) {
	return parseDelimited(path, "\t", entities.SourceFDA)
}

func parseDelimited(path string, sep string, source string) ([]entities.Product, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close registry file", "path", path, "error", err)
		}
	}()

	var products []entities.Product
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	line := 0
	skipped := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		// First line is the column header
		if line == 1 {
			continue
		}

		fields := strings.Split(text, sep)
		if len(fields) < 4 {
			skipped++
			continue
		}

		product := entities.Product{
			ID:              fmt.Sprintf("%s-%d", source, line),
			Name:            strings.TrimSpace(fields[0]),
			LicenseHolder:   strings.TrimSpace(fields[1]),
			ValidUntil:      strings.TrimSpace(fields[2]),
			ActiveSubstance: strings.TrimSpace(fields[3]),
			Source:          source,
		}
		if product.Name == "" {
			skipped++
			continue
		}

		products = append(products, product)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	if skipped > 0 {
		logging.Warn("Skipped malformed registry rows", "source", source, "skipped", skipped)
	}

	return products, nil
}
