// Package seed provides the initial product set loaded at startup.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// AppleID is the fixed identifier of the first built-in product.
const AppleID = "_jappko"

// Supported seed file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat is returned for seed files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported seed file format")

// Entry is one product of an external seed list. Entries carry no id;
// one is assigned when they are stored.
type Entry struct {
	Category string  `json:"category" yaml:"category"`
	Name     string  `json:"name"     yaml:"name"`
	Price    float64 `json:"price"    yaml:"price"`
}

// BuiltIn returns the fixed built-in products. Only the first has an ID.
func BuiltIn() []model.Product {
	return []model.Product{
		{ID: AppleID, Category: "FOOD", Name: "Apple", Price: 42.20},
		{Category: "FOOD", Name: "Banana", Price: 13.37},
		{Category: "FOOD", Name: "Corn", Price: 0.69},
		{Category: "FURNITURE", Name: "Sofa", Price: 2400},
		{Category: "FURNITURE", Name: "Chair", Price: 1234},
	}
}

// LoadFile reads an external seed list. The format is chosen by extension:
// .json, .yaml or .yml.
func LoadFile(path string) ([]model.Product, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	products, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	return products, nil
}

// Decode reads a seed list in the given format.
func Decode(r io.Reader, format string) ([]model.Product, error) {
	var entries []Entry

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	products := make([]model.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, model.Product{
			Category: e.Category,
			Name:     e.Name,
			Price:    e.Price,
		})
	}

	return products, nil
}

// All returns the built-in products followed by those in path, if path is set.
func All(path string) ([]model.Product, error) {
	products := BuiltIn()
	if path == "" {
		return products, nil
	}

	external, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	return append(products, external...), nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
