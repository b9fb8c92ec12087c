package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
)

// LoadCatalog loads the price catalog from a YAML file.
func LoadCatalog(path string) (subscription.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return subscription.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var catalog subscription.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return subscription.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	if catalog.Subscribe <= 0 {
		return subscription.Catalog{}, fmt.Errorf("catalog: subscribe price must be positive")
	}
	for kind, amount := range catalog.Sessions {
		if amount <= 0 {
			return subscription.Catalog{}, fmt.Errorf("catalog: session %q price must be positive", kind)
		}
	}

	return catalog, nil
}

// LoadCatalogOrDefault loads the catalog from path, falling back to the
// built-in prices when the path is empty or the file does not exist.
func LoadCatalogOrDefault(path string) subscription.Catalog {
	if path == "" {
		return subscription.DefaultCatalog()
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		return subscription.DefaultCatalog()
	}
	return catalog
}
