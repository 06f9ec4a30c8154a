package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// ShopifyTOMLFile is the Shopify CLI's per-project environment file.
const ShopifyTOMLFile = "shopify.theme.toml"

// ShopifyEnvironment is one [environments.<name>] table.
type ShopifyEnvironment struct {
	Store string `toml:"store"`
	Theme string `toml:"theme"`
	Path  string `toml:"path"`
}

type shopifyTOML struct {
	Environments map[string]ShopifyEnvironment `toml:"environments"`
}

// ReadShopifyEnvironment returns the named environment from a
// shopify.theme.toml file. A missing file reports false without error.
func ReadShopifyEnvironment(path, name string) (ShopifyEnvironment, bool, error) {
	var doc shopifyTOML
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ShopifyEnvironment{}, false, nil
		}
		return ShopifyEnvironment{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	env, ok := doc.Environments[name]
	return env, ok, nil
}

// ApplyShopifyEnvironment fills Store from the matching environment in
// shopify.theme.toml when no store is configured.
func (c *Config) ApplyShopifyEnvironment(path string) error {
	if c.Store != "" {
		return nil
	}
	env, ok, err := ReadShopifyEnvironment(path, c.Environment)
	if err != nil || !ok {
		return err
	}
	c.Store = env.Store
	return nil
}
