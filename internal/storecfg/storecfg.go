// Package storecfg loads the static store roster and resolves operator
// store selectors against it. Store identifiers here are the stable
// configured ones; dynamic identifiers are discovered at runtime by the
// scrapers.
package storecfg

import (
	"fmt"
	"strings"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/lib/configutil"
)

type Config struct {
	Stores []harvest.StoreIdentity `json:"stores"`
}

// Load reads the roster from a json5 file, with the usual .local.
// override merge.
func Load(name string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](name)
	if err != nil {
		return Config{}, fmt.Errorf("read store config %q: %w", name, err)
	}
	if len(cfg.Stores) == 0 {
		return Config{}, fmt.Errorf("store config %q lists no stores", name)
	}
	return cfg, nil
}

// Resolve maps a selector ("all", one code, a comma-separated list of
// codes or display names) to configured stores. Selectors that match
// nothing come back in unknown so the batch can report them instead of
// silently harvesting a smaller set than the operator asked for.
func (c Config) Resolve(selector string) (stores []harvest.StoreIdentity, unknown []string) {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, "all") {
		return c.Stores, nil
	}

	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		store, ok := c.find(part)
		if !ok {
			unknown = append(unknown, part)
			continue
		}
		if !containsStore(stores, store.Code) {
			stores = append(stores, store)
		}
	}
	return stores, unknown
}

func (c Config) find(selector string) (harvest.StoreIdentity, bool) {
	for _, store := range c.Stores {
		if strings.EqualFold(store.Code, selector) {
			return store, true
		}
	}
	// display names are what the platforms show, operators paste them in
	for _, store := range c.Stores {
		if strings.EqualFold(store.Name, selector) {
			return store, true
		}
	}
	return harvest.StoreIdentity{}, false
}

func containsStore(stores []harvest.StoreIdentity, code string) bool {
	for _, s := range stores {
		if s.Code == code {
			return true
		}
	}
	return false
}
