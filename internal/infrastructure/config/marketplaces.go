package config

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/spf13/viper"

	"github.com/orderprofit/backend/internal/domain/profit"
)

//go:embed default_marketplaces.yaml
var defaultMarketplaces []byte

// LoadCatalog reads the marketplace catalog from path, or the built-in
// catalog when path is empty. The file format is picked from its extension.
func LoadCatalog(path string) (*profit.Catalog, error) {
	v := viper.New()
	if path == "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(defaultMarketplaces)); err != nil {
			return nil, fmt.Errorf("read built-in marketplace catalog: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read marketplace catalog %s: %w", path, err)
		}
	}
	return catalogFromViper(v)
}

func catalogFromViper(v *viper.Viper) (*profit.Catalog, error) {
	var props profit.PropertyNames
	if err := v.UnmarshalKey("properties", &props); err != nil {
		return nil, fmt.Errorf("decode catalog properties: %w", err)
	}
	var marketplaces []profit.Marketplace
	if err := v.UnmarshalKey("marketplaces", &marketplaces); err != nil {
		return nil, fmt.Errorf("decode catalog marketplaces: %w", err)
	}
	if props.Cost == "" {
		return nil, fmt.Errorf("%w: properties.cost is required", profit.ErrInvalidMarketplace)
	}
	return profit.NewCatalog(props, marketplaces)
}
