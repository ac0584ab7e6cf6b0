package embedded

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"homie/internal/document"
)

const (
	clientCacheMarker = "window.ArgonautExchange"
	clientCacheApp    = "resi-property_listing-experience-web"
	landSizeFeature   = "Land size"
)

// CachedLandSize reads land size from the listing page's client query cache.
// The structure is: window.ArgonautExchange -> resi-property_listing-experience-web
// -> urqlClientCache (JSON string) -> {cacheKey} -> data (JSON string)
// -> details.listing -> propertyFeatures[] / propertySizes.land
func (p *Parser) CachedLandSize(d *document.Document) (string, bool) {
	for _, script := range d.ScriptsContaining(clientCacheMarker) {
		listings, err := cachedListings(script)
		if err != nil {
			p.parseFailed("client cache", err)
			continue
		}
		for _, listing := range listings {
			if v, ok := landSizeFromListing(listing); ok {
				return v, true
			}
		}
	}
	return "", false
}

// cachedListings returns every listing object found in the cache entries of
// one script payload, ordered by cache key.
func cachedListings(script string) ([]map[string]interface{}, error) {
	literal, ok := ObjectAfter(script, clientCacheMarker)
	if !ok {
		return nil, fmt.Errorf("no object literal after %s", clientCacheMarker)
	}

	var exchange map[string]interface{}
	if err := json.Unmarshal([]byte(literal), &exchange); err != nil {
		return nil, fmt.Errorf("failed to parse exchange: %w", err)
	}

	resi, ok := exchange[clientCacheApp].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing %s", clientCacheApp)
	}

	cacheStr, ok := resi["urqlClientCache"].(string)
	if !ok {
		return nil, fmt.Errorf("missing urqlClientCache")
	}

	var cache map[string]interface{}
	if err := json.Unmarshal([]byte(cacheStr), &cache); err != nil {
		return nil, fmt.Errorf("failed to parse urqlClientCache: %w", err)
	}

	keys := make([]string, 0, len(cache))
	for k := range cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var listings []map[string]interface{}
	for _, k := range keys {
		entry, ok := cache[k].(map[string]interface{})
		if !ok {
			continue
		}
		dataStr, ok := entry["data"].(string)
		if !ok {
			continue
		}

		var inner map[string]interface{}
		if err := json.Unmarshal([]byte(dataStr), &inner); err != nil {
			continue
		}

		if details, ok := inner["details"].(map[string]interface{}); ok {
			if listing, ok := details["listing"].(map[string]interface{}); ok {
				listings = append(listings, listing)
				continue
			}
		}
		if listing, ok := inner["listing"].(map[string]interface{}); ok {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

func landSizeFromListing(listing map[string]interface{}) (string, bool) {
	if features, ok := listing["propertyFeatures"].([]interface{}); ok {
		for _, f := range features {
			feature, ok := f.(map[string]interface{})
			if !ok {
				continue
			}
			if name, _ := feature["featureName"].(string); name != landSizeFeature {
				continue
			}
			switch value := feature["value"].(type) {
			case map[string]interface{}:
				if v, ok := sizeDisplay(value); ok {
					return v, true
				}
			case string:
				if strings.TrimSpace(value) != "" {
					return strings.TrimSpace(value), true
				}
			}
		}
	}

	if sizes, ok := listing["propertySizes"].(map[string]interface{}); ok {
		if land, ok := sizes["land"].(map[string]interface{}); ok {
			return sizeDisplay(land)
		}
	}
	return "", false
}

// sizeDisplay formats {displayValue, sizeUnit: {displayValue}} as "<value> <unit>".
func sizeDisplay(m map[string]interface{}) (string, bool) {
	displayValue := ""
	switch dv := m["displayValue"].(type) {
	case string:
		displayValue = strings.TrimSpace(dv)
	case float64:
		displayValue = fmt.Sprintf("%g", dv)
	}
	if displayValue == "" {
		return "", false
	}

	unit := ""
	if sizeUnit, ok := m["sizeUnit"].(map[string]interface{}); ok {
		if u, ok := sizeUnit["displayValue"].(string); ok {
			unit = strings.TrimSpace(u)
		}
	}
	return strings.TrimSpace(displayValue + " " + unit), true
}
