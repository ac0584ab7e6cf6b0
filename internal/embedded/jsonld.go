package embedded

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"homie/internal/document"
	"homie/internal/models"
)

// jsonldNode is the subset of schema.org fields read from listing pages.
type jsonldNode struct {
	FloorSize *struct {
		Value    scalar `json:"value"`
		UnitText string `json:"unitText"`
	} `json:"floorSize"`
	Address json.RawMessage `json:"address"`
	Geo     *struct {
		Latitude  scalar `json:"latitude"`
		Longitude scalar `json:"longitude"`
	} `json:"geo"`
	Graph []jsonldNode `json:"@graph"`
}

type postalAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	PostalCode      scalar `json:"postalCode"`
}

// scalar keeps the text of a JSON string or number.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = scalar(strings.TrimSpace(str))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*s = ""
		return nil
	}
	*s = scalar(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (s scalar) float() (float64, bool) {
	f, err := strconv.ParseFloat(string(s), 64)
	return f, err == nil
}

// structuredNodes decodes every JSON-LD payload into a flat node list.
// Payloads that fail to decode are skipped.
func (p *Parser) structuredNodes(d *document.Document) []jsonldNode {
	var nodes []jsonldNode
	for _, payload := range d.StructuredData() {
		decoded, err := decodeJSONLD(payload)
		if err != nil {
			p.parseFailed("json-ld", err)
			continue
		}
		nodes = append(nodes, decoded...)
	}
	return nodes
}

func decodeJSONLD(payload string) ([]jsonldNode, error) {
	payload = strings.TrimSpace(payload)
	var nodes []jsonldNode
	if strings.HasPrefix(payload, "[") {
		if err := json.Unmarshal([]byte(payload), &nodes); err != nil {
			return nil, fmt.Errorf("failed to decode json-ld array: %w", err)
		}
	} else {
		var node jsonldNode
		if err := json.Unmarshal([]byte(payload), &node); err != nil {
			return nil, fmt.Errorf("failed to decode json-ld object: %w", err)
		}
		nodes = []jsonldNode{node}
	}

	var flat []jsonldNode
	for _, n := range nodes {
		flat = append(flat, n)
		flat = append(flat, n.Graph...)
	}
	return flat, nil
}

// FloorSize returns "<value> <unitText>" from the first JSON-LD node with a
// floorSize value.
func (p *Parser) FloorSize(d *document.Document) (string, bool) {
	for _, n := range p.structuredNodes(d) {
		if n.FloorSize == nil || n.FloorSize.Value == "" {
			continue
		}
		return strings.TrimSpace(string(n.FloorSize.Value) + " " + n.FloorSize.UnitText), true
	}
	return "", false
}

// Locality returns the address locality and postcode of the first JSON-LD
// node with a structured address.
func (p *Parser) Locality(d *document.Document) (suburb, postcode string, ok bool) {
	for _, n := range p.structuredNodes(d) {
		if len(n.Address) == 0 || n.Address[0] != '{' {
			continue
		}
		var addr postalAddress
		if err := json.Unmarshal(n.Address, &addr); err != nil {
			p.parseFailed("json-ld address", err)
			continue
		}
		if addr.AddressLocality == "" && addr.PostalCode == "" {
			continue
		}
		return strings.TrimSpace(addr.AddressLocality), string(addr.PostalCode), true
	}
	return "", "", false
}

// Coordinates returns the geo point of the first JSON-LD node carrying one.
func (p *Parser) Coordinates(d *document.Document) (*models.Coordinates, bool) {
	for _, n := range p.structuredNodes(d) {
		if n.Geo == nil {
			continue
		}
		lat, latOK := n.Geo.Latitude.float()
		lng, lngOK := n.Geo.Longitude.float()
		if !latOK || !lngOK {
			continue
		}
		return &models.Coordinates{Latitude: lat, Longitude: lng}, true
	}
	return nil, false
}
