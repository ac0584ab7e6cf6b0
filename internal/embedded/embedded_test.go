package embedded

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homie/internal/document"
)

func argonautScript(t *testing.T, listing map[string]interface{}) string {
	t.Helper()
	inner, err := json.Marshal(map[string]interface{}{
		"details": map[string]interface{}{"listing": listing},
	})
	require.NoError(t, err)
	cache, err := json.Marshal(map[string]interface{}{
		"listing-key": map[string]interface{}{"data": string(inner)},
	})
	require.NoError(t, err)
	exchange, err := json.Marshal(map[string]interface{}{
		"resi-property_listing-experience-web": map[string]interface{}{
			"urqlClientCache": string(cache),
		},
	})
	require.NoError(t, err)
	return "<script>window.ArgonautExchange=" + string(exchange) + ";</script>"
}

func parse(t *testing.T, body string) *document.Document {
	t.Helper()
	d, err := document.ParseString("<html><head></head><body>"+body+"</body></html>", "https://www.realestate.com.au/property-house-vic-richmond-1")
	require.NoError(t, err)
	return d
}

func TestCachedLandSizeFromPropertyFeatures(t *testing.T) {
	d := parse(t, argonautScript(t, map[string]interface{}{
		"propertyFeatures": []interface{}{
			map[string]interface{}{"featureName": "Bedrooms", "value": map[string]interface{}{"displayValue": "3"}},
			map[string]interface{}{
				"featureName": "Land size",
				"value": map[string]interface{}{
					"displayValue": "336",
					"sizeUnit":     map[string]interface{}{"displayValue": "m²"},
				},
			},
		},
	}))

	got, ok := New(nil).CachedLandSize(d)
	require.True(t, ok)
	assert.Equal(t, "336 m²", got)
}

func TestCachedLandSizeFromPropertySizes(t *testing.T) {
	d := parse(t, argonautScript(t, map[string]interface{}{
		"propertySizes": map[string]interface{}{
			"land": map[string]interface{}{
				"displayValue": "1.2",
				"sizeUnit":     map[string]interface{}{"displayValue": "ha"},
			},
		},
	}))

	got, ok := New(nil).CachedLandSize(d)
	require.True(t, ok)
	assert.Equal(t, "1.2 ha", got)
}

func TestCachedLandSizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no script", "<p>nothing here</p>"},
		{"broken literal", "<script>window.ArgonautExchange={\"resi\": </script>"},
		{"invalid json", "<script>window.ArgonautExchange={bad json};</script>"},
		{"missing cache", `<script>window.ArgonautExchange={"resi-property_listing-experience-web":{}};</script>`},
		{"cache not json", `<script>window.ArgonautExchange={"resi-property_listing-experience-web":{"urqlClientCache":"{oops"}};</script>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := New(nil).CachedLandSize(parse(t, tt.body))
			assert.False(t, ok)
		})
	}
}

func TestFloorSize(t *testing.T) {
	d := parse(t, `
		<script type="application/ld+json">{not json}</script>
		<script type="application/ld+json">{"@type":"Organization","name":"Agency"}</script>
		<script type="application/ld+json">{"@type":"House","floorSize":{"value":650,"unitText":"sqm"}}</script>
	`)

	got, ok := New(nil).FloorSize(d)
	require.True(t, ok)
	assert.Equal(t, "650 sqm", got)
}

func TestFloorSizeInGraph(t *testing.T) {
	d := parse(t, `<script type="application/ld+json">
		{"@graph":[{"@type":"WebPage"},{"@type":"Residence","floorSize":{"value":"420","unitText":"m²"}}]}
	</script>`)

	got, ok := New(nil).FloorSize(d)
	require.True(t, ok)
	assert.Equal(t, "420 m²", got)
}

func TestLandSizePrefersJSONLD(t *testing.T) {
	body := `<script type="application/ld+json">{"floorSize":{"value":500,"unitText":"m²"}}</script>` +
		argonautScript(t, map[string]interface{}{
			"propertySizes": map[string]interface{}{
				"land": map[string]interface{}{"displayValue": "336", "sizeUnit": map[string]interface{}{"displayValue": "m²"}},
			},
		})

	got, ok := New(nil).LandSize(parse(t, body))
	require.True(t, ok)
	assert.Equal(t, "500 m²", got)
}

func TestLocalityAndCoordinates(t *testing.T) {
	d := parse(t, `<script type="application/ld+json">
		{"@type":"SingleFamilyResidence",
		 "address":{"streetAddress":"12 Smith St","addressLocality":"Richmond","addressRegion":"VIC","postalCode":"3121"},
		 "geo":{"latitude":-37.8183,"longitude":"144.9981"}}
	</script>`)

	p := New(nil)
	suburb, postcode, ok := p.Locality(d)
	require.True(t, ok)
	assert.Equal(t, "Richmond", suburb)
	assert.Equal(t, "3121", postcode)

	coords, ok := p.Coordinates(d)
	require.True(t, ok)
	assert.InDelta(t, -37.8183, coords.Latitude, 1e-9)
	assert.InDelta(t, 144.9981, coords.Longitude, 1e-9)
}

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"simple", `x = {"a":1}; y`, `{"a":1}`, true},
		{"nested", `{"a":{"b":{}}} trailing`, `{"a":{"b":{}}}`, true},
		{"braces in strings", `{"a":"}{;","b":"\"}"}`, `{"a":"}{;","b":"\"}"}`, true},
		{"semicolon inside", `{"a":"x;y"};`, `{"a":"x;y"}`, true},
		{"unbalanced", `{"a":{`, "", false},
		{"none", `no object`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
