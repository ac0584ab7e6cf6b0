package document

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head>
<script type="application/ld+json">{"@type":"House"}</script>
<script>window.ArgonautExchange={"a":1};</script>
<script>   </script>
</head><body>
<div class="property-info">
	<h1>12 King St</h1>
	<ul><li>3 Bedrooms</li><li>2 Bathrooms</li></ul>
</div>
</body></html>`

func TestQuerySelectors(t *testing.T) {
	d, err := ParseString(samplePage, "https://www.realestate.com.au/property-house-nsw-newtown-1")
	require.NoError(t, err)

	assert.Equal(t, "https://www.realestate.com.au/property-house-nsw-newtown-1", d.URL())
	assert.True(t, d.Has(".property-info"))
	assert.False(t, d.Has(".price"))

	h1, ok := d.QuerySelector("h1")
	require.True(t, ok)
	assert.Equal(t, "12 King St", h1.Text())

	_, ok = d.QuerySelector("h2")
	assert.False(t, ok)

	assert.Equal(t, 2, d.QuerySelectorAll("li").Length())
	assert.Contains(t, d.Text(), "2 Bathrooms")
	assert.NotContains(t, d.Text(), "ArgonautExchange")
}

func TestScripts(t *testing.T) {
	d, err := ParseString(samplePage, "")
	require.NoError(t, err)

	assert.Equal(t, []string{`window.ArgonautExchange={"a":1};`}, d.ScriptsContaining("ArgonautExchange"))
	assert.Len(t, d.ScriptsContaining(""), 2)
	assert.Equal(t, []string{`{"@type":"House"}`}, d.StructuredData())
}

func TestFirstTextMatch(t *testing.T) {
	d, err := ParseString(samplePage, "")
	require.NoError(t, err)

	m, ok := d.FirstTextMatch("bedroom", regexp.MustCompile(`(?i)(\d+)\s*bedroom`))
	require.True(t, ok)
	assert.Equal(t, "3", m[1])

	_, ok = d.FirstTextMatch("garage", regexp.MustCompile(`(\d+)`))
	assert.False(t, ok)
}
