package extract

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"homie/internal/document"
)

// Kind selects how a Rule looks for its value.
type Kind int

const (
	// Text reads the trimmed text of the first element matching Selector.
	Text Kind = iota
	// Attr reads attribute Attr of the first (or, with All, every) element
	// matching Selector and applies Pattern to it.
	Attr
	// Scan walks elements matching Selector and keeps the first whose text
	// contains one of Keywords.
	Scan
	// PageText applies Pattern to the whole page text.
	PageText
	// Vocabulary returns the first word of Keywords present in the page text.
	Vocabulary
	// Anywhere applies Pattern to every element containing Keywords[0], in
	// document order.
	Anywhere
	// URLPath returns Value when the page URL path contains any of Keywords.
	URLPath
	// Derived delegates to Derive.
	Derived
)

var kindNames = [...]string{"text", "attr", "scan", "page-text", "vocabulary", "anywhere", "url-path", "derived"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Rule is one attempt in a field's fallback chain.
type Rule struct {
	Kind     Kind
	Selector string
	Attr     string
	All      bool
	Keywords []string
	Fold     bool           // match Keywords case-insensitively
	Pattern  *regexp.Regexp // value is submatch Group of Pattern
	Group    int
	Prefix   string
	Strip    *regexp.Regexp // value is the text with the first match of Strip removed
	RawText  bool           // fall back to the element text when Pattern misses
	Value    string
	Derive   func(e *Extractor, d *document.Document) (string, bool)
}

// Chain is the ordered rule table of one field. Rows are ordered by trust;
// newer markup generations are added as new rows.
type Chain struct {
	Field    string
	Sentinel string
	Rules    []Rule
}

func (e *Extractor) resolve(c Chain, d *document.Document) string {
	for i, r := range c.Rules {
		if v, ok := e.attempt(r, d); ok {
			e.log.Debug("field resolved",
				zap.String("field", c.Field),
				zap.Int("rule", i),
				zap.Stringer("kind", r.Kind),
			)
			return v
		}
	}
	e.log.Debug("field not found", zap.String("field", c.Field))
	return c.Sentinel
}

func (e *Extractor) attempt(r Rule, d *document.Document) (string, bool) {
	switch r.Kind {
	case Text:
		sel, ok := d.QuerySelector(r.Selector)
		if !ok {
			return "", false
		}
		return r.fromText(strings.TrimSpace(sel.Text()))

	case Attr:
		nodes := d.QuerySelectorAll(r.Selector)
		if nodes.Length() == 0 {
			return "", false
		}
		if !r.All {
			nodes = nodes.First()
		}
		value, found := "", false
		nodes.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			label, _ := s.Attr(r.Attr)
			value, found = r.match(label)
			return !found
		})
		if found {
			return value, true
		}
		if r.RawText {
			text := strings.TrimSpace(nodes.First().Text())
			return text, text != ""
		}
		return "", false

	case Scan:
		nodes := d.QuerySelectorAll(r.Selector)
		if !r.All {
			nodes = nodes.First()
		}
		value, found := "", false
		nodes.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value, found = r.fromText(strings.TrimSpace(s.Text()))
			return !found
		})
		return value, found

	case PageText:
		return r.match(d.Text())

	case Vocabulary:
		text := d.Text()
		for _, word := range r.Keywords {
			if wordPattern(word).MatchString(text) {
				return word, true
			}
		}
		return "", false

	case Anywhere:
		if len(r.Keywords) == 0 {
			return "", false
		}
		m, ok := d.FirstTextMatch(r.Keywords[0], r.Pattern)
		if !ok || len(m) <= r.Group {
			return "", false
		}
		return r.Prefix + strings.TrimSpace(m[r.Group]), m[r.Group] != ""

	case URLPath:
		path := d.URL()
		if u, err := url.Parse(path); err == nil && u.Path != "" {
			path = u.Path
		}
		for _, k := range r.Keywords {
			if strings.Contains(path, k) {
				return r.Value, true
			}
		}
		return "", false

	case Derived:
		if r.Derive == nil {
			return "", false
		}
		return r.Derive(e, d)
	}
	return "", false
}

// fromText applies keyword filtering, stripping and pattern extraction to an
// element's trimmed text.
func (r Rule) fromText(text string) (string, bool) {
	if text == "" || !r.hasKeyword(text) {
		return "", false
	}
	if r.Strip != nil {
		if loc := r.Strip.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		}
		return text, text != ""
	}
	if r.Pattern == nil {
		return text, true
	}
	if v, ok := r.match(text); ok {
		return v, true
	}
	if r.RawText {
		return text, true
	}
	return "", false
}

func (r Rule) hasKeyword(text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	if r.Fold {
		text = strings.ToLower(text)
	}
	for _, k := range r.Keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func (r Rule) match(s string) (string, bool) {
	if r.Pattern == nil || s == "" {
		return "", false
	}
	m := r.Pattern.FindStringSubmatch(s)
	if m == nil || len(m) <= r.Group {
		return "", false
	}
	v := strings.TrimSpace(m[r.Group])
	if v == "" {
		return "", false
	}
	return r.Prefix + v, true
}

var wordPatterns sync.Map

func wordPattern(word string) *regexp.Regexp {
	if re, ok := wordPatterns.Load(word); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	wordPatterns.Store(word, re)
	return re
}
