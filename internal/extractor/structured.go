package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/tidwall/gjson"
)

const jsonLDSelector = `script[type="application/ld+json"]`

// structured parses every JSON-LD block. Blocks that are not valid JSON or
// decode to null are dropped without failing the page.
func (e *Extractor) structured(p *page) *models.StructuredData {
	data := &models.StructuredData{}
	seenTypes := make(map[string]struct{})

	p.doc.Find(jsonLDSelector).Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" || !gjson.Valid(raw) {
			e.logger.Debug().Int("block", i).Msg("Skipping invalid JSON-LD block")
			return
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			return
		}
		value = Prune(value)
		if value == nil {
			return
		}
		data.JSONLD = append(data.JSONLD, value)

		for _, typ := range schemaTypes(gjson.Parse(raw)) {
			if _, ok := seenTypes[typ]; ok {
				continue
			}
			seenTypes[typ] = struct{}{}
			data.Types = append(data.Types, typ)
		}
	})

	return data
}

// schemaTypes collects @type values from a JSON-LD document, its top-level
// array entries and its @graph members.
func schemaTypes(doc gjson.Result) []string {
	var types []string
	collect := func(node gjson.Result) {
		types = append(types, typeNames(node.Get("@type"))...)
		node.Get("@graph").ForEach(func(_, member gjson.Result) bool {
			types = append(types, typeNames(member.Get("@type"))...)
			return true
		})
	}

	if doc.IsArray() {
		doc.ForEach(func(_, node gjson.Result) bool {
			collect(node)
			return true
		})
	} else {
		collect(doc)
	}
	return types
}

// typeNames accepts both "@type": "X" and "@type": ["X", "Y"].
func typeNames(t gjson.Result) []string {
	var names []string
	switch {
	case t.Type == gjson.String:
		names = append(names, t.String())
	case t.IsArray():
		for _, v := range t.Array() {
			if v.Type == gjson.String {
				names = append(names, v.String())
			}
		}
	}

	out := names[:0]
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
