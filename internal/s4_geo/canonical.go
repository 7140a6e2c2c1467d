package s4_geo

import (
	"strings"
	"unicode"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Resolution methods, most to least trusted
const (
	ResolvedByZip     = "zip"     // the ZIP row's own FIPS
	ResolvedByMapping = "mapping" // exact (state, name) in geo.county_fips
	ResolvedByName    = "name"    // normalized name fallback
)

type nameKey struct {
	state string
	name  string
}

// Canonicalizer resolves county names to FIPS.
// FIPS is the key; names are only a fallback path into it.
type Canonicalizer struct {
	exact      map[nameKey]string
	normalized map[nameKey]string // "" marks an ambiguous normalized name
}

// NewCanonicalizer indexes the county FIPS mapping table
func NewCanonicalizer(mappings []contracts.CountyFIPSMapping) *Canonicalizer {
	c := &Canonicalizer{
		exact:      make(map[nameKey]string, len(mappings)),
		normalized: make(map[nameKey]string, len(mappings)),
	}

	for _, m := range mappings {
		if !contracts.IsValidFIPS(m.FIPS) {
			continue
		}
		state := strings.ToUpper(strings.TrimSpace(m.StateCode))
		c.exact[nameKey{state, strings.TrimSpace(m.CountyName)}] = m.FIPS

		nk := nameKey{state, NormalizeCountyName(m.CountyName)}
		if prev, seen := c.normalized[nk]; seen && prev != m.FIPS {
			c.normalized[nk] = ""
			continue
		}
		c.normalized[nk] = m.FIPS
	}
	return c
}

// CountyFIPS implements s1_metrics.CountyResolver
func (c *Canonicalizer) CountyFIPS(z contracts.ZipGeo) (string, bool) {
	fips, _, ok := c.Resolve(z)
	return fips, ok
}

// Resolve returns the ZIP's canonical county FIPS and how it was found
func (c *Canonicalizer) Resolve(z contracts.ZipGeo) (string, string, bool) {
	if contracts.IsValidFIPS(z.CountyFIPS) {
		return z.CountyFIPS, ResolvedByZip, true
	}

	state := strings.ToUpper(strings.TrimSpace(z.StateCode))
	if fips, ok := c.exact[nameKey{state, strings.TrimSpace(z.CountyName)}]; ok {
		return fips, ResolvedByMapping, true
	}

	if fips := c.normalized[nameKey{state, NormalizeCountyName(z.CountyName)}]; fips != "" {
		return fips, ResolvedByName, true
	}

	return "", "", false
}

var countySuffixes = []string{
	" city and borough",
	" census area",
	" municipality",
	" borough",
	" parish",
	" county",
}

// NormalizeCountyName folds spelling variants: case, punctuation,
// "St." vs "Saint" and the county/parish/borough suffix.
func NormalizeCountyName(name string) string {
	s := normalizeWords(name)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return s
}

// NormalizeCityName folds case, punctuation and "St."
func NormalizeCityName(name string) string {
	return normalizeWords(name)
}

func normalizeWords(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/'
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "st.", "st":
			f = "saint"
		case "ste.", "ste":
			f = "sainte"
		case "ft.", "ft":
			f = "fort"
		}
		f = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, f)
		if f != "" {
			words = append(words, f)
		}
	}
	return strings.Join(words, " ")
}
