package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/yieldmap/internal/contracts"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// ListResponse wraps every list endpoint
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func respondList[T any](w http.ResponseWriter, items []T, p page) {
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, ListResponse[T]{Items: items, Count: len(items), Limit: p.limit, Offset: p.offset})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// query parameter parsing; the first bad parameter wins
type params struct {
	q   url.Values
	err error
}

func (p *params) str(name string) string {
	return strings.TrimSpace(p.q.Get(name))
}

func (p *params) state() string {
	s := strings.ToUpper(p.str("state"))
	if s != "" && len(s) != 2 && p.err == nil {
		p.err = fmt.Errorf("state must be a 2-letter code")
	}
	return s
}

func (p *params) intParam(name string, lo, hi int) int {
	raw := p.str(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if (err != nil || v < lo || v > hi) && p.err == nil {
		p.err = fmt.Errorf("%s must be an integer in [%d, %d]", name, lo, hi)
	}
	return v
}

func (p *params) boolParam(name string) bool {
	raw := p.str(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s must be true or false", name)
	}
	return v
}

func (p *params) bedroom() *contracts.BedroomClass {
	if p.str("bedroom") == "" {
		return nil
	}
	b := contracts.BedroomClass(p.intParam("bedroom", 0, 4))
	return &b
}

func (p *params) level(allowed ...contracts.GeoLevel) contracts.GeoLevel {
	raw := p.str("level")
	if raw == "" {
		return ""
	}
	l, err := contracts.ParseGeoLevel(raw)
	if err == nil {
		for _, a := range allowed {
			if l == a {
				return l
			}
		}
		err = fmt.Errorf("level %q not available here", raw)
	}
	if p.err == nil {
		p.err = err
	}
	return ""
}

type page struct {
	limit, offset int
}

func (p *params) page() page {
	pg := page{limit: p.intParam("limit", 1, maxLimit), offset: p.intParam("offset", 0, 1<<30)}
	if pg.limit == 0 {
		pg.limit = defaultLimit
	}
	return pg
}
