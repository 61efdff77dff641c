// Package pagination turns page/per_page or since_id query parameters into a
// query window and renders the matching Link header.
package pagination

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type Config struct {
	PerPage    int
	MaxPerPage int
}

// Params is a query window. When SinceID is set, Page and PerPage are ignored.
type Params struct {
	Page    int
	PerPage int
	SinceID int64
}

func (p Params) UsesSinceID() bool {
	return p.SinceID > 0
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p Params) Limit() int {
	return p.PerPage
}

// Parse reads page, per_page and since_id. Missing or malformed values fall back to defaults.
func Parse(q url.Values, cfg Config) Params {
	perPageDefault := cfg.PerPage
	if perPageDefault <= 0 {
		perPageDefault = DefaultPerPage
	}
	maxPerPage := cfg.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = MaxPerPage
	}

	p := Params{Page: 1, PerPage: perPageDefault}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = v
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	// Offset must stay a valid SQL offset; past this page every window is empty anyway.
	if maxPage := math.MaxInt32 / p.PerPage; p.Page > maxPage {
		p.Page = maxPage
	}
	if v, err := strconv.ParseInt(q.Get("since_id"), 10, 64); err == nil && v > 0 {
		p.SinceID = v
	}
	return p
}

// LastPage is never below 1, so an empty collection still has a current page.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// LinkHeader renders current, next and last relations for a page window.
// Existing query parameters on requestURL are preserved. It returns "" for since_id windows.
func LinkHeader(baseURL string, requestURL *url.URL, p Params, total int64) string {
	if p.UsesSinceID() {
		return ""
	}

	last := LastPage(total, p.PerPage)
	links := []string{pageLink(baseURL, requestURL, p.Page, p.PerPage, "current")}
	if p.Page < last {
		links = append(links, pageLink(baseURL, requestURL, p.Page+1, p.PerPage, "next"))
	}
	links = append(links, pageLink(baseURL, requestURL, last, p.PerPage, "last"))
	return strings.Join(links, ", ")
}

func pageLink(baseURL string, requestURL *url.URL, page, perPage int, rel string) string {
	q := requestURL.Query()
	q.Del("since_id")
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return fmt.Sprintf("<%s%s?%s>; rel=%q", strings.TrimSuffix(baseURL, "/"), requestURL.Path, q.Encode(), rel)
}
