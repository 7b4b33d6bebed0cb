package http

import (
	"net/url"
	"strconv"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// PaginatedResponse wraps a page of results with JSON:API meta and links
type PaginatedResponse struct {
	Meta  Meta        `json:"meta"`
	Links Links       `json:"links"`
	Data  interface{} `json:"data"`
}

type Meta struct {
	Count int `json:"count"`
}

type Links struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
}

// parsePaginationParams reads offset and limit, falling back to defaults on bad input
func parsePaginationParams(u *url.URL) (int, int) {
	offset := 0
	limit := defaultLimit

	q := u.Query()
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return offset, limit
}

func calculateOffsetOfLastPage(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return ((total - 1) / limit) * limit
}

func pageLink(u *url.URL, offset, limit int) string {
	link := *u
	q := link.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	link.RawQuery = q.Encode()
	return link.RequestURI()
}

func buildNavigationLinks(u *url.URL, offset, limit, total int) Links {
	if total == 0 {
		return Links{}
	}

	links := Links{
		First: pageLink(u, 0, limit),
		Last:  pageLink(u, calculateOffsetOfLastPage(total, limit), limit),
	}

	if offset+limit < total {
		links.Next = pageLink(u, offset+limit, limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links.Prev = pageLink(u, prev, limit)
	}

	return links
}

func buildPaginatedResponse(u *url.URL, offset, limit, total int, data interface{}) PaginatedResponse {
	return PaginatedResponse{
		Meta:  Meta{Count: total},
		Links: buildNavigationLinks(u, offset, limit, total),
		Data:  data,
	}
}

// pageBounds clamps offset and limit to a slice of length total
func pageBounds(offset, limit, total int) (int, int) {
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}
