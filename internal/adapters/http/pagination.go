package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageParams reads offset/limit from the query, clamping to [1, maxLimit].
func pageParams(c *fiber.Ctx, defLimit, maxLimit int) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxLimit {
		limit = defLimit
	}
	return offset, limit
}

// paginate slices items to the requested page and sets Link headers.
func paginate[T any](c *fiber.Ctx, items []T, defLimit, maxLimit int) PaginatedResponse {
	offset, limit := pageParams(c, defLimit, maxLimit)
	total := len(items)
	page := []T{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = items[offset:end]
	}
	pg := Pagination{Offset: offset, Limit: limit, Total: total}
	SetLinkHeaders(c, pg)
	return PaginatedResponse{Data: page, Pagination: pg}
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// Other query parameters of the current request are preserved.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	extra := otherQuery(c)
	var links []string

	link := func(offset int, rel string) {
		links = append(links, fmt.Sprintf(`<%s?%soffset=%d&limit=%d>; rel="%s"`, base, extra, offset, p.Limit, rel))
	}

	link(0, "first")

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		link(prev, "prev")
	}

	if p.Offset+p.Limit < p.Total {
		link(p.Offset+p.Limit, "next")
	}

	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	link(lastOffset, "last")

	c.Set("Link", strings.Join(links, ", "))
}

func otherQuery(c *fiber.Ctx) string {
	var b strings.Builder
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if key == "offset" || key == "limit" {
			return
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(string(v)))
		b.WriteByte('&')
	})
	return b.String()
}
