package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/scorecard/internal/app"
)

// parseQuery reads filter, from, to and limit from the request URL.
func parseQuery(r *http.Request) (service.Query, error) {
	v := r.URL.Query()
	q := service.Query{
		Filter: v.Get("filter"),
		From:   v.Get("from"),
		To:     v.Get("to"),
	}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return service.Query{}, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw)
		}
		q.Limit = n
	}
	return q, nil
}

// pathParts splits the path below prefix into its non-empty segments.
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
