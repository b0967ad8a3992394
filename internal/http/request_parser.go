package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var errInvalidParam = errors.New("invalid parameter")

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errInvalidParam, raw)
	}
	return id, nil
}

// queryLimit reads the "limit" query parameter, falling back to def when
// it is absent.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit %q", errInvalidParam, raw)
	}
	return n, nil
}
