package handler

import (
	"net/http"
	"strconv"
)

// The reports UI pages through the audit trail most-recent-first; these
// bound how much of it one request may pull.
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// listWindow is the slice of the audit trail a listing request asks for.
type listWindow struct {
	Limit  int
	Offset int
}

func listWindowFrom(r *http.Request) listWindow {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	if offset < 0 {
		offset = 0
	}

	return listWindow{
		Limit:  limit,
		Offset: offset,
	}
}
