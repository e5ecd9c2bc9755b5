// internal/server/handlers/params.go

package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
)

// Query parameter names
const (
	paramLatitude  = "latitude"
	paramLongitude = "longitude"
	paramRadius    = "radius"
	paramDistance  = "distance"
	paramPage      = "page"
	paramLimit     = "limit"
)

// parseOrigin reads the query origin. Both coordinates must be supplied
// together; when neither is, the origin is nil.
func parseOrigin(q url.Values) (*geo.Point, error) {
	latStr := strings.TrimSpace(q.Get(paramLatitude))
	lngStr := strings.TrimSpace(q.Get(paramLongitude))

	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, proximity.NewInputError("origin", "latitude and longitude must be supplied together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, proximity.NewInputError(paramLatitude, "must be a number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, proximity.NewInputError(paramLongitude, "must be a number")
	}

	p := geo.NewPoint(lng, lat)
	return &p, nil
}

// parseRadius reads an optional radius in kilometers
func parseRadius(q url.Values, param string) (*float64, error) {
	s := strings.TrimSpace(q.Get(param))
	if s == "" {
		return nil, nil
	}

	radius, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, proximity.NewInputError(param, "must be a number")
	}
	return &radius, nil
}

// parseInt reads an optional integer; absent values are zero
func parseInt(q url.Values, param string) (int, error) {
	s := strings.TrimSpace(q.Get(param))
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, proximity.NewInputError(param, "must be an integer")
	}
	return n, nil
}
