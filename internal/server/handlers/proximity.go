// internal/server/handlers/proximity.go

package handlers

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"safetails/internal/domain/proximity"
	proximitysvc "safetails/internal/service/proximity"
)

// ProximityHandler serves nearby searches and listings for every profile
type ProximityHandler struct {
	queriers map[string]proximitysvc.Querier
	logger   *zap.Logger
}

// NewProximityHandler creates a new proximity handler
func NewProximityHandler(svc *proximitysvc.Service, logger *zap.Logger) *ProximityHandler {
	return &ProximityHandler{
		queriers: svc.Queriers(),
		logger:   logger,
	}
}

// Nearby returns records around the latitude/longitude query parameters,
// which are required. A (0,0) origin is unset and lists without a radius.
// radiusParam names the radius parameter, which differs per collection.
func (h *ProximityHandler) Nearby(profile, radiusParam string) http.HandlerFunc {
	querier := h.querier(profile)

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		origin, err := parseOrigin(q)
		if err != nil {
			h.fail(w, profile, err)
			return
		}
		if origin == nil {
			h.fail(w, profile, proximity.NewInputError("origin", "latitude and longitude are required"))
			return
		}

		radius, err := parseRadius(q, radiusParam)
		if err != nil {
			h.fail(w, profile, err)
			return
		}

		req, err := pageRequest(querier, q)
		if err != nil {
			h.fail(w, profile, err)
			return
		}
		req.Origin = origin
		req.RadiusKm = radius

		h.serve(w, r, querier, req)
	}
}

// Listing returns records without a spatial clause
func (h *ProximityHandler) Listing(profile string) http.HandlerFunc {
	querier := h.querier(profile)

	return func(w http.ResponseWriter, r *http.Request) {
		req, err := pageRequest(querier, r.URL.Query())
		if err != nil {
			h.fail(w, profile, err)
			return
		}

		h.serve(w, r, querier, req)
	}
}

func (h *ProximityHandler) querier(profile string) proximitysvc.Querier {
	querier, ok := h.queriers[profile]
	if !ok {
		panic("handlers: unknown proximity profile " + profile)
	}
	return querier
}

func pageRequest(querier proximitysvc.Querier, q url.Values) (proximitysvc.Request, error) {
	filters, err := querier.Profile().ParseFilters(q)
	if err != nil {
		return proximitysvc.Request{}, err
	}

	page, err := parseInt(q, paramPage)
	if err != nil {
		return proximitysvc.Request{}, err
	}

	limit, err := parseInt(q, paramLimit)
	if err != nil {
		return proximitysvc.Request{}, err
	}

	return proximitysvc.Request{Filters: filters, Page: page, Limit: limit}, nil
}

func (h *ProximityHandler) serve(w http.ResponseWriter, r *http.Request, querier proximitysvc.Querier, req proximitysvc.Request) {
	env, err := querier.Query(r.Context(), req)
	if err != nil {
		h.fail(w, querier.Profile().Name, err)
		return
	}

	respondWithJSON(w, http.StatusOK, env)
}

func (h *ProximityHandler) fail(w http.ResponseWriter, profile string, err error) {
	if proximity.IsInputError(err) {
		respondWithJSON(w, http.StatusBadRequest, proximitysvc.ErrorEnvelope(profile, err))
		return
	}

	h.logger.Error("proximity request failed", zap.String("profile", profile), zap.Error(err))
	respondWithJSON(w, http.StatusInternalServerError, proximitysvc.ErrorEnvelope(profile, err))
}
