// internal/service/proximity/profile.go

package proximity

import (
	"math"

	"safetails/internal/config"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

// Profile names
const (
	ProfileAlerts        = "alerts"
	ProfilePosts         = "posts"
	ProfileVets          = "vets"
	ProfileVetsEmergency = "vets-emergency"
)

// Profile is one parameterization of the proximity query
type Profile struct {
	Name            string
	DefaultRadiusKm float64
	MinRadiusKm     float64
	MaxRadiusKm     float64
	DefaultLimit    int
	MaxLimit        int

	// Defaults apply unless the request filters the same field
	Defaults []proximity.Condition
	// Required always apply
	Required []proximity.Condition
	Sort     []proximity.SortKey

	filters []filterParam
}

// idTieBreak makes every ordering total
var idTieBreak = proximity.SortKey{Field: record.FieldID, Type: proximity.SortString}

func newProfile(name string, c config.CollectionConfig) Profile {
	return Profile{
		Name:            name,
		DefaultRadiusKm: c.DefaultRadiusKm,
		MinRadiusKm:     c.MinRadiusKm,
		MaxRadiusKm:     c.MaxRadiusKm,
		DefaultLimit:    c.DefaultLimit,
		MaxLimit:        c.MaxLimit,
	}
}

// AlertsProfile orders alerts by urgency, then recency
func AlertsProfile(c config.CollectionConfig) Profile {
	p := newProfile(ProfileAlerts, c)
	p.Defaults = []proximity.Condition{
		proximity.Eq(record.FieldStatus, record.AlertStatusActive),
	}
	p.Required = []proximity.Condition{
		proximity.Eq(record.FieldIsActive, true),
	}
	p.Sort = []proximity.SortKey{
		{Field: record.FieldUrgency, Type: proximity.SortRank, Desc: true, Rank: record.UrgencyOrder},
		{Field: record.FieldCreatedAt, Type: proximity.SortTime, Desc: true},
		idTieBreak,
	}
	p.filters = alertFilters()
	return p
}

// PostsProfile orders posts by recency
func PostsProfile(c config.CollectionConfig) Profile {
	p := newProfile(ProfilePosts, c)
	p.Required = []proximity.Condition{
		proximity.Eq(record.FieldIsActive, true),
	}
	p.Sort = []proximity.SortKey{
		{Field: record.FieldCreatedAt, Type: proximity.SortTime, Desc: true},
		idTieBreak,
	}
	p.filters = postFilters()
	return p
}

// VetsProfile orders the vet directory by rating, then emergency availability
func VetsProfile(c config.CollectionConfig) Profile {
	p := newProfile(ProfileVets, c)
	p.Required = []proximity.Condition{
		proximity.Eq(record.FieldIsActive, true),
	}
	p.Sort = []proximity.SortKey{
		{Field: record.FieldRating, Type: proximity.SortNumber, Desc: true},
		{Field: record.FieldIsEmergencyAvailable, Type: proximity.SortBool, Desc: true},
		idTieBreak,
	}
	p.filters = vetFilters()
	return p
}

// VetsEmergencyProfile puts round-the-clock clinics first, then orders by rating
func VetsEmergencyProfile(c config.CollectionConfig) Profile {
	p := newProfile(ProfileVetsEmergency, c)
	p.Required = []proximity.Condition{
		proximity.Eq(record.FieldIsActive, true),
		proximity.Eq(record.FieldIsEmergencyAvailable, true),
	}
	p.Sort = []proximity.SortKey{
		{Field: record.FieldIs24Hours, Type: proximity.SortBool, Desc: true},
		{Field: record.FieldRating, Type: proximity.SortNumber, Desc: true},
		idTieBreak,
	}
	p.filters = emergencyVetFilters()
	return p
}

// Radius resolves a requested radius against the profile: nil means the
// default, anything outside [MinRadiusKm, MaxRadiusKm] is an input error.
func (p Profile) Radius(requested *float64) (float64, error) {
	if requested == nil {
		return p.DefaultRadiusKm, nil
	}

	radius := *requested
	if math.IsNaN(radius) || radius < p.MinRadiusKm || radius > p.MaxRadiusKm {
		return 0, proximity.NewInputError("radius", "must be between %v and %v km", p.MinRadiusKm, p.MaxRadiusKm)
	}
	return radius, nil
}

// conditions merges the profile's conditions with the request filters
func (p Profile) conditions(filters []proximity.Condition) []proximity.Condition {
	requested := make(map[string]bool, len(filters))
	for _, f := range filters {
		requested[f.Field] = true
	}

	merged := make([]proximity.Condition, 0, len(p.Defaults)+len(p.Required)+len(filters))
	for _, d := range p.Defaults {
		if !requested[d.Field] {
			merged = append(merged, d)
		}
	}
	merged = append(merged, p.Required...)
	merged = append(merged, filters...)

	return merged
}
