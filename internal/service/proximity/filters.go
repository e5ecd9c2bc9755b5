// internal/service/proximity/filters.go

package proximity

import (
	"net/url"
	"strconv"
	"strings"

	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

// filterParam maps a request parameter, under any of its names, to a condition
type filterParam struct {
	params []string
	parse  func(values []string) (proximity.Condition, error)
}

// ParseFilters turns request parameters into conditions for the profile.
// Parameters the profile does not know are ignored.
func (p Profile) ParseFilters(params url.Values) ([]proximity.Condition, error) {
	var conditions []proximity.Condition
	for _, f := range p.filters {
		var values []string
		for _, name := range f.params {
			values = append(values, nonEmpty(params[name])...)
		}
		if len(values) == 0 {
			continue
		}
		c, err := f.parse(values)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// enumFilter accepts a single value from a closed set
func enumFilter(param, field string, allowed []string) filterParam {
	return filterParam{
		params: []string{param},
		parse: func(values []string) (proximity.Condition, error) {
			v := values[0]
			for _, a := range allowed {
				if v == a {
					return proximity.Eq(field, v), nil
				}
			}
			return proximity.Condition{}, proximity.NewInputError(param, "must be one of %s", strings.Join(allowed, ", "))
		},
	}
}

// boolFilter accepts true or false
func boolFilter(param, field string) filterParam {
	return filterParam{
		params: []string{param},
		parse: func(values []string) (proximity.Condition, error) {
			b, err := strconv.ParseBool(values[0])
			if err != nil {
				return proximity.Condition{}, proximity.NewInputError(param, "must be true or false")
			}
			return proximity.Eq(field, b), nil
		},
	}
}

// textFilter matches a case-insensitive substring
func textFilter(param, field string) filterParam {
	return filterParam{
		params: []string{param},
		parse: func(values []string) (proximity.Condition, error) {
			return proximity.ContainsFold(field, values[0]), nil
		},
	}
}

// anyOfFilter matches records sharing any listed value. Repeated parameters
// and comma separated lists are both accepted.
func anyOfFilter(field string, params ...string) filterParam {
	return filterParam{
		params: params,
		parse: func(values []string) (proximity.Condition, error) {
			var items []string
			for _, v := range values {
				items = append(items, nonEmpty(strings.Split(v, ","))...)
			}
			return proximity.AnyOf(field, items...), nil
		},
	}
}

func locationFilters() []filterParam {
	return []filterParam{
		textFilter(record.FieldCity, record.FieldCity),
		textFilter(record.FieldState, record.FieldState),
	}
}

func alertFilters() []filterParam {
	types := make([]string, len(record.AlertTypes))
	for i, t := range record.AlertTypes {
		types[i] = string(t)
	}

	return append([]filterParam{
		enumFilter("type", record.FieldAlertType, types),
		enumFilter("urgency", record.FieldUrgency, record.UrgencyOrder),
		enumFilter("status", record.FieldStatus, []string{
			record.AlertStatusActive,
			record.AlertStatusResolved,
			record.AlertStatusExpired,
		}),
	}, locationFilters()...)
}

func postFilters() []filterParam {
	types := make([]string, len(record.PostTypes))
	for i, t := range record.PostTypes {
		types[i] = string(t)
	}

	return append([]filterParam{
		enumFilter("postType", record.FieldPostType, types),
		textFilter("species", record.FieldSpecies),
	}, locationFilters()...)
}

func vetFilters() []filterParam {
	return append([]filterParam{
		anyOfFilter(record.FieldSpecialization, "specialization", "specialization[]"),
		boolFilter("isEmergencyAvailable", record.FieldIsEmergencyAvailable),
		boolFilter("is24Hours", record.FieldIs24Hours),
	}, locationFilters()...)
}

// emergencyVetFilters leaves out isEmergencyAvailable, which the profile
// always requires
func emergencyVetFilters() []filterParam {
	return []filterParam{
		anyOfFilter(record.FieldSpecialization, "specialization", "specialization[]"),
	}
}
