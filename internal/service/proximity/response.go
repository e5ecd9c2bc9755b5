// internal/service/proximity/response.go

package proximity

import (
	"context"

	"safetails/internal/domain/proximity"
)

// Envelope is the response shape shared by every transport
type Envelope struct {
	Success    bool                  `json:"success"`
	Data       any                   `json:"data,omitempty"`
	Pagination *proximity.Pagination `json:"pagination,omitempty"`
	Message    string                `json:"message,omitempty"`
}

// NewEnvelope wraps a successful result
func NewEnvelope[T any](res *proximity.Result[T]) Envelope {
	p := res.Pagination
	return Envelope{
		Success:    true,
		Data:       res.Data,
		Pagination: &p,
	}
}

// ErrorEnvelope describes a failed query. Client errors carry their message;
// store failures are reported generically.
func ErrorEnvelope(profile string, err error) Envelope {
	message := "failed to fetch " + profile
	if proximity.IsInputError(err) {
		message = err.Error()
	}
	return Envelope{Success: false, Message: message}
}

// Querier runs queries for one profile without exposing the record type
type Querier interface {
	Profile() Profile
	Query(ctx context.Context, req Request) (Envelope, error)
}

// Query runs FindNear and wraps the outcome in an envelope
func (f *Finder[T]) Query(ctx context.Context, req Request) (Envelope, error) {
	res, err := f.FindNear(ctx, req)
	if err != nil {
		return ErrorEnvelope(f.profile.Name, err), err
	}
	return NewEnvelope(res), nil
}

// Queriers indexes the service's finders by profile name
func (s *Service) Queriers() map[string]Querier {
	return map[string]Querier{
		ProfileAlerts:        s.Alerts,
		ProfilePosts:         s.Posts,
		ProfileVets:          s.Vets,
		ProfileVetsEmergency: s.VetsEmergency,
	}
}
