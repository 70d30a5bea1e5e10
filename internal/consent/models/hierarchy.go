package models

import "fmt"

// Service is the smallest consent-gated unit. Required services are always
// recorded as consented.
type Service struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Purpose groups services under one consent context.
type Purpose struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Services    []Service `json:"services" yaml:"services"`
}

// Hierarchy is the ordered set of purposes. Decisions are keyed by service id
// alone, so service ids are unique across the whole hierarchy.
//
// A Hierarchy is read-only once the resolver has produced it; use Clone before
// handing it to code that may modify it.
type Hierarchy struct {
	Purposes []Purpose `json:"purposes"`
}

// Services returns every service in declaration order.
func (h Hierarchy) Services() []Service {
	var services []Service
	for _, p := range h.Purposes {
		services = append(services, p.Services...)
	}
	return services
}

// Lookup finds a service by id.
func (h Hierarchy) Lookup(serviceID string) (Service, bool) {
	for _, p := range h.Purposes {
		for _, svc := range p.Services {
			if svc.ID == serviceID {
				return svc, true
			}
		}
	}
	return Service{}, false
}

// RequiredIDs lists the ids of services that cannot be declined.
func (h Hierarchy) RequiredIDs() []string {
	var ids []string
	for _, svc := range h.Services() {
		if svc.Required {
			ids = append(ids, svc.ID)
		}
	}
	return ids
}

// Clone returns a deep copy that shares no slices with h.
func (h Hierarchy) Clone() Hierarchy {
	if h.Purposes == nil {
		return Hierarchy{}
	}
	purposes := make([]Purpose, len(h.Purposes))
	for i, p := range h.Purposes {
		purposes[i] = p
		if p.Services != nil {
			purposes[i].Services = append([]Service(nil), p.Services...)
		}
	}
	return Hierarchy{Purposes: purposes}
}

type validateOptions struct {
	allowEmptyPurposes bool
}

// ValidateOption adjusts hierarchy validation policy.
type ValidateOption func(*validateOptions)

// AllowEmptyPurposes accepts purposes with zero services.
func AllowEmptyPurposes() ValidateOption {
	return func(o *validateOptions) {
		o.allowEmptyPurposes = true
	}
}

// ValidateHierarchy checks the structural invariants of h and returns it
// unchanged when they hold.
//
// Errors: ErrMissingID, ErrDuplicatePurposeID, ErrDuplicateServiceID and, unless
// AllowEmptyPurposes is given, ErrEmptyPurpose. Each is wrapped with the id
// that triggered it.
func ValidateHierarchy(h Hierarchy, opts ...ValidateOption) (Hierarchy, error) {
	var o validateOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	purposeIDs := make(map[string]struct{}, len(h.Purposes))
	serviceIDs := make(map[string]string)
	for i, p := range h.Purposes {
		if p.ID == "" {
			return Hierarchy{}, fmt.Errorf("purpose at index %d: %w", i, ErrMissingID)
		}
		if _, dup := purposeIDs[p.ID]; dup {
			return Hierarchy{}, fmt.Errorf("purpose %q: %w", p.ID, ErrDuplicatePurposeID)
		}
		purposeIDs[p.ID] = struct{}{}

		if len(p.Services) == 0 && !o.allowEmptyPurposes {
			return Hierarchy{}, fmt.Errorf("purpose %q: %w", p.ID, ErrEmptyPurpose)
		}
		for j, svc := range p.Services {
			if svc.ID == "" {
				return Hierarchy{}, fmt.Errorf("purpose %q service at index %d: %w", p.ID, j, ErrMissingID)
			}
			if owner, dup := serviceIDs[svc.ID]; dup {
				return Hierarchy{}, fmt.Errorf("service %q in purposes %q and %q: %w", svc.ID, owner, p.ID, ErrDuplicateServiceID)
			}
			serviceIDs[svc.ID] = p.ID
		}
	}
	return h, nil
}
