package denied

import "fmt"

// CheckRequest asks whether a subject may perform an action on a
// resource. All three entities must be present and valid before the
// request is sent; build a new request for a different check rather than
// mutating one in flight.
type CheckRequest struct {
	Subject  Subject        `json:"subject"`
	Resource Resource       `json:"resource"`
	Action   Action         `json:"action"`
	Context  map[string]any `json:"context,omitempty"`
}

// NewCheckRequest coerces the caller-supplied subject, action, and
// resource (each a typed value, a map, or a string; see CoerceSubject)
// into a validated CheckRequest.
func NewCheckRequest(subject, action, resource any, context map[string]any) (*CheckRequest, error) {
	sub, err := CoerceSubject(subject)
	if err != nil {
		return nil, err
	}
	act, err := CoerceAction(action)
	if err != nil {
		return nil, err
	}
	res, err := CoerceResource(resource)
	if err != nil {
		return nil, err
	}
	req := &CheckRequest{Subject: sub, Resource: res, Action: act, Context: context}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks that all three entities are present and individually
// valid.
func (r *CheckRequest) Validate() error {
	if r.Subject.Type == "" || r.Subject.ID == "" {
		return ErrMissingSubject
	}
	if r.Resource.Type == "" || r.Resource.ID == "" {
		return ErrMissingResource
	}
	if r.Action.Name == "" {
		return ErrMissingAction
	}
	return nil
}

// CheckResponseContext carries optional explanation data for a decision.
type CheckResponseContext struct {
	Reason string   `json:"reason,omitempty"`
	Rules  []string `json:"rules,omitempty"`
}

// CheckResponse is the decision returned by the authorization service.
// It is constructed solely by deserializing the service response.
type CheckResponse struct {
	Decision bool                  `json:"decision"`
	Context  *CheckResponseContext `json:"context,omitempty"`
}

// Reason returns the decision reason, or "" when the service supplied
// none.
func (r *CheckResponse) Reason() string {
	if r.Context == nil {
		return ""
	}
	return r.Context.Reason
}

// EntityType distinguishes the two sides of a legacy entity check.
type EntityType string

const (
	EntityPrincipal EntityType = "principal"
	EntityResource  EntityType = "resource"
)

// EntityCheck is the legacy URI/attributes request shape from the
// previous API generation. It is accepted purely as an input-coercion
// format; the canonical shape is Subject/Resource/Action.
type EntityCheck struct {
	URI        string         `json:"uri,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Type       EntityType     `json:"type"`
}

// Validate requires at least one of URI / non-empty Attributes.
func (e *EntityCheck) Validate() error {
	if e.URI == "" && len(e.Attributes) == 0 {
		return fmt.Errorf("%w: entity check requires a uri or attributes", ErrInvalidEntityFormat)
	}
	return nil
}

// SubjectFromEntityCheck converts a legacy principal check into a
// canonical Subject. The URI is split as "type:id"; attributes become
// properties.
func SubjectFromEntityCheck(e EntityCheck) (Subject, error) {
	if err := e.Validate(); err != nil {
		return Subject{}, err
	}
	entityType, id, err := legacyEntityURI(e, string(EntityPrincipal))
	if err != nil {
		return Subject{}, err
	}
	return NewSubject(entityType, id, e.Attributes), nil
}

// ResourceFromEntityCheck converts a legacy resource check into a
// canonical Resource.
func ResourceFromEntityCheck(e EntityCheck) (Resource, error) {
	if err := e.Validate(); err != nil {
		return Resource{}, err
	}
	entityType, id, err := legacyEntityURI(e, string(EntityResource))
	if err != nil {
		return Resource{}, err
	}
	return NewResource(entityType, id, e.Attributes), nil
}

// legacyEntityURI resolves the type/id pair for a legacy check. An
// attributes-only check keeps the entity kind as its type with an empty
// id replaced by "unknown" so the canonical invariant (non-empty type
// and id) holds.
func legacyEntityURI(e EntityCheck, fallbackType string) (string, string, error) {
	if e.URI == "" {
		return fallbackType, "unknown", nil
	}
	return splitEntityString(e.URI)
}
