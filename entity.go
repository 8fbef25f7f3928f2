package denied

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEntityFormat is returned when a string entity lacks a
	// "type://id" (or legacy "type:id") delimiter.
	ErrInvalidEntityFormat = errors.New("invalid entity format")

	ErrMissingSubject  = errors.New("check request missing subject")
	ErrMissingResource = errors.New("check request missing resource")
	ErrMissingAction   = errors.New("check request missing action")
)

// Subject is the acting principal in an authorization check.
type Subject struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// Resource is the object being acted on in an authorization check.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// Action is the operation being performed in an authorization check.
type Action struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NewSubject builds a Subject with a non-nil properties map.
func NewSubject(entityType, id string, properties map[string]any) Subject {
	if properties == nil {
		properties = map[string]any{}
	}
	return Subject{Type: entityType, ID: id, Properties: properties}
}

// NewResource builds a Resource with a non-nil properties map.
func NewResource(entityType, id string, properties map[string]any) Resource {
	if properties == nil {
		properties = map[string]any{}
	}
	return Resource{Type: entityType, ID: id, Properties: properties}
}

// NewAction builds an Action by name.
func NewAction(name string) Action {
	return Action{Name: name}
}

// splitEntityString parses "type://id" (or legacy "type:id") into its parts.
// The split happens at the FIRST delimiter, so ids containing "/" or ":"
// survive intact.
func splitEntityString(s string) (entityType, id string, err error) {
	if i := strings.Index(s, "://"); i >= 0 {
		entityType, id = s[:i], s[i+3:]
	} else if i := strings.Index(s, ":"); i >= 0 {
		entityType, id = s[:i], s[i+1:]
	} else {
		return "", "", fmt.Errorf("%w: %q (want \"type://id\")", ErrInvalidEntityFormat, s)
	}
	if entityType == "" || id == "" {
		return "", "", fmt.Errorf("%w: %q (empty type or id)", ErrInvalidEntityFormat, s)
	}
	return entityType, id, nil
}

// CoerceSubject converts caller input into a Subject. Accepted inputs:
// a Subject (or *Subject), a map with "type"/"id"/optional "properties"
// keys, or a "type://id" string. The coercion is resolved once here so the
// rest of the pipeline only ever sees the canonical type.
func CoerceSubject(v any) (Subject, error) {
	switch s := v.(type) {
	case Subject:
		return NewSubject(s.Type, s.ID, s.Properties), nil
	case *Subject:
		if s == nil {
			return Subject{}, ErrMissingSubject
		}
		return NewSubject(s.Type, s.ID, s.Properties), nil
	case map[string]any:
		entityType, id, properties, err := entityFromMap(s)
		if err != nil {
			return Subject{}, err
		}
		return NewSubject(entityType, id, properties), nil
	case string:
		entityType, id, err := splitEntityString(s)
		if err != nil {
			return Subject{}, err
		}
		return NewSubject(entityType, id, nil), nil
	default:
		return Subject{}, fmt.Errorf("%w: unsupported subject type %T", ErrInvalidEntityFormat, v)
	}
}

// CoerceResource converts caller input into a Resource. Accepted inputs
// mirror CoerceSubject.
func CoerceResource(v any) (Resource, error) {
	switch r := v.(type) {
	case Resource:
		return NewResource(r.Type, r.ID, r.Properties), nil
	case *Resource:
		if r == nil {
			return Resource{}, ErrMissingResource
		}
		return NewResource(r.Type, r.ID, r.Properties), nil
	case map[string]any:
		entityType, id, properties, err := entityFromMap(r)
		if err != nil {
			return Resource{}, err
		}
		return NewResource(entityType, id, properties), nil
	case string:
		entityType, id, err := splitEntityString(r)
		if err != nil {
			return Resource{}, err
		}
		return NewResource(entityType, id, nil), nil
	default:
		return Resource{}, fmt.Errorf("%w: unsupported resource type %T", ErrInvalidEntityFormat, v)
	}
}

// CoerceAction converts caller input into an Action: an Action (or
// *Action), a map with a "name" key and optional "properties", or a bare
// string taken directly as the action name.
func CoerceAction(v any) (Action, error) {
	switch a := v.(type) {
	case Action:
		return a, nil
	case *Action:
		if a == nil {
			return Action{}, ErrMissingAction
		}
		return *a, nil
	case map[string]any:
		name, _ := a["name"].(string)
		if name == "" {
			return Action{}, fmt.Errorf("%w: action map missing \"name\"", ErrInvalidEntityFormat)
		}
		properties, _ := a["properties"].(map[string]any)
		return Action{Name: name, Properties: properties}, nil
	case string:
		if a == "" {
			return Action{}, ErrMissingAction
		}
		return Action{Name: a}, nil
	default:
		return Action{}, fmt.Errorf("%w: unsupported action type %T", ErrInvalidEntityFormat, v)
	}
}

func entityFromMap(m map[string]any) (entityType, id string, properties map[string]any, err error) {
	entityType, _ = m["type"].(string)
	id, _ = m["id"].(string)
	if entityType == "" || id == "" {
		return "", "", nil, fmt.Errorf("%w: entity map requires \"type\" and \"id\"", ErrInvalidEntityFormat)
	}
	properties, _ = m["properties"].(map[string]any)
	return entityType, id, properties, nil
}
