package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for object type validation.
var (
	ErrInvalidObjectType = errors.New("invalid object type")
)

// ObjectType describes the custom object the front end works with: the remote
// type identifier and the ordered list of property names shown in the table
// and accepted by the create form. Listing and creation share the same list.
type ObjectType struct {
	ID         string
	Properties []string
}

// Validate checks that the object type is usable for both list and create.
func (o ObjectType) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: empty type id", ErrInvalidObjectType)
	}
	if len(o.Properties) == 0 {
		return fmt.Errorf("%w: no properties configured", ErrInvalidObjectType)
	}
	seen := make(map[string]struct{}, len(o.Properties))
	for _, p := range o.Properties {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: blank property name", ErrInvalidObjectType)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate property %q", ErrInvalidObjectType, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Values projects submitted values onto exactly the configured property
// names. Names without a submitted value map to "" and names outside the
// configured set are dropped.
func (o ObjectType) Values(submitted map[string]string) map[string]string {
	out := make(map[string]string, len(o.Properties))
	for _, p := range o.Properties {
		out[p] = submitted[p]
	}
	return out
}
