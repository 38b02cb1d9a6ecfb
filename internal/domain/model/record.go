// Package model contains domain models passed between layers.
package model

import "time"

// Record is one custom object instance as stored by the remote CRM.
// Records are never mutated locally; they are displayed or forwarded as-is.
type Record struct {
	ID         string            // identifier assigned by the remote system
	Properties map[string]string // property name -> value
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Archived   bool
}

// Get returns the value of the named property, or "" when it is absent.
func (r Record) Get(name string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[name]
}
