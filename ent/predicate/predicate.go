// Code generated by ent, DO NOT EDIT.

package predicate

import (
	"entgo.io/ent/dialect/sql"
)

// ActivityLog is the predicate function for activitylog builders.
type ActivityLog func(*sql.Selector)

// Message is the predicate function for message builders.
type Message func(*sql.Selector)

// Project is the predicate function for project builders.
type Project func(*sql.Selector)

// Session is the predicate function for session builders.
type Session func(*sql.Selector)
