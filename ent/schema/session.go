package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Session holds the schema definition for the Session entity.
// A session pairs an agent with one LLM subprocess client and a
// message history. Lifecycle transitions are validated in the
// service layer; the schema only constrains the value sets.
type Session struct {
	ent.Schema
}

// Fields of the Session.
func (Session) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("session_id").
			Unique().
			Immutable(),
		field.String("agent_id").
			Optional().
			Comment("Agent definition slug; empty for plain assistants"),
		field.String("project_id").
			Optional().
			Nillable(),
		field.Enum("session_type").
			Values("pm", "specialist", "assistant", "agent_assistant", "skill_assistant").
			Default("assistant"),
		field.Enum("status").
			Values("initializing", "idle", "working", "error", "interrupted", "completed", "cancelled").
			Default("initializing"),
		field.String("external_session_id").
			Optional().
			Nillable().
			Comment("Resume token reported by the LLM subprocess; set after the first init event"),
		field.JSON("context", map[string]interface{}{}).
			Optional().
			Comment("Free-form context; reserved key kanban_stage mirrors status"),
		field.String("error_message").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Soft-delete tombstone; no transitions once set"),
	}
}

// Edges of the Session.
func (Session) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("messages", Message.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Session.
func (Session) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("project_id"),
		index.Fields("session_type"),
		index.Fields("project_id", "session_type", "created_at"),

		// Partial index for soft deletes
		index.Fields("deleted_at").
			Annotations(entsql.IndexWhere("deleted_at IS NOT NULL")),
	}
}
