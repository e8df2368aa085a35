package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Message holds the schema definition for the Message entity.
// Messages are ordered by created_at; sequence is written as 0 and
// retained for forward compatibility only.
type Message struct {
	ent.Schema
}

// Fields of the Message.
func (Message) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("message_id").
			Unique().
			Immutable(),
		field.String("session_id"),
		field.Enum("role").
			Values("user", "assistant", "tool_call", "tool_result", "system"),
		field.Text("content"),
		field.String("tool_use_id").
			Optional().
			Nillable(),
		field.Int("sequence").
			Default(0),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.String("agent_id").
			Optional().
			Nillable().
			Comment("Sender attribution for cross-session messages"),
		field.String("agent_name").
			Optional().
			Nillable(),
		field.String("from_instance_id").
			Optional().
			Nillable().
			Comment("Source session when enqueued by another agent"),
		field.String("response_id").
			Optional().
			Nillable().
			Comment("UI grouping token for one assistant turn"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Message.
func (Message) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", Session.Type).
			Ref("messages").
			Field("session_id").
			Unique().
			Required(),
	}
}

// Indexes of the Message.
func (Message) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "created_at"),
		index.Fields("tool_use_id"),
	}
}
