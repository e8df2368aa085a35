// Code generated by ent, DO NOT EDIT.

package message

import (
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/kumiai-dev/kumiai/ent/predicate"
)

// ID filters vertices based on their ID field.
func ID(id string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldID, id))
}

// IDEQ applies the EQ predicate on the ID field.
func IDEQ(id string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldID, id))
}

// IDNEQ applies the NEQ predicate on the ID field.
func IDNEQ(id string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldID, id))
}

// IDIn applies the In predicate on the ID field.
func IDIn(ids ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldID, ids...))
}

// IDNotIn applies the NotIn predicate on the ID field.
func IDNotIn(ids ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldID, ids...))
}

// IDGT applies the GT predicate on the ID field.
func IDGT(id string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldID, id))
}

// IDGTE applies the GTE predicate on the ID field.
func IDGTE(id string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldID, id))
}

// IDLT applies the LT predicate on the ID field.
func IDLT(id string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldID, id))
}

// IDLTE applies the LTE predicate on the ID field.
func IDLTE(id string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldID, id))
}

// IDEqualFold applies the EqualFold predicate on the ID field.
func IDEqualFold(id string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldID, id))
}

// IDContainsFold applies the ContainsFold predicate on the ID field.
func IDContainsFold(id string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldID, id))
}

// SessionID applies equality check predicate on the "session_id" field. It's identical to SessionIDEQ.
func SessionID(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldSessionID, v))
}

// Content applies equality check predicate on the "content" field. It's identical to ContentEQ.
func Content(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldContent, v))
}

// ToolUseID applies equality check predicate on the "tool_use_id" field. It's identical to ToolUseIDEQ.
func ToolUseID(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldToolUseID, v))
}

// Sequence applies equality check predicate on the "sequence" field. It's identical to SequenceEQ.
func Sequence(v int) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldSequence, v))
}

// AgentID applies equality check predicate on the "agent_id" field. It's identical to AgentIDEQ.
func AgentID(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldAgentID, v))
}

// AgentName applies equality check predicate on the "agent_name" field. It's identical to AgentNameEQ.
func AgentName(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldAgentName, v))
}

// FromInstanceID applies equality check predicate on the "from_instance_id" field. It's identical to FromInstanceIDEQ.
func FromInstanceID(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldFromInstanceID, v))
}

// ResponseID applies equality check predicate on the "response_id" field. It's identical to ResponseIDEQ.
func ResponseID(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldResponseID, v))
}

// CreatedAt applies equality check predicate on the "created_at" field. It's identical to CreatedAtEQ.
func CreatedAt(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldCreatedAt, v))
}

// SessionIDEQ applies the EQ predicate on the "session_id" field.
func SessionIDEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldSessionID, v))
}

// SessionIDNEQ applies the NEQ predicate on the "session_id" field.
func SessionIDNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldSessionID, v))
}

// SessionIDIn applies the In predicate on the "session_id" field.
func SessionIDIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldSessionID, vs...))
}

// SessionIDNotIn applies the NotIn predicate on the "session_id" field.
func SessionIDNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldSessionID, vs...))
}

// SessionIDGT applies the GT predicate on the "session_id" field.
func SessionIDGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldSessionID, v))
}

// SessionIDGTE applies the GTE predicate on the "session_id" field.
func SessionIDGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldSessionID, v))
}

// SessionIDLT applies the LT predicate on the "session_id" field.
func SessionIDLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldSessionID, v))
}

// SessionIDLTE applies the LTE predicate on the "session_id" field.
func SessionIDLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldSessionID, v))
}

// SessionIDContains applies the Contains predicate on the "session_id" field.
func SessionIDContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldSessionID, v))
}

// SessionIDHasPrefix applies the HasPrefix predicate on the "session_id" field.
func SessionIDHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldSessionID, v))
}

// SessionIDHasSuffix applies the HasSuffix predicate on the "session_id" field.
func SessionIDHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldSessionID, v))
}

// SessionIDEqualFold applies the EqualFold predicate on the "session_id" field.
func SessionIDEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldSessionID, v))
}

// SessionIDContainsFold applies the ContainsFold predicate on the "session_id" field.
func SessionIDContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldSessionID, v))
}

// RoleEQ applies the EQ predicate on the "role" field.
func RoleEQ(v Role) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldRole, v))
}

// RoleNEQ applies the NEQ predicate on the "role" field.
func RoleNEQ(v Role) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldRole, v))
}

// RoleIn applies the In predicate on the "role" field.
func RoleIn(vs ...Role) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldRole, vs...))
}

// RoleNotIn applies the NotIn predicate on the "role" field.
func RoleNotIn(vs ...Role) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldRole, vs...))
}

// ContentEQ applies the EQ predicate on the "content" field.
func ContentEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldContent, v))
}

// ContentNEQ applies the NEQ predicate on the "content" field.
func ContentNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldContent, v))
}

// ContentIn applies the In predicate on the "content" field.
func ContentIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldContent, vs...))
}

// ContentNotIn applies the NotIn predicate on the "content" field.
func ContentNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldContent, vs...))
}

// ContentGT applies the GT predicate on the "content" field.
func ContentGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldContent, v))
}

// ContentGTE applies the GTE predicate on the "content" field.
func ContentGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldContent, v))
}

// ContentLT applies the LT predicate on the "content" field.
func ContentLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldContent, v))
}

// ContentLTE applies the LTE predicate on the "content" field.
func ContentLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldContent, v))
}

// ContentContains applies the Contains predicate on the "content" field.
func ContentContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldContent, v))
}

// ContentHasPrefix applies the HasPrefix predicate on the "content" field.
func ContentHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldContent, v))
}

// ContentHasSuffix applies the HasSuffix predicate on the "content" field.
func ContentHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldContent, v))
}

// ContentEqualFold applies the EqualFold predicate on the "content" field.
func ContentEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldContent, v))
}

// ContentContainsFold applies the ContainsFold predicate on the "content" field.
func ContentContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldContent, v))
}

// ToolUseIDEQ applies the EQ predicate on the "tool_use_id" field.
func ToolUseIDEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldToolUseID, v))
}

// ToolUseIDNEQ applies the NEQ predicate on the "tool_use_id" field.
func ToolUseIDNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldToolUseID, v))
}

// ToolUseIDIn applies the In predicate on the "tool_use_id" field.
func ToolUseIDIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldToolUseID, vs...))
}

// ToolUseIDNotIn applies the NotIn predicate on the "tool_use_id" field.
func ToolUseIDNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldToolUseID, vs...))
}

// ToolUseIDGT applies the GT predicate on the "tool_use_id" field.
func ToolUseIDGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldToolUseID, v))
}

// ToolUseIDGTE applies the GTE predicate on the "tool_use_id" field.
func ToolUseIDGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldToolUseID, v))
}

// ToolUseIDLT applies the LT predicate on the "tool_use_id" field.
func ToolUseIDLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldToolUseID, v))
}

// ToolUseIDLTE applies the LTE predicate on the "tool_use_id" field.
func ToolUseIDLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldToolUseID, v))
}

// ToolUseIDContains applies the Contains predicate on the "tool_use_id" field.
func ToolUseIDContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldToolUseID, v))
}

// ToolUseIDHasPrefix applies the HasPrefix predicate on the "tool_use_id" field.
func ToolUseIDHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldToolUseID, v))
}

// ToolUseIDHasSuffix applies the HasSuffix predicate on the "tool_use_id" field.
func ToolUseIDHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldToolUseID, v))
}

// ToolUseIDIsNil applies the IsNil predicate on the "tool_use_id" field.
func ToolUseIDIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldToolUseID))
}

// ToolUseIDNotNil applies the NotNil predicate on the "tool_use_id" field.
func ToolUseIDNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldToolUseID))
}

// ToolUseIDEqualFold applies the EqualFold predicate on the "tool_use_id" field.
func ToolUseIDEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldToolUseID, v))
}

// ToolUseIDContainsFold applies the ContainsFold predicate on the "tool_use_id" field.
func ToolUseIDContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldToolUseID, v))
}

// SequenceEQ applies the EQ predicate on the "sequence" field.
func SequenceEQ(v int) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldSequence, v))
}

// SequenceNEQ applies the NEQ predicate on the "sequence" field.
func SequenceNEQ(v int) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldSequence, v))
}

// SequenceIn applies the In predicate on the "sequence" field.
func SequenceIn(vs ...int) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldSequence, vs...))
}

// SequenceNotIn applies the NotIn predicate on the "sequence" field.
func SequenceNotIn(vs ...int) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldSequence, vs...))
}

// SequenceGT applies the GT predicate on the "sequence" field.
func SequenceGT(v int) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldSequence, v))
}

// SequenceGTE applies the GTE predicate on the "sequence" field.
func SequenceGTE(v int) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldSequence, v))
}

// SequenceLT applies the LT predicate on the "sequence" field.
func SequenceLT(v int) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldSequence, v))
}

// SequenceLTE applies the LTE predicate on the "sequence" field.
func SequenceLTE(v int) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldSequence, v))
}

// MetadataIsNil applies the IsNil predicate on the "metadata" field.
func MetadataIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldMetadata))
}

// MetadataNotNil applies the NotNil predicate on the "metadata" field.
func MetadataNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldMetadata))
}

// AgentIDEQ applies the EQ predicate on the "agent_id" field.
func AgentIDEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldAgentID, v))
}

// AgentIDNEQ applies the NEQ predicate on the "agent_id" field.
func AgentIDNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldAgentID, v))
}

// AgentIDIn applies the In predicate on the "agent_id" field.
func AgentIDIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldAgentID, vs...))
}

// AgentIDNotIn applies the NotIn predicate on the "agent_id" field.
func AgentIDNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldAgentID, vs...))
}

// AgentIDGT applies the GT predicate on the "agent_id" field.
func AgentIDGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldAgentID, v))
}

// AgentIDGTE applies the GTE predicate on the "agent_id" field.
func AgentIDGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldAgentID, v))
}

// AgentIDLT applies the LT predicate on the "agent_id" field.
func AgentIDLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldAgentID, v))
}

// AgentIDLTE applies the LTE predicate on the "agent_id" field.
func AgentIDLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldAgentID, v))
}

// AgentIDContains applies the Contains predicate on the "agent_id" field.
func AgentIDContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldAgentID, v))
}

// AgentIDHasPrefix applies the HasPrefix predicate on the "agent_id" field.
func AgentIDHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldAgentID, v))
}

// AgentIDHasSuffix applies the HasSuffix predicate on the "agent_id" field.
func AgentIDHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldAgentID, v))
}

// AgentIDIsNil applies the IsNil predicate on the "agent_id" field.
func AgentIDIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldAgentID))
}

// AgentIDNotNil applies the NotNil predicate on the "agent_id" field.
func AgentIDNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldAgentID))
}

// AgentIDEqualFold applies the EqualFold predicate on the "agent_id" field.
func AgentIDEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldAgentID, v))
}

// AgentIDContainsFold applies the ContainsFold predicate on the "agent_id" field.
func AgentIDContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldAgentID, v))
}

// AgentNameEQ applies the EQ predicate on the "agent_name" field.
func AgentNameEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldAgentName, v))
}

// AgentNameNEQ applies the NEQ predicate on the "agent_name" field.
func AgentNameNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldAgentName, v))
}

// AgentNameIn applies the In predicate on the "agent_name" field.
func AgentNameIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldAgentName, vs...))
}

// AgentNameNotIn applies the NotIn predicate on the "agent_name" field.
func AgentNameNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldAgentName, vs...))
}

// AgentNameGT applies the GT predicate on the "agent_name" field.
func AgentNameGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldAgentName, v))
}

// AgentNameGTE applies the GTE predicate on the "agent_name" field.
func AgentNameGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldAgentName, v))
}

// AgentNameLT applies the LT predicate on the "agent_name" field.
func AgentNameLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldAgentName, v))
}

// AgentNameLTE applies the LTE predicate on the "agent_name" field.
func AgentNameLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldAgentName, v))
}

// AgentNameContains applies the Contains predicate on the "agent_name" field.
func AgentNameContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldAgentName, v))
}

// AgentNameHasPrefix applies the HasPrefix predicate on the "agent_name" field.
func AgentNameHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldAgentName, v))
}

// AgentNameHasSuffix applies the HasSuffix predicate on the "agent_name" field.
func AgentNameHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldAgentName, v))
}

// AgentNameIsNil applies the IsNil predicate on the "agent_name" field.
func AgentNameIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldAgentName))
}

// AgentNameNotNil applies the NotNil predicate on the "agent_name" field.
func AgentNameNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldAgentName))
}

// AgentNameEqualFold applies the EqualFold predicate on the "agent_name" field.
func AgentNameEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldAgentName, v))
}

// AgentNameContainsFold applies the ContainsFold predicate on the "agent_name" field.
func AgentNameContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldAgentName, v))
}

// FromInstanceIDEQ applies the EQ predicate on the "from_instance_id" field.
func FromInstanceIDEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldFromInstanceID, v))
}

// FromInstanceIDNEQ applies the NEQ predicate on the "from_instance_id" field.
func FromInstanceIDNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldFromInstanceID, v))
}

// FromInstanceIDIn applies the In predicate on the "from_instance_id" field.
func FromInstanceIDIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldFromInstanceID, vs...))
}

// FromInstanceIDNotIn applies the NotIn predicate on the "from_instance_id" field.
func FromInstanceIDNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldFromInstanceID, vs...))
}

// FromInstanceIDGT applies the GT predicate on the "from_instance_id" field.
func FromInstanceIDGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldFromInstanceID, v))
}

// FromInstanceIDGTE applies the GTE predicate on the "from_instance_id" field.
func FromInstanceIDGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldFromInstanceID, v))
}

// FromInstanceIDLT applies the LT predicate on the "from_instance_id" field.
func FromInstanceIDLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldFromInstanceID, v))
}

// FromInstanceIDLTE applies the LTE predicate on the "from_instance_id" field.
func FromInstanceIDLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldFromInstanceID, v))
}

// FromInstanceIDContains applies the Contains predicate on the "from_instance_id" field.
func FromInstanceIDContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldFromInstanceID, v))
}

// FromInstanceIDHasPrefix applies the HasPrefix predicate on the "from_instance_id" field.
func FromInstanceIDHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldFromInstanceID, v))
}

// FromInstanceIDHasSuffix applies the HasSuffix predicate on the "from_instance_id" field.
func FromInstanceIDHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldFromInstanceID, v))
}

// FromInstanceIDIsNil applies the IsNil predicate on the "from_instance_id" field.
func FromInstanceIDIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldFromInstanceID))
}

// FromInstanceIDNotNil applies the NotNil predicate on the "from_instance_id" field.
func FromInstanceIDNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldFromInstanceID))
}

// FromInstanceIDEqualFold applies the EqualFold predicate on the "from_instance_id" field.
func FromInstanceIDEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldFromInstanceID, v))
}

// FromInstanceIDContainsFold applies the ContainsFold predicate on the "from_instance_id" field.
func FromInstanceIDContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldFromInstanceID, v))
}

// ResponseIDEQ applies the EQ predicate on the "response_id" field.
func ResponseIDEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldResponseID, v))
}

// ResponseIDNEQ applies the NEQ predicate on the "response_id" field.
func ResponseIDNEQ(v string) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldResponseID, v))
}

// ResponseIDIn applies the In predicate on the "response_id" field.
func ResponseIDIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldResponseID, vs...))
}

// ResponseIDNotIn applies the NotIn predicate on the "response_id" field.
func ResponseIDNotIn(vs ...string) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldResponseID, vs...))
}

// ResponseIDGT applies the GT predicate on the "response_id" field.
func ResponseIDGT(v string) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldResponseID, v))
}

// ResponseIDGTE applies the GTE predicate on the "response_id" field.
func ResponseIDGTE(v string) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldResponseID, v))
}

// ResponseIDLT applies the LT predicate on the "response_id" field.
func ResponseIDLT(v string) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldResponseID, v))
}

// ResponseIDLTE applies the LTE predicate on the "response_id" field.
func ResponseIDLTE(v string) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldResponseID, v))
}

// ResponseIDContains applies the Contains predicate on the "response_id" field.
func ResponseIDContains(v string) predicate.Message {
	return predicate.Message(sql.FieldContains(FieldResponseID, v))
}

// ResponseIDHasPrefix applies the HasPrefix predicate on the "response_id" field.
func ResponseIDHasPrefix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasPrefix(FieldResponseID, v))
}

// ResponseIDHasSuffix applies the HasSuffix predicate on the "response_id" field.
func ResponseIDHasSuffix(v string) predicate.Message {
	return predicate.Message(sql.FieldHasSuffix(FieldResponseID, v))
}

// ResponseIDIsNil applies the IsNil predicate on the "response_id" field.
func ResponseIDIsNil() predicate.Message {
	return predicate.Message(sql.FieldIsNull(FieldResponseID))
}

// ResponseIDNotNil applies the NotNil predicate on the "response_id" field.
func ResponseIDNotNil() predicate.Message {
	return predicate.Message(sql.FieldNotNull(FieldResponseID))
}

// ResponseIDEqualFold applies the EqualFold predicate on the "response_id" field.
func ResponseIDEqualFold(v string) predicate.Message {
	return predicate.Message(sql.FieldEqualFold(FieldResponseID, v))
}

// ResponseIDContainsFold applies the ContainsFold predicate on the "response_id" field.
func ResponseIDContainsFold(v string) predicate.Message {
	return predicate.Message(sql.FieldContainsFold(FieldResponseID, v))
}

// CreatedAtEQ applies the EQ predicate on the "created_at" field.
func CreatedAtEQ(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldEQ(FieldCreatedAt, v))
}

// CreatedAtNEQ applies the NEQ predicate on the "created_at" field.
func CreatedAtNEQ(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldNEQ(FieldCreatedAt, v))
}

// CreatedAtIn applies the In predicate on the "created_at" field.
func CreatedAtIn(vs ...time.Time) predicate.Message {
	return predicate.Message(sql.FieldIn(FieldCreatedAt, vs...))
}

// CreatedAtNotIn applies the NotIn predicate on the "created_at" field.
func CreatedAtNotIn(vs ...time.Time) predicate.Message {
	return predicate.Message(sql.FieldNotIn(FieldCreatedAt, vs...))
}

// CreatedAtGT applies the GT predicate on the "created_at" field.
func CreatedAtGT(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldGT(FieldCreatedAt, v))
}

// CreatedAtGTE applies the GTE predicate on the "created_at" field.
func CreatedAtGTE(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldGTE(FieldCreatedAt, v))
}

// CreatedAtLT applies the LT predicate on the "created_at" field.
func CreatedAtLT(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldLT(FieldCreatedAt, v))
}

// CreatedAtLTE applies the LTE predicate on the "created_at" field.
func CreatedAtLTE(v time.Time) predicate.Message {
	return predicate.Message(sql.FieldLTE(FieldCreatedAt, v))
}

// HasSession applies the HasEdge predicate on the "session" edge.
func HasSession() predicate.Message {
	return predicate.Message(func(s *sql.Selector) {
		step := sqlgraph.NewStep(
			sqlgraph.From(Table, FieldID),
			sqlgraph.Edge(sqlgraph.M2O, true, SessionTable, SessionColumn),
		)
		sqlgraph.HasNeighbors(s, step)
	})
}

// HasSessionWith applies the HasEdge predicate on the "session" edge with a given conditions (other predicates).
func HasSessionWith(preds ...predicate.Session) predicate.Message {
	return predicate.Message(func(s *sql.Selector) {
		step := newSessionStep()
		sqlgraph.HasNeighborsWith(s, step, func(s *sql.Selector) {
			for _, p := range preds {
				p(s)
			}
		})
	})
}

// And groups predicates with the AND operator between them.
func And(predicates ...predicate.Message) predicate.Message {
	return predicate.Message(sql.AndPredicates(predicates...))
}

// Or groups predicates with the OR operator between them.
func Or(predicates ...predicate.Message) predicate.Message {
	return predicate.Message(sql.OrPredicates(predicates...))
}

// Not applies the not operator on the given predicate.
func Not(p predicate.Message) predicate.Message {
	return predicate.Message(sql.NotPredicates(p))
}
