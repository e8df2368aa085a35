// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/schema/field"
	"github.com/kumiai-dev/kumiai/ent/message"
	"github.com/kumiai-dev/kumiai/ent/predicate"
	"github.com/kumiai-dev/kumiai/ent/session"
)

// MessageUpdate is the builder for updating Message entities.
type MessageUpdate struct {
	config
	hooks    []Hook
	mutation *MessageMutation
}

// Where appends a list predicates to the MessageUpdate builder.
func (_u *MessageUpdate) Where(ps ...predicate.Message) *MessageUpdate {
	_u.mutation.Where(ps...)
	return _u
}

// SetSessionID sets the "session_id" field.
func (_u *MessageUpdate) SetSessionID(v string) *MessageUpdate {
	_u.mutation.SetSessionID(v)
	return _u
}

// SetNillableSessionID sets the "session_id" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableSessionID(v *string) *MessageUpdate {
	if v != nil {
		_u.SetSessionID(*v)
	}
	return _u
}

// SetRole sets the "role" field.
func (_u *MessageUpdate) SetRole(v message.Role) *MessageUpdate {
	_u.mutation.SetRole(v)
	return _u
}

// SetNillableRole sets the "role" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableRole(v *message.Role) *MessageUpdate {
	if v != nil {
		_u.SetRole(*v)
	}
	return _u
}

// SetContent sets the "content" field.
func (_u *MessageUpdate) SetContent(v string) *MessageUpdate {
	_u.mutation.SetContent(v)
	return _u
}

// SetNillableContent sets the "content" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableContent(v *string) *MessageUpdate {
	if v != nil {
		_u.SetContent(*v)
	}
	return _u
}

// SetToolUseID sets the "tool_use_id" field.
func (_u *MessageUpdate) SetToolUseID(v string) *MessageUpdate {
	_u.mutation.SetToolUseID(v)
	return _u
}

// SetNillableToolUseID sets the "tool_use_id" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableToolUseID(v *string) *MessageUpdate {
	if v != nil {
		_u.SetToolUseID(*v)
	}
	return _u
}

// ClearToolUseID clears the value of the "tool_use_id" field.
func (_u *MessageUpdate) ClearToolUseID() *MessageUpdate {
	_u.mutation.ClearToolUseID()
	return _u
}

// SetSequence sets the "sequence" field.
func (_u *MessageUpdate) SetSequence(v int) *MessageUpdate {
	_u.mutation.ResetSequence()
	_u.mutation.SetSequence(v)
	return _u
}

// SetNillableSequence sets the "sequence" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableSequence(v *int) *MessageUpdate {
	if v != nil {
		_u.SetSequence(*v)
	}
	return _u
}

// AddSequence adds value to the "sequence" field.
func (_u *MessageUpdate) AddSequence(v int) *MessageUpdate {
	_u.mutation.AddSequence(v)
	return _u
}

// SetMetadata sets the "metadata" field.
func (_u *MessageUpdate) SetMetadata(v map[string]interface{}) *MessageUpdate {
	_u.mutation.SetMetadata(v)
	return _u
}

// ClearMetadata clears the value of the "metadata" field.
func (_u *MessageUpdate) ClearMetadata() *MessageUpdate {
	_u.mutation.ClearMetadata()
	return _u
}

// SetAgentID sets the "agent_id" field.
func (_u *MessageUpdate) SetAgentID(v string) *MessageUpdate {
	_u.mutation.SetAgentID(v)
	return _u
}

// SetNillableAgentID sets the "agent_id" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableAgentID(v *string) *MessageUpdate {
	if v != nil {
		_u.SetAgentID(*v)
	}
	return _u
}

// ClearAgentID clears the value of the "agent_id" field.
func (_u *MessageUpdate) ClearAgentID() *MessageUpdate {
	_u.mutation.ClearAgentID()
	return _u
}

// SetAgentName sets the "agent_name" field.
func (_u *MessageUpdate) SetAgentName(v string) *MessageUpdate {
	_u.mutation.SetAgentName(v)
	return _u
}

// SetNillableAgentName sets the "agent_name" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableAgentName(v *string) *MessageUpdate {
	if v != nil {
		_u.SetAgentName(*v)
	}
	return _u
}

// ClearAgentName clears the value of the "agent_name" field.
func (_u *MessageUpdate) ClearAgentName() *MessageUpdate {
	_u.mutation.ClearAgentName()
	return _u
}

// SetFromInstanceID sets the "from_instance_id" field.
func (_u *MessageUpdate) SetFromInstanceID(v string) *MessageUpdate {
	_u.mutation.SetFromInstanceID(v)
	return _u
}

// SetNillableFromInstanceID sets the "from_instance_id" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableFromInstanceID(v *string) *MessageUpdate {
	if v != nil {
		_u.SetFromInstanceID(*v)
	}
	return _u
}

// ClearFromInstanceID clears the value of the "from_instance_id" field.
func (_u *MessageUpdate) ClearFromInstanceID() *MessageUpdate {
	_u.mutation.ClearFromInstanceID()
	return _u
}

// SetResponseID sets the "response_id" field.
func (_u *MessageUpdate) SetResponseID(v string) *MessageUpdate {
	_u.mutation.SetResponseID(v)
	return _u
}

// SetNillableResponseID sets the "response_id" field if the given value is not nil.
func (_u *MessageUpdate) SetNillableResponseID(v *string) *MessageUpdate {
	if v != nil {
		_u.SetResponseID(*v)
	}
	return _u
}

// ClearResponseID clears the value of the "response_id" field.
func (_u *MessageUpdate) ClearResponseID() *MessageUpdate {
	_u.mutation.ClearResponseID()
	return _u
}

// SetSession sets the "session" edge to the Session entity.
func (_u *MessageUpdate) SetSession(v *Session) *MessageUpdate {
	return _u.SetSessionID(v.ID)
}

// Mutation returns the MessageMutation object of the builder.
func (_u *MessageUpdate) Mutation() *MessageMutation {
	return _u.mutation
}

// ClearSession clears the "session" edge to the Session entity.
func (_u *MessageUpdate) ClearSession() *MessageUpdate {
	_u.mutation.ClearSession()
	return _u
}

// Save executes the query and returns the number of nodes affected by the update operation.
func (_u *MessageUpdate) Save(ctx context.Context) (int, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *MessageUpdate) SaveX(ctx context.Context) int {
	affected, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return affected
}

// Exec executes the query.
func (_u *MessageUpdate) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *MessageUpdate) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *MessageUpdate) check() error {
	if v, ok := _u.mutation.Role(); ok {
		if err := message.RoleValidator(v); err != nil {
			return &ValidationError{Name: "role", err: fmt.Errorf(`ent: validator failed for field "Message.role": %w`, err)}
		}
	}
	if _u.mutation.SessionCleared() && len(_u.mutation.SessionIDs()) > 0 {
		return errors.New(`ent: clearing a required unique edge "Message.session"`)
	}
	return nil
}

func (_u *MessageUpdate) sqlSave(ctx context.Context) (_node int, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(message.Table, message.Columns, sqlgraph.NewFieldSpec(message.FieldID, field.TypeString))
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.Role(); ok {
		_spec.SetField(message.FieldRole, field.TypeEnum, value)
	}
	if value, ok := _u.mutation.Content(); ok {
		_spec.SetField(message.FieldContent, field.TypeString, value)
	}
	if value, ok := _u.mutation.ToolUseID(); ok {
		_spec.SetField(message.FieldToolUseID, field.TypeString, value)
	}
	if _u.mutation.ToolUseIDCleared() {
		_spec.ClearField(message.FieldToolUseID, field.TypeString)
	}
	if value, ok := _u.mutation.Sequence(); ok {
		_spec.SetField(message.FieldSequence, field.TypeInt, value)
	}
	if value, ok := _u.mutation.AddedSequence(); ok {
		_spec.AddField(message.FieldSequence, field.TypeInt, value)
	}
	if value, ok := _u.mutation.Metadata(); ok {
		_spec.SetField(message.FieldMetadata, field.TypeJSON, value)
	}
	if _u.mutation.MetadataCleared() {
		_spec.ClearField(message.FieldMetadata, field.TypeJSON)
	}
	if value, ok := _u.mutation.AgentID(); ok {
		_spec.SetField(message.FieldAgentID, field.TypeString, value)
	}
	if _u.mutation.AgentIDCleared() {
		_spec.ClearField(message.FieldAgentID, field.TypeString)
	}
	if value, ok := _u.mutation.AgentName(); ok {
		_spec.SetField(message.FieldAgentName, field.TypeString, value)
	}
	if _u.mutation.AgentNameCleared() {
		_spec.ClearField(message.FieldAgentName, field.TypeString)
	}
	if value, ok := _u.mutation.FromInstanceID(); ok {
		_spec.SetField(message.FieldFromInstanceID, field.TypeString, value)
	}
	if _u.mutation.FromInstanceIDCleared() {
		_spec.ClearField(message.FieldFromInstanceID, field.TypeString)
	}
	if value, ok := _u.mutation.ResponseID(); ok {
		_spec.SetField(message.FieldResponseID, field.TypeString, value)
	}
	if _u.mutation.ResponseIDCleared() {
		_spec.ClearField(message.FieldResponseID, field.TypeString)
	}
	if _u.mutation.SessionCleared() {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   message.SessionTable,
			Columns: []string{message.SessionColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(session.FieldID, field.TypeString),
			},
		}
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.SessionIDs(); len(nodes) > 0 {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   message.SessionTable,
			Columns: []string{message.SessionColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(session.FieldID, field.TypeString),
			},
		}
		for _, k := range nodes {
			edge.Target.Nodes = append(edge.Target.Nodes, k)
		}
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	if _node, err = sqlgraph.UpdateNodes(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{message.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return 0, err
	}
	_u.mutation.done = true
	return _node, nil
}

// MessageUpdateOne is the builder for updating a single Message entity.
type MessageUpdateOne struct {
	config
	fields   []string
	hooks    []Hook
	mutation *MessageMutation
}

// SetSessionID sets the "session_id" field.
func (_u *MessageUpdateOne) SetSessionID(v string) *MessageUpdateOne {
	_u.mutation.SetSessionID(v)
	return _u
}

// SetNillableSessionID sets the "session_id" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableSessionID(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetSessionID(*v)
	}
	return _u
}

// SetRole sets the "role" field.
func (_u *MessageUpdateOne) SetRole(v message.Role) *MessageUpdateOne {
	_u.mutation.SetRole(v)
	return _u
}

// SetNillableRole sets the "role" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableRole(v *message.Role) *MessageUpdateOne {
	if v != nil {
		_u.SetRole(*v)
	}
	return _u
}

// SetContent sets the "content" field.
func (_u *MessageUpdateOne) SetContent(v string) *MessageUpdateOne {
	_u.mutation.SetContent(v)
	return _u
}

// SetNillableContent sets the "content" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableContent(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetContent(*v)
	}
	return _u
}

// SetToolUseID sets the "tool_use_id" field.
func (_u *MessageUpdateOne) SetToolUseID(v string) *MessageUpdateOne {
	_u.mutation.SetToolUseID(v)
	return _u
}

// SetNillableToolUseID sets the "tool_use_id" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableToolUseID(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetToolUseID(*v)
	}
	return _u
}

// ClearToolUseID clears the value of the "tool_use_id" field.
func (_u *MessageUpdateOne) ClearToolUseID() *MessageUpdateOne {
	_u.mutation.ClearToolUseID()
	return _u
}

// SetSequence sets the "sequence" field.
func (_u *MessageUpdateOne) SetSequence(v int) *MessageUpdateOne {
	_u.mutation.ResetSequence()
	_u.mutation.SetSequence(v)
	return _u
}

// SetNillableSequence sets the "sequence" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableSequence(v *int) *MessageUpdateOne {
	if v != nil {
		_u.SetSequence(*v)
	}
	return _u
}

// AddSequence adds value to the "sequence" field.
func (_u *MessageUpdateOne) AddSequence(v int) *MessageUpdateOne {
	_u.mutation.AddSequence(v)
	return _u
}

// SetMetadata sets the "metadata" field.
func (_u *MessageUpdateOne) SetMetadata(v map[string]interface{}) *MessageUpdateOne {
	_u.mutation.SetMetadata(v)
	return _u
}

// ClearMetadata clears the value of the "metadata" field.
func (_u *MessageUpdateOne) ClearMetadata() *MessageUpdateOne {
	_u.mutation.ClearMetadata()
	return _u
}

// SetAgentID sets the "agent_id" field.
func (_u *MessageUpdateOne) SetAgentID(v string) *MessageUpdateOne {
	_u.mutation.SetAgentID(v)
	return _u
}

// SetNillableAgentID sets the "agent_id" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableAgentID(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetAgentID(*v)
	}
	return _u
}

// ClearAgentID clears the value of the "agent_id" field.
func (_u *MessageUpdateOne) ClearAgentID() *MessageUpdateOne {
	_u.mutation.ClearAgentID()
	return _u
}

// SetAgentName sets the "agent_name" field.
func (_u *MessageUpdateOne) SetAgentName(v string) *MessageUpdateOne {
	_u.mutation.SetAgentName(v)
	return _u
}

// SetNillableAgentName sets the "agent_name" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableAgentName(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetAgentName(*v)
	}
	return _u
}

// ClearAgentName clears the value of the "agent_name" field.
func (_u *MessageUpdateOne) ClearAgentName() *MessageUpdateOne {
	_u.mutation.ClearAgentName()
	return _u
}

// SetFromInstanceID sets the "from_instance_id" field.
func (_u *MessageUpdateOne) SetFromInstanceID(v string) *MessageUpdateOne {
	_u.mutation.SetFromInstanceID(v)
	return _u
}

// SetNillableFromInstanceID sets the "from_instance_id" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableFromInstanceID(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetFromInstanceID(*v)
	}
	return _u
}

// ClearFromInstanceID clears the value of the "from_instance_id" field.
func (_u *MessageUpdateOne) ClearFromInstanceID() *MessageUpdateOne {
	_u.mutation.ClearFromInstanceID()
	return _u
}

// SetResponseID sets the "response_id" field.
func (_u *MessageUpdateOne) SetResponseID(v string) *MessageUpdateOne {
	_u.mutation.SetResponseID(v)
	return _u
}

// SetNillableResponseID sets the "response_id" field if the given value is not nil.
func (_u *MessageUpdateOne) SetNillableResponseID(v *string) *MessageUpdateOne {
	if v != nil {
		_u.SetResponseID(*v)
	}
	return _u
}

// ClearResponseID clears the value of the "response_id" field.
func (_u *MessageUpdateOne) ClearResponseID() *MessageUpdateOne {
	_u.mutation.ClearResponseID()
	return _u
}

// SetSession sets the "session" edge to the Session entity.
func (_u *MessageUpdateOne) SetSession(v *Session) *MessageUpdateOne {
	return _u.SetSessionID(v.ID)
}

// Mutation returns the MessageMutation object of the builder.
func (_u *MessageUpdateOne) Mutation() *MessageMutation {
	return _u.mutation
}

// ClearSession clears the "session" edge to the Session entity.
func (_u *MessageUpdateOne) ClearSession() *MessageUpdateOne {
	_u.mutation.ClearSession()
	return _u
}

// Where appends a list predicates to the MessageUpdate builder.
func (_u *MessageUpdateOne) Where(ps ...predicate.Message) *MessageUpdateOne {
	_u.mutation.Where(ps...)
	return _u
}

// Select allows selecting one or more fields (columns) of the returned entity.
// The default is selecting all fields defined in the entity schema.
func (_u *MessageUpdateOne) Select(field string, fields ...string) *MessageUpdateOne {
	_u.fields = append([]string{field}, fields...)
	return _u
}

// Save executes the query and returns the updated Message entity.
func (_u *MessageUpdateOne) Save(ctx context.Context) (*Message, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *MessageUpdateOne) SaveX(ctx context.Context) *Message {
	node, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return node
}

// Exec executes the query on the entity.
func (_u *MessageUpdateOne) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *MessageUpdateOne) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *MessageUpdateOne) check() error {
	if v, ok := _u.mutation.Role(); ok {
		if err := message.RoleValidator(v); err != nil {
			return &ValidationError{Name: "role", err: fmt.Errorf(`ent: validator failed for field "Message.role": %w`, err)}
		}
	}
	if _u.mutation.SessionCleared() && len(_u.mutation.SessionIDs()) > 0 {
		return errors.New(`ent: clearing a required unique edge "Message.session"`)
	}
	return nil
}

func (_u *MessageUpdateOne) sqlSave(ctx context.Context) (_node *Message, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(message.Table, message.Columns, sqlgraph.NewFieldSpec(message.FieldID, field.TypeString))
	id, ok := _u.mutation.ID()
	if !ok {
		return nil, &ValidationError{Name: "id", err: errors.New(`ent: missing "Message.id" for update`)}
	}
	_spec.Node.ID.Value = id
	if fields := _u.fields; len(fields) > 0 {
		_spec.Node.Columns = make([]string, 0, len(fields))
		_spec.Node.Columns = append(_spec.Node.Columns, message.FieldID)
		for _, f := range fields {
			if !message.ValidColumn(f) {
				return nil, &ValidationError{Name: f, err: fmt.Errorf("ent: invalid field %q for query", f)}
			}
			if f != message.FieldID {
				_spec.Node.Columns = append(_spec.Node.Columns, f)
			}
		}
	}
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.Role(); ok {
		_spec.SetField(message.FieldRole, field.TypeEnum, value)
	}
	if value, ok := _u.mutation.Content(); ok {
		_spec.SetField(message.FieldContent, field.TypeString, value)
	}
	if value, ok := _u.mutation.ToolUseID(); ok {
		_spec.SetField(message.FieldToolUseID, field.TypeString, value)
	}
	if _u.mutation.ToolUseIDCleared() {
		_spec.ClearField(message.FieldToolUseID, field.TypeString)
	}
	if value, ok := _u.mutation.Sequence(); ok {
		_spec.SetField(message.FieldSequence, field.TypeInt, value)
	}
	if value, ok := _u.mutation.AddedSequence(); ok {
		_spec.AddField(message.FieldSequence, field.TypeInt, value)
	}
	if value, ok := _u.mutation.Metadata(); ok {
		_spec.SetField(message.FieldMetadata, field.TypeJSON, value)
	}
	if _u.mutation.MetadataCleared() {
		_spec.ClearField(message.FieldMetadata, field.TypeJSON)
	}
	if value, ok := _u.mutation.AgentID(); ok {
		_spec.SetField(message.FieldAgentID, field.TypeString, value)
	}
	if _u.mutation.AgentIDCleared() {
		_spec.ClearField(message.FieldAgentID, field.TypeString)
	}
	if value, ok := _u.mutation.AgentName(); ok {
		_spec.SetField(message.FieldAgentName, field.TypeString, value)
	}
	if _u.mutation.AgentNameCleared() {
		_spec.ClearField(message.FieldAgentName, field.TypeString)
	}
	if value, ok := _u.mutation.FromInstanceID(); ok {
		_spec.SetField(message.FieldFromInstanceID, field.TypeString, value)
	}
	if _u.mutation.FromInstanceIDCleared() {
		_spec.ClearField(message.FieldFromInstanceID, field.TypeString)
	}
	if value, ok := _u.mutation.ResponseID(); ok {
		_spec.SetField(message.FieldResponseID, field.TypeString, value)
	}
	if _u.mutation.ResponseIDCleared() {
		_spec.ClearField(message.FieldResponseID, field.TypeString)
	}
	if _u.mutation.SessionCleared() {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   message.SessionTable,
			Columns: []string{message.SessionColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(session.FieldID, field.TypeString),
			},
		}
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.SessionIDs(); len(nodes) > 0 {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   message.SessionTable,
			Columns: []string{message.SessionColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(session.FieldID, field.TypeString),
			},
		}
		for _, k := range nodes {
			edge.Target.Nodes = append(edge.Target.Nodes, k)
		}
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	_node = &Message{config: _u.config}
	_spec.Assign = _node.assignValues
	_spec.ScanValues = _node.scanValues
	if err = sqlgraph.UpdateNode(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{message.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return nil, err
	}
	_u.mutation.done = true
	return _node, nil
}
