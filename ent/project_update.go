// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/dialect/sql/sqljson"
	"entgo.io/ent/schema/field"
	"github.com/kumiai-dev/kumiai/ent/predicate"
	"github.com/kumiai-dev/kumiai/ent/project"
)

// ProjectUpdate is the builder for updating Project entities.
type ProjectUpdate struct {
	config
	hooks    []Hook
	mutation *ProjectMutation
}

// Where appends a list predicates to the ProjectUpdate builder.
func (_u *ProjectUpdate) Where(ps ...predicate.Project) *ProjectUpdate {
	_u.mutation.Where(ps...)
	return _u
}

// SetName sets the "name" field.
func (_u *ProjectUpdate) SetName(v string) *ProjectUpdate {
	_u.mutation.SetName(v)
	return _u
}

// SetNillableName sets the "name" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillableName(v *string) *ProjectUpdate {
	if v != nil {
		_u.SetName(*v)
	}
	return _u
}

// SetDescription sets the "description" field.
func (_u *ProjectUpdate) SetDescription(v string) *ProjectUpdate {
	_u.mutation.SetDescription(v)
	return _u
}

// SetNillableDescription sets the "description" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillableDescription(v *string) *ProjectUpdate {
	if v != nil {
		_u.SetDescription(*v)
	}
	return _u
}

// ClearDescription clears the value of the "description" field.
func (_u *ProjectUpdate) ClearDescription() *ProjectUpdate {
	_u.mutation.ClearDescription()
	return _u
}

// SetPath sets the "path" field.
func (_u *ProjectUpdate) SetPath(v string) *ProjectUpdate {
	_u.mutation.SetPath(v)
	return _u
}

// SetNillablePath sets the "path" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillablePath(v *string) *ProjectUpdate {
	if v != nil {
		_u.SetPath(*v)
	}
	return _u
}

// SetPmAgentID sets the "pm_agent_id" field.
func (_u *ProjectUpdate) SetPmAgentID(v string) *ProjectUpdate {
	_u.mutation.SetPmAgentID(v)
	return _u
}

// SetNillablePmAgentID sets the "pm_agent_id" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillablePmAgentID(v *string) *ProjectUpdate {
	if v != nil {
		_u.SetPmAgentID(*v)
	}
	return _u
}

// ClearPmAgentID clears the value of the "pm_agent_id" field.
func (_u *ProjectUpdate) ClearPmAgentID() *ProjectUpdate {
	_u.mutation.ClearPmAgentID()
	return _u
}

// SetPmSessionID sets the "pm_session_id" field.
func (_u *ProjectUpdate) SetPmSessionID(v string) *ProjectUpdate {
	_u.mutation.SetPmSessionID(v)
	return _u
}

// SetNillablePmSessionID sets the "pm_session_id" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillablePmSessionID(v *string) *ProjectUpdate {
	if v != nil {
		_u.SetPmSessionID(*v)
	}
	return _u
}

// ClearPmSessionID clears the value of the "pm_session_id" field.
func (_u *ProjectUpdate) ClearPmSessionID() *ProjectUpdate {
	_u.mutation.ClearPmSessionID()
	return _u
}

// SetTeamMemberIds sets the "team_member_ids" field.
func (_u *ProjectUpdate) SetTeamMemberIds(v []string) *ProjectUpdate {
	_u.mutation.SetTeamMemberIds(v)
	return _u
}

// AppendTeamMemberIds appends value to the "team_member_ids" field.
func (_u *ProjectUpdate) AppendTeamMemberIds(v []string) *ProjectUpdate {
	_u.mutation.AppendTeamMemberIds(v)
	return _u
}

// ClearTeamMemberIds clears the value of the "team_member_ids" field.
func (_u *ProjectUpdate) ClearTeamMemberIds() *ProjectUpdate {
	_u.mutation.ClearTeamMemberIds()
	return _u
}

// SetUpdatedAt sets the "updated_at" field.
func (_u *ProjectUpdate) SetUpdatedAt(v time.Time) *ProjectUpdate {
	_u.mutation.SetUpdatedAt(v)
	return _u
}

// SetDeletedAt sets the "deleted_at" field.
func (_u *ProjectUpdate) SetDeletedAt(v time.Time) *ProjectUpdate {
	_u.mutation.SetDeletedAt(v)
	return _u
}

// SetNillableDeletedAt sets the "deleted_at" field if the given value is not nil.
func (_u *ProjectUpdate) SetNillableDeletedAt(v *time.Time) *ProjectUpdate {
	if v != nil {
		_u.SetDeletedAt(*v)
	}
	return _u
}

// ClearDeletedAt clears the value of the "deleted_at" field.
func (_u *ProjectUpdate) ClearDeletedAt() *ProjectUpdate {
	_u.mutation.ClearDeletedAt()
	return _u
}

// Mutation returns the ProjectMutation object of the builder.
func (_u *ProjectUpdate) Mutation() *ProjectMutation {
	return _u.mutation
}

// Save executes the query and returns the number of nodes affected by the update operation.
func (_u *ProjectUpdate) Save(ctx context.Context) (int, error) {
	_u.defaults()
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *ProjectUpdate) SaveX(ctx context.Context) int {
	affected, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return affected
}

// Exec executes the query.
func (_u *ProjectUpdate) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *ProjectUpdate) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// defaults sets the default values of the builder before save.
func (_u *ProjectUpdate) defaults() {
	if _, ok := _u.mutation.UpdatedAt(); !ok {
		v := project.UpdateDefaultUpdatedAt()
		_u.mutation.SetUpdatedAt(v)
	}
}

func (_u *ProjectUpdate) sqlSave(ctx context.Context) (_node int, err error) {
	_spec := sqlgraph.NewUpdateSpec(project.Table, project.Columns, sqlgraph.NewFieldSpec(project.FieldID, field.TypeString))
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.Name(); ok {
		_spec.SetField(project.FieldName, field.TypeString, value)
	}
	if value, ok := _u.mutation.Description(); ok {
		_spec.SetField(project.FieldDescription, field.TypeString, value)
	}
	if _u.mutation.DescriptionCleared() {
		_spec.ClearField(project.FieldDescription, field.TypeString)
	}
	if value, ok := _u.mutation.Path(); ok {
		_spec.SetField(project.FieldPath, field.TypeString, value)
	}
	if value, ok := _u.mutation.PmAgentID(); ok {
		_spec.SetField(project.FieldPmAgentID, field.TypeString, value)
	}
	if _u.mutation.PmAgentIDCleared() {
		_spec.ClearField(project.FieldPmAgentID, field.TypeString)
	}
	if value, ok := _u.mutation.PmSessionID(); ok {
		_spec.SetField(project.FieldPmSessionID, field.TypeString, value)
	}
	if _u.mutation.PmSessionIDCleared() {
		_spec.ClearField(project.FieldPmSessionID, field.TypeString)
	}
	if value, ok := _u.mutation.TeamMemberIds(); ok {
		_spec.SetField(project.FieldTeamMemberIds, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedTeamMemberIds(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, project.FieldTeamMemberIds, value)
		})
	}
	if _u.mutation.TeamMemberIdsCleared() {
		_spec.ClearField(project.FieldTeamMemberIds, field.TypeJSON)
	}
	if value, ok := _u.mutation.UpdatedAt(); ok {
		_spec.SetField(project.FieldUpdatedAt, field.TypeTime, value)
	}
	if value, ok := _u.mutation.DeletedAt(); ok {
		_spec.SetField(project.FieldDeletedAt, field.TypeTime, value)
	}
	if _u.mutation.DeletedAtCleared() {
		_spec.ClearField(project.FieldDeletedAt, field.TypeTime)
	}
	if _node, err = sqlgraph.UpdateNodes(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{project.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return 0, err
	}
	_u.mutation.done = true
	return _node, nil
}

// ProjectUpdateOne is the builder for updating a single Project entity.
type ProjectUpdateOne struct {
	config
	fields   []string
	hooks    []Hook
	mutation *ProjectMutation
}

// SetName sets the "name" field.
func (_u *ProjectUpdateOne) SetName(v string) *ProjectUpdateOne {
	_u.mutation.SetName(v)
	return _u
}

// SetNillableName sets the "name" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillableName(v *string) *ProjectUpdateOne {
	if v != nil {
		_u.SetName(*v)
	}
	return _u
}

// SetDescription sets the "description" field.
func (_u *ProjectUpdateOne) SetDescription(v string) *ProjectUpdateOne {
	_u.mutation.SetDescription(v)
	return _u
}

// SetNillableDescription sets the "description" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillableDescription(v *string) *ProjectUpdateOne {
	if v != nil {
		_u.SetDescription(*v)
	}
	return _u
}

// ClearDescription clears the value of the "description" field.
func (_u *ProjectUpdateOne) ClearDescription() *ProjectUpdateOne {
	_u.mutation.ClearDescription()
	return _u
}

// SetPath sets the "path" field.
func (_u *ProjectUpdateOne) SetPath(v string) *ProjectUpdateOne {
	_u.mutation.SetPath(v)
	return _u
}

// SetNillablePath sets the "path" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillablePath(v *string) *ProjectUpdateOne {
	if v != nil {
		_u.SetPath(*v)
	}
	return _u
}

// SetPmAgentID sets the "pm_agent_id" field.
func (_u *ProjectUpdateOne) SetPmAgentID(v string) *ProjectUpdateOne {
	_u.mutation.SetPmAgentID(v)
	return _u
}

// SetNillablePmAgentID sets the "pm_agent_id" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillablePmAgentID(v *string) *ProjectUpdateOne {
	if v != nil {
		_u.SetPmAgentID(*v)
	}
	return _u
}

// ClearPmAgentID clears the value of the "pm_agent_id" field.
func (_u *ProjectUpdateOne) ClearPmAgentID() *ProjectUpdateOne {
	_u.mutation.ClearPmAgentID()
	return _u
}

// SetPmSessionID sets the "pm_session_id" field.
func (_u *ProjectUpdateOne) SetPmSessionID(v string) *ProjectUpdateOne {
	_u.mutation.SetPmSessionID(v)
	return _u
}

// SetNillablePmSessionID sets the "pm_session_id" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillablePmSessionID(v *string) *ProjectUpdateOne {
	if v != nil {
		_u.SetPmSessionID(*v)
	}
	return _u
}

// ClearPmSessionID clears the value of the "pm_session_id" field.
func (_u *ProjectUpdateOne) ClearPmSessionID() *ProjectUpdateOne {
	_u.mutation.ClearPmSessionID()
	return _u
}

// SetTeamMemberIds sets the "team_member_ids" field.
func (_u *ProjectUpdateOne) SetTeamMemberIds(v []string) *ProjectUpdateOne {
	_u.mutation.SetTeamMemberIds(v)
	return _u
}

// AppendTeamMemberIds appends value to the "team_member_ids" field.
func (_u *ProjectUpdateOne) AppendTeamMemberIds(v []string) *ProjectUpdateOne {
	_u.mutation.AppendTeamMemberIds(v)
	return _u
}

// ClearTeamMemberIds clears the value of the "team_member_ids" field.
func (_u *ProjectUpdateOne) ClearTeamMemberIds() *ProjectUpdateOne {
	_u.mutation.ClearTeamMemberIds()
	return _u
}

// SetUpdatedAt sets the "updated_at" field.
func (_u *ProjectUpdateOne) SetUpdatedAt(v time.Time) *ProjectUpdateOne {
	_u.mutation.SetUpdatedAt(v)
	return _u
}

// SetDeletedAt sets the "deleted_at" field.
func (_u *ProjectUpdateOne) SetDeletedAt(v time.Time) *ProjectUpdateOne {
	_u.mutation.SetDeletedAt(v)
	return _u
}

// SetNillableDeletedAt sets the "deleted_at" field if the given value is not nil.
func (_u *ProjectUpdateOne) SetNillableDeletedAt(v *time.Time) *ProjectUpdateOne {
	if v != nil {
		_u.SetDeletedAt(*v)
	}
	return _u
}

// ClearDeletedAt clears the value of the "deleted_at" field.
func (_u *ProjectUpdateOne) ClearDeletedAt() *ProjectUpdateOne {
	_u.mutation.ClearDeletedAt()
	return _u
}

// Mutation returns the ProjectMutation object of the builder.
func (_u *ProjectUpdateOne) Mutation() *ProjectMutation {
	return _u.mutation
}

// Where appends a list predicates to the ProjectUpdate builder.
func (_u *ProjectUpdateOne) Where(ps ...predicate.Project) *ProjectUpdateOne {
	_u.mutation.Where(ps...)
	return _u
}

// Select allows selecting one or more fields (columns) of the returned entity.
// The default is selecting all fields defined in the entity schema.
func (_u *ProjectUpdateOne) Select(field string, fields ...string) *ProjectUpdateOne {
	_u.fields = append([]string{field}, fields...)
	return _u
}

// Save executes the query and returns the updated Project entity.
func (_u *ProjectUpdateOne) Save(ctx context.Context) (*Project, error) {
	_u.defaults()
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *ProjectUpdateOne) SaveX(ctx context.Context) *Project {
	node, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return node
}

// Exec executes the query on the entity.
func (_u *ProjectUpdateOne) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *ProjectUpdateOne) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// defaults sets the default values of the builder before save.
func (_u *ProjectUpdateOne) defaults() {
	if _, ok := _u.mutation.UpdatedAt(); !ok {
		v := project.UpdateDefaultUpdatedAt()
		_u.mutation.SetUpdatedAt(v)
	}
}

func (_u *ProjectUpdateOne) sqlSave(ctx context.Context) (_node *Project, err error) {
	_spec := sqlgraph.NewUpdateSpec(project.Table, project.Columns, sqlgraph.NewFieldSpec(project.FieldID, field.TypeString))
	id, ok := _u.mutation.ID()
	if !ok {
		return nil, &ValidationError{Name: "id", err: errors.New(`ent: missing "Project.id" for update`)}
	}
	_spec.Node.ID.Value = id
	if fields := _u.fields; len(fields) > 0 {
		_spec.Node.Columns = make([]string, 0, len(fields))
		_spec.Node.Columns = append(_spec.Node.Columns, project.FieldID)
		for _, f := range fields {
			if !project.ValidColumn(f) {
				return nil, &ValidationError{Name: f, err: fmt.Errorf("ent: invalid field %q for query", f)}
			}
			if f != project.FieldID {
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
	if value, ok := _u.mutation.Name(); ok {
		_spec.SetField(project.FieldName, field.TypeString, value)
	}
	if value, ok := _u.mutation.Description(); ok {
		_spec.SetField(project.FieldDescription, field.TypeString, value)
	}
	if _u.mutation.DescriptionCleared() {
		_spec.ClearField(project.FieldDescription, field.TypeString)
	}
	if value, ok := _u.mutation.Path(); ok {
		_spec.SetField(project.FieldPath, field.TypeString, value)
	}
	if value, ok := _u.mutation.PmAgentID(); ok {
		_spec.SetField(project.FieldPmAgentID, field.TypeString, value)
	}
	if _u.mutation.PmAgentIDCleared() {
		_spec.ClearField(project.FieldPmAgentID, field.TypeString)
	}
	if value, ok := _u.mutation.PmSessionID(); ok {
		_spec.SetField(project.FieldPmSessionID, field.TypeString, value)
	}
	if _u.mutation.PmSessionIDCleared() {
		_spec.ClearField(project.FieldPmSessionID, field.TypeString)
	}
	if value, ok := _u.mutation.TeamMemberIds(); ok {
		_spec.SetField(project.FieldTeamMemberIds, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedTeamMemberIds(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, project.FieldTeamMemberIds, value)
		})
	}
	if _u.mutation.TeamMemberIdsCleared() {
		_spec.ClearField(project.FieldTeamMemberIds, field.TypeJSON)
	}
	if value, ok := _u.mutation.UpdatedAt(); ok {
		_spec.SetField(project.FieldUpdatedAt, field.TypeTime, value)
	}
	if value, ok := _u.mutation.DeletedAt(); ok {
		_spec.SetField(project.FieldDeletedAt, field.TypeTime, value)
	}
	if _u.mutation.DeletedAtCleared() {
		_spec.ClearField(project.FieldDeletedAt, field.TypeTime)
	}
	_node = &Project{config: _u.config}
	_spec.Assign = _node.assignValues
	_spec.ScanValues = _node.scanValues
	if err = sqlgraph.UpdateNode(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{project.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return nil, err
	}
	_u.mutation.done = true
	return _node, nil
}
