package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

type fakeSessionDir struct {
	mu          sync.Mutex
	sessions    map[string]*ent.Session
	pmByProject map[string]*ent.Session
	created     []models.CreateSessionRequest
	transitions []string
}

func newFakeSessionDir() *fakeSessionDir {
	return &fakeSessionDir{
		sessions:    make(map[string]*ent.Session),
		pmByProject: make(map[string]*ent.Session),
	}
}

func (f *fakeSessionDir) add(id, sessionType, projectID string) *ent.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &ent.Session{ID: id, SessionType: session.SessionType(sessionType), Status: session.StatusIdle}
	if projectID != "" {
		sess.ProjectID = &projectID
	}
	f.sessions[id] = sess
	if sessionType == models.SessionTypePM && projectID != "" {
		f.pmByProject[projectID] = sess
	}
	return sess
}

func (f *fakeSessionDir) GetSession(_ context.Context, sessionID string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return sess, nil
}

func (f *fakeSessionDir) LatestPMSession(_ context.Context, projectID string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pm, ok := f.pmByProject[projectID]
	if !ok {
		return nil, fmt.Errorf("no pm session for project %s", projectID)
	}
	return pm, nil
}

func (f *fakeSessionDir) CreateSession(_ context.Context, req models.CreateSessionRequest) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	id := fmt.Sprintf("spawned-%d", len(f.created))
	sess := &ent.Session{ID: id, SessionType: session.SessionType(req.SessionType), AgentID: req.AgentID}
	if req.ProjectID != "" {
		pid := req.ProjectID
		sess.ProjectID = &pid
	}
	f.sessions[id] = sess
	return sess, nil
}

func (f *fakeSessionDir) TransitionStatus(_ context.Context, sessionID, newStatus string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if !models.IsValidTransition(string(sess.Status), newStatus) {
		return nil, fmt.Errorf("invalid transition %s -> %s", sess.Status, newStatus)
	}
	sess.Status = session.Status(newStatus)
	f.transitions = append(f.transitions, sessionID+":"+newStatus)
	return sess, nil
}

type fakeProjectDir struct {
	projects map[string]*ent.Project
}

func (f *fakeProjectDir) GetProject(_ context.Context, projectID string) (*ent.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	return p, nil
}

type enqueued struct {
	SessionID string
	Req       models.EnqueueRequest
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	calls []enqueued
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, sessionID string, req models.EnqueueRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enqueued{SessionID: sessionID, Req: req})
	return 1, nil
}

func (f *fakeEnqueuer) all() []enqueued {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]enqueued, len(f.calls))
	copy(out, f.calls)
	return out
}

type toolsFixture struct {
	set      *ServerSet
	sessions *fakeSessionDir
	projects *fakeProjectDir
	enqueuer *fakeEnqueuer
	agents   *agents.AgentRepository
	skills   *agents.SkillRepository
}

func newToolsFixture(t *testing.T) *toolsFixture {
	t.Helper()
	agentRepo, err := agents.NewAgentRepository(t.TempDir())
	require.NoError(t, err)
	skillRepo, err := agents.NewSkillRepository(t.TempDir())
	require.NoError(t, err)

	sessions := newFakeSessionDir()
	projects := &fakeProjectDir{projects: map[string]*ent.Project{}}
	enq := &fakeEnqueuer{}

	set := NewServerSet(sessions, projects, enq, agentRepo, skillRepo, slog.Default())
	t.Cleanup(set.Shutdown)

	return &toolsFixture{set: set, sessions: sessions, projects: projects, enqueuer: enq, agents: agentRepo, skills: skillRepo}
}

func waitForEnqueue(t *testing.T, enq *fakeEnqueuer, n int) []enqueued {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(enq.all()) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return enq.all()
}

func TestContactInstance(t *testing.T) {
	f := newToolsFixture(t)
	f.sessions.add("spec-1", models.SessionTypeSpecialist, "proj-1")
	f.sessions.add("spec-2", models.SessionTypeSpecialist, "proj-1")
	f.sessions.add("outsider", models.SessionTypeSpecialist, "proj-2")
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "coder", Name: "Coder"}))

	cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist, AgentID: "coder", ProjectID: "proj-1"}

	t.Run("delivers within the project", func(t *testing.T) {
		out, err := f.set.contactInstance(context.Background(), cc, map[string]interface{}{
			"target_id": "spec-2",
			"message":   "status update please",
		})
		require.NoError(t, err)
		assert.Equal(t, "Message sent to spec-2", out)

		calls := waitForEnqueue(t, f.enqueuer, 1)
		assert.Equal(t, "spec-2", calls[0].SessionID)
		assert.Equal(t, "status update please", calls[0].Req.Content)
		assert.Equal(t, "Coder", calls[0].Req.SenderName)
		assert.Equal(t, "spec-1", calls[0].Req.SenderSessionID)
	})

	t.Run("cross-project target rejected", func(t *testing.T) {
		_, err := f.set.contactInstance(context.Background(), cc, map[string]interface{}{
			"target_id": "outsider",
			"message":   "hi",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different project")
	})

	t.Run("unknown target rejected", func(t *testing.T) {
		_, err := f.set.contactInstance(context.Background(), cc, map[string]interface{}{
			"target_id": "ghost",
			"message":   "hi",
		})
		assert.Error(t, err)
	})

	t.Run("missing arguments rejected", func(t *testing.T) {
		_, err := f.set.contactInstance(context.Background(), cc, map[string]interface{}{"message": "hi"})
		assert.Error(t, err)
		_, err = f.set.contactInstance(context.Background(), cc, map[string]interface{}{"target_id": "spec-2"})
		assert.Error(t, err)
	})
}

func TestContactPM(t *testing.T) {
	f := newToolsFixture(t)
	f.sessions.add("pm-1", models.SessionTypePM, "proj-1")
	f.sessions.add("spec-1", models.SessionTypeSpecialist, "proj-1")

	t.Run("routes to the project's pm", func(t *testing.T) {
		cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist, ProjectID: "proj-1"}
		out, err := f.set.contactPM(context.Background(), cc, map[string]interface{}{"message": "done with the task"})
		require.NoError(t, err)
		assert.Equal(t, "Message sent to pm (pm-1)", out)

		calls := waitForEnqueue(t, f.enqueuer, 1)
		assert.Equal(t, "pm-1", calls[0].SessionID)
		assert.Equal(t, "done with the task", calls[0].Req.Content)
	})

	t.Run("caller without a project rejected", func(t *testing.T) {
		cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist}
		_, err := f.set.contactPM(context.Background(), cc, map[string]interface{}{"message": "hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not part of a project")
	})

	t.Run("project without a pm rejected", func(t *testing.T) {
		cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist, ProjectID: "proj-none"}
		_, err := f.set.contactPM(context.Background(), cc, map[string]interface{}{"message": "hello"})
		assert.Error(t, err)
	})
}

func TestSpawnInstance(t *testing.T) {
	f := newToolsFixture(t)
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "coder", Name: "Coder"}))
	pmCC := CallContext{SessionID: "pm-1", SessionType: models.SessionTypePM, ProjectID: "proj-1"}

	t.Run("pm spawns a specialist", func(t *testing.T) {
		out, err := f.set.spawnInstance(context.Background(), pmCC, map[string]interface{}{
			"agent_id":         "coder",
			"task_description": "implement the parser",
			"project_id":       "proj-1",
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Spawned specialist session")
		assert.Contains(t, out, "coder")

		require.Len(t, f.sessions.created, 1)
		created := f.sessions.created[0]
		assert.Equal(t, models.SessionTypeSpecialist, created.SessionType)
		assert.Equal(t, "coder", created.AgentID)
		assert.Equal(t, "proj-1", created.ProjectID)
		assert.Equal(t, "implement the parser", created.Context["task_description"])
	})

	t.Run("defaults to the caller's project", func(t *testing.T) {
		_, err := f.set.spawnInstance(context.Background(), pmCC, map[string]interface{}{
			"agent_id":         "coder",
			"task_description": "another task",
		})
		require.NoError(t, err)
		assert.Equal(t, "proj-1", f.sessions.created[len(f.sessions.created)-1].ProjectID)
	})

	t.Run("non-pm caller rejected", func(t *testing.T) {
		cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist, ProjectID: "proj-1"}
		_, err := f.set.spawnInstance(context.Background(), cc, map[string]interface{}{
			"agent_id":         "coder",
			"task_description": "x",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only the pm")
	})

	t.Run("unknown agent rejected", func(t *testing.T) {
		_, err := f.set.spawnInstance(context.Background(), pmCC, map[string]interface{}{
			"agent_id":         "ghost",
			"task_description": "x",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestListTeamMembers(t *testing.T) {
	f := newToolsFixture(t)
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "coder", Name: "Coder", Description: "Writes code"}))
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "tester", Name: "Tester"}))
	pmCC := CallContext{SessionID: "pm-1", SessionType: models.SessionTypePM, ProjectID: "proj-1"}

	t.Run("lists assigned members", func(t *testing.T) {
		f.projects.projects["proj-1"] = &ent.Project{ID: "proj-1", TeamMemberIds: []string{"coder", "tester", "missing"}}
		out, err := f.set.listTeamMembers(context.Background(), pmCC, map[string]interface{}{})
		require.NoError(t, err)
		assert.Contains(t, out, "- Coder (coder): Writes code")
		assert.Contains(t, out, "- Tester (tester)")
		assert.Contains(t, out, "- missing (definition missing)")
	})

	t.Run("empty team", func(t *testing.T) {
		f.projects.projects["proj-1"] = &ent.Project{ID: "proj-1"}
		out, err := f.set.listTeamMembers(context.Background(), pmCC, map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "No team members assigned to this project.", out)
	})

	t.Run("non-pm rejected", func(t *testing.T) {
		cc := CallContext{SessionID: "s1", SessionType: models.SessionTypeAssistant}
		_, err := f.set.listTeamMembers(context.Background(), cc, map[string]interface{}{})
		assert.Error(t, err)
	})
}

func TestCompleteInstance(t *testing.T) {
	f := newToolsFixture(t)
	target := f.sessions.add("spec-1", models.SessionTypeSpecialist, "proj-1")
	target.Status = session.StatusWorking
	f.sessions.add("outsider", models.SessionTypeSpecialist, "proj-2")
	pmCC := CallContext{SessionID: "pm-1", SessionType: models.SessionTypePM, ProjectID: "proj-1"}

	t.Run("marks a working session completed", func(t *testing.T) {
		out, err := f.set.completeInstance(context.Background(), pmCC, map[string]interface{}{"target_id": "spec-1"})
		require.NoError(t, err)
		assert.Equal(t, "Session spec-1 marked completed", out)
		assert.Equal(t, models.StatusCompleted, string(target.Status))
	})

	t.Run("cross-project target rejected", func(t *testing.T) {
		_, err := f.set.completeInstance(context.Background(), pmCC, map[string]interface{}{"target_id": "outsider"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different project")
	})

	t.Run("non-pm rejected", func(t *testing.T) {
		cc := CallContext{SessionID: "spec-1", SessionType: models.SessionTypeSpecialist, ProjectID: "proj-1"}
		_, err := f.set.completeInstance(context.Background(), cc, map[string]interface{}{"target_id": "spec-1"})
		assert.Error(t, err)
	})
}

func TestRemind(t *testing.T) {
	f := newToolsFixture(t)
	cc := CallContext{SessionID: "s1", SessionType: models.SessionTypeAssistant}

	t.Run("delivers after the delay", func(t *testing.T) {
		out, err := f.set.remind(context.Background(), cc, map[string]interface{}{
			"delay_seconds": float64(1),
			"message":       "check the build",
		})
		require.NoError(t, err)
		assert.Equal(t, "Reminder scheduled in 1 seconds", out)

		calls := waitForEnqueue(t, f.enqueuer, 1)
		assert.Equal(t, "s1", calls[0].SessionID)
		assert.Equal(t, "check the build", calls[0].Req.Content)
		assert.Equal(t, "System Reminder", calls[0].Req.SenderName)
	})

	t.Run("delay bounds enforced", func(t *testing.T) {
		for _, delay := range []interface{}{float64(0), float64(86401), 2.5, "soon", nil} {
			_, err := f.set.remind(context.Background(), cc, map[string]interface{}{
				"delay_seconds": delay,
				"message":       "x",
			})
			assert.Error(t, err, "delay %v", delay)
		}
	})

	t.Run("message required", func(t *testing.T) {
		_, err := f.set.remind(context.Background(), cc, map[string]interface{}{"delay_seconds": float64(5)})
		assert.Error(t, err)
	})
}

func TestGetSessionInfo(t *testing.T) {
	f := newToolsFixture(t)
	sess := f.sessions.add("spec-1", models.SessionTypeSpecialist, "proj-1")
	sess.AgentID = "coder"
	sess.Context = map[string]interface{}{"task_description": "fix the bug"}

	out, err := f.set.getSessionInfo(context.Background(), CallContext{SessionID: "spec-1"}, nil)
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "spec-1", info["session_id"])
	assert.Equal(t, "specialist", info["session_type"])
	assert.Equal(t, "coder", info["agent_id"])
	assert.Equal(t, "proj-1", info["project_id"])
}

func TestShowFile(t *testing.T) {
	f := newToolsFixture(t)
	cc := CallContext{SessionID: "s1"}

	out, err := f.set.showFile(context.Background(), cc, map[string]interface{}{"path": "notes.md"})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = f.set.showFile(context.Background(), cc, map[string]interface{}{})
	assert.Error(t, err)
}

func TestSenderName(t *testing.T) {
	f := newToolsFixture(t)
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "coder", Name: "Coder"}))

	tests := []struct {
		name string
		cc   CallContext
		want string
	}{
		{"pm", CallContext{SessionType: models.SessionTypePM}, "Pm"},
		{"agent display name", CallContext{SessionType: models.SessionTypeSpecialist, AgentID: "coder"}, "Coder"},
		{"unknown agent falls back to type", CallContext{SessionType: models.SessionTypeSpecialist, AgentID: "ghost"}, "Specialist"},
		{"assistant", CallContext{SessionType: models.SessionTypeAssistant}, "Assistant"},
		{"empty type", CallContext{}, "Assistant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.set.senderName(tt.cc))
		})
	}
}

func TestServerSetHandlers(t *testing.T) {
	f := newToolsFixture(t)
	for _, name := range []string{"common_tools", "pm_management", "agent_assistant", "skill_assistant"} {
		h, ok := f.set.Handler(name)
		assert.True(t, ok, name)
		assert.NotNil(t, h, name)
	}
	_, ok := f.set.Handler("nope")
	assert.False(t, ok)
}
