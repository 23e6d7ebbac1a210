package store

import (
	"context"
	"testing"
	"time"

	"github.com/soyeahso/chemkit/internal/agent"
	"github.com/soyeahso/chemkit/internal/domain"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"sessions", "messages", "tool_invocations", "invocations_fts"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)

	st, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)

	sessions := NewSQLiteSessionStore(db)
	sess := sessions.GetOrCreate(domain.SessionKey{Source: "cli", ChatID: "local"}, "chemcrow")
	sessions.Append(sess.ID, domain.Message{Role: llm.RoleUser, Content: "CAS of aspirin?"})
	sessions.Append(sess.ID, domain.Message{Role: llm.RoleAssistant, Content: "50-78-2"})
	_, err = NewInvocationLog(db).Record(Invocation{SessionID: sess.ID, Tool: "query_molecule_cas", Input: "aspirin", Output: "50-78-2"})
	require.NoError(t, err)

	st, err = db.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Sessions: 1, Messages: 2, Invocations: 1}, st)
}

// --- Session Store tests ---

func TestSessionStore_GetOrCreate_New(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	sess := ss.GetOrCreate(key, "agent-1")

	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "cli", sess.Key.Source)
	assert.Equal(t, "local", sess.Key.ChatID)
	assert.Equal(t, "alice", sess.Key.SenderID)
	assert.Equal(t, "agent-1", sess.AgentID)
}

func TestSessionStore_GetOrCreate_Existing(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	sess1 := ss.GetOrCreate(key, "agent-1")
	sess2 := ss.GetOrCreate(key, "agent-1")

	assert.Equal(t, sess1.ID, sess2.ID)
}

func TestSessionStore_GetOrCreate_DifferentKeys(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key1 := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	key2 := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "bob"}

	sess1 := ss.GetOrCreate(key1, "agent-1")
	sess2 := ss.GetOrCreate(key2, "agent-1")

	assert.NotEqual(t, sess1.ID, sess2.ID)
}

func TestSessionStore_Get(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	created := ss.GetOrCreate(key, "agent-1")

	got := ss.Get(created.ID)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "cli", got.Key.Source)
}

func TestSessionStore_Get_NotFound(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	got := ss.Get("nonexistent")
	assert.Nil(t, got)
}

func TestSessionStore_Append(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	sess := ss.GetOrCreate(key, "agent-1")

	ss.Append(sess.ID, domain.Message{
		Role:      "user",
		Content:   "Hello!",
		Timestamp: time.Now(),
	})
	ss.Append(sess.ID, domain.Message{
		Role:      "assistant",
		Content:   "Hi there!",
		Timestamp: time.Now(),
	})

	got := ss.Get(sess.ID)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Hello!", got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "Hi there!", got.Messages[1].Content)
}

func TestSessionStore_Append_WithToolCalls(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	sess := ss.GetOrCreate(key, "agent-1")

	ss.Append(sess.ID, domain.Message{
		Role:    "assistant",
		Content: "Let me check.",
		ToolCalls: []domain.ToolCall{
			{ID: "tc-1", Name: "Query2SMILES", Input: `{"input":"caffeine"}`, Output: "CN1C=NC2=C1C(=O)N(C(=O)N2C)C", Duration: 40 * time.Millisecond},
		},
		Timestamp: time.Now(),
	})

	got := ss.Get(sess.ID)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].ToolCalls, 1)
	assert.Equal(t, "Query2SMILES", got.Messages[0].ToolCalls[0].Name)
	assert.Equal(t, `{"input":"caffeine"}`, got.Messages[0].ToolCalls[0].Input)
	assert.Equal(t, 40*time.Millisecond, got.Messages[0].ToolCalls[0].Duration)
}

func TestSessionStore_History(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key := domain.SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"}
	sess := ss.GetOrCreate(key, "agent-1")

	ss.Append(sess.ID, domain.Message{Role: "user", Content: "Question", Timestamp: time.Now()})
	ss.Append(sess.ID, domain.Message{Role: "assistant", Content: "Answer", Timestamp: time.Now()})

	history := ss.History(sess.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "Question", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "Answer", history[1].Content)
}

func TestSessionStore_HistoryLimit(t *testing.T) {
	ss := NewSQLiteSessionStore(testDB(t), WithHistoryLimit(3))
	sess := ss.GetOrCreate(domain.SessionKey{Source: "cli", ChatID: "local"}, "chemcrow")

	for _, c := range []string{"q1", "a1", "q2", "a2", "q3"} {
		ss.Append(sess.ID, domain.Message{Role: "user", Content: c})
	}

	history := ss.History(sess.ID)
	require.Len(t, history, 3)
	assert.Equal(t, "q2", history[0].Content)
	assert.Equal(t, "a2", history[1].Content)
	assert.Equal(t, "q3", history[2].Content)

	assert.Len(t, ss.Get(sess.ID).Messages, 5, "Get is not windowed")
}

func TestSessionStore_History_Empty(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	history := ss.History("nonexistent")
	assert.Nil(t, history)
}

func TestSessionStore_List(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	key1 := domain.SessionKey{Source: "cli", ChatID: "a", SenderID: "alice"}
	key2 := domain.SessionKey{Source: "mcp", ChatID: "b", SenderID: "bob"}

	ss.GetOrCreate(key1, "agent-1")
	ss.GetOrCreate(key2, "agent-1")

	ids := ss.List()
	assert.Len(t, ids, 2)
}

func TestSessionStore_Delete(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	sess := ss.GetOrCreate(domain.SessionKey{Source: "cli", ChatID: "local"}, "agent-1")
	ss.Append(sess.ID, domain.Message{Role: "user", Content: "hi"})

	require.NoError(t, ss.Delete(sess.ID))
	assert.Nil(t, ss.Get(sess.ID))

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count))
	assert.Zero(t, count)
}

func TestSessionStore_List_Empty(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	ids := ss.List()
	assert.Nil(t, ids)
}

// --- Invocation log tests ---

func TestInvocationLog_Record(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	inv, err := log.Record(Invocation{
		Tool:     "Query2CAS",
		Input:    "aspirin",
		Output:   "50-78-2",
		Duration: 250 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID)
	assert.False(t, inv.CreatedAt.IsZero())

	recent, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, inv.ID, recent[0].ID)
	assert.Equal(t, "Query2CAS", recent[0].Tool)
	assert.Equal(t, "50-78-2", recent[0].Output)
	assert.Empty(t, recent[0].Error)
	assert.Equal(t, 250*time.Millisecond, recent[0].Duration)
}

func TestTimestampsKeepTheirInstant(t *testing.T) {
	db := testDB(t)
	zone := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, zone)

	log := NewInvocationLog(db)
	_, err := log.Record(Invocation{Tool: "Query2CAS", Input: "aspirin", CreatedAt: at})
	require.NoError(t, err)
	recent, err := log.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, at.Equal(recent[0].CreatedAt), "got %s, want %s", recent[0].CreatedAt, at)

	ss := NewSQLiteSessionStore(db)
	sess := ss.GetOrCreate(domain.SessionKey{Source: "cli", ChatID: "tz"}, "agent-1")
	ss.Append(sess.ID, domain.Message{Role: "user", Content: "hi", Timestamp: at})
	got := ss.Get(sess.ID)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 1)
	assert.True(t, at.Equal(got.Messages[0].Timestamp), "got %s, want %s", got.Messages[0].Timestamp, at)
}

func TestInvocationLog_RecordError(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	_, err := log.Record(Invocation{Tool: "RXNPredict", Input: "CCO.CC(=O)O", Error: "rxn: 503 unavailable"})
	require.NoError(t, err)

	recent, err := log.Recent(0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "rxn: 503 unavailable", recent[0].Error)
	assert.Empty(t, recent[0].Output)
}

func TestInvocationLog_RecentOrderAndLimit(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	for _, tool := range []string{"Query2CAS", "SMILES2Weight", "FuncGroups"} {
		_, err := log.Record(Invocation{Tool: tool, Input: "CCO"})
		require.NoError(t, err)
	}

	recent, err := log.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "FuncGroups", recent[0].Tool)
	assert.Equal(t, "SMILES2Weight", recent[1].Tool)
}

func TestInvocationLog_ByToolAndSession(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	_, err := log.Record(Invocation{SessionID: "s1", Tool: "Query2CAS", Input: "aspirin"})
	require.NoError(t, err)
	_, err = log.Record(Invocation{SessionID: "s1", Tool: "SMILES2Weight", Input: "CC(=O)Oc1ccccc1C(=O)O"})
	require.NoError(t, err)
	_, err = log.Record(Invocation{SessionID: "s2", Tool: "Query2CAS", Input: "caffeine"})
	require.NoError(t, err)

	byTool, err := log.ByTool("Query2CAS", 0)
	require.NoError(t, err)
	require.Len(t, byTool, 2)
	assert.Equal(t, "caffeine", byTool[0].Input)

	session, err := log.ForSession("s1")
	require.NoError(t, err)
	require.Len(t, session, 2)
	assert.Equal(t, "Query2CAS", session[0].Tool)
	assert.Equal(t, "SMILES2Weight", session[1].Tool)
}

func TestInvocationLog_Search(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	_, err := log.Record(Invocation{Tool: "Query2CAS", Input: "aspirin", Output: "50-78-2"})
	require.NoError(t, err)
	_, err = log.Record(Invocation{Tool: "Query2SMILES", Input: "caffeine", Output: "CN1C=NC2=C1C(=O)N(C(=O)N2C)C"})
	require.NoError(t, err)

	results, err := log.Search("aspirin", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Query2CAS", results[0].Tool)

	// SMILES punctuation is quoted, not parsed as query syntax
	results, err = log.Search("CN1C=NC2=C1C(=O)N(C(=O)N2C)C", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "caffeine", results[0].Input)

	results, err = log.Search("xyzzy", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = log.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInvocationLog_Prune(t *testing.T) {
	log := NewInvocationLog(testDB(t))

	_, err := log.Record(Invocation{Tool: "WebSearch", Input: "old", CreatedAt: time.Now().Add(-48 * time.Hour)})
	require.NoError(t, err)
	_, err = log.Record(Invocation{Tool: "WebSearch", Input: "new"})
	require.NoError(t, err)

	n, err := log.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recent, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].Input)

	results, err := log.Search("old", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFtsQuery(t *testing.T) {
	assert.Equal(t, `"CC(=O)O" "acid"`, ftsQuery(" CC(=O)O  acid "))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`))
	assert.Equal(t, "", ftsQuery(""))
}

// --- Runner integration ---

type weightTool struct{}

func (weightTool) Name() string        { return "SMILES2Weight" }
func (weightTool) Description() string { return "Molecular weight" }
func (weightTool) InputSchema() string { return `{"type":"object"}` }
func (weightTool) Execute(_ context.Context, input string) (string, error) {
	return "46.069", nil
}

func TestRunnerWithSQLiteStoreAndInvocationLog(t *testing.T) {
	db := testDB(t)
	silent := logging.New(nil, "silent")
	invocations := NewInvocationLog(db)

	mgr := hooks.NewManager(silent)
	mgr.On(hooks.EventToolCall, "invocation-log", invocations.HookHandler())

	replies := []string{
		"```tool_call\n{\"tool\": \"SMILES2Weight\", \"input\": \"CCO\"}\n```",
		"Ethanol weighs 46.069 g/mol.",
	}
	calls := 0
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			reply := replies[calls]
			calls++
			return &llm.CompletionResponse{Content: reply}, nil
		},
	}

	tools := agent.NewToolRegistry()
	tools.Register(weightTool{})
	sessions := NewSQLiteSessionStore(db)
	runner := agent.NewRunner(agent.RunnerConfig{AgentID: "simple/chemcrow"}, client, sessions, tools, silent, agent.WithHooks(mgr))

	result, err := runner.Run(context.Background(), domain.InboundMessage{
		Source: "cli", ChatID: "local", From: "user", Body: "Molecular weight of ethanol?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ethanol weighs 46.069 g/mol.", result.Response)

	got := sessions.Get(result.SessionID)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 4)
	require.Len(t, got.Messages[1].ToolCalls, 1)
	assert.Equal(t, "SMILES2Weight", got.Messages[1].ToolCalls[0].Name)

	logged, err := invocations.ForSession(result.SessionID)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "CCO", logged[0].Input)
	assert.Equal(t, "46.069", logged[0].Output)
}
