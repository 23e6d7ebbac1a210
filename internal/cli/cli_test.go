package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soyeahso/chemkit/internal/config"
	"github.com/soyeahso/chemkit/internal/domain"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/logging"
	"github.com/soyeahso/chemkit/internal/store"
	"github.com/soyeahso/chemkit/internal/toolkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialVars = []string{
	"OPENAI_API_KEY", "OPENAI_API_BASE", "SERP_API_KEY",
	"CHEMSPACE_API_KEY", "RXN4CHEM_API_KEY", "SEMANTIC_SCHOLAR_API_KEY",
}

// testHome isolates a command run in a fresh CHEMKIT_HOME with no
// credentials set.
func testHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("CHEMKIT_HOME", home)
	t.Setenv("CHEMKIT_CONFIG_DIR", filepath.Join(home, "configs"))
	t.Setenv("CHEMKIT_LOG_LEVEL", "")
	t.Setenv("CHEMKIT_SESSION_STORE", "")
	for _, k := range credentialVars {
		t.Setenv(k, "")
	}
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--log-level", "silent"))
	err := root.Execute()
	return out.String(), err
}

// --- commands ---

func TestVersionCommand(t *testing.T) {
	testHome(t)
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chemkit "), out)
}

func TestConfigSetGetUnset(t *testing.T) {
	home := testHome(t)

	out, err := runCLI(t, "config", "set", "logging.level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "Set logging.level = debug\n", out)
	assert.FileExists(t, filepath.Join(home, "config.yaml"))

	out, err = runCLI(t, "config", "get", "logging.level")
	require.NoError(t, err)
	assert.Equal(t, "debug\n", out)

	out, err = runCLI(t, "config", "unset", "logging.level")
	require.NoError(t, err)
	assert.Equal(t, "Unset logging.level\n", out)

	_, err = runCLI(t, "config", "get", "logging.level")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfigSetRejectsInvalidValue(t *testing.T) {
	home := testHome(t)

	_, err := runCLI(t, "config", "set", "session.store", "redis")
	var ce *config.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "session.store")
	assert.NoFileExists(t, filepath.Join(home, "config.yaml"))
}

func TestConfigGetEffective(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "config", "get", "session.store")
	require.Error(t, err, "nothing is written to the file yet")

	out, err := runCLI(t, "config", "get", "session.store", "--effective")
	require.NoError(t, err)
	assert.Equal(t, "sqlite\n", out)
}

func TestConfigPath(t *testing.T) {
	home := testHome(t)
	out, err := runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}

func TestToolsListRequiresAPIKey(t *testing.T) {
	testHome(t)
	_, err := runCLI(t, "tools", "list")
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestToolsList(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, err := runCLI(t, "tools", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 16)
	assert.Contains(t, out, toolkit.DisabledWebSearch)
	assert.Contains(t, out, toolkit.DisabledMoleculePrice)
	for _, l := range lines {
		if strings.HasPrefix(l, toolkit.ToolGetMolecularWeight) {
			assert.NotContains(t, l, "disabled")
		}
		if strings.HasPrefix(l, toolkit.ToolWebSearchChemical) {
			assert.Contains(t, l, "disabled")
		}
	}
}

func TestToolsCallMolecularWeight(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, err := runCLI(t, "tools", "call", toolkit.ToolGetMolecularWeight, "CCO")
	require.NoError(t, err)
	assert.Equal(t, "46.069\n", out)
}

func TestToolsCallDisabledTool(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, err := runCLI(t, "tools", "call", toolkit.ToolWebSearchChemical, "aspirin", "synthesis")
	require.NoError(t, err)
	assert.Equal(t, toolkit.DisabledWebSearch+"\n", out)
}

func TestToolsCallUnknown(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := runCLI(t, "tools", "call", "make_coffee", "now")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tool "make_coffee"`)
}

func TestHistoryEmpty(t *testing.T) {
	home := testHome(t)
	out, err := runCLI(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No tool invocations recorded.\n", out)
	assert.FileExists(t, filepath.Join(home, "data", "chemkit.db"))

	out, err = runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "(sessions=0 messages=0 invocations=0)")
}

func TestHistoryNeedsSQLite(t *testing.T) {
	testHome(t)
	t.Setenv("CHEMKIT_SESSION_STORE", "memory")
	_, err := runCLI(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.store=sqlite")
}

func TestHistorySessions(t *testing.T) {
	home := testHome(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "data"), 0o700))
	db, err := store.Open(filepath.Join(home, "data", "chemkit.db"), logging.Nop())
	require.NoError(t, err)
	ss := store.NewSQLiteSessionStore(db)
	sess := ss.GetOrCreate(domain.SessionKey{Source: "cli", ChatID: "c1"}, "simple/chemcrow")
	ss.Append(sess.ID, domain.Message{Role: "user", Content: "What is the CAS number for aspirin?"})
	require.NoError(t, db.Close())

	out, err := runCLI(t, "history", "--sessions")
	require.NoError(t, err)
	assert.Contains(t, out, sess.ID)
	assert.Contains(t, out, "simple/chemcrow")
	assert.Contains(t, out, "messages=1")

	out, err = runCLI(t, "history", "--delete-session", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted session "+sess.ID+"\n", out)

	out, err = runCLI(t, "history", "--sessions")
	require.NoError(t, err)
	assert.Equal(t, "No sessions recorded.\n", out)

	_, err = runCLI(t, "history", "--delete-session", sess.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session")
}

func TestDemoAgentFallsBackToBasicDemo(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "demo", "--agent")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.Contains(t, out, "Query2CAS via Agent - Interactive Demo")
	assert.Contains(t, out, "Agent config 'simple/chemcrow' not found. Running the basic demo instead.")
	assert.Contains(t, out, "Query2CAS Toolkit - Basic Demo")
}

func TestChatMissingAgentConfig(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, err := runCLI(t, "chat")
	require.Error(t, err)
	assert.Contains(t, out, "could not find agent configuration 'simple/chemcrow'")
}

func TestStatus(t *testing.T) {
	testHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: store=sqlite")
	assert.Contains(t, out, "chemkit.db (not created yet)")
	assert.Contains(t, out, "Agent:   simple/chemcrow (not found")
	assert.Contains(t, out, "Toolkit: chemcrow mode=builtin")
	assert.Contains(t, out, toolkit.KeySerpAPIKey)
	assert.NotContains(t, out, "sk-test-1234567890")
}

// --- helpers ---

func TestLoadEnvFile(t *testing.T) {
	const key = "CHEMKIT_TEST_DOTENV_VALUE"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestToolArgs(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args []string
		want string
	}{
		{"single", toolkit.ToolQueryMoleculeCAS, []string{"aspirin"}, `{"input":"aspirin"}`},
		{"joined", toolkit.ToolWebSearchChemical, []string{"aspirin", "synthesis"}, `{"input":"aspirin synthesis"}`},
		{"json passthrough", toolkit.ToolQueryMoleculeCAS, []string{`{"input":"CCO"}`}, `{"input":"CCO"}`},
		{"similarity pair", toolkit.ToolCheckMoleculeSimilarity, []string{"CCO", "CCN"}, `{"smiles1":"CCO","smiles2":"CCN"}`},
		{"similarity raw", toolkit.ToolCheckMoleculeSimilarity, []string{"CCO CCN"}, "CCO CCN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toolArgs(tt.tool, tt.args))
		})
	}
}

func TestToolkitConfig(t *testing.T) {
	assert.Equal(t, defaultToolkit, toolkitConfig(nil))
	assert.Equal(t, defaultToolkit, toolkitConfig(&config.AgentConfig{}))

	ac := &config.AgentConfig{Toolkits: map[string]config.ToolkitConfig{
		"zeta":  {Name: "zeta"},
		"alpha": {Name: "alpha", Mode: "builtin"},
	}}
	assert.Equal(t, "alpha", toolkitConfig(ac).Name)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, 0.1, parseValue("0.1"))
	assert.Equal(t, "sqlite", parseValue("sqlite"))
}

func TestPrintCapabilities(t *testing.T) {
	var buf bytes.Buffer
	printCapabilities(&buf, []toolkit.CapabilityStatus{
		{Name: "get_molecular_weight", Enabled: true},
		{Name: "web_search_chemical", Reason: "no key"},
	})
	assert.Equal(t,
		"get_molecular_weight  enabled \n"+
			"web_search_chemical   disabled  no key\n",
		buf.String())
}

func TestPrintInvocations(t *testing.T) {
	var buf bytes.Buffer
	printInvocations(&buf, []store.Invocation{
		{Tool: "get_molecular_weight", Input: "CCO", Output: "46.069", Duration: 1500 * time.Microsecond, CreatedAt: time.Now()},
		{Tool: "query_molecule_cas", Input: "unobtainium", Error: "not found", CreatedAt: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "get_molecular_weight")
	assert.Contains(t, out, "-> 46.069")
	assert.Contains(t, out, "error: not found")
	assert.Contains(t, out, "2ms")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdefghij", truncate("abcdefghij", 10))
}

func TestDemoSteps(t *testing.T) {
	steps := demoSteps("aspirin")
	require.Len(t, steps, 8)
	assert.Equal(t, "aspirin", steps[0].input)
	assert.Equal(t, "aspirin", steps[1].input)
	for _, s := range steps[2:] {
		assert.Equal(t, demoSMILES, s.input)
	}
}

func TestPrintLoadedTools(t *testing.T) {
	var buf bytes.Buffer
	printLoadedTools(&buf, []string{"a", "b", "c", "d", "e", "f", "g"})
	out := buf.String()
	assert.Contains(t, out, "   - e\n")
	assert.NotContains(t, out, "   - f\n")
	assert.Contains(t, out, "... and 2 more tools")
}

// --- chat loop ---

type recordingAsker struct {
	queries []string
	fail    map[string]error
}

func (r *recordingAsker) ask(ctx context.Context, query string, out io.Writer) error {
	r.queries = append(r.queries, query)
	if err := r.fail[query]; err != nil {
		return err
	}
	_, err := out.Write([]byte("answer to " + query))
	return err
}

func TestAgentDemo(t *testing.T) {
	a := &recordingAsker{}
	var out bytes.Buffer

	require.NoError(t, agentDemo(context.Background(), strings.NewReader("more\nq\n"), &out, a.ask))
	assert.Equal(t, []string{demoAgentQuery, "more"}, a.queries)
	s := out.String()
	assert.Contains(t, s, "Sample Query: "+demoAgentQuery)
	assert.Contains(t, s, "Query completed! You can now ask your own questions.")
	assert.Contains(t, s, "Thank you for using ChemCrow Agent!")
}

func TestAgentDemo_SampleQueryFails(t *testing.T) {
	a := &recordingAsker{fail: map[string]error{demoAgentQuery: errors.New("rate limited")}}
	var out bytes.Buffer

	err := agentDemo(context.Background(), strings.NewReader("never asked\n"), &out, a.ask)
	require.Error(t, err)
	assert.Equal(t, []string{demoAgentQuery}, a.queries)
	assert.Contains(t, out.String(), "Error: rate limited")
}

func TestSessionEndedSummary(t *testing.T) {
	var buf bytes.Buffer
	old := log
	log = logging.New(&buf, "info")
	t.Cleanup(func() { log = old })

	db, err := store.Open(":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := &history{db: db, log: store.NewInvocationLog(db)}

	for _, inv := range []store.Invocation{
		{SessionID: "s1", Tool: "query_molecule_cas", Input: "aspirin", Output: "50-78-2"},
		{SessionID: "s1", Tool: "get_molecule_price", Input: "CCO", Error: "chemspace: 401"},
		{SessionID: "s2", Tool: "get_molecular_weight", Input: "CCO", Output: "46.069"},
	} {
		_, err := h.log.Record(inv)
		require.NoError(t, err)
	}

	hm := hooks.NewManager(logging.Nop())
	hm.On(hooks.EventSessionStart, "session-log", sessionStarted)
	hm.On(hooks.EventSessionEnd, "session-log", h.sessionEnded)
	hm.Emit(context.Background(), hooks.EventSessionStart, map[string]any{"sessionId": "s1"})
	hm.Emit(context.Background(), hooks.EventSessionEnd, map[string]any{"sessionId": "s1", "messages": 4})

	logged := buf.String()
	assert.Contains(t, logged, `"message":"session started"`)
	assert.Contains(t, logged, `"message":"session ended"`)
	assert.Contains(t, logged, `"messages":4`)
	assert.Contains(t, logged, `"toolCalls":2`)
	assert.Contains(t, logged, `"toolErrors":1`)
}

func TestChatLoop(t *testing.T) {
	a := &recordingAsker{fail: map[string]error{"fail": errors.New("boom")}}
	var out bytes.Buffer

	in := strings.NewReader("What is the CAS number for aspirin?\n   \nfail\nmore\nquit\nnever asked\n")
	require.NoError(t, chatLoop(context.Background(), in, &out, a.ask))

	assert.Equal(t, []string{"What is the CAS number for aspirin?", "fail", "more"}, a.queries)
	s := out.String()
	assert.Contains(t, s, "answer to What is the CAS number for aspirin?")
	assert.Contains(t, s, "Please enter a query")
	assert.Contains(t, s, "Error during query: boom")
	assert.Contains(t, s, "answer to more", "the loop continues after a failed turn")
	assert.Contains(t, s, "Thank you for using ChemCrow Agent!")
}

func TestChatLoop_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "quit", "q", "Q", "  EXIT  "} {
		a := &recordingAsker{}
		var out bytes.Buffer
		require.NoError(t, chatLoop(context.Background(), strings.NewReader(word+"\nhello\n"), &out, a.ask))
		assert.Empty(t, a.queries, word)
	}
}

func TestChatLoop_EOF(t *testing.T) {
	a := &recordingAsker{}
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), strings.NewReader("hello"), &out, a.ask))
	assert.Equal(t, []string{"hello"}, a.queries)
}

func TestChatLoop_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ask := func(ctx context.Context, query string, out io.Writer) error {
		cancel()
		return ctx.Err()
	}
	var out bytes.Buffer
	require.NoError(t, chatLoop(ctx, strings.NewReader("hello\nagain\n"), &out, ask))
	assert.Contains(t, out.String(), "Interrupted by user")
	assert.NotContains(t, out.String(), "Error during query")
}

func TestRunExamples(t *testing.T) {
	a := &recordingAsker{fail: map[string]error{exampleQueries[1]: errors.New("boom")}}
	var out bytes.Buffer

	runExamples(context.Background(), &out, exampleQueries, a.ask)

	assert.Equal(t, exampleQueries, a.queries, "a failed example does not stop the rest")
	s := out.String()
	assert.Contains(t, s, "Example 3: What's the molecular weight of caffeine?")
	assert.Contains(t, s, "Error: boom")
}
