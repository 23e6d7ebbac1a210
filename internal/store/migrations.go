package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and messages",
		SQL: `
			CREATE TABLE sessions (
				id          TEXT PRIMARY KEY,
				key_str     TEXT NOT NULL,
				source      TEXT NOT NULL,
				chat_id     TEXT NOT NULL,
				sender_id   TEXT NOT NULL DEFAULT '',
				agent_id    TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_sessions_key ON sessions (key_str);
			CREATE INDEX idx_sessions_agent ON sessions (agent_id);

			CREATE TABLE messages (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				timestamp   TEXT NOT NULL DEFAULT (datetime('now')),
				tool_calls  TEXT
			);

			CREATE INDEX idx_messages_session ON messages (session_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create tool invocations with FTS5",
		SQL: `
			CREATE TABLE tool_invocations (
				id          TEXT PRIMARY KEY,
				session_id  TEXT NOT NULL DEFAULT '',
				tool        TEXT NOT NULL,
				input       TEXT NOT NULL,
				output      TEXT NOT NULL DEFAULT '',
				error       TEXT,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_invocations_tool ON tool_invocations (tool);
			CREATE INDEX idx_invocations_session ON tool_invocations (session_id);

			CREATE VIRTUAL TABLE invocations_fts USING fts5(
				input,
				output,
				content='tool_invocations',
				content_rowid='rowid'
			);

			CREATE TRIGGER invocations_ai AFTER INSERT ON tool_invocations BEGIN
				INSERT INTO invocations_fts(rowid, input, output)
				VALUES (new.rowid, new.input, new.output);
			END;

			CREATE TRIGGER invocations_ad AFTER DELETE ON tool_invocations BEGIN
				INSERT INTO invocations_fts(invocations_fts, rowid, input, output)
				VALUES ('delete', old.rowid, old.input, old.output);
			END;
		`,
	},
}
