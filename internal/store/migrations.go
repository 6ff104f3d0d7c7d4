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
		Name:    "create active session slot",
		SQL: `
			CREATE TABLE active_session (
				id            INTEGER PRIMARY KEY CHECK (id = 1),
				session_token TEXT NOT NULL,
				builder_name  TEXT NOT NULL,
				saved_at      TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
