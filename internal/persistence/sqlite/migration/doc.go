// Package migration applies versioned SQL schema changes to a SQLite
// database.
//
// Migration files are read from an fs.FS (typically an embed.FS) and follow
// the naming convention {version}_{description}.sql, for example
// "001_session_slice.sql". Applied versions are tracked in a
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
// Example usage:
//
//	manager := NewManager(NewScanner(files, "migrations"), NewSQLiteExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
