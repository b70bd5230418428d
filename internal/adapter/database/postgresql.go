package database

import (
	"github.com/kballard/go-shellquote"
)

// PostgreSQLDatabase dumps in pg_dump's directory format so the result can
// be archived the same way as a mongodump folder.
type PostgreSQLDatabase struct {
	toolPath string
	uri      string
}

func NewPostgreSQL(toolPath, uri string) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{toolPath: toolPath, uri: uri}
}

func (p *PostgreSQLDatabase) DumpCommand(outDir string) string {
	return shellquote.Join(
		p.toolPath,
		"--dbname="+p.uri,
		"--format=directory",
		"--no-password",
		"--file="+outDir,
	)
}

func (p *PostgreSQLDatabase) GetType() string {
	return "postgresql"
}
