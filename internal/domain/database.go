package domain

// Database builds the shell command that dumps a database into a directory.
type Database interface {
	DumpCommand(outDir string) string
	GetType() string
}
