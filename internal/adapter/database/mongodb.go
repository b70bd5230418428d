package database

import (
	"github.com/kballard/go-shellquote"
)

type MongoDBDatabase struct {
	toolPath string
	uri      string
}

func NewMongoDB(toolPath, uri string) *MongoDBDatabase {
	return &MongoDBDatabase{toolPath: toolPath, uri: uri}
}

func (m *MongoDBDatabase) DumpCommand(outDir string) string {
	return shellquote.Join(
		m.toolPath,
		"--uri="+m.uri,
		"--out="+outDir,
	)
}

func (m *MongoDBDatabase) GetType() string {
	return "mongodb"
}
