package database

import (
	"fmt"
	"strings"

	"github.com/semmidev/mongovault/internal/config"
	"github.com/semmidev/mongovault/internal/domain"
)

// ForURI picks the dump tool from the scheme of uri.
func ForURI(common config.CommonSettings, uri string) (domain.Database, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("DB_URI has no scheme")
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return NewMongoDB(common.DumpToolPath, uri), nil
	case "postgres", "postgresql":
		return NewPostgreSQL(common.PgDumpPath, uri), nil
	default:
		return nil, fmt.Errorf("unsupported DB_URI scheme %q", scheme)
	}
}
