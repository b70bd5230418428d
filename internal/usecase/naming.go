package usecase

import (
	"fmt"
	"path"
	"time"
)

// RemotePrefix is the key prefix every archive is uploaded under.
const RemotePrefix = "databaseBackups"

// Timestamp renders t as D-M-YYYY_H-M-SZ with only the day padded to two
// digits. Existing buckets are full of names in this format.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%02d-%d-%d_%d-%d-%dZ",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

func ArchiveFileName(project string, t time.Time, ext string) string {
	return fmt.Sprintf("%s-%s%s", project, Timestamp(t), ext)
}

func RemoteKey(fileName string) string {
	return path.Join(RemotePrefix, fileName)
}
