package compressor

import (
	"strconv"

	"github.com/kballard/go-shellquote"
)

const MediaType = "application/x-7z-compressed"

type SevenZipCompressor struct {
	toolPath string
	level    int
	threads  int
}

// NewSevenZip returns a compressor for the 7z binary at toolPath. level is
// 0 (store) to 9 (ultra).
func NewSevenZip(toolPath string, level, threads int) *SevenZipCompressor {
	return &SevenZipCompressor{toolPath: toolPath, level: level, threads: threads}
}

func (z *SevenZipCompressor) ArchiveCommand(archivePath, sourceDir string) string {
	return shellquote.Join(
		z.toolPath,
		"a",
		"-t7z",
		"-mx="+strconv.Itoa(z.level),
		"-mmt="+strconv.Itoa(z.threads),
		archivePath,
		sourceDir,
	)
}

func (z *SevenZipCompressor) Extension() string {
	return ".7z"
}
