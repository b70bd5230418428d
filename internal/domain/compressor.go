package domain

type Compressor interface {
	ArchiveCommand(archivePath, sourceDir string) string
	Extension() string
}
