package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/semmidev/mongovault/internal/config"
	"github.com/semmidev/mongovault/internal/domain"
)

type LocalStorage interface {
	GetPath(name string) string
	ReadFile(name string) ([]byte, error)
	Delete(name string) error
	RemoveAll(name string) error
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Successf(template string, args ...interface{})
}

type (
	DatabaseFactory     func(common config.CommonSettings, uri string) (domain.Database, error)
	CompressorFactory   func(common config.CommonSettings) domain.Compressor
	LocalStorageFactory func(basePath string) (LocalStorage, error)
)

// Backup runs dump, compress, cleanup, upload and the optional local delete
// for one project. It holds no per-run state, so concurrent runs only share
// the read-only settings they are given.
type Backup struct {
	runner      domain.CommandRunner
	uploader    domain.Uploader
	databases   DatabaseFactory
	compressors CompressorFactory
	local       LocalStorageFactory
	logger      Logger
	now         func() time.Time
	newID       func() string
}

func NewBackup(
	runner domain.CommandRunner,
	uploader domain.Uploader,
	databases DatabaseFactory,
	compressors CompressorFactory,
	local LocalStorageFactory,
	logger Logger,
) *Backup {
	return &Backup{
		runner:      runner,
		uploader:    uploader,
		databases:   databases,
		compressors: compressors,
		local:       local,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Run executes the pipeline and returns the location of the uploaded
// archive. Errors are *domain.PipelineError naming the failed phase.
func (uc *Backup) Run(ctx context.Context, common config.CommonSettings, project config.ProjectConfig) (string, error) {
	start := uc.now()
	name := project.Name

	fail := func(phase string, err error) (string, error) {
		uc.logger.Errorf("[%s] %s failed: %v", name, phase, err)
		return "", &domain.PipelineError{Project: name, Phase: phase, Err: err}
	}

	db, err := uc.databases(common, project.DBURI)
	if err != nil {
		return fail(domain.PhasePrepare, err)
	}
	comp := uc.compressors(common)

	backups, err := uc.local(common.BackupDir)
	if err != nil {
		return fail(domain.PhasePrepare, err)
	}
	dumps, err := uc.local(common.DumpDir)
	if err != nil {
		return fail(domain.PhasePrepare, err)
	}

	dumpName := fmt.Sprintf("%s-%s", name, uc.newID())
	fileName := ArchiveFileName(name, start, comp.Extension())
	archive := domain.Archive{
		Project:   name,
		DumpDir:   dumps.GetPath(dumpName),
		FileName:  fileName,
		LocalPath: backups.GetPath(fileName),
		RemoteKey: RemoteKey(fileName),
		StartedAt: start,
	}

	phase, err := uc.dumpAndCompress(ctx, db, comp, archive)

	uc.logger.Infof("[%s] %s...", name, domain.PhaseCleanup)
	if cleanupErr := dumps.RemoveAll(dumpName); cleanupErr != nil {
		uc.logger.Warnf("[%s] %s failed: %v", name, domain.PhaseCleanup, cleanupErr)
	}

	if err != nil {
		return fail(phase, err)
	}

	uc.logger.Infof("[%s] %s...", name, domain.PhaseRead)
	body, err := backups.ReadFile(fileName)
	if err != nil {
		return fail(domain.PhaseRead, err)
	}

	uc.logger.Infof("[%s] %s %s (%.2f MB)...", name, domain.PhaseUpload, archive.RemoteKey, float64(len(body))/(1024*1024))
	location, err := uc.uploader.Upload(ctx, body, archive.RemoteKey, project.StorageTarget())
	if err != nil {
		return fail(domain.PhaseUpload, err)
	}
	uc.logger.Successf("[%s] upload completed! %s", name, location)

	if project.DeleteLocalCopy {
		uc.logger.Infof("[%s] %s...", name, domain.PhaseDelete)
		if err := backups.Delete(fileName); err != nil {
			return fail(domain.PhaseDelete, err)
		}
		uc.logger.Infof("[%s] local copy removed", name)
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s", name, uc.now().Sub(start).Round(time.Second), fileName)
	return location, nil
}

func (uc *Backup) dumpAndCompress(ctx context.Context, db domain.Database, comp domain.Compressor, archive domain.Archive) (string, error) {
	prefix := fmt.Sprintf("[%s]", archive.Project)

	dumpCmd := db.DumpCommand(archive.DumpDir)
	if err := uc.runner.Execute(ctx, dumpCmd, prefix+" "+domain.PhaseDump); err != nil {
		return domain.PhaseDump, err
	}

	archiveCmd := comp.ArchiveCommand(archive.LocalPath, archive.DumpDir)
	if err := uc.runner.Execute(ctx, archiveCmd, prefix+" "+domain.PhaseCompress); err != nil {
		return domain.PhaseCompress, err
	}

	return "", nil
}
