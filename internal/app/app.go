package app

import (
	"context"
	"fmt"

	"github.com/semmidev/mongovault/internal/adapter/compressor"
	"github.com/semmidev/mongovault/internal/adapter/database"
	"github.com/semmidev/mongovault/internal/adapter/notifier"
	"github.com/semmidev/mongovault/internal/adapter/runner"
	"github.com/semmidev/mongovault/internal/adapter/storage"
	"github.com/semmidev/mongovault/internal/config"
	"github.com/semmidev/mongovault/internal/domain"
	"github.com/semmidev/mongovault/internal/infrastructure/logger"
	"github.com/semmidev/mongovault/internal/infrastructure/scheduler"
	"github.com/semmidev/mongovault/internal/usecase"
)

// BackupRunner runs the backup pipeline for one project.
type BackupRunner interface {
	Run(ctx context.Context, common config.CommonSettings, project config.ProjectConfig) (string, error)
}

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	backup    BackupRunner
	notifier  domain.Notifier
	projects  []config.ProjectConfig
}

// New loads the projects in projectsDir and schedules one job per enabled
// project. It returns domain.ErrNoProjects when no project is enabled and
// domain.ErrNothingScheduled when every enabled project has a bad cron.
func New(cfg *config.Config, projectsDir string) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("[%s] process started...", cfg.App.Name)

	projects, err := config.LoadProjects(projectsDir, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	var notify domain.Notifier
	if cfg.Telegram.Enabled() {
		tg, err := notifier.NewTelegram(cfg.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			notify = tg
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	return build(cfg, projects, log, newBackup(log), notify)
}

func newBackup(log *logger.Logger) *usecase.Backup {
	return usecase.NewBackup(
		runner.NewShell(log),
		storage.NewS3(compressor.MediaType),
		database.ForURI,
		func(common config.CommonSettings) domain.Compressor {
			return compressor.NewSevenZip(common.ArchiverPath, common.CompressionLevel, common.CompressionThreads)
		},
		func(basePath string) (usecase.LocalStorage, error) {
			return storage.NewLocal(basePath)
		},
		log,
	)
}

func build(
	cfg *config.Config,
	projects []config.ProjectConfig,
	log *logger.Logger,
	backup BackupRunner,
	notify domain.Notifier,
) (*App, error) {
	a := &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(log),
		backup:    backup,
		notifier:  notify,
	}

	enabled := config.EnabledProjects(projects)
	for _, project := range enabled {
		if err := a.scheduler.Register(project.Name, project.Cron, a.backupAction(project)); err != nil {
			log.Errorf("[%s] not scheduled: %v", project.Name, err)
			continue
		}
		a.projects = append(a.projects, project)
		log.Infof("✓ Scheduled backup for %s: %s", project.Name, project.Cron)
	}

	if len(enabled) == 0 {
		log.Warnf("[%s] %v!", cfg.App.Name, domain.ErrNoProjects)
		log.Close()
		return nil, domain.ErrNoProjects
	}
	if len(a.projects) == 0 {
		log.Errorf("[%s] %v", cfg.App.Name, domain.ErrNothingScheduled)
		log.Close()
		return nil, domain.ErrNothingScheduled
	}

	return a, nil
}

func (a *App) backupAction(project config.ProjectConfig) scheduler.Action {
	return func(ctx context.Context) error {
		location, err := a.backup.Run(ctx, a.config.Common, project)
		a.notify(ctx, project.Name, location, err)
		return err
	}
}

func (a *App) notify(ctx context.Context, project, location string, runErr error) {
	if a.notifier == nil {
		return
	}

	var err error
	if runErr != nil {
		err = a.notifier.NotifyFailure(ctx, project, runErr)
	} else {
		err = a.notifier.NotifySuccess(ctx, project, location)
	}
	if err != nil {
		a.logger.Warnf("[%s] notification failed: %v", project, err)
	}
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Application started with %d backup job(s)", len(a.projects))

	a.scheduler.Start()
	a.scheduler.Report()

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application, waiting for running backups...")
	a.scheduler.Stop()
	a.logger.Close()
}
