package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/mongovault/internal/config"
	"github.com/semmidev/mongovault/internal/domain"
	"github.com/semmidev/mongovault/internal/infrastructure/logger"
)

type fakeBackup struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeBackup) Run(ctx context.Context, common config.CommonSettings, project config.ProjectConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, project.Name)
	if f.err != nil {
		return "", f.err
	}
	return "s3://" + project.S3Bucket + "/databaseBackups/" + project.Name + ".7z", nil
}

type fakeNotifier struct {
	successes []string
	failures  []string
	err       error
}

func (n *fakeNotifier) NotifySuccess(ctx context.Context, project, location string) error {
	n.successes = append(n.successes, project+" "+location)
	return n.err
}

func (n *fakeNotifier) NotifyFailure(ctx context.Context, project string, cause error) error {
	n.failures = append(n.failures, project+" "+cause.Error())
	return n.err
}

func project(name, status, cron string) config.ProjectConfig {
	return config.ProjectConfig{
		Name:        name,
		Status:      status,
		Cron:        cron,
		DBURI:       "mongodb://localhost/" + name,
		S3Region:    "eu-central-1",
		S3Bucket:    name + "-bucket",
		S3AccessKey: "AKIA",
		S3SecretKey: "secret",
	}
}

func scheduledNames(a *App) []string {
	var names []string
	for _, e := range a.scheduler.List() {
		names = append(names, e.Name)
	}
	return names
}

func TestBuild(t *testing.T) {
	Convey("Given the application wiring", t, func() {
		var out bytes.Buffer
		log, err := logger.NewWithConsole("info", "", &out)
		So(err, ShouldBeNil)

		cfg := &config.Config{App: config.AppConfig{Name: "mongodb-backups"}}
		backup := &fakeBackup{}

		Convey("When projects have mixed statuses", func() {
			projects := []config.ProjectConfig{
				project("shop", config.StatusEnabled, "0 3 * * *"),
				project("blog", config.StatusDisabled, "0 4 * * *"),
				project("api", "paused", "0 5 * * *"),
				project("crm", config.StatusEnabled, "30 21 * * 7"),
			}

			a, err := build(cfg, projects, log, backup, nil)

			Convey("It should schedule exactly the enabled ones", func() {
				So(err, ShouldBeNil)
				So(scheduledNames(a), ShouldHaveLength, 2)
				So(scheduledNames(a), ShouldContain, "shop")
				So(scheduledNames(a), ShouldContain, "crm")
				So(scheduledNames(a), ShouldNotContain, "blog")
				So(scheduledNames(a), ShouldNotContain, "api")
			})
		})

		Convey("When there are no valid projects", func() {
			a, err := build(cfg, nil, log, backup, nil)

			Convey("It should warn and report ErrNoProjects", func() {
				So(a, ShouldBeNil)
				So(errors.Is(err, domain.ErrNoProjects), ShouldBeTrue)
				So(out.String(), ShouldContainSubstring, "no projects for backup found!")
				So(out.String(), ShouldContainSubstring, "WARN")
			})
		})

		Convey("When every project is disabled", func() {
			_, err := build(cfg, []config.ProjectConfig{project("blog", config.StatusDisabled, "0 4 * * *")}, log, backup, nil)

			Convey("It should report ErrNoProjects", func() {
				So(errors.Is(err, domain.ErrNoProjects), ShouldBeTrue)
			})
		})

		Convey("When a project has an invalid cron expression", func() {
			projects := []config.ProjectConfig{
				project("shop", config.StatusEnabled, "every night"),
				project("crm", config.StatusEnabled, "0 3 * * *"),
			}

			a, err := build(cfg, projects, log, backup, nil)

			Convey("It should skip it and schedule the rest", func() {
				So(err, ShouldBeNil)
				So(scheduledNames(a), ShouldResemble, []string{"crm"})
				So(out.String(), ShouldContainSubstring, "[shop] not scheduled")
			})
		})

		Convey("When every enabled project has an invalid cron expression", func() {
			projects := []config.ProjectConfig{
				project("shop", config.StatusEnabled, "every night"),
				project("crm", config.StatusEnabled, "61 3 * * *"),
			}

			a, err := build(cfg, projects, log, backup, nil)

			Convey("It should fail instead of reporting no projects", func() {
				So(a, ShouldBeNil)
				So(errors.Is(err, domain.ErrNothingScheduled), ShouldBeTrue)
				So(errors.Is(err, domain.ErrNoProjects), ShouldBeFalse)
				So(out.String(), ShouldContainSubstring, "[shop] not scheduled")
				So(out.String(), ShouldContainSubstring, "[crm] not scheduled")
				So(out.String(), ShouldContainSubstring, "no project could be scheduled")
				So(out.String(), ShouldNotContainSubstring, "no projects for backup found")
			})
		})

		Convey("When nothing is scheduled and the log goes to a file", func() {
			dir, err := os.MkdirTemp("", "app_log")
			So(err, ShouldBeNil)
			defer os.RemoveAll(dir)

			logFile := filepath.Join(dir, "backup.log")
			fileLog, err := logger.NewWithConsole("info", logFile, io.Discard)
			So(err, ShouldBeNil)

			_, err = build(cfg, nil, fileLog, backup, nil)

			Convey("It should have flushed the warning before returning", func() {
				So(errors.Is(err, domain.ErrNoProjects), ShouldBeTrue)
				content, err := os.ReadFile(logFile)
				So(err, ShouldBeNil)
				So(string(content), ShouldContainSubstring, "no projects for backup found!")
			})
		})

		Convey("When a job action runs", func() {
			notify := &fakeNotifier{}
			shop := project("shop", config.StatusEnabled, "0 3 * * *")
			a, err := build(cfg, []config.ProjectConfig{shop}, log, backup, notify)
			So(err, ShouldBeNil)

			Convey("And the backup succeeds", func() {
				err := a.backupAction(shop)(context.Background())

				Convey("It should notify the location", func() {
					So(err, ShouldBeNil)
					So(backup.calls, ShouldResemble, []string{"shop"})
					So(notify.successes, ShouldResemble, []string{"shop s3://shop-bucket/databaseBackups/shop.7z"})
				})
			})

			Convey("And the backup fails", func() {
				backup.err = &domain.PipelineError{Project: "shop", Phase: domain.PhaseDump, Err: errors.New("connection refused")}
				notify.err = errors.New("telegram down")
				err := a.backupAction(shop)(context.Background())

				Convey("It should return the error and notify the failure", func() {
					So(err, ShouldEqual, backup.err)
					So(notify.failures, ShouldHaveLength, 1)
					So(notify.failures[0], ShouldContainSubstring, "connection refused")
					So(out.String(), ShouldContainSubstring, "[shop] notification failed: telegram down")
				})
			})
		})
	})
}

const fakeMongodump = `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    --uri=*) uri="${arg#--uri=}" ;;
    --out=*) out="${arg#--out=}" ;;
  esac
done
case "$uri" in
  *unreachable*) echo "Failed: error connecting to db server: no reachable servers" >&2; exit 1 ;;
esac
mkdir -p "$out" && echo "$uri" > "$out/dump.bson"
`

const fakeSevenZip = `#!/bin/sh
# a -t7z -mx=N -mmt=N <archive> <dir>
cat "$6/dump.bson" > "$5"
`

func writeScript(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte(content), 0755), ShouldBeNil)
	return path
}

func TestBackupEndToEnd(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	Convey("Given the production pipeline with stand-in tools", t, func() {
		root, err := os.MkdirTemp("", "app_e2e")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		var mu sync.Mutex
		stored := map[string]string{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			stored[r.URL.Path] = string(body)
			mu.Unlock()
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		var out bytes.Buffer
		log, err := logger.NewWithConsole("info", "", &out)
		So(err, ShouldBeNil)

		cfg := &config.Config{
			App: config.AppConfig{Name: "mongodb-backups"},
			Common: config.CommonSettings{
				DumpToolPath:       writeScript(root, "mongodump", fakeMongodump),
				ArchiverPath:       writeScript(root, "7z", fakeSevenZip),
				CompressionLevel:   3,
				CompressionThreads: 1,
				BackupDir:          filepath.Join(root, "backups"),
				DumpDir:            filepath.Join(root, "mongoDumpFolder"),
			},
		}

		shop := project("shop", config.StatusEnabled, "0 3 * * *")
		shop.S3Endpoint = srv.URL
		shop.DeleteLocalCopy = true
		blog := project("blog", config.StatusEnabled, "0 3 * * *")
		blog.S3Endpoint = srv.URL

		a, err := build(cfg, []config.ProjectConfig{shop, blog}, log, newBackup(log), nil)
		So(err, ShouldBeNil)

		Convey("When both jobs fire at the same time", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i, p := range []config.ProjectConfig{shop, blog} {
				wg.Add(1)
				go func(i int, p config.ProjectConfig) {
					defer wg.Done()
					errs[i] = a.backupAction(p)(context.Background())
				}(i, p)
			}
			wg.Wait()

			Convey("It should upload each project's own dump", func() {
				So(errs[0], ShouldBeNil)
				So(errs[1], ShouldBeNil)
				So(len(stored), ShouldEqual, 2)
				for key, body := range stored {
					if filepath.Dir(key) == "/shop-bucket/databaseBackups" {
						So(body, ShouldContainSubstring, "mongodb://localhost/shop")
					} else {
						So(filepath.Dir(key), ShouldEqual, "/blog-bucket/databaseBackups")
						So(body, ShouldContainSubstring, "mongodb://localhost/blog")
					}
				}
			})

			Convey("It should clean up dumps and honour DELETE_LOCAL_COPY", func() {
				dumps, _ := os.ReadDir(cfg.Common.DumpDir)
				So(dumps, ShouldBeEmpty)

				archives, _ := os.ReadDir(cfg.Common.BackupDir)
				So(len(archives), ShouldEqual, 1)
				So(archives[0].Name(), ShouldStartWith, "blog-")
				So(filepath.Ext(archives[0].Name()), ShouldEqual, ".7z")
			})
		})

		Convey("When the dump tool fails", func() {
			broken := project("broken", config.StatusEnabled, "0 3 * * *")
			broken.DBURI = "mongodb://unreachable/broken"
			broken.S3Endpoint = srv.URL

			err := a.backupAction(broken)(context.Background())

			Convey("It should surface the tool output without uploading", func() {
				var execErr *domain.ExecutionError
				So(errors.As(err, &execErr), ShouldBeTrue)
				So(execErr.Output, ShouldContainSubstring, "no reachable servers")
				So(stored, ShouldBeEmpty)
				So(out.String(), ShouldContainSubstring, "[broken] dumping failed")
			})
		})
	})
}
