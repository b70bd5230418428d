package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/semmidev/mongovault/internal/domain"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// RequiredFields lists the project keys that must be non-empty, in the
// order they are reported.
var RequiredFields = []string{
	"STATUS", "CRON", "DB_URI", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
}

var projectExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".json": true, ".toml": true, ".env": true,
}

// ProjectConfig is one backup target. Name is the file name without its
// extension.
type ProjectConfig struct {
	Name            string `mapstructure:"-"`
	Status          string `mapstructure:"STATUS"`
	Cron            string `mapstructure:"CRON"`
	DBURI           string `mapstructure:"DB_URI"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3AccessKey     string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string `mapstructure:"S3_SECRET_KEY"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	DeleteLocalCopy bool   `mapstructure:"DELETE_LOCAL_COPY"`
}

func (p ProjectConfig) Enabled() bool {
	return p.Status == StatusEnabled
}

func (p ProjectConfig) StorageTarget() domain.StorageTarget {
	return domain.StorageTarget{
		Region:    p.S3Region,
		Bucket:    p.S3Bucket,
		AccessKey: p.S3AccessKey,
		SecretKey: p.S3SecretKey,
		Endpoint:  p.S3Endpoint,
	}
}

func (p ProjectConfig) field(name string) string {
	switch name {
	case "STATUS":
		return p.Status
	case "CRON":
		return p.Cron
	case "DB_URI":
		return p.DBURI
	case "S3_REGION":
		return p.S3Region
	case "S3_BUCKET":
		return p.S3Bucket
	case "S3_ACCESS_KEY":
		return p.S3AccessKey
	case "S3_SECRET_KEY":
		return p.S3SecretKey
	}
	return ""
}

// ValidateProject returns the required fields missing from p.
func ValidateProject(p ProjectConfig) []string {
	var missing []string
	for _, field := range RequiredFields {
		if strings.TrimSpace(p.field(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// LoadProjects reads one project per file in dir. Files that cannot be
// parsed or miss a required field are logged and skipped. The result is
// sorted by name.
func LoadProjects(dir string, log Logger) ([]ProjectConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	seen := make(map[string]string)
	var projects []ProjectConfig

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		file := entry.Name()
		ext := strings.ToLower(filepath.Ext(file))
		if !projectExtensions[ext] {
			continue
		}

		name := strings.TrimSuffix(file, filepath.Ext(file))
		if name == "example" {
			continue
		}

		if prev, ok := seen[name]; ok {
			log.Warnf("[WARNING] %s ignored, project %s already defined by %s", file, name, prev)
			continue
		}

		project, err := readProject(filepath.Join(dir, file))
		if err != nil {
			log.Warnf("[WARNING] %s could not be read: %v", file, err)
			continue
		}
		project.Name = name

		if missing := ValidateProject(project); len(missing) > 0 {
			for _, field := range missing {
				log.Warnf("[WARNING] %s is missing %s", file, field)
			}
			continue
		}

		seen[name] = file
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	log.Infof("Loaded %d project(s) from %s", len(projects), dir)
	return projects, nil
}

func readProject(path string) (ProjectConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("DELETE_LOCAL_COPY", false)
	v.SetDefault("S3_ENDPOINT", "")

	if err := v.ReadInConfig(); err != nil {
		return ProjectConfig{}, err
	}

	var project ProjectConfig
	if err := v.Unmarshal(&project); err != nil {
		return ProjectConfig{}, err
	}
	return project, nil
}

// EnabledProjects filters projects down to the ones that get a job.
func EnabledProjects(projects []ProjectConfig) []ProjectConfig {
	var enabled []ProjectConfig
	for _, p := range projects {
		if p.Enabled() {
			enabled = append(enabled, p)
		}
	}
	return enabled
}
