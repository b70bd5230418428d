package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Action is the work a job performs on every trigger.
type Action func(ctx context.Context) error

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Successf(template string, args ...interface{})
}

// Entry describes one registered job for status reporting.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	id       cron.EntryID
	action   Action
	running  int
}

// Scheduler owns a named set of recurring jobs. Every trigger runs on its
// own goroutine, and a failing job is logged without affecting any other.
type Scheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	logger   Logger
	location *time.Location
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job

	reportMu sync.Mutex
}

type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// New accepts standard 5-field expressions, an optional leading seconds
// field and descriptors such as @daily or @every 1h.
func New(logger Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		parser: cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
		logger:   logger,
		location: time.Local,
		now:      time.Now,
		jobs:     make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.location))
	return s
}

// Register adds a job, replacing any job already registered under name.
// A day-of-week of 7 is accepted as Sunday.
func (s *Scheduler) Register(name, spec string, action Action) error {
	schedule, err := s.parser.Parse(sundayAsZero(spec))
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", spec, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[name]; ok {
		s.cron.Remove(prev.id)
		s.logger.Warnf("Job %s was already scheduled, replacing it", name)
	}

	j := &job{name: name, spec: spec, schedule: schedule, action: action}
	j.id = s.cron.Schedule(schedule, cron.FuncJob(func() { s.run(name) }))
	s.jobs[name] = j
	return nil
}

// sundayAsZero rewrites 7 in the day-of-week field to 0, which is the
// only Sunday the cron parser knows.
func sundayAsZero(spec string) string {
	fields := strings.Fields(spec)
	if len(fields) < 5 || strings.HasPrefix(fields[0], "@") {
		return spec
	}

	dow := fields[len(fields)-1]
	var items []string
	for _, item := range strings.Split(dow, ",") {
		items = append(items, sundayItem(item)...)
	}
	fields[len(fields)-1] = strings.Join(items, ",")
	return strings.Join(fields, " ")
}

func sundayItem(item string) []string {
	rng, step, hasStep := strings.Cut(item, "/")
	if rng == "7" && !hasStep {
		return []string{"0"}
	}

	lo, hi, isRange := strings.Cut(rng, "-")
	if !isRange || hi != "7" {
		return []string{item}
	}
	if lo == "7" {
		return []string{"0"}
	}

	start, err := strconv.Atoi(lo)
	if err != nil {
		return []string{item}
	}
	every := 1
	if hasStep {
		if every, err = strconv.Atoi(step); err != nil || every < 1 {
			return []string{item}
		}
	}

	head := lo + "-6"
	if hasStep {
		head += "/" + step
	}
	if start == 0 || (7-start)%every != 0 {
		return []string{head}
	}
	return []string{head, "0"}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the clock, waits for running jobs to return and then cancels
// the context handed to actions.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cancel()
}

// run is the trigger for one job. Failures and panics end here.
func (s *Scheduler) run(name string) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	j.running++
	overlapping := j.running > 1
	action := j.action
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		j.running--
		s.mu.Unlock()
	}()

	if overlapping {
		s.logger.Warnf("[%s] previous backup is still running, starting another one", name)
	}

	s.logger.Infof("[%s] starting the backup process...", name)
	start := s.now()

	if err := s.invoke(action); err != nil {
		s.logger.Errorf("[%s] backup error after %s: %v", name, s.now().Sub(start).Round(time.Second), err)
	} else {
		s.logger.Successf("[%s] backup completed successfully!", name)
	}

	s.Report()
}

func (s *Scheduler) invoke(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(s.ctx)
}

// Running reports how many runs of name are in flight.
func (s *Scheduler) Running(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[name]; ok {
		return j.running
	}
	return 0
}

// List returns every job ordered by its next fire time, then by name.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.location)
	entries := make([]Entry, 0, len(s.jobs))
	for _, j := range s.jobs {
		next := s.cron.Entry(j.id).Next
		if next.IsZero() {
			next = j.schedule.Next(now)
		}
		entries = append(entries, Entry{Name: j.name, Spec: j.spec, Next: next})
	}

	sort.Slice(entries, func(a, b int) bool {
		if !entries[a].Next.Equal(entries[b].Next) {
			return entries[a].Next.Before(entries[b].Next)
		}
		return entries[a].Name < entries[b].Name
	})
	return entries
}

// Report logs the full schedule. Concurrent calls do not interleave.
func (s *Scheduler) Report() {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()

	s.logger.Infof("Schedule:")
	for _, e := range s.List() {
		s.logger.Infof("%s backup is scheduled for %s", e.Name, e.Next.Format(time.RFC1123))
	}
}
