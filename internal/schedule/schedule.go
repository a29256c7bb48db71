package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"imgsauce/internal/config"
	"imgsauce/internal/services"
)

const stageName = "schedule"

// Entry describes an installed crontab line.
type Entry struct {
	Minute  int
	Hour    int
	Command string
	Line    string
	Added   bool
}

// Scheduler rewrites the marked crontab entry.
type Scheduler struct {
	runner   Runner
	marker   string
	template string
	offset   time.Duration
	now      func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithRunner swaps the crontab runner.
func WithRunner(r Runner) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Scheduler from the schedule configuration section.
func New(cfg *config.Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   CrontabRunner{Binary: cfg.CrontabBinary()},
		marker:   cfg.Schedule.Marker,
		template: cfg.Schedule.Command,
		offset:   time.Duration(cfg.Schedule.OffsetMinutes) * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reschedule points the marked entry at dir and moves it to now + offset.
// A missing entry is appended.
func (s *Scheduler) Reschedule(ctx context.Context, dir string) (Entry, error) {
	if strings.TrimSpace(dir) == "" {
		return Entry{}, services.Wrap(services.ErrConfiguration, stageName, "reschedule", "directory required", nil)
	}
	at := s.now().Add(s.offset)
	entry := Entry{
		Minute:  at.Minute(),
		Hour:    at.Hour(),
		Command: FormatCommand(s.template, dir),
	}
	entry.Line = fmt.Sprintf("%d %d * * * %s # %s", entry.Minute, entry.Hour, entry.Command, s.marker)

	current, err := s.runner.Read(ctx)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrExternal, stageName, "read crontab", "", err)
	}
	updated, replaced := Rewrite(current, entry.Line, s.marker)
	entry.Added = !replaced
	if err := s.runner.Write(ctx, updated); err != nil {
		return Entry{}, services.Wrap(services.ErrExternal, stageName, "write crontab", "", err)
	}
	return entry, nil
}

// FormatCommand substitutes the shell-quoted directory into template.
func FormatCommand(template, dir string) string {
	return strings.ReplaceAll(template, "{dir}", shellQuote(dir))
}

// Rewrite replaces every line tagged with marker by line, or appends line
// when none is tagged. It reports whether a tagged line existed.
func Rewrite(content, line, marker string) (string, bool) {
	tag := "# " + marker
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, existing := range lines {
		if strings.HasSuffix(strings.TrimSpace(existing), tag) {
			if !replaced {
				out = append(out, line)
				replaced = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		if len(out) == 1 && out[0] == "" {
			out = out[:0]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n", replaced
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == '~' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
