package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"imgsauce/internal/config"
	"imgsauce/internal/fileutil"
	"imgsauce/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configErr    error
	configSource string
	configExists bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, source, exists, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.configSource = source
		c.configExists = exists
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// session is the shared setup of commands that touch the catalog: the run
// lock, a run id and a logger teed into the per-run log file.
type session struct {
	cfg    *config.Config
	runID  string
	base   *slog.Logger
	logger *slog.Logger
	lock   *fileutil.RunLock
	runLog *logging.RunLog
}

func (c *commandContext) openSession(component string) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock, err := fileutil.AcquireRunLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, fileutil.ErrLocked) {
			return nil, fmt.Errorf("%w; wait for the other scan or review to finish", err)
		}
		return nil, err
	}

	base, err := logging.NewFromConfig(cfg)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("init logger: %w", err)
	}
	runID := uuid.NewString()
	runLog, err := logging.OpenRunLog(cfg.Paths.LogDir, runID)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}
	logger := runLog.Attach(base)
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, runLog.Path)

	s := &session{
		cfg:    cfg,
		runID:  runID,
		base:   logger,
		lock:   lock,
		runLog: runLog,
	}
	s.logger = s.componentLogger(component)
	return s, nil
}

// componentLogger derives a logger for a collaborator of the session.
func (s *session) componentLogger(component string) *slog.Logger {
	return logging.ForComponent(s.base, component, s.cfg.Logging.StageOverrides)
}

func (s *session) Close() {
	_ = s.runLog.Close()
	_ = s.lock.Release()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
