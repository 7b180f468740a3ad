package checkers

import (
	"context"
	"fmt"
	"os"
)

// SessionsDirChecker verifies the file session store is writable.
type SessionsDirChecker struct {
	dir string
}

func NewSessionsDirChecker(dir string) *SessionsDirChecker {
	return &SessionsDirChecker{dir: dir}
}

func (c *SessionsDirChecker) Name() string { return "sessions-dir" }

func (c *SessionsDirChecker) Check(ctx context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("sessions dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sessions dir %s is not a directory", c.dir)
	}
	f, err := os.CreateTemp(c.dir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("sessions dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
