package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/burnwise/burnwise/internal/config"
	"github.com/burnwise/burnwise/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrForbidden = errors.New("forbidden")

// Checker answers whether the caller in ctx may perform administrative actions
// (approving amendments, locking time entries) on a project.
type Checker interface {
	CanManageProject(ctx context.Context, projectId int) (bool, error)
}

// ConfigChecker grants management rights to the people listed in configuration.
type ConfigChecker struct {
	allowAll bool
	managers map[string]struct{}
}

func NewConfigChecker(cfg config.Access) *ConfigChecker {
	managers := make(map[string]struct{}, len(cfg.Managers))
	for _, m := range cfg.Managers {
		if m != "" {
			managers[m] = struct{}{}
		}
	}
	return &ConfigChecker{allowAll: cfg.AllowAll, managers: managers}
}

func (c *ConfigChecker) CanManageProject(ctx context.Context, projectId int) (bool, error) {
	if c.allowAll {
		return true, nil
	}
	userId, err := user.CurrentId(ctx)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			return false, nil
		}
		return false, err
	}
	_, ok := c.managers[userId]
	log.Debugf("user %s may manage project %d: %v", userId, projectId, ok)
	return ok, nil
}

// Require returns ErrForbidden unless checker grants access to projectId.
func Require(ctx context.Context, checker Checker, projectId int) error {
	allowed, err := checker.CanManageProject(ctx, projectId)
	if err != nil {
		return fmt.Errorf("capability check failed: %w", err)
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// StaticChecker always answers with Allowed.
type StaticChecker struct {
	Allowed bool
}

func (s StaticChecker) CanManageProject(ctx context.Context, projectId int) (bool, error) {
	return s.Allowed, nil
}
