package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

// Command is implemented by every write use case so the observable
// decorator can name and describe it.
type Command interface {
	CommandName() string
	LogAttrs() []any
}

// Handler executes a command and returns its result.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// notFound adds the entity to a repository ErrNotFound; other errors pass
// through untouched.
func notFound(err error, entity, id string) error {
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	}
	return err
}

func requireAdmin(actor domain.Actor, action string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only an admin may %s", domain.ErrUnauthorized, action)
	}
	return nil
}

// publishFailed logs an event that could not be delivered. Delivery is best
// effort and never fails the command.
func publishFailed(ctx context.Context, logger *slog.Logger, event string, err error) {
	if err == nil {
		return
	}
	logger.WarnContext(ctx, "failed to publish event", "event", event, "error", err)
}
