package middleware

import (
	"context"
	"errors"
	"fmt"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	"staybook/internal/domain/admission"
)

// ScopedCommand lets a command declare the commit scope its unit of work
// must serialize on.
type ScopedCommand interface {
	commands.Command
	TxScope() uow.TxOptions
}

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// ScopeFromCommand is the default options provider: commands that know their
// commit scope declare it, everything else gets an unscoped unit.
func ScopeFromCommand(cmd commands.Command) uow.TxOptions {
	if scoped, ok := cmd.(ScopedCommand); ok {
		return scoped.TxScope()
	}
	return uow.TxOptions{}
}

func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if optsProvider == nil {
		optsProvider = ScopeFromCommand
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, optsProvider(cmd))
			if err != nil {
				return nil, tagConflict(err)
			}
			execCtx := ctx
			if injector, ok := unit.(interface {
				InjectContext(context.Context) context.Context
			}); ok {
				execCtx = injector.InjectContext(ctx)
			}
			execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, tagConflict(err)
			}
			committed = true
			return res, nil
		})
	}
}

// tagConflict surfaces scope contention as the retryable admission outcome.
func tagConflict(err error) error {
	if errors.Is(err, uow.ErrConflict) && !errors.Is(err, admission.ErrContention) {
		return fmt.Errorf("%w: %v", admission.ErrContention, err)
	}
	return err
}
