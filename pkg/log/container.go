package log

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mwantia/fabric/pkg/container"
)

// Resolve returns the LoggerService registered in sc. A non-empty name
// returns the named child logger instead.
func Resolve(ctx context.Context, sc *container.ServiceContainer, name string) (LoggerService, error) {
	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve LoggerService: no logger service registered")
	}

	logger, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved logger is not a LoggerService")
	}

	if name != "" {
		return logger.Named(name), nil
	}
	return logger, nil
}
