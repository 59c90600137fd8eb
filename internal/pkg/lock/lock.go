// Package lock serialises mutations of one aggregate across goroutines and,
// with the Redis driver, across instances.
package lock

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker acquires an exclusive lock on key. The returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type heldKeysCtxKey struct{}

// WithLock runs fn while holding key. If ctx already holds key (a nested
// call from inside another WithLock on the same key) fn runs directly.
func WithLock(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	held, _ := ctx.Value(heldKeysCtxKey{}).(map[string]struct{})
	if _, ok := held[key]; ok {
		return fn(ctx)
	}

	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	next := make(map[string]struct{}, len(held)+1)
	for k := range held {
		next[k] = struct{}{}
	}
	next[key] = struct{}{}

	return fn(context.WithValue(ctx, heldKeysCtxKey{}, next))
}

// EmployeeKey is the lock key guarding all attendance state of one employee.
func EmployeeKey(employeeID string) string {
	return "attendance:employee:" + employeeID
}
