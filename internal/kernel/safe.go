package kernel

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// recoveredPanic carries a panic value converted into an error at a goroutine boundary.
type recoveredPanic struct {
	value any
	stack []byte
}

func (p *recoveredPanic) Error() string {
	return fmt.Sprintf("panic recovered: %v", p.value)
}

// runSafely executes fn and converts panics into returned errors tagged with scope.
// It is used at goroutine and lifecycle boundaries to prevent process-wide crashes.
func runSafely(scope string, fn func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		err = fmt.Errorf("%s: %w", scope, &recoveredPanic{value: recovered, stack: debug.Stack()})
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", scope, err)
	}

	return nil
}

// isRecoveredPanic reports whether err originated from a recovered panic.
func isRecoveredPanic(err error) bool {
	var recovered *recoveredPanic
	return errors.As(err, &recovered)
}
