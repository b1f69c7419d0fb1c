package redactado

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateCommand indicates a command name collision inside one namespace.
	ErrDuplicateCommand = errors.New("redactado: duplicate command")
	// ErrInvalidCommand indicates a command or descriptor that violates registration invariants.
	ErrInvalidCommand = errors.New("redactado: invalid command")
	// ErrInvalidInteraction indicates an interaction that does not satisfy protocol invariants.
	ErrInvalidInteraction = errors.New("redactado: invalid interaction")
	// ErrDescriptorBuild indicates a failure while generating a descriptor list.
	ErrDescriptorBuild = errors.New("redactado: descriptor build failed")
	// ErrHandlerFault indicates a failed or panicking command handler invocation.
	ErrHandlerFault = errors.New("redactado: handler fault")
	// ErrNoResponder indicates an interaction without a platform responder.
	ErrNoResponder = errors.New("redactado: interaction has no responder")
	// ErrGatewayAlreadyRegistered indicates duplicate gateway registration.
	ErrGatewayAlreadyRegistered = errors.New("redactado: gateway already registered")
)

// DuplicateCommandError reports a rejected registration whose name already exists in its namespace.
//
// It is a configuration error: callers performing startup registration should abort boot.
type DuplicateCommandError struct {
	Namespace Namespace
	Name      string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("%s command %q already registered", e.Namespace, e.Name)
}

// Is matches ErrDuplicateCommand.
func (e *DuplicateCommandError) Is(target error) bool {
	return target == ErrDuplicateCommand
}

// HandlerFault wraps one failed command invocation before it reaches the error reporter.
type HandlerFault struct {
	Namespace     Namespace
	Name          string
	InteractionID string
	// Panicked reports whether the handler panicked instead of returning an error.
	Panicked bool
	Err      error
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("%s command %q interaction %s: %v", f.Namespace, f.Name, f.InteractionID, f.Err)
}

// Unwrap returns the handler cause.
func (f *HandlerFault) Unwrap() error {
	return f.Err
}

// Is matches ErrHandlerFault.
func (f *HandlerFault) Is(target error) bool {
	return target == ErrHandlerFault
}

// DescriptorBuildError reports a command whose descriptor could not be produced during a cache rebuild.
type DescriptorBuildError struct {
	Namespace Namespace
	Name      string
	Err       error
}

func (e *DescriptorBuildError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("build %s descriptors: %v", e.Namespace, e.Err)
	}
	return fmt.Sprintf("build %s descriptor %q: %v", e.Namespace, e.Name, e.Err)
}

// Unwrap returns the descriptor accessor cause.
func (e *DescriptorBuildError) Unwrap() error {
	return e.Err
}

// Is matches ErrDescriptorBuild.
func (e *DescriptorBuildError) Is(target error) bool {
	return target == ErrDescriptorBuild
}
