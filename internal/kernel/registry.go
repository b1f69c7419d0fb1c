package kernel

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"redactado/pkg/redactado"
)

// CommandRegistry stores command handlers keyed by namespace and exact name.
//
// Registration and descriptor reads are safe for concurrent use. A successful
// registration invalidates every cached descriptor list before the write lock
// is released.
type CommandRegistry struct {
	mu        sync.RWMutex
	commands  map[redactado.Namespace]map[string]redactado.Command
	listeners []redactado.LifecycleListener
	cache     *descriptorCache
}

// NewCommandRegistry creates an empty registry whose descriptor lists expire after ttl.
func NewCommandRegistry(ttl time.Duration, capacity int) *CommandRegistry {
	return &CommandRegistry{
		commands: map[redactado.Namespace]map[string]redactado.Command{
			redactado.NamespaceSlash:       {},
			redactado.NamespaceContextMenu: {},
		},
		cache: newDescriptorCache(capacity, ttl),
	}
}

// Register adds one command under the namespace selected by its descriptor.
func (r *CommandRegistry) Register(command redactado.Command) error {
	if command == nil {
		return fmt.Errorf("register command: %w: nil command", redactado.ErrInvalidCommand)
	}

	descriptor, err := command.Descriptor()
	if err != nil {
		return fmt.Errorf("register command: read descriptor: %w", err)
	}
	if err := descriptor.Validate(); err != nil {
		return fmt.Errorf("register command: %w", err)
	}
	namespace, err := descriptor.Namespace()
	if err != nil {
		return fmt.Errorf("register command %s: %w", descriptor.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[namespace][descriptor.Name]; exists {
		return fmt.Errorf("register command: %w", &redactado.DuplicateCommandError{
			Namespace: namespace,
			Name:      descriptor.Name,
		})
	}

	r.commands[namespace][descriptor.Name] = command
	if listener, ok := command.(redactado.LifecycleListener); ok {
		r.listeners = append(r.listeners, listener)
	}
	r.cache.invalidate()

	return nil
}

// Lookup returns the command registered under name in namespace.
func (r *CommandRegistry) Lookup(name string, namespace redactado.Namespace) (redactado.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	command, ok := r.commands[namespace][name]

	return command, ok
}

// Descriptors returns the descriptor list of one namespace ordered by name.
func (r *CommandRegistry) Descriptors(namespace redactado.Namespace) ([]redactado.Descriptor, error) {
	if err := namespace.Validate(); err != nil {
		return nil, fmt.Errorf("descriptors: %w", err)
	}

	descriptors, err := r.cache.get(descriptorKey(namespace), func() ([]redactado.Descriptor, error) {
		return r.buildDescriptors(namespace)
	})
	if err != nil {
		return nil, fmt.Errorf("descriptors %s: %w", namespace, err)
	}

	return descriptors, nil
}

// AllDescriptors returns context-menu descriptors followed by slash descriptors.
func (r *CommandRegistry) AllDescriptors() ([]redactado.Descriptor, error) {
	descriptors, err := r.cache.get(descriptorKeyAll, func() ([]redactado.Descriptor, error) {
		contextMenu, err := r.Descriptors(redactado.NamespaceContextMenu)
		if err != nil {
			return nil, err
		}
		slash, err := r.Descriptors(redactado.NamespaceSlash)
		if err != nil {
			return nil, err
		}

		return append(contextMenu, slash...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("all descriptors: %w", err)
	}

	return descriptors, nil
}

// Listeners returns lifecycle listeners in registration order.
func (r *CommandRegistry) Listeners() []redactado.LifecycleListener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]redactado.LifecycleListener(nil), r.listeners...)
}

// Len returns the number of commands registered in namespace.
func (r *CommandRegistry) Len(namespace redactado.Namespace) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.commands[namespace])
}

func (r *CommandRegistry) buildDescriptors(namespace redactado.Namespace) ([]redactado.Descriptor, error) {
	r.mu.RLock()
	names := make([]string, 0, len(r.commands[namespace]))
	commands := make(map[string]redactado.Command, len(r.commands[namespace]))
	for name, command := range r.commands[namespace] {
		names = append(names, name)
		commands[name] = command
	}
	r.mu.RUnlock()

	sort.Strings(names)

	descriptors := make([]redactado.Descriptor, 0, len(names))
	for _, name := range names {
		var descriptor redactado.Descriptor
		err := runSafely("read descriptor", func() error {
			var readErr error
			descriptor, readErr = commands[name].Descriptor()
			return readErr
		})
		if err != nil {
			return nil, &redactado.DescriptorBuildError{Namespace: namespace, Name: name, Err: err}
		}
		if descriptor.Name != name {
			return nil, &redactado.DescriptorBuildError{
				Namespace: namespace,
				Name:      name,
				Err:       fmt.Errorf("descriptor renamed to %q after registration", descriptor.Name),
			}
		}
		descriptors = append(descriptors, descriptor.Clone())
	}

	return descriptors, nil
}

func descriptorKey(namespace redactado.Namespace) string {
	if namespace == redactado.NamespaceContextMenu {
		return descriptorKeyContext
	}

	return descriptorKeySlash
}
