package redactado

import "context"

// Command is a named unit of behavior invocable from the remote platform.
//
// Commands are registered once at startup and must be safe for concurrent
// Handle calls: two interactions for the same command can run at the same time.
type Command interface {
	// Descriptor returns the metadata published to the platform.
	// It is read at registration and again whenever the descriptor cache rebuilds.
	Descriptor() (Descriptor, error)
	// Handle executes one interaction.
	Handle(ctx context.Context, interaction *Interaction) error
}

// Ready describes one gateway that finished connecting and publishing descriptors.
type Ready struct {
	// Platform identifies the connected platform.
	Platform Platform
	// Gateway is the registered gateway name.
	Gateway string
	// SelfID is the bot account identifier on the platform.
	SelfID string
	// SelfName is the bot account display name on the platform.
	SelfName string
	// Published is the number of descriptors handed to the platform sync call.
	Published int
}

// LifecycleListener is an optional capability for commands that also react to
// platform lifecycle events.
//
// The registry detects it once at registration and keeps listeners in
// registration order.
type LifecycleListener interface {
	OnReady(ctx context.Context, ready Ready) error
}

// ErrorReporter receives faults that were contained instead of propagated.
type ErrorReporter interface {
	Report(ctx context.Context, fault error)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(ctx context.Context, fault error)

// Report calls f.
func (f ErrorReporterFunc) Report(ctx context.Context, fault error) {
	f(ctx, fault)
}
