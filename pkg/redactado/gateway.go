package redactado

import "context"

// InteractionSink accepts inbound interactions from a gateway.
//
// Implementations must return quickly: gateways call OnInteraction from their
// event loop.
type InteractionSink interface {
	OnInteraction(ctx context.Context, interaction *Interaction)
}

// GatewayRuntime is the kernel surface visible to a running gateway.
type GatewayRuntime interface {
	InteractionSink
	// Descriptors returns every currently registered descriptor for the platform sync call.
	Descriptors(ctx context.Context) ([]Descriptor, error)
	// Ready notifies lifecycle listeners that the gateway is connected.
	Ready(ctx context.Context, ready Ready)
	// ReportError forwards gateway-level asynchronous failures.
	ReportError(ctx context.Context, err error)
}

// Gateway adapts one remote platform connection into interactions.
//
// Gateways own transport, session and authentication concerns.
type Gateway interface {
	// Name returns a stable gateway identifier.
	Name() string
	// Start connects and delivers interactions until ctx is canceled or a fatal error occurs.
	Start(ctx context.Context, runtime GatewayRuntime) error
	// Shutdown releases resources not tied to the Start context.
	Shutdown(ctx context.Context) error
}
