package kernel

import (
	"context"
	"fmt"

	"redactado/pkg/redactado"
)

// gatewayRuntime is the kernel surface handed to one running gateway.
type gatewayRuntime struct {
	kernel  *Kernel
	gateway string
}

// OnInteraction stamps the gateway name and forwards to the dispatcher.
func (r *gatewayRuntime) OnInteraction(ctx context.Context, interaction *redactado.Interaction) {
	if interaction != nil && interaction.Gateway == "" {
		interaction.Gateway = r.gateway
	}
	r.kernel.dispatcher.OnInteraction(ctx, interaction)
}

// Descriptors returns the full publishable descriptor list.
func (r *gatewayRuntime) Descriptors(ctx context.Context) ([]redactado.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("gateway %s descriptors: %w", r.gateway, err)
	}

	descriptors, err := r.kernel.registry.AllDescriptors()
	if err != nil {
		return nil, fmt.Errorf("gateway %s descriptors: %w", r.gateway, err)
	}

	return descriptors, nil
}

// Ready notifies lifecycle listeners for this gateway.
func (r *gatewayRuntime) Ready(ctx context.Context, ready redactado.Ready) {
	if ready.Gateway == "" {
		ready.Gateway = r.gateway
	}
	r.kernel.notifyReady(ctx, ready)
}

// ReportError forwards one gateway-level asynchronous failure.
func (r *gatewayRuntime) ReportError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	r.kernel.report(ctx, fmt.Errorf("gateway %s: %w", r.gateway, err))
}

var _ redactado.GatewayRuntime = (*gatewayRuntime)(nil)
