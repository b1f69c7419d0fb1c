package kernel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"redactado/pkg/redactado"
)

func eventually(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("condition not met before timeout")
}

func slashCommand(name string) *stubCommand {
	return &stubCommand{descriptor: redactado.Descriptor{
		Type:        redactado.CommandTypeChatInput,
		Name:        name,
		Description: name + " command",
	}}
}

func contextCommand(name string, commandType redactado.CommandType) *stubCommand {
	return &stubCommand{descriptor: redactado.Descriptor{Type: commandType, Name: name}}
}

func slashInteraction(name string) *redactado.Interaction {
	return &redactado.Interaction{
		ID:         "interaction-" + name,
		Platform:   redactado.PlatformDiscord,
		Type:       redactado.CommandTypeChatInput,
		Name:       name,
		Actor:      redactado.Actor{ID: "user-1"},
		ReceivedAt: time.Unix(1_700_000_000, 0),
	}
}

type stubCommand struct {
	descriptor redactado.Descriptor
	handle     func(ctx context.Context, interaction *redactado.Interaction) error

	gate            chan struct{}
	gateArmed       atomic.Bool
	failDescriptor  atomic.Bool
	panicDescriptor atomic.Bool

	descriptorCalls atomic.Int32
	handled         atomic.Int32
}

func (c *stubCommand) Descriptor() (redactado.Descriptor, error) {
	c.descriptorCalls.Add(1)
	if c.gate != nil && c.gateArmed.Load() {
		<-c.gate
	}
	if c.failDescriptor.Load() {
		return redactado.Descriptor{}, errors.New("descriptor unavailable")
	}
	if c.panicDescriptor.Load() {
		panic("descriptor accessor exploded")
	}

	return c.descriptor.Clone(), nil
}

func (c *stubCommand) Handle(ctx context.Context, interaction *redactado.Interaction) error {
	c.handled.Add(1)
	if c.handle != nil {
		return c.handle(ctx, interaction)
	}

	return nil
}

type stubListenerCommand struct {
	*stubCommand

	onReady func(ctx context.Context, ready redactado.Ready) error
	readies atomic.Int32
}

func (c *stubListenerCommand) OnReady(ctx context.Context, ready redactado.Ready) error {
	c.readies.Add(1)
	if c.onReady != nil {
		return c.onReady(ctx, ready)
	}

	return nil
}

type recordingReporter struct {
	mu     sync.Mutex
	faults []error
}

func (r *recordingReporter) Report(_ context.Context, fault error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.faults = append(r.faults, fault)
}

func (r *recordingReporter) Faults() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.faults...)
}

type recordingResponder struct {
	mu       sync.Mutex
	deferred int
	replies  []string
}

func (r *recordingResponder) Defer(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deferred++
	return nil
}

func (r *recordingResponder) Reply(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.replies = append(r.replies, content)
	return nil
}

func (r *recordingResponder) Latency() time.Duration {
	return 42 * time.Millisecond
}

func (r *recordingResponder) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.replies...)
}
