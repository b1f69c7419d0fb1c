package kernel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"redactado/pkg/redactado"
)

func TestKernelPingEndToEnd(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	kernelRuntime := New(WithErrorReporter(reporter))
	if err := kernelRuntime.RegisterCommand(pingCommand()); err != nil {
		t.Fatalf("register ping failed: %v", err)
	}

	responder := &recordingResponder{}
	gateway := &stubGateway{
		name: "discord",
		onStart: func(ctx context.Context, runtime redactado.GatewayRuntime) {
			interaction := slashInteraction("ping")
			interaction.Responder = responder
			runtime.OnInteraction(ctx, interaction)
		},
	}
	if err := kernelRuntime.RegisterGateway(gateway); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- kernelRuntime.Run(ctx) }()

	eventually(t, time.Second, func() bool {
		return len(responder.Replies()) == 1
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := responder.Replies()[0]; !strings.HasPrefix(got, "Pong!") {
		t.Fatalf("reply = %q, want Pong! prefix", got)
	}
	if faults := reporter.Faults(); len(faults) != 0 {
		t.Fatalf("reports = %v, want none", faults)
	}
	if gateway.stopped.Load() != 1 {
		t.Fatalf("gateway shutdown calls = %d, want 1", gateway.stopped.Load())
	}
}

func TestKernelDuplicatePingFailsRegistration(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	err := kernelRuntime.RegisterCommands(pingCommand(), pingCommand())
	if !errors.Is(err, redactado.ErrDuplicateCommand) {
		t.Fatalf("error = %v, want ErrDuplicateCommand", err)
	}
	if got := kernelRuntime.Registry().Len(redactado.NamespaceSlash); got != 1 {
		t.Fatalf("slash len = %d, want 1", got)
	}
}

func TestKernelRegisterGatewayRejectsDuplicates(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	if err := kernelRuntime.RegisterGateway(&stubGateway{name: "discord"}); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}
	err := kernelRuntime.RegisterGateway(&stubGateway{name: "discord"})
	if !errors.Is(err, redactado.ErrGatewayAlreadyRegistered) {
		t.Fatalf("error = %v, want ErrGatewayAlreadyRegistered", err)
	}
	if err := kernelRuntime.RegisterGateway(nil); err == nil {
		t.Fatal("expected nil gateway error")
	}
}

func TestKernelShutsDownGatewaysInReverseOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	kernelRuntime := New(WithShutdownTimeout(time.Second))
	for _, name := range []string{"first", "second", "third"} {
		if err := kernelRuntime.RegisterGateway(&stubGateway{name: name, onShutdown: record(name)}); err != nil {
			t.Fatalf("register gateway %s failed: %v", name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := kernelRuntime.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "third,second,first" {
		t.Fatalf("shutdown order = %v, want [third second first]", order)
	}
}

func TestKernelRunReturnsFatalGatewayError(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	gatewayErr := errors.New("login rejected")
	if err := kernelRuntime.RegisterGateway(&stubGateway{name: "broken", startErr: gatewayErr}); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}

	err := kernelRuntime.Run(context.Background())
	if !errors.Is(err, gatewayErr) {
		t.Fatalf("run error = %v, want gateway error", err)
	}
}

func TestKernelRunRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	started := make(chan struct{})
	if err := kernelRuntime.RegisterGateway(&stubGateway{
		name:    "blocking",
		onStart: func(context.Context, redactado.GatewayRuntime) { close(started) },
	}); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- kernelRuntime.Run(ctx) }()
	<-started

	if err := kernelRuntime.Run(context.Background()); err == nil {
		t.Fatal("expected concurrent run error")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestKernelReadyNotifiesListeners(t *testing.T) {
	t.Parallel()

	listenerErr := errors.New("listener failed")
	tests := []struct {
		name          string
		options       []Option
		wantReadies   int32
		wantReports   int
		wantPublished int
	}{
		{
			name:          "listeners enabled",
			wantReadies:   1,
			wantReports:   2,
			wantPublished: 3,
		},
		{
			name:          "listeners disabled",
			options:       []Option{WithListeners(false)},
			wantReadies:   0,
			wantReports:   0,
			wantPublished: 3,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			reporter := &recordingReporter{}
			kernelRuntime := New(append(testCase.options, WithErrorReporter(reporter))...)

			var sequence []string
			var sequenceMu sync.Mutex
			appendSequence := func(name string) {
				sequenceMu.Lock()
				defer sequenceMu.Unlock()
				sequence = append(sequence, name)
			}

			panicking := &stubListenerCommand{
				stubCommand: slashCommand("panics"),
				onReady: func(context.Context, redactado.Ready) error {
					appendSequence("panics")
					panic("listener panic")
				},
			}
			failing := &stubListenerCommand{
				stubCommand: contextCommand("Fails", redactado.CommandTypeUser),
				onReady: func(context.Context, redactado.Ready) error {
					appendSequence("fails")
					return listenerErr
				},
			}
			healthy := &stubListenerCommand{
				stubCommand: slashCommand("healthy"),
				onReady: func(_ context.Context, ready redactado.Ready) error {
					appendSequence("healthy")
					if ready.Gateway != "discord" {
						return fmt.Errorf("ready gateway = %q", ready.Gateway)
					}
					return nil
				},
			}
			if err := kernelRuntime.RegisterCommands(panicking, failing, healthy); err != nil {
				t.Fatalf("register commands failed: %v", err)
			}

			published := make(chan int, 1)
			gateway := &stubGateway{
				name: "discord",
				onStart: func(ctx context.Context, runtime redactado.GatewayRuntime) {
					descriptors, err := runtime.Descriptors(ctx)
					if err != nil {
						runtime.ReportError(ctx, err)
						return
					}
					published <- len(descriptors)
					runtime.Ready(ctx, redactado.Ready{Platform: redactado.PlatformDiscord, Published: len(descriptors)})
				},
			}
			if err := kernelRuntime.RegisterGateway(gateway); err != nil {
				t.Fatalf("register gateway failed: %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- kernelRuntime.Run(ctx) }()

			if got := <-published; got != testCase.wantPublished {
				t.Fatalf("published = %d, want %d", got, testCase.wantPublished)
			}
			eventually(t, time.Second, func() bool {
				return healthy.readies.Load() == testCase.wantReadies && len(reporter.Faults()) == testCase.wantReports
			})
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if testCase.wantReadies == 0 {
				return
			}
			sequenceMu.Lock()
			defer sequenceMu.Unlock()
			if strings.Join(sequence, ",") != "panics,fails,healthy" {
				t.Fatalf("listener order = %v, want [panics fails healthy]", sequence)
			}
			faults := reporter.Faults()
			if !isRecoveredPanic(faults[0]) {
				t.Fatalf("first fault = %v, want recovered panic", faults[0])
			}
			if !errors.Is(faults[1], listenerErr) {
				t.Fatalf("second fault = %v, want listener error", faults[1])
			}
		})
	}
}

func TestKernelGatewayReportErrorForwardsToReporter(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	kernelRuntime := New(WithErrorReporter(reporter))
	asyncErr := errors.New("heartbeat missed")
	if err := kernelRuntime.RegisterGateway(&stubGateway{
		name: "telegram",
		onStart: func(ctx context.Context, runtime redactado.GatewayRuntime) {
			runtime.ReportError(ctx, asyncErr)
			runtime.ReportError(ctx, nil)
		},
	}); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- kernelRuntime.Run(ctx) }()

	eventually(t, time.Second, func() bool {
		return len(reporter.Faults()) == 1
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fault := reporter.Faults()[0]; !errors.Is(fault, asyncErr) || !strings.Contains(fault.Error(), "telegram") {
		t.Fatalf("fault = %v, want wrapped telegram error", fault)
	}
}

func TestKernelLateRegistrationVisibleToDispatch(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	interactions := make(chan redactado.GatewayRuntime, 1)
	if err := kernelRuntime.RegisterGateway(&stubGateway{
		name: "discord",
		onStart: func(_ context.Context, runtime redactado.GatewayRuntime) {
			interactions <- runtime
		},
	}); err != nil {
		t.Fatalf("register gateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- kernelRuntime.Run(ctx) }()
	runtime := <-interactions

	runtime.OnInteraction(ctx, slashInteraction("late"))
	late := slashCommand("late")
	if err := kernelRuntime.RegisterCommand(late); err != nil {
		t.Fatalf("register late command failed: %v", err)
	}
	runtime.OnInteraction(ctx, slashInteraction("late"))

	eventually(t, time.Second, func() bool {
		return late.handled.Load() == 1
	})
	descriptors, err := runtime.Descriptors(ctx)
	if err != nil {
		t.Fatalf("descriptors failed: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].Name != "late" {
		t.Fatalf("descriptors = %+v, want [late]", descriptors)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestKernelGatewayDescriptorsRecoverFromPanickingCommand(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	command := slashCommand("volatile")
	if err := kernelRuntime.RegisterCommand(command); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	runtime := &gatewayRuntime{kernel: kernelRuntime, gateway: "discord"}

	command.panicDescriptor.Store(true)
	_, err := runtime.Descriptors(context.Background())
	if !errors.Is(err, redactado.ErrDescriptorBuild) {
		t.Fatalf("error = %v, want ErrDescriptorBuild", err)
	}

	command.panicDescriptor.Store(false)
	descriptors, err := runtime.Descriptors(context.Background())
	if err != nil {
		t.Fatalf("descriptors after recovery failed: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].Name != "volatile" {
		t.Fatalf("descriptors = %+v, want [volatile]", descriptors)
	}
}

func pingCommand() *stubCommand {
	command := slashCommand("ping")
	command.handle = func(ctx context.Context, interaction *redactado.Interaction) error {
		started := time.Now()
		if err := interaction.Defer(ctx); err != nil {
			return err
		}
		return interaction.Reply(ctx, fmt.Sprintf(
			"Pong! Response time: %dms, gateway latency: %dms",
			time.Since(started).Milliseconds(),
			interaction.Responder.Latency().Milliseconds(),
		))
	}

	return command
}

type stubGateway struct {
	name       string
	startErr   error
	onStart    func(ctx context.Context, runtime redactado.GatewayRuntime)
	onShutdown func()

	started atomic.Int32
	stopped atomic.Int32
}

func (g *stubGateway) Name() string {
	return g.name
}

func (g *stubGateway) Start(ctx context.Context, runtime redactado.GatewayRuntime) error {
	g.started.Add(1)
	if g.startErr != nil {
		return g.startErr
	}
	if g.onStart != nil {
		g.onStart(ctx, runtime)
	}
	<-ctx.Done()
	return nil
}

func (g *stubGateway) Shutdown(_ context.Context) error {
	g.stopped.Add(1)
	if g.onShutdown != nil {
		g.onShutdown()
	}
	return nil
}
