package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"redactado/pkg/redactado"
)

// Kernel is the command core orchestrating the registry, dispatcher, executor, and gateways.
type Kernel struct {
	cfg config

	registry   *CommandRegistry
	executor   *Executor
	dispatcher *Dispatcher

	mu           sync.RWMutex
	gateways     map[string]redactado.Gateway
	gatewayOrder []string

	runMu   sync.Mutex
	running bool
}

// New creates a new kernel runtime.
func New(options ...Option) *Kernel {
	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}
	cfg.resolve()

	metrics := newInstruments(cfg.tracerProvider, cfg.meterProvider)
	registry := NewCommandRegistry(cfg.descriptorTTL, cfg.descriptorCapacity)
	executor := newExecutor(cfg.reporter, cfg.logger, cfg.handlerTimeout, metrics)

	return &Kernel{
		cfg:          cfg,
		registry:     registry,
		executor:     executor,
		dispatcher:   newDispatcher(registry, executor, cfg.logger, metrics),
		gateways:     make(map[string]redactado.Gateway),
		gatewayOrder: make([]string, 0),
	}
}

// Registry exposes the command registry to integration code.
func (k *Kernel) Registry() *CommandRegistry {
	return k.registry
}

// Dispatcher exposes the interaction sink that gateways feed.
func (k *Kernel) Dispatcher() *Dispatcher {
	return k.dispatcher
}

// Executor exposes the invocation executor.
func (k *Kernel) Executor() *Executor {
	return k.executor
}

// RegisterCommand adds one command to the registry.
//
// Registration may happen before or after Run; a late command is visible to
// the next dispatch and the next descriptor read.
func (k *Kernel) RegisterCommand(command redactado.Command) error {
	if err := k.registry.Register(command); err != nil {
		return err
	}

	descriptor, err := command.Descriptor()
	if err == nil {
		namespace, _ := descriptor.Namespace()
		_, listener := command.(redactado.LifecycleListener)
		k.cfg.logger.Info("command registered",
			"command", descriptor.Name,
			"namespace", namespace,
			"listener", listener,
		)
	}

	return nil
}

// RegisterCommands registers commands in order and stops at the first failure.
func (k *Kernel) RegisterCommands(commands ...redactado.Command) error {
	for _, command := range commands {
		if err := k.RegisterCommand(command); err != nil {
			return err
		}
	}

	return nil
}

// RegisterGateway registers a platform gateway.
func (k *Kernel) RegisterGateway(gateway redactado.Gateway) error {
	if gateway == nil {
		return fmt.Errorf("register gateway: nil gateway")
	}
	name := gateway.Name()
	if name == "" {
		return fmt.Errorf("register gateway: empty name")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.gateways[name]; exists {
		return fmt.Errorf("register gateway %s: %w", name, redactado.ErrGatewayAlreadyRegistered)
	}

	k.gateways[name] = gateway
	k.gatewayOrder = append(k.gatewayOrder, name)

	return nil
}

// Run starts gateways and blocks until cancellation or a fatal gateway error.
func (k *Kernel) Run(ctx context.Context) error {
	if err := k.startRun(); err != nil {
		return err
	}
	defer k.finishRun()

	runCtx, runCancel := context.WithCancel(ctx)
	gatewayErr, waitGateways := k.startGateways(runCtx)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-gatewayErr:
		runErr = err
	}

	runCancel()
	waitGateways()

	shutdownErr := k.shutdownAll(ctx)

	if isContextCancellation(runErr) {
		runErr = nil
	}
	if runErr != nil && shutdownErr != nil {
		return errors.Join(runErr, shutdownErr)
	}
	if runErr != nil {
		return runErr
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	return nil
}

// startRun serializes Run invocations and rejects concurrent starts.
func (k *Kernel) startRun() error {
	k.runMu.Lock()
	defer k.runMu.Unlock()

	if k.running {
		return fmt.Errorf("kernel run: already running")
	}
	k.running = true

	return nil
}

// finishRun releases the single-run guard set by startRun.
func (k *Kernel) finishRun() {
	k.runMu.Lock()
	k.running = false
	k.runMu.Unlock()
}

// snapshotGateways copies the registration order and gateway map.
func (k *Kernel) snapshotGateways() ([]string, map[string]redactado.Gateway) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	order := append([]string(nil), k.gatewayOrder...)
	gateways := make(map[string]redactado.Gateway, len(k.gateways))
	for name, gateway := range k.gateways {
		gateways[name] = gateway
	}

	return order, gateways
}

// startGateways runs all registered gateways concurrently and returns:
// - an error channel delivering the first fatal gateway error, and
// - a wait function that blocks for gateway completion up to shutdown timeout.
func (k *Kernel) startGateways(ctx context.Context) (<-chan error, func()) {
	errChannel := make(chan error, 1)
	done := make(chan struct{})
	workerWG := &sync.WaitGroup{}

	order, gateways := k.snapshotGateways()
	for _, name := range order {
		gateway := gateways[name]
		if gateway == nil {
			continue
		}

		workerWG.Add(1)
		go func(gatewayName string, adapter redactado.Gateway) {
			defer workerWG.Done()
			runtime := &gatewayRuntime{kernel: k, gateway: gatewayName}
			err := runSafely("gateway "+gatewayName+" Start", func() error {
				return adapter.Start(ctx, runtime)
			})
			if err == nil || isContextCancellation(err) {
				return
			}
			select {
			case errChannel <- fmt.Errorf("run gateway %s: %w", gatewayName, err):
			default:
			}
		}(name, gateway)
	}

	go func() {
		workerWG.Wait()
		close(done)
	}()

	wait := func() {
		timer := time.NewTimer(k.cfg.shutdownTimeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		}
	}

	go func() {
		<-done
		select {
		case errChannel <- context.Canceled:
		default:
		}
	}()

	return errChannel, wait
}

// shutdownAll tears down gateways and drains in-flight handlers in a bounded window.
// It uses WithoutCancel to ensure cleanup still runs after parent cancellation.
func (k *Kernel) shutdownAll(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.cfg.shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := k.shutdownGateways(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if err := k.executor.Wait(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if shutdownErr != nil {
		return fmt.Errorf("kernel shutdown: %w", shutdownErr)
	}

	return nil
}

// shutdownGateways executes gateway Shutdown in reverse registration order.
func (k *Kernel) shutdownGateways(ctx context.Context) error {
	order, gateways := k.snapshotGateways()

	var shutdownErr error
	for idx := len(order) - 1; idx >= 0; idx-- {
		name := order[idx]
		gateway := gateways[name]
		if gateway == nil {
			continue
		}
		err := runSafely("gateway "+name+" Shutdown", func() error {
			return gateway.Shutdown(ctx)
		})
		if err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown gateway %s: %w", name, err))
		}
	}

	return shutdownErr
}

// notifyReady invokes every lifecycle listener in registration order.
// Listener failures are contained and reported; they never abort the sequence.
func (k *Kernel) notifyReady(ctx context.Context, ready redactado.Ready) {
	k.cfg.logger.InfoContext(ctx, "gateway ready",
		"gateway", ready.Gateway,
		"platform", ready.Platform,
		"self", ready.SelfName,
		"published", ready.Published,
	)
	if !k.cfg.registerListeners {
		return
	}

	for idx, listener := range k.registry.Listeners() {
		hookCtx, cancel := context.WithTimeout(ctx, k.cfg.listenerTimeout)
		err := runSafely(fmt.Sprintf("listener %d OnReady", idx), func() error {
			return listener.OnReady(hookCtx, ready)
		})
		cancel()
		if err != nil {
			k.report(ctx, fmt.Errorf("gateway %s ready: %w", ready.Gateway, err))
		}
	}
}

// report forwards one contained fault without letting a faulty reporter escape.
func (k *Kernel) report(ctx context.Context, fault error) {
	if err := runSafely("report fault", func() error {
		k.cfg.reporter.Report(ctx, fault)
		return nil
	}); err != nil {
		k.cfg.logger.ErrorContext(ctx, "error reporter failed", "fault", fault, "error", err)
	}
}

// isContextCancellation reports whether err is a context-driven termination signal.
func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
