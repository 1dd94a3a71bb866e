package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"gorm.io/gorm"

	"sagradodoce/internal/config"
	"sagradodoce/internal/server"
)

// fakeServer blocks in Start until Stop is called, unless it fails to listen.
type fakeServer struct {
	listenErr error
	stopErr   error

	started chan struct{}
	stopped chan struct{}
}

func newFakeServer(listenErr, stopErr error) *fakeServer {
	return &fakeServer{
		listenErr: listenErr,
		stopErr:   stopErr,
		started:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (f *fakeServer) Start() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Stop() error {
	close(f.stopped)
	return f.stopErr
}

func (f *fakeServer) wasStopped() bool {
	select {
	case <-f.stopped:
		return true
	default:
		return false
	}
}

// runDeps swaps every collaborator of run for the duration of a test.
type runDeps struct {
	cfg       config.Config
	database  *gorm.DB
	dbErr     error
	server    *fakeServer
	serverErr error
	signals   chan os.Signal
	opErr     error

	mockUsed  bool
	operators []config.OperatorConfig
	captured  *server.Config
}

func installRunDeps(t *testing.T, rt *runDeps) {
	t.Helper()

	originalLoadConfig := loadConfigFunc
	originalSetLogLevel := setLogLevelFunc
	originalMock := newMockDatabaseFunc
	originalConfigure := configureDatabase
	originalEnsureOperator := ensureOperatorFunc
	originalNewServer := newServerFunc
	originalSubscribe := subscribeShutdownSig
	t.Cleanup(func() {
		loadConfigFunc = originalLoadConfig
		setLogLevelFunc = originalSetLogLevel
		newMockDatabaseFunc = originalMock
		configureDatabase = originalConfigure
		ensureOperatorFunc = originalEnsureOperator
		newServerFunc = originalNewServer
		subscribeShutdownSig = originalSubscribe
	})

	if rt.database == nil {
		rt.database = &gorm.DB{}
	}
	if rt.signals == nil {
		rt.signals = make(chan os.Signal, 1)
	}

	loadConfigFunc = func() (config.Config, error) { return rt.cfg, nil }
	setLogLevelFunc = func(string) error { return nil }
	newMockDatabaseFunc = func(context.Context) (*gorm.DB, error) {
		rt.mockUsed = true
		return rt.database, rt.dbErr
	}
	configureDatabase = func(config.DatabaseConfig) (*gorm.DB, error) {
		return rt.database, rt.dbErr
	}
	ensureOperatorFunc = func(_ context.Context, _ *gorm.DB, operator config.OperatorConfig) (bool, error) {
		rt.operators = append(rt.operators, operator)
		return rt.opErr == nil, rt.opErr
	}
	newServerFunc = func(cfg server.Config) (serverLifecycle, error) {
		rt.captured = &cfg
		if rt.serverErr != nil {
			return nil, rt.serverErr
		}
		return rt.server, nil
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		return rt.signals, func() {}
	}
}

func bakeryConfig() config.Config {
	return config.Config{
		Server:   config.ServerConfig{Addr: ":8181"},
		Database: config.DatabaseConfig{UseMock: true, RetryBackoff: 3 * time.Second},
		Logging:  config.LoggingConfig{Level: "debug"},
		Auth: config.AuthConfig{Session: config.SessionConfig{
			Lifetime:     8 * time.Hour,
			CookieName:   "caixa",
			CookieDomain: "sagradodoce.app",
			CookieSecure: true,
		}},
		Inventory: config.InventoryConfig{RejectNegativeStock: true},
	}
}

func TestRunWiresBakeryServiceIntoServer(t *testing.T) {
	database := &gorm.DB{}
	rt := &runDeps{cfg: bakeryConfig(), database: database, server: newFakeServer(nil, nil)}
	installRunDeps(t, rt)

	go func() {
		<-rt.server.started
		rt.signals <- syscall.SIGTERM
	}()

	if code := run(context.Background()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !rt.mockUsed {
		t.Fatal("expected the seeded database when mock mode is on")
	}
	if len(rt.operators) != 0 {
		t.Fatalf("expected no operator bootstrap without OPERATOR_EMAIL, got %+v", rt.operators)
	}

	got := rt.captured
	if got == nil {
		t.Fatal("expected the server to be built")
	}
	if got.Addr != ":8181" {
		t.Fatalf("expected addr :8181, got %q", got.Addr)
	}
	want := server.SessionConfig{Lifetime: 8 * time.Hour, CookieName: "caixa", CookieDomain: "sagradodoce.app", CookieSecure: true}
	if got.Session != want {
		t.Fatalf("expected session %+v, got %+v", want, got.Session)
	}
	if got.Service == nil {
		t.Fatal("expected a bakery service handed to the server")
	}
	if got.Service.DB() != database {
		t.Fatal("expected the service to run on the configured database")
	}
	opts := got.Service.Options()
	if !opts.RejectNegativeStock || opts.RetryBackoff != 3*time.Second {
		t.Fatalf("expected inventory policy and retry backoff from config, got %+v", opts)
	}
	if !rt.server.wasStopped() {
		t.Fatal("expected graceful stop after the signal")
	}
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	rt := &runDeps{cfg: bakeryConfig(), server: newFakeServer(nil, nil)}
	rt.cfg.Database.UseMock = false
	rt.cfg.Auth.Operator = config.OperatorConfig{Email: "caixa@sagradodoce.app", Password: "brigadeiro"}
	installRunDeps(t, rt)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-rt.server.started
		cancel()
	}()

	if code := run(ctx); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if rt.mockUsed {
		t.Fatal("expected the configured database when mock mode is off")
	}
	if len(rt.operators) != 1 || rt.operators[0].Email != "caixa@sagradodoce.app" {
		t.Fatalf("expected the configured operator bootstrapped once, got %+v", rt.operators)
	}
	if !rt.server.wasStopped() {
		t.Fatal("expected graceful stop after cancellation")
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(rt *runDeps)
		stopAfter bool
	}{
		{name: "database unavailable", mutate: func(rt *runDeps) { rt.dbErr = errors.New("connection refused") }},
		{name: "operator bootstrap fails", mutate: func(rt *runDeps) {
			rt.cfg.Auth.Operator = config.OperatorConfig{Email: "caixa@sagradodoce.app", Password: "short"}
			rt.opErr = errors.New("operator password must have at least 8 characters")
		}},
		{name: "server cannot be built", mutate: func(rt *runDeps) { rt.serverErr = errors.New("bad session config") }},
		{name: "listener fails", mutate: func(rt *runDeps) { rt.server = newFakeServer(errors.New("address in use"), nil) }},
		{name: "shutdown fails", mutate: func(rt *runDeps) { rt.server = newFakeServer(nil, errors.New("deadline exceeded")) }, stopAfter: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rt := &runDeps{cfg: bakeryConfig(), server: newFakeServer(nil, nil)}
			tt.mutate(rt)
			installRunDeps(t, rt)

			if tt.stopAfter {
				go func() {
					<-rt.server.started
					rt.signals <- syscall.SIGINT
				}()
			}

			if code := run(context.Background()); code != 1 {
				t.Fatalf("expected exit code 1, got %d", code)
			}
		})
	}
}

func TestRunRejectsBadConfiguration(t *testing.T) {
	originalLoadConfig := loadConfigFunc
	originalSetLogLevel := setLogLevelFunc
	t.Cleanup(func() {
		loadConfigFunc = originalLoadConfig
		setLogLevelFunc = originalSetLogLevel
	})

	loadConfigFunc = func() (config.Config, error) { return config.Config{}, errors.New("SESSION_LIFETIME: invalid duration") }
	if code := run(context.Background()); code != 1 {
		t.Fatalf("expected exit code 1 when config fails to load, got %d", code)
	}

	loadConfigFunc = func() (config.Config, error) { return config.Config{Logging: config.LoggingConfig{Level: "loud"}}, nil }
	setLogLevelFunc = func(level string) error { return errors.New("unknown level " + level) }
	if code := run(context.Background()); code != 1 {
		t.Fatalf("expected exit code 1 for an unknown log level, got %d", code)
	}
}
