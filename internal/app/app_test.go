package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"sense-adaptive-core/internal/config"
	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/adaptation"
	"sense-adaptive-core/internal/service/stress"
	"sense-adaptive-core/internal/store/profile"
)

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.STT.Provider = ProviderRemote
	cfg.Kafka.Enabled = false
	cfg.Redis.Enabled = false
	cfg.Stress.ThresholdsFile = ""
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()

	if a.Gateway == nil || a.Interpreter == nil || a.Scorer == nil {
		t.Fatal("expected components to be created")
	}
	if _, ok := a.Profiles.(*adaptation.MemoryProfileStore); !ok {
		t.Errorf("expected in-memory profile store, got %T", a.Profiles)
	}
	if a.Ready() {
		t.Error("expected not ready before Start")
	}
	_ = a.Start()
	if !a.Ready() {
		t.Error("expected ready after Start")
	}
	a.Shutdown()
	if a.Ready() {
		t.Error("expected not ready after Shutdown")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.STT.Provider = "carrier-pigeon"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestNew_BadThresholdsFile(t *testing.T) {
	cfg := testConfig()
	path := filepath.Join(t.TempDir(), "stress.yaml")
	if err := os.WriteFile(path, []byte("max_score: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.Stress.ThresholdsFile = path

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected an error for invalid thresholds")
	}
}

func TestNew_ThresholdsFile(t *testing.T) {
	cfg := testConfig()
	path := filepath.Join(t.TempDir(), "stress.yaml")
	if err := os.WriteFile(path, []byte("click_rate_high: 40\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.Stress.ThresholdsFile = path

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()
	if got := a.Scorer.Thresholds().ClickRateHigh; got != 40 {
		t.Errorf("expected click_rate_high 40, got %v", got)
	}
}

func TestNew_RedisProfiles(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()

	if _, ok := a.Profiles.(*profile.RedisStore); !ok {
		t.Fatalf("expected redis profile store, got %T", a.Profiles)
	}
	if err := a.Profiles.Put(context.Background(), "u1", models.NeurodiversityProfile{ADHD: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists(cfg.Redis.Prefix + "u1") {
		t.Error("expected profile key in redis")
	}
}

func TestSourceFactory_Providers(t *testing.T) {
	for _, provider := range []string{ProviderRemote, ProviderMock} {
		t.Run(provider, func(t *testing.T) {
			cfg := testConfig()
			cfg.STT.Provider = provider
			a := &Application{Cfg: cfg}

			factory, err := a.SourceFactory()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			src, err := factory(context.Background(), "s1", func(string) error { return nil })
			if err != nil || src == nil {
				t.Fatalf("expected a source, got %v (%v)", src, err)
			}
		})
	}
}

func TestSenseConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Voice.AssistantName = "nova"
	cfg.Interaction.BufferCapacity = 42
	a := &Application{Cfg: cfg}

	sc := a.SenseConfig(stress.DefaultThresholds())
	if sc.AssistantName != "nova" || sc.BufferCapacity != 42 {
		t.Errorf("expected nova/42, got %s/%d", sc.AssistantName, sc.BufferCapacity)
	}
	if sc.Voice.ConfidenceThreshold != cfg.Voice.ConfidenceThreshold {
		t.Errorf("expected threshold %v, got %v", cfg.Voice.ConfidenceThreshold, sc.Voice.ConfidenceThreshold)
	}
}

func TestChecks(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()

	checks := a.Checks()
	if len(checks) != 2 {
		t.Fatalf("expected app and redis checks, got %d", len(checks))
	}
	if err := checks["app"](context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady before Start, got %v", err)
	}
	if err := checks["redis"](context.Background()); err != nil {
		t.Errorf("expected redis check to pass, got %v", err)
	}

	_ = a.Start()
	if err := checks["app"](context.Background()); err != nil {
		t.Errorf("expected app check to pass after Start, got %v", err)
	}

	mr.Close()
	if err := checks["redis"](context.Background()); err == nil {
		t.Error("expected redis check to fail once redis is gone")
	}
}
