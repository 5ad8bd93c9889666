package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	os.Clearenv()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"SIGNING_SECRET": testSecret})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 30*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 720h", cfg.RefreshTTL())
	}
	if cfg.SweepInterval() != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.SweepInterval())
	}
	if cfg.SessionEventsTopic != "session-events" {
		t.Errorf("SessionEventsTopic = %q, want session-events", cfg.SessionEventsTopic)
	}
	if cfg.MaxConcurrentHashes != 8 {
		t.Errorf("MaxConcurrentHashes = %d, want 8", cfg.MaxConcurrentHashes)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.OTelServiceName != "devicesession" {
		t.Errorf("OTelServiceName = %q, want devicesession", cfg.OTelServiceName)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	setEnv(t, map[string]string{
		"GRPC_ADDR":                   ":9090",
		"SIGNING_SECRET":              testSecret,
		"ACCESS_TOKEN_LIFETIME_MS":    "60000",
		"REFRESH_TOKEN_LIFETIME_MS":   "3600000",
		"REVOCATION_SWEEP_INTERVAL":   "30s",
		"OTEL_EXPORTER_OTLP_INSECURE": "true",
		"ACCESS_POLICY_FILE":          "/etc/devicesession/access.rego",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.AccessTTL() != time.Minute {
		t.Errorf("AccessTTL = %v, want 1m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != time.Hour {
		t.Errorf("RefreshTTL = %v, want 1h", cfg.RefreshTTL())
	}
	if cfg.SweepInterval() != 30*time.Second {
		t.Errorf("SweepInterval = %v, want 30s", cfg.SweepInterval())
	}
	if !cfg.OTelInsecure {
		t.Error("OTelInsecure should be true")
	}
	if cfg.AccessPolicyFile != "/etc/devicesession/access.rego" {
		t.Errorf("AccessPolicyFile = %q", cfg.AccessPolicyFile)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{},
			wantMsg: "SIGNING_SECRET",
		},
		{
			name:    "short secret",
			env:     map[string]string{"SIGNING_SECRET": "too-short"},
			wantMsg: "SIGNING_SECRET",
		},
		{
			name: "access not shorter than refresh",
			env: map[string]string{
				"SIGNING_SECRET":            testSecret,
				"ACCESS_TOKEN_LIFETIME_MS":  "60000",
				"REFRESH_TOKEN_LIFETIME_MS": "60000",
			},
			wantMsg: "less than",
		},
		{
			name: "non-positive lifetime",
			env: map[string]string{
				"SIGNING_SECRET":           testSecret,
				"ACCESS_TOKEN_LIFETIME_MS": "0",
			},
			wantMsg: "positive",
		},
		{
			name: "non-positive hash concurrency",
			env: map[string]string{
				"SIGNING_SECRET":        testSecret,
				"MAX_CONCURRENT_HASHES": "0",
			},
			wantMsg: "MAX_CONCURRENT_HASHES",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			if err == nil {
				t.Fatal("Load should return error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRead_DoesNotValidate(t *testing.T) {
	setEnv(t, map[string]string{"DATABASE_URL": "postgres://localhost/sessions"})
	cfg, err := Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/sessions" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.KafkaGroupID != "session-events-worker" {
		t.Errorf("KafkaGroupID = %q, want session-events-worker", cfg.KafkaGroupID)
	}
}

func TestSweepInterval_Invalid(t *testing.T) {
	for _, s := range []string{"", "invalid", "0s", "-1m"} {
		cfg := &Config{RevocationSweepInterval: s}
		if got := cfg.SweepInterval(); got != time.Minute {
			t.Errorf("SweepInterval(%q) = %v, want 1m", s, got)
		}
	}
}

func TestKafkaBrokersList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:1 , b:2 ,, ", []string{"a:1", "b:2"}},
	}
	for _, tt := range tests {
		cfg := &Config{KafkaBrokers: tt.in}
		got := cfg.KafkaBrokersList()
		if len(got) != len(tt.want) {
			t.Fatalf("KafkaBrokersList(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("KafkaBrokersList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
}
