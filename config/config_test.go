package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FABLECORE_MODEL", "")
	t.Setenv("FABLECORE_SAVE_PATH", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.MusicEnabled || cfg.Volume != 0.7 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.SavePath == "" {
		t.Error("save path must default")
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.GeminiAPIKey)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("FABLECORE_MODEL", "some-model")
	t.Setenv("FABLECORE_SAVE_PATH", "/tmp/custom.db")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("api key = %q", cfg.GeminiAPIKey)
	}
	if cfg.Model != "some-model" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.SavePath != "/tmp/custom.db" {
		t.Errorf("save path = %q", cfg.SavePath)
	}
}
