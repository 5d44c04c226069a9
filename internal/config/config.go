// ==============================================================================================
// FILE: internal/config/config.go
// ==============================================================================================
// PACKAGE: config
// PURPOSE: Compiler-wide defaults: module/stdlib search root, debug-build
//          toggle for category-9 internal errors (spec.md §7), and the
//          OpenAPI info block overrides. Loaded the same way
//          InsightifyCore's gateway config loads (env + godotenv, flag
//          parsing) layered under an optional mkc.yaml the way
//          AleutianLocal's cmd/aleutian reads config.yaml.
// ==============================================================================================

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OpenAPIInfo mirrors the `info` object of the emitted OpenAPI document
// (spec.md §6), overridable from mkc.yaml.
type OpenAPIInfo struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Config holds every compiler-wide default that is not specific to a
// single `compile` invocation's flags.
type Config struct {
	// Root is the compilation root module/stdlib search directory
	// (spec.md §4.3 — "there is no search path" beyond this one root).
	Root string `yaml:"root"`
	// Debug, when true, lets category-9 Internal diagnostics surface
	// their Detail field verbatim; production builds substitute the
	// generic message spec.md §7 mandates.
	Debug   bool        `yaml:"debug"`
	OpenAPI OpenAPIInfo `yaml:"openapi"`
}

// defaults matches the fallback values a fresh compile invocation uses
// when neither mkc.yaml nor an environment variable overrides them,
// except Root, which Load replaces with its dir argument.
func defaults() Config {
	return Config{
		Root: ".",
		OpenAPI: OpenAPIInfo{
			Title:   "Manaknight API",
			Version: "1.0.0",
		},
	}
}

// Load reads .env (if present, via godotenv, ignoring a missing file
// exactly as InsightifyCore's gateway config does with `_ = godotenv.Load()`),
// then an optional mkc.yaml in dir, then environment variable overrides,
// in that increasing order of precedence.
func Load(dir string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	cfg.Root = dir

	yamlPath := dir + "/mkc.yaml"
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("MKC_ROOT")); v != "" {
		cfg.Root = v
	}
	if v := strings.TrimSpace(os.Getenv("MKC_DEBUG")); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v := strings.TrimSpace(os.Getenv("MKC_OPENAPI_TITLE")); v != "" {
		cfg.OpenAPI.Title = v
	}
	if v := strings.TrimSpace(os.Getenv("MKC_OPENAPI_VERSION")); v != "" {
		cfg.OpenAPI.Version = v
	}

	return cfg, nil
}
