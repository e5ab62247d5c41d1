package tatara

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// LoadConfig reads the default configuration file and applies env overrides.
func LoadConfig() (*Config, error) {
	return loadConfig(ConfigFile)
}

// Load /etc/tatara.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge TATARA_* env overrides
	mergeEnvOverrides(cfg)

	// Ensure TMPDIR has a default
	if tmp := cfg.Values["TMPDIR"]; tmp == "" {
		cfg.Values["TMPDIR"] = "/tmp"
	}

	return cfg, nil
}

// Merge TATARA_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TATARA_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

// RunConfig is the validated per-run configuration handed to Run by the CLI
// layer. Fields not set on the command line fall back to tatara.conf values.
type RunConfig struct {
	ArchTarget    string   // symbolic architecture target id
	Components    []string // component names, empty means all
	OutputDir     string   // where artifacts are written, created if absent
	RegistryFile  string   // optional YAML overlay for the target registry
	ToolchainHint string   // advisory toolchain version hint
	Jobs          int      // parallel job hint for build tools with internal parallelism
	TmpDir        string   // scratch space handed to compiler invocations
	Dist          bool     // produce a dist archive of the output directory
	IdleBuild     bool     // run compiler invocations at idle priority
}

// SplitComponents parses a comma-separated component selection. "all"
// yields nil, the explicit everything-selected value, so a command-line
// "all" can reset a narrower selection from the config file.
func SplitComponents(s string) []string {
	if s == "all" {
		return nil
	}
	var names []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	return names
}

// NewRunConfig derives a RunConfig from the loaded configuration file.
func NewRunConfig(cfg *Config) *RunConfig {
	rc := &RunConfig{
		ArchTarget:    cfg.Values["TATARA_ARCH"],
		OutputDir:     cfg.Values["TATARA_OUTPUT_DIR"],
		RegistryFile:  cfg.Values["TATARA_REGISTRY"],
		ToolchainHint: cfg.Values["TATARA_TOOLCHAIN_HINT"],
	}
	if rc.ArchTarget == "" {
		rc.ArchTarget = "sse42"
	}
	if rc.OutputDir == "" {
		rc.OutputDir = "build"
	}
	if comps := cfg.Values["TATARA_COMPONENTS"]; comps != "" {
		rc.Components = SplitComponents(comps)
	}
	if jobs := cfg.Values["TATARA_JOBS"]; jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil && n > 0 {
			rc.Jobs = n
		}
	}
	if rc.Jobs == 0 {
		rc.Jobs = runtime.NumCPU()
	}
	rc.TmpDir = cfg.Values["TMPDIR"]
	if rc.TmpDir == "" {
		rc.TmpDir = "/tmp"
	}
	if cfg.Values["TATARA_DIST"] == "1" {
		rc.Dist = true
	}
	if cfg.Values["TATARA_NICE"] == "1" {
		rc.IdleBuild = true
	}
	Debug = cfg.Values["TATARA_DEBUG"] == "1"
	return rc
}
