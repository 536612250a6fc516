package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conifer-solver/conifer/pkg/conic"
)

// Config is the optional configuration file
// (~/.config/conifer/config.yaml). Fields are pointers so an unset key
// is distinguishable from a zero value.
type Config struct {
	// Solver overrides
	MaxIter           *int     `yaml:"max_iter"`
	TimeLimit         *float64 `yaml:"time_limit"`
	TolGapAbs         *float64 `yaml:"tol_gap_abs"`
	TolGapRel         *float64 `yaml:"tol_gap_rel"`
	TolFeas           *float64 `yaml:"tol_feas"`
	DirectSolveMethod string   `yaml:"direct_solve_method"`
	SOCReductionSize  *int     `yaml:"soc_reduction_size"`
	ScalingStrategy   string   `yaml:"scaling_strategy"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "conifer", "config.yaml")
}

func loadConfig() Config {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

// applySolverConfig writes the config-file values over the given
// settings, including any taken from the problem's own settings block.
// Explicit CLI flags, applied by the caller afterwards, override both.
func applySolverConfig(cfg Config, set *conic.Settings) {
	if cfg.MaxIter != nil {
		set.MaxIter = *cfg.MaxIter
	}
	if cfg.TimeLimit != nil {
		set.TimeLimitSeconds = *cfg.TimeLimit
	}
	if cfg.TolGapAbs != nil {
		set.TolGapAbs = *cfg.TolGapAbs
	}
	if cfg.TolGapRel != nil {
		set.TolGapRel = *cfg.TolGapRel
	}
	if cfg.TolFeas != nil {
		set.TolFeas = *cfg.TolFeas
	}
	if cfg.DirectSolveMethod != "" {
		set.DirectSolveMethod = cfg.DirectSolveMethod
	}
	if cfg.SOCReductionSize != nil {
		set.SOCReductionSize = *cfg.SOCReductionSize
	}
	if cfg.ScalingStrategy == "primal_dual" {
		set.Scaling = conic.ScalingPrimalDual
	}
	if cfg.LogLevel != "" && logLevel == "info" {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && logFormat == "auto" {
		logFormat = cfg.LogFormat
	}
}
