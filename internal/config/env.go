package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WALLETRECON_"

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with WALLETRECON_* environment variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"INPUT_DIR":        &cfg.InputDir,
		"BASELINE_DIR":     &cfg.BaselineDir,
		"OUTPUT_PREFIX":    &cfg.OutputPrefix,
		"INTERMEDIATE_DIR": &cfg.IntermediateDir,
		"REPORT_PATH":      &cfg.ReportPath,
		"AMOUNT_TOLERANCE": &cfg.Tolerances.Amount,
		"DATE_TOLERANCE":   &cfg.Tolerances.Date,
		"REFUND_WINDOW":    &cfg.Tolerances.RefundWindow,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ACCOUNT_LOCK":     &cfg.AccountLock,
		"INCREMENTAL_ONLY": &cfg.IncrementalOnly,
		"AUTO_CONFIRM":     &cfg.AutoConfirm,
		"GIT_AUTO_COMMIT":  &cfg.Git.AutoCommit,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s%s=%q: %w", EnvPrefix, name, v, err)
		}
		*dst = b
	}
	return nil
}
