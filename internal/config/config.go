// Package config loads FilterX's process configuration: logging level,
// the error stack depth, two resource knobs that nothing reads (JSON token
// cap, scratch buffer budget), and the advisory evaluation-timeout hint
// logged (never enforced — spec.md §5: "the core exposes no cancellation
// token") by the CLI.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
)

// Service identifies the running binary in structured logs, same role as
// the teacher's config.Service set from main().
var Service = ""

// Config is FilterX's top-level process configuration, loaded via chu the
// same way the teacher's internal/config.Config is.
type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	// ErrorStackSize bounds the per-evaluation error stack (spec.md §3.8).
	// The source uses a fixed size of 8; exposed here as a knob because
	// the target language doesn't need a compile-time array length.
	ErrorStackSize int `cfg:"error_stack_size" default:"8"`

	// ScratchBufferSize is loaded but not read anywhere: there is no
	// per-statement bump allocator (spec.md §9's "Scratch buffers");
	// template formatting uses an ordinary strings.Builder.
	ScratchBufferSize int `cfg:"scratch_buffer_size" default:"4096"`

	// JSONMaxTokens is loaded but not read anywhere: the JSON tokenizer's
	// growth cap is jsonio's fixed maxTokenCapacity (spec.md §4.16), and
	// setting this knob does not change it.
	JSONMaxTokens int `cfg:"json_max_tokens" default:"65536"`

	// EvalTimeoutHint, if set, is logged by the CLI before running a
	// program as a reminder of the externally-enforced budget; the
	// evaluator itself has no cancellation token (spec.md §5) so this is
	// advisory only.
	EvalTimeoutHint string `cfg:"eval_timeout_hint" default:""`
}

// EvalTimeoutHintDuration parses EvalTimeoutHint, returning zero if unset.
func (c Config) EvalTimeoutHintDuration() (time.Duration, error) {
	if c.EvalTimeoutHint == "" {
		return 0, nil
	}
	return str2duration.ParseDuration(c.EvalTimeoutHint)
}

// Load reads configuration from env (FILTERX_ prefix) and sets the global
// slog level, mirroring the teacher's internal/config.Load.
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("FILTERX_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
