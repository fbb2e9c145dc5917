// Command filterx is the CLI entry point for the FilterX evaluator
// (spec.md §6.2's runtime interface, driven end-to-end): it loads a
// program (plain `.fx` text or a YAML-wrapped program with metadata),
// loads an input message from JSON, evaluates the program against it,
// and prints the evaluation result plus the synced message.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"
	"gopkg.in/yaml.v3"

	"github.com/rakunlabs/filterx/internal/config"
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/freeze"
	"github.com/rakunlabs/filterx/internal/filterx/function"
	"github.com/rakunlabs/filterx/internal/filterx/jsonio"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/parser"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
	"github.com/rakunlabs/filterx/internal/message"
)

var (
	name    = "filterx"
	version = "v0.0.0"
)

// programPaths collects repeated -program flags, one per chained block
// (spec.md §6.2/§9 "Scope stacking"): syslog-ng runs a sequence of
// filterx{} blocks against the same log message, each one's scope
// derived from the previous via eval.BeginChild/scope.Scope.Child, so the
// CLI accepts the same program flag more than once to exercise that.
type programPaths []string

func (p *programPaths) String() string { return strings.Join(*p, ",") }
func (p *programPaths) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	config.Service = name + "/" + version

	into.Init(run,
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

// program is the YAML-wrapped program format (SPEC_FULL.md §0/§2): a
// plain `.fx` file is run as-is, a `.yaml`/`.yml` file is unwrapped
// through this shape first so a program can carry authorship metadata
// alongside its source, the same way the teacher's config surface is
// YAML-first even where the payload underneath is free text.
type program struct {
	Source      string `yaml:"source"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
}

func run(ctx context.Context) error {
	var programs programPaths
	flag.Var(&programs, "program", "path to a FilterX program (.fx text or .yaml-wrapped); repeat to chain blocks against one message")
	messagePath := flag.String("message", "", "path to a JSON object used as the input message (default: {})")
	flag.Parse()

	cfg, err := config.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if hint, err := cfg.EvalTimeoutHintDuration(); err != nil {
		return fmt.Errorf("failed to parse eval_timeout_hint: %w", err)
	} else if hint > 0 {
		slog.Info("eval_timeout_hint set (advisory only, not enforced)", "hint", hint)
	}

	if len(programs) == 0 {
		return fmt.Errorf("missing required -program flag")
	}

	msg, err := loadMessage(*messagePath)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}

	handles := scope.NewTable()
	reg := function.Default()
	freezer := freeze.New()

	var (
		rootCtx  *eval.Context
		chain    *eval.Context
		result   eval.Result
		val      *object.Value
		failures []eval.ErrorFrame
	)

	// Each -program runs as its own block against msg, chained the way
	// a sequence of filterx{} config blocks share one log message: block
	// N's scope is derived from block N-1's (eval.BeginChild), so a
	// variable floated (not declared) in one block is invisible in the
	// next once that next block writes anything, per spec.md §3.6-§3.7.
	for i, path := range programs {
		src, file, err := loadProgram(path)
		if err != nil {
			return fmt.Errorf("failed to load program %q: %w", path, err)
		}

		root, err := parser.Parse(file, src, handles, reg)
		if err != nil {
			return fmt.Errorf("failed to parse program %q: %w", path, err)
		}
		root = root.Optimize()
		expr.FreezeLiterals(root, freezer)

		var blockCtx *eval.Context
		if chain == nil {
			sc := scope.New(msg)
			blockCtx = eval.Begin(nil, sc, msg, handles, freezer, cfg.ErrorStackSize)
			rootCtx = blockCtx
		} else {
			blockCtx = eval.BeginChild(chain, msg)
		}
		blockCtx.EnableFailureInfo(true)

		result, val = eval.Exec(blockCtx, root)
		if result == eval.Success {
			if err := blockCtx.Sync(); err != nil {
				return fmt.Errorf("failed to sync message after block %d: %w", i+1, err)
			}
		}

		failures = append(failures, blockCtx.FailureInfo()...)
		slog.Info("block finished", "block", i+1, "result", result.String(), "control", blockCtx.Control().String())

		chain = blockCtx
		if result == eval.Drop {
			break
		}
	}
	rootCtx.End()

	if val != nil {
		repr, err := valueToJSON(val)
		if err != nil {
			slog.Warn("result is not JSON-representable", "error", err)
		} else {
			fmt.Println("result:", repr)
		}
	} else {
		fmt.Println("result: <none>")
	}

	for i, f := range failures {
		fmt.Printf("FILTERX ERROR; err_idx='[%d/%d]', expr='%s', error='%s'\n",
			i+1, len(failures), f.Loc.String(), f.Message)
	}

	out, err := messageToJSON(msg)
	if err != nil {
		return fmt.Errorf("failed to format message: %w", err)
	}
	fmt.Println("message:", out)

	if result == eval.Drop {
		return fmt.Errorf("message dropped")
	}
	return nil
}

// loadProgram reads a program file, unwrapping YAML if the extension
// suggests it (SPEC_FULL.md §0).
func loadProgram(path string) (src string, file string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var p program
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return "", "", fmt.Errorf("parse yaml program: %w", err)
		}
		if p.Author != "" || p.Description != "" {
			slog.Info("loaded program", "author", p.Author, "description", p.Description)
		}
		return p.Source, path, nil
	}

	return string(raw), path, nil
}

// loadMessage reads a JSON object from path (or an empty message if path
// is empty) and converts each top-level field into the host message's
// raw repr/tag storage (spec.md §6.3), the inverse of eval.Context.Sync.
func loadMessage(path string) (*message.Message, error) {
	msg := message.New()
	if path == "" {
		return msg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	root, err := jsonio.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message json: %w", err)
	}
	if root.Kind() != object.KindDict {
		return nil, fmt.Errorf("message json must be a top-level object")
	}

	for _, key := range root.DictKeys() {
		v, _ := root.DictGet(key)
		repr, tag, err := valueToField(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		msg.Set(key, repr, tag)
	}
	return msg, nil
}

// valueToField mirrors eval.Context.Sync's repr/tag conversion so a
// message loaded from JSON round-trips through the same host-message
// wire shape a synced FilterX assignment would produce.
func valueToField(v *object.Value) (string, string, error) {
	switch v.Kind() {
	case object.KindNull:
		return "", object.TagNull, nil
	case object.KindBoolean:
		return v.Str(), object.TagBoolean, nil
	case object.KindInteger:
		return v.Str(), object.TagInteger, nil
	case object.KindDouble:
		return v.Str(), object.TagDouble, nil
	case object.KindString:
		return v.AsString(), object.TagString, nil
	default: // List, Dict
		j, err := v.FormatJSON()
		if err != nil {
			return "", "", err
		}
		return j, object.TagJSON, nil
	}
}

// valueToJSON formats an evaluation result for display, unmarshalling a
// lazy message-value first if that's what came back.
func valueToJSON(v *object.Value) (string, error) {
	if v.Kind() == object.KindMessageValue {
		unmarshaled, err := v.Unmarshal()
		if err != nil {
			return "", err
		}
		v = unmarshaled
	}
	return v.FormatJSON()
}

// messageToJSON renders every field currently on msg as a single JSON
// object, fields sorted by name for deterministic output.
func messageToJSON(msg *message.Message) (string, error) {
	names := msg.Names()
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		mv := msg.AsMessageValue(n)
		j, err := mv.FormatJSON()
		if err != nil {
			return "", fmt.Errorf("field %q: %w", n, err)
		}
		key, err := json.Marshal(n)
		if err != nil {
			return "", err
		}
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(j)
	}
	b.WriteByte('}')
	return b.String(), nil
}
