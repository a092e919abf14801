package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/shadowcopy/guard"
	"github.com/jonwraymond/shadowcopy/internal/document"
	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/observe"
	"github.com/jonwraymond/shadowcopy/shadow"
	"github.com/jonwraymond/shadowcopy/watch"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type traceOptions struct {
	file       string
	name       string
	protect    string
	readOnly   []string
	policyPath string
	configPath string
	expandEnv  bool
	dump       bool
}

func (o *traceOptions) documentOptions() []document.Option {
	if !o.expandEnv {
		return nil
	}
	return []document.Option{document.WithEnv(os.LookupEnv)}
}

// event is one JSON line of trace output.
type event struct {
	Event  string        `json:"event"`
	Op     string        `json:"op,omitempty"`
	Path   string        `json:"path,omitempty"`
	Value  any           `json:"value,omitempty"`
	OK     *bool         `json:"ok,omitempty"`
	Error  string        `json:"error,omitempty"`
	Change *watch.Change `json:"change,omitempty"`
}

// emitter serializes events to one writer.
type emitter struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
	err error
}

func newEmitter(w io.Writer) *emitter {
	return &emitter{enc: jsonAPI.NewEncoder(w)}
}

func (e *emitter) emit(ev event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = e.enc.Encode(ev)
	}
}

func newTraceCmd() *cobra.Command {
	opts := &traceOptions{}

	cmd := &cobra.Command{
		Use:   "trace OP...",
		Short: "Run operations against a document and report each dispatch",
		Long: `trace loads a document and performs the given operations in order:

  get:a.b          read a property
  has:a.b          test a property
  keys:a           list the keys of an object (keys: lists the root)
  set:a.b=VALUE    write a YAML value
  delete:a.b       delete a property

Each result, change and failure is printed as one JSON line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "YAML or JSON document to load")
	flags.StringVar(&opts.name, "name", "document", "name reported with every change")
	flags.StringVar(&opts.protect, "protect", "", "reject writes to keys starting with this prefix")
	flags.StringSliceVar(&opts.readOnly, "read-only", nil, "reject writes at or under these dotted paths")
	flags.StringVar(&opts.policyPath, "policy", "", "guard policy file")
	flags.StringVar(&opts.configPath, "config", "", "observe configuration file")
	flags.BoolVar(&opts.expandEnv, "expand-env", false, "expand $VAR and ${VAR} in document strings and set values")
	flags.BoolVar(&opts.dump, "dump", false, "print the resulting document")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runTrace(ctx context.Context, stdout, stderr io.Writer, opts *traceOptions, args []string) error {
	ops := make([]operation, 0, len(args))
	for _, a := range args {
		op, err := parseOperation(a)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	doc, err := document.Load(opts.file, opts.documentOptions()...)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	rules, err := traceRules(opts)
	if err != nil {
		return err
	}

	mw, shutdown, err := traceMiddleware(ctx, opts.configPath, stderr)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	out := newEmitter(stdout)
	onChange := func(c watch.Change) {
		c.Old = render(c.Old)
		c.New = render(c.New)
		out.emit(event{Event: "change", Change: &c})
	}

	traps := mw.Wrap(guard.Chain(watch.Traps(opts.name, onChange), rules...))
	root := shadow.New(doc, traps, shadow.WithContext(ctx))

	failed := 0
	for _, op := range ops {
		ev, err := apply(root, op, opts.documentOptions())
		if err != nil {
			failed++
			ev = event{Event: "error", Op: string(op.kind), Path: op.pathString(), Error: err.Error()}
		}
		out.emit(ev)
	}

	if opts.dump {
		native, err := object.ToNative(doc)
		if err != nil {
			return err
		}
		out.emit(event{Event: "document", Value: native})
	}

	if out.err != nil {
		return out.err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d operations failed", failed, len(ops))
	}
	return nil
}

func traceRules(opts *traceOptions) ([]guard.Rule, error) {
	var rules []guard.Rule
	if opts.policyPath != "" {
		policy, err := guard.LoadPolicy(opts.policyPath)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		if rules, err = policy.Rules(); err != nil {
			return nil, err
		}
	}
	if opts.protect != "" {
		rules = append(rules, guard.PrivatePrefix(opts.protect))
	}
	if len(opts.readOnly) > 0 {
		rules = append(rules, guard.ReadOnly(opts.readOnly...))
	}
	return rules, nil
}

func traceMiddleware(ctx context.Context, configPath string, stderr io.Writer) (*observe.Middleware, func(context.Context) error, error) {
	cfg, err := observe.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Writer = stderr

	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, nil, err
	}
	return mw, obs.Shutdown, nil
}

var errRefused = errors.New("refused by target")

func apply(root *shadow.Wrapper, op operation, docOpts []document.Option) (event, error) {
	ev := event{Event: "result", Op: string(op.kind), Path: op.pathString()}

	if op.kind == opKeys {
		w, err := resolve(root, op.path)
		if err != nil {
			return ev, err
		}
		keys, err := w.OwnKeys()
		if err != nil {
			return ev, err
		}
		ev.Value = keys
		return ev, nil
	}

	parent, err := resolve(root, op.path[:len(op.path)-1])
	if err != nil {
		return ev, err
	}
	key := op.path[len(op.path)-1]

	var ok bool
	switch op.kind {
	case opGet:
		v, err := parent.Get(key)
		if err != nil {
			return ev, err
		}
		ev.Value = render(v)
		return ev, nil
	case opHas:
		if ok, err = parent.Has(key); err != nil {
			return ev, err
		}
		ev.Value = ok
		return ev, nil
	case opSet:
		value, err := document.ParseValue(op.value, docOpts...)
		if err != nil {
			return ev, err
		}
		if ok, err = parent.Set(key, value); err != nil {
			return ev, err
		}
	case opDelete:
		if ok, err = parent.Delete(key); err != nil {
			return ev, err
		}
	}

	if !ok {
		return ev, errRefused
	}
	ev.OK = &ok
	return ev, nil
}

// render converts a value for output. Wrappers are unwrapped first so that
// rendering does not dispatch further operations.
func render(v any) any {
	native, err := object.ToNative(shadow.Unwrap(v))
	if err != nil {
		return fmt.Sprintf("[unrenderable: %v]", err)
	}
	return native
}
