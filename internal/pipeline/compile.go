// Package pipeline drives one compilation unit through inference,
// lowering and code generation, and batches of units in parallel.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"dysc/internal/ast"
	"dysc/internal/astio"
	"dysc/internal/backend/llvm"
	"dysc/internal/cache"
	"dysc/internal/infer"
	"dysc/internal/lower"
	"dysc/internal/observ"
	"dysc/internal/trace"
)

// Options collects the per-stage options. The zero value uses defaults.
type Options struct {
	Infer infer.Options
	Lower lower.Options
	LLVM  llvm.Options
}

// Request configures the compilation of one unit.
type Request struct {
	// Name labels the unit in events, traces and errors.
	Name string
	// Tree is the unit's root. When nil, Path is decoded in Format.
	Tree   ast.Node
	Path   string
	Format astio.Format
	// Until stops after the given stage; empty means StageEmit.
	Until    Stage
	Options  Options
	Cache    *cache.Cache
	Progress ProgressSink
}

// Result captures the artifacts of one unit.
type Result struct {
	Name string
	// Tree is the last tree produced: typed after StageInfer, lowered
	// after StageLower and StageEmit.
	Tree   ast.Node
	IR     string
	Cached bool
	Timer  *observ.Timer
	Err    error
}

// Compile runs req through the pipeline. On error no IR is returned.
func Compile(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	until := req.Until
	if until == "" {
		until = StageEmit
	}
	if _, ok := stageOrder[until]; !ok {
		return result, fmt.Errorf("unknown stage %q", until)
	}
	result.Name = req.Name
	result.Timer = observ.NewTimer()
	start := time.Now()

	ctx, span := trace.Start(ctx, trace.ScopeUnit, "compile")
	span.WithExtra("unit", req.Name)

	u := unit{ctx: ctx, req: req, timer: result.Timer}
	err := u.run(&result, until)
	if err != nil {
		span.End("error")
		emitStage(req.Progress, req.Name, u.stage, StatusError, err, 0)
		return Result{Name: req.Name, Timer: result.Timer, Tree: result.Tree}, err
	}
	status := StatusDone
	if result.Cached {
		status = StatusCached
	}
	span.End(string(status))
	emitStage(req.Progress, req.Name, until, status, nil, time.Since(start))
	return result, nil
}

type unit struct {
	ctx   context.Context
	req   *Request
	timer *observ.Timer
	stage Stage
}

// step times fn as stage, reporting progress and a pass-scope span.
func (u *unit) step(stage Stage, fn func(ctx context.Context) error) error {
	if err := u.ctx.Err(); err != nil {
		return err
	}
	u.stage = stage
	emitStage(u.req.Progress, u.req.Name, stage, StatusWorking, nil, 0)
	ctx, span := trace.Start(u.ctx, trace.ScopePass, string(stage))
	idx := u.timer.Begin(string(stage))
	err := fn(ctx)
	u.timer.End(idx, "")
	detail := ""
	if err != nil {
		detail = "error"
	}
	span.End(detail)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

func (u *unit) run(result *Result, until Stage) error {
	tree := u.req.Tree
	if tree == nil {
		err := u.step(StageDecode, func(context.Context) error {
			var err error
			tree, err = decodeFile(u.req.Path, u.req.Format)
			return err
		})
		if err != nil {
			return err
		}
	}
	result.Tree = tree
	if until == StageDecode {
		return nil
	}

	opts := u.req.Options
	var key cache.Digest
	useCache := u.req.Cache != nil && until == StageEmit
	if useCache {
		var err error
		if key, err = cache.Key(tree, opts); err != nil {
			return err
		}
		payload, ok, err := u.req.Cache.Get(key)
		if err != nil {
			return err
		}
		if ok {
			result.IR = payload.IR
			result.Cached = true
			trace.Mark(u.ctx, trace.ScopeUnit, "cache.hit", map[string]string{"key": key.String()})
			return nil
		}
	}

	err := u.step(StageInfer, func(ctx context.Context) error {
		var err error
		tree, err = infer.Infer(ctx, tree, opts.Infer)
		return err
	})
	if err != nil {
		return err
	}
	result.Tree = tree
	if until == StageInfer {
		return nil
	}

	err = u.step(StageLower, func(ctx context.Context) error {
		var err error
		tree, err = lower.Lower(ctx, tree, opts.Lower)
		return err
	})
	if err != nil {
		return err
	}
	result.Tree = tree
	if until == StageLower {
		return nil
	}

	var ir string
	err = u.step(StageEmit, func(context.Context) error {
		var err error
		ir, err = llvm.Generate(tree, opts.LLVM)
		return err
	})
	if err != nil {
		return err
	}
	result.IR = ir
	if useCache {
		if err := u.req.Cache.Put(key, &cache.Payload{Name: u.req.Name, IR: ir}); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

func decodeFile(path string, format astio.Format) (ast.Node, error) {
	if path == "" {
		return nil, fmt.Errorf("missing tree path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if format == 0 {
		format = astio.FormatForPath(path)
	}
	return astio.Decode(f, format)
}
