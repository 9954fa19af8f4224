package rules

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Runner pairs an Evaluator with logging. The zero configuration lazily
// builds an expr evaluator on first use.
type Runner struct {
	mu        sync.Mutex
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
	scope     string
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvaluator selects the evaluator used by the Runner.
func WithEvaluator(evaluator Evaluator) Option {
	return func(r *Runner) {
		r.evaluator = evaluator
	}
}

// WithProgramCache registers a program cache for the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(r *Runner) {
		r.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(r *Runner) {
		if registry == nil {
			return
		}
		r.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the default evaluator.
func WithCustomFunction(name string, fn Function) Option {
	return func(r *Runner) {
		if r.functions == nil {
			r.functions = NewFunctionRegistry()
		}
		_ = r.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithScopeName labels evaluations that do not carry their own scope name.
func WithScopeName(name string) Option {
	return func(r *Runner) {
		r.scope = strings.TrimSpace(name)
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = noopEvaluatorLogger{}
	}
	return r
}

// Evaluator returns the configured evaluator, building the default expr
// evaluator when none was supplied.
func (r *Runner) Evaluator() (Evaluator, error) {
	if r == nil {
		return nil, ErrNoEvaluator
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evaluator != nil {
		return r.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if r.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(r.cache))
	}
	if r.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(r.functions))
	}
	r.evaluator = NewExprEvaluator(exprOpts...)
	return r.evaluator, nil
}

// Evaluate executes expr against ctx and reports the attempt to the logger.
func (r *Runner) Evaluate(ctx RuleContext, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, ErrEmptyExpression
	}
	evaluator, err := r.Evaluator()
	if err != nil {
		return nil, err
	}
	if ctx.ScopeName == "" {
		ctx.ScopeName = r.scope
	}
	ctx = ctx.withDefaults()
	engine := EngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engine, expr, ctx.scopeLabel(), evalErr)
	r.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// EvaluateBool runs expr and requires a boolean result.
func (r *Runner) EvaluateBool(ctx RuleContext, expr string) (bool, error) {
	value, err := r.Evaluate(ctx, expr)
	if err != nil {
		return false, err
	}
	result, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBoolean, value)
	}
	return result, nil
}
