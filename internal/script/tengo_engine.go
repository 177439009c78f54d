package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoEngine compiles and runs tengo scripts under SecurityLimits.
type TengoEngine struct {
	limits SecurityLimits
	logger *slog.Logger
}

// NewTengoEngine creates an engine with the given limits.
func NewTengoEngine(limits SecurityLimits, logger *slog.Logger) *TengoEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TengoEngine{limits: limits, logger: logger}
}

// Program is a compiled script. Runs of one Program are serialized.
type Program struct {
	name     string
	mu       sync.Mutex
	compiled *tengo.Compiled
	logs     *[]string
}

// Name returns the script name.
func (p *Program) Name() string {
	return p.name
}

// Compile prepares script. vars declares the input variables and their
// default values; only these names may be set when running.
func (e *TengoEngine) Compile(s Script, vars map[string]interface{}) (*Program, error) {
	ts := tengo.NewScript([]byte(s.Content))
	ts.SetImports(e.buildModuleMap())
	ts.SetMaxAllocs(e.limits.MaxAllocs)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ts.Add(name, vars[name]); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, s.Name, fmt.Sprintf("failed to declare %s", name), err)
		}
	}

	logs := &[]string{}
	if err := ts.Add("log", e.logFunc(s.Name, logs)); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to add log function", err)
	}

	start := time.Now()
	compiled, err := ts.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to compile", err)
	}
	e.logger.Debug("Tengo script compiled", "script", s.Name, "compilation_time", time.Since(start))
	return &Program{name: s.Name, compiled: compiled, logs: logs}, nil
}

// Run executes p with input and returns its "result" variable.
func (e *TengoEngine) Run(ctx context.Context, p *Program, input map[string]interface{}) (*Output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	*p.logs = (*p.logs)[:0]
	for name, value := range input {
		if !p.compiled.IsDefined(name) {
			return nil, NewScriptError(ErrorTypeExecution, p.name, fmt.Sprintf("undeclared input %s", name), nil)
		}
		if err := p.compiled.Set(name, value); err != nil {
			return nil, NewScriptError(ErrorTypeExecution, p.name, fmt.Sprintf("failed to set %s", name), err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.limits.MaxExecutionTime)
	defer cancel()

	start := time.Now()
	if err := p.compiled.RunContext(ctx); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, NewScriptError(ErrorTypeTimeout, p.name, "script execution timed out", err)
		case errors.Is(err, tengo.ErrObjectAllocLimit):
			return nil, NewScriptError(ErrorTypeMemoryLimit, p.name, "script exceeded allocation limit", err)
		default:
			return nil, NewScriptError(ErrorTypeExecution, p.name, "script execution failed", err)
		}
	}

	var result interface{}
	if v := p.compiled.Get("result"); v != nil {
		result = v.Value()
	}
	return &Output{
		Result:  result,
		Logs:    append([]string(nil), *p.logs...),
		Metrics: ExecutionMetrics{ExecutionTime: time.Since(start)},
	}, nil
}

// buildModuleMap exposes only the allowed stdlib modules.
func (e *TengoEngine) buildModuleMap() *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, pkg := range e.limits.AllowedPackages {
		if module, ok := stdlib.BuiltinModules[pkg]; ok {
			modules.AddBuiltinModule(pkg, module)
		}
	}
	return modules
}

// logFunc lets scripts write to the structured log.
func (e *TengoEngine) logFunc(scriptName string, logs *[]string) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			message := args[0].String()
			if s, ok := args[0].(*tengo.String); ok {
				message = s.Value
			}
			*logs = append(*logs, message)
			e.logger.Debug("Script log", "script", scriptName, "message", message)
			return tengo.UndefinedValue, nil
		},
	}
}
