package match

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// Env is the set of variables available to --match expressions, e.g.
//
//	status == 302 && location contains "/dashboard"
//	status == 200 && !(body contains "Invalid password")
type Env struct {
	Status   int               `expr:"status"`
	Length   int               `expr:"length"`
	Size     int64             `expr:"size"`
	Location string            `expr:"location"`
	Body     string            `expr:"body"`
	Headers  map[string]string `expr:"headers"`  // lower-cased names
	Duration int64             `expr:"duration"` // milliseconds
}

// ExprMatcher evaluates a compiled boolean expression.
type ExprMatcher struct {
	source  string
	program *vm.Program
}

// NewExprMatcher compiles source. Non-boolean expressions are rejected.
func NewExprMatcher(source string) (*ExprMatcher, error) {
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling match expression %q: %w", source, err)
	}
	return &ExprMatcher{source: source, program: program}, nil
}

func (m *ExprMatcher) Name() string { return "expr(" + m.source + ")" }

func (m *ExprMatcher) Match(resp *scanner.Response) bool {
	out, err := expr.Run(m.program, newEnv(resp))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func newEnv(resp *scanner.Response) Env {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}
	return Env{
		Status:   resp.StatusCode,
		Length:   resp.Length,
		Size:     resp.Size,
		Location: resp.Location,
		Body:     string(resp.Body),
		Headers:  headers,
		Duration: resp.Duration.Milliseconds(),
	}
}
