package authoring

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

var ErrBadExpression = errors.New("bad expression")

var (
	// Names an expression may read.
	allowedNames = map[string]bool{"u": true, "v": true, "pi": true, "e": true}
	// Functions an expression may call, with their argument count.
	allowedFuncs = map[string]int{
		"sin": 1, "cos": 1, "tan": 1,
		"asin": 1, "acos": 1, "atan": 1,
		"sqrt": 1, "abs": 1, "exp": 1, "log": 1, "pow": 2,
	}
)

const prelude = `package expr

import "math"

const pi = math.Pi
const e = math.E

func sin(x float64) float64     { return math.Sin(x) }
func cos(x float64) float64     { return math.Cos(x) }
func tan(x float64) float64     { return math.Tan(x) }
func asin(x float64) float64    { return math.Asin(x) }
func acos(x float64) float64    { return math.Acos(x) }
func atan(x float64) float64    { return math.Atan(x) }
func sqrt(x float64) float64    { return math.Sqrt(x) }
func abs(x float64) float64     { return math.Abs(x) }
func exp(x float64) float64     { return math.Exp(x) }
func log(x float64) float64     { return math.Log(x) }
func pow(x, y float64) float64  { return math.Pow(x, y) }
`

type evalFunc = func(u, v float64) []float64

// Compile turns the record into a surface function. Entries are arithmetic
// expressions over u, v, pi and e and the functions in allowedFuncs. All
// numbers are floats, so 1/2 is 0.5 here and in the host script alike.
//
// The matrices are multiplied into one chain before the axis point is mapped,
// and the w of the result is dropped.
func (r *Record) Compile(ctx context.Context) (surface.Func, error) {
	if r.MapsTo != MapColumn && r.MapsTo != MapRow {
		return nil, fmt.Errorf("%w: mapsto=%d", ErrUnknownMapping, r.MapsTo)
	}

	src, err := r.source()
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return nil, fmt.Errorf("compiling authoring record: %w", err)
	}

	axis, err := lookup(ctx, i, "expr.Axis")
	if err != nil {
		return nil, err
	}
	mats := make([]evalFunc, len(r.Matrices))
	for k := range r.Matrices {
		if mats[k], err = lookup(ctx, i, fmt.Sprintf("expr.Matrix%d", k)); err != nil {
			return nil, err
		}
	}

	row := r.MapsTo == MapRow
	// The interpreter is not shared between goroutines.
	var mu sync.Mutex
	return func(s, t float64) vm.Vec3 {
		mu.Lock()
		a := axis(s, t)
		ms := make([]vm.Mat, len(mats))
		for k, mat := range mats {
			ms[k] = toMat(mat(s, t))
		}
		mu.Unlock()

		chain := vm.NewUnitMat(4)
		for k := range ms {
			if row {
				// (x,y,z,1) * M1 * ... * Mk
				chain, _ = chain.Mult(&ms[k])
			} else {
				// Mk * ... * M1 * (x,y,z,1)
				chain, _ = ms[k].Mult(&chain)
			}
		}
		if row {
			chain = chain.Transpose()
		}
		return vm.Apply(vm.Vec3{X: a[0], Y: a[1], Z: a[2]}, 1, chain)
	}, nil
}

func lookup(ctx context.Context, i *interp.Interpreter, name string) (evalFunc, error) {
	res, err := i.EvalWithContext(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}
	fn, ok := res.Interface().(func(float64, float64) []float64)
	if !ok {
		return nil, fmt.Errorf("%s has incorrect signature", name)
	}
	return fn, nil
}

func toMat(e []float64) vm.Mat {
	m := vm.NewUnitMat(4)
	for k, x := range e {
		m[k/4][k%4] = x
	}
	return m
}

// source renders the record as a Go package for the interpreter after every
// entry passed validation.
func (r *Record) source() (string, error) {
	var b strings.Builder
	b.WriteString(prelude)

	axis := []string{r.X, r.Y, r.Z}
	if err := writeFunc(&b, "Axis", axis); err != nil {
		return "", fmt.Errorf("axis: %w", err)
	}
	for k, m := range r.Matrices {
		entries := make([]string, 0, 16)
		for _, row := range m.Mat {
			entries = append(entries, row[:]...)
		}
		if err := writeFunc(&b, fmt.Sprintf("Matrix%d", k), entries); err != nil {
			return "", fmt.Errorf("matrix %d: %w", k, err)
		}
	}
	return b.String(), nil
}

func writeFunc(b *strings.Builder, name string, entries []string) error {
	fmt.Fprintf(b, "\nfunc %s(u, v float64) []float64 {\n\treturn []float64{\n", name)
	for _, entry := range entries {
		src, err := goExpr(entry)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "\t\t%s,\n", src)
	}
	b.WriteString("\t}\n}\n")
	return nil
}

// ValidateExpr checks that expr is a plain arithmetic expression over the
// allowed names and functions.
func ValidateExpr(expr string) error {
	_, err := parseExpr(token.NewFileSet(), expr)
	return err
}

// goExpr validates expr and prints it back as Go source with every integer
// literal turned into a float literal.
func goExpr(expr string) (string, error) {
	fset := token.NewFileSet()
	node, err := parseExpr(fset, expr)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := printer.Fprint(&b, fset, node); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrBadExpression, expr, err)
	}
	return b.String(), nil
}

func parseExpr(fset *token.FileSet, expr string) (ast.Expr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadExpression)
	}
	node, err := parser.ParseExprFrom(fset, "", expr, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadExpression, expr, err)
	}
	if err := checkExpr(node); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadExpression, expr, err)
	}
	return node, nil
}

// checkExpr walks n and rejects anything but numbers, allowed names,
// + - * / and calls of allowed functions. Integer literals are rewritten in
// place as floats.
func checkExpr(n ast.Expr) error {
	switch x := n.(type) {
	case *ast.ParenExpr:
		return checkExpr(x.X)
	case *ast.BasicLit:
		switch x.Kind {
		case token.FLOAT:
		case token.INT:
			i, err := strconv.ParseInt(x.Value, 0, 64)
			if err != nil {
				return fmt.Errorf("literal %s: %v", x.Value, err)
			}
			x.Kind = token.FLOAT
			x.Value = strconv.FormatInt(i, 10) + ".0"
		default:
			return fmt.Errorf("literal %s", x.Value)
		}
	case *ast.Ident:
		if !allowedNames[x.Name] {
			return fmt.Errorf("unknown name %s", x.Name)
		}
	case *ast.UnaryExpr:
		if x.Op != token.ADD && x.Op != token.SUB {
			return fmt.Errorf("operator %s", x.Op)
		}
		return checkExpr(x.X)
	case *ast.BinaryExpr:
		switch x.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO:
		default:
			return fmt.Errorf("operator %s", x.Op)
		}
		if err := checkExpr(x.X); err != nil {
			return err
		}
		return checkExpr(x.Y)
	case *ast.CallExpr:
		id, ok := x.Fun.(*ast.Ident)
		if !ok {
			return fmt.Errorf("call of %T", x.Fun)
		}
		argc, ok := allowedFuncs[id.Name]
		if !ok {
			return fmt.Errorf("call of %s", id.Name)
		}
		if len(x.Args) != argc || x.Ellipsis.IsValid() {
			return fmt.Errorf("%s takes %d argument(s)", id.Name, argc)
		}
		for _, arg := range x.Args {
			if err := checkExpr(arg); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported %T", n)
	}
	return nil
}
