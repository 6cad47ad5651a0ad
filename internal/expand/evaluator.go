// Package expand evaluates directive trees against a model and a type table.
package expand

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/dtig-project/dtig/internal/directive"
	"github.com/dtig-project/dtig/internal/schema"
	"github.com/dtig-project/dtig/internal/types"
)

// DefaultMaxDepth bounds nested macro calls
const DefaultMaxDepth = 64

// Option configures an Evaluator
type Option func(*Evaluator)

// WithMaxDepth sets the maximum macro call depth
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used for trace output
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger.With().Str("component", "expand").Logger()
	}
}

// WithVars binds user variables, reachable as DTIG>NAME outside any macro
func WithVars(vars map[string]string) Option {
	return func(e *Evaluator) {
		e.vars = vars
	}
}

// Evaluator expands templates against one model and type table.
// It holds no per-run state, so one Evaluator may expand templates concurrently.
type Evaluator struct {
	model    *schema.Model
	table    *types.Table
	maxDepth int
	logger   zerolog.Logger
	vars     map[string]string
}

// New creates an evaluator
func New(model *schema.Model, table *types.Table, opts ...Option) *Evaluator {
	e := &Evaluator{
		model:    model,
		table:    table,
		maxDepth: DefaultMaxDepth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand runs a template. On error no output is returned.
func (e *Evaluator) Expand(tpl *directive.Template) (string, error) {
	r := &run{
		ev:     e,
		scope:  newScope(e.vars),
		macros: make(map[string]*directive.MacroDef),
	}

	var out strings.Builder
	if err := r.nodes(tpl.Nodes, &out); err != nil {
		e.logger.Debug().Err(err).Str("template", tpl.Name).Msg("expansion failed")
		return "", err
	}
	return out.String(), nil
}

// ExpandString parses and expands template source
func (e *Evaluator) ExpandString(name, src string) (string, error) {
	tpl, err := directive.Parse(name, src)
	if err != nil {
		return "", err
	}
	return e.Expand(tpl)
}

// run is the state of one expansion
type run struct {
	ev     *Evaluator
	scope  *scope
	macros map[string]*directive.MacroDef
	calls  []string
}

func (r *run) nodes(nodes []directive.Node, w *strings.Builder) error {
	for _, n := range nodes {
		if err := r.node(n, w); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) node(n directive.Node, w *strings.Builder) error {
	switch n := n.(type) {
	case *directive.Text:
		w.WriteString(n.Value)

	case *directive.Placeholder:
		v, err := r.lookup(n.Name, n.Pos)
		if err != nil {
			return err
		}
		return r.write(w, v, n.Pos, directive.NamePrefix+n.Name)

	case *directive.Param:
		v, err := r.param(n.Name, n.Pos)
		if err != nil {
			return err
		}
		return r.write(w, v, n.Pos, directive.ParamPrefix+n.Name)

	case *directive.For:
		return r.loop(n, w)

	case *directive.If:
		for _, b := range n.Branches {
			cond, err := r.eval(b.Cond)
			if err != nil {
				return err
			}
			if cond.truthy() {
				return r.nodes(b.Body, w)
			}
		}
		if n.HasElse {
			return r.nodes(n.Else, w)
		}

	case *directive.MacroDef:
		r.macros[n.Name] = n

	case *directive.MacroCall:
		start := w.Len()
		if err := r.call(n.Name, n.Args, n.Pos, w); err != nil {
			return err
		}
		// a body ending in a block already closed its last line
		if n.LineEnd != "" && !(r.endsInBlock(n.Name) && strings.HasSuffix(w.String()[start:], "\n")) {
			w.WriteString(n.LineEnd)
		}

	case *directive.StringLiteral:
		v, err := r.eval(n.Expr)
		if err != nil {
			return err
		}
		s, err := r.render(v, n.Pos, describe(n.Expr))
		if err != nil {
			return err
		}
		w.WriteString(r.ev.table.Quote(s))

	case *directive.TypeQuery:
		v, err := r.eval(n.Expr)
		if err != nil {
			return err
		}
		s, err := r.typeQuery(v, n.Query, n.Pos)
		if err != nil {
			return err
		}
		w.WriteString(s)

	default:
		return directive.Resolvef(n.Position(), "unsupported node %T", n)
	}
	return nil
}

func (r *run) write(w *strings.Builder, v Value, pos directive.Pos, what string) error {
	s, err := r.render(v, pos, what)
	if err != nil {
		return err
	}
	w.WriteString(s)
	return nil
}

func (r *run) render(v Value, pos directive.Pos, what string) (string, error) {
	s, ok := v.text(r.ev.table.QuoteStyle())
	if !ok {
		if item, inLoop := r.scope.item(); inLoop {
			return "", directive.Resolvef(pos, "%s has no value for item %q", what, item.element.item.Name)
		}
		return "", directive.Resolvef(pos, "%s has no value", what)
	}
	return s, nil
}

func (r *run) loop(n *directive.For, w *strings.Builder) error {
	src, err := r.eval(n.Source)
	if err != nil {
		return err
	}
	if src.kind != kindList {
		return directive.Resolvef(n.Pos, "DTIG_FOR source %s is a %s, not a collection", describe(n.Source), src.kind)
	}

	r.ev.logger.Trace().
		Str("source", describe(n.Source)).
		Int("elements", len(src.list)).
		Int("line", n.Pos.Line).
		Msg("loop")

	for i, el := range src.list {
		r.scope.push(frame{kind: frameLoop, element: el, index: i})
		err := r.nodes(n.Body, w)
		r.scope.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) call(name string, args []directive.Expr, pos directive.Pos, w *strings.Builder) error {
	def, ok := r.macros[name]
	if !ok {
		return directive.Resolvef(pos, "macro DTIG_%s is not defined at this point", name)
	}
	if len(args) != len(def.Params) {
		return directive.Resolvef(pos, "macro DTIG_%s expects %d arguments, got %d", name, len(def.Params), len(args))
	}
	if len(r.calls) >= r.ev.maxDepth {
		chain := make([]string, 0, len(r.calls)+1)
		cyclic := false
		for _, c := range r.calls {
			chain = append(chain, directive.NamePrefix+c)
			cyclic = cyclic || c == name
		}
		chain = append(chain, directive.NamePrefix+name)
		if cyclic {
			return directive.Resolvef(pos, "cyclic macro expansion, depth limit %d exceeded: %s", r.ev.maxDepth, strings.Join(chain, " -> "))
		}
		return directive.Resolvef(pos, "macro depth limit %d exceeded: %s", r.ev.maxDepth, strings.Join(chain, " -> "))
	}

	params := make(map[string]Value, len(args))
	for i, arg := range args {
		v, err := r.eval(arg)
		if err != nil {
			return err
		}
		params[def.Params[i]] = v
	}

	r.ev.logger.Trace().
		Str("macro", name).
		Int("depth", len(r.calls)+1).
		Int("line", pos.Line).
		Msg("macro call")

	r.calls = append(r.calls, name)
	r.scope.push(frame{kind: frameMacro, macro: name, params: params})
	err := r.nodes(def.Body, w)
	r.scope.pop()
	r.calls = r.calls[:len(r.calls)-1]
	return err
}

// endsInBlock reports whether the current definition of a macro ends with a
// block or a nested call rather than text
func (r *run) endsInBlock(name string) bool {
	def, ok := r.macros[name]
	if !ok || len(def.Body) == 0 {
		return false
	}
	_, text := def.Body[len(def.Body)-1].(*directive.Text)
	return !text
}

func (r *run) param(name string, pos directive.Pos) (Value, error) {
	v, ok := r.scope.param(name)
	if !ok {
		return null, directive.Resolvef(pos, "unbound parameter %s%s", directive.ParamPrefix, name)
	}
	return v, nil
}

func (r *run) typeQuery(v Value, q directive.QueryKind, pos directive.Pos) (string, error) {
	tag, ok := v.tag()
	if !ok {
		return "", directive.Resolvef(pos, "cannot resolve a type from a %s", v.kind)
	}
	entry, err := r.ev.table.Lookup(tag)
	if err != nil {
		return "", directive.WrapResolve(pos, err, "type query")
	}
	if q == directive.QueryWrapper {
		return entry.Wrapper, nil
	}
	return entry.Accessor, nil
}

// describe names an expression in error messages
func describe(x directive.Expr) string {
	switch x := x.(type) {
	case *directive.NameRef:
		return directive.NamePrefix + x.Name
	case *directive.ParamRef:
		return directive.ParamPrefix + x.Name
	case *directive.Call:
		return directive.NamePrefix + x.Name + "(...)"
	}
	return "expression"
}
