// Copyright 2025 go-ndagg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transform rewrites user-written aggregation functions into the
// output-parameter form generalized kernels use.
//
// A reduction is written the natural way, computing a value and returning
// it:
//
//	func nansum[T float32 | float64](a []T) T {
//		var s T
//		for _, v := range a {
//			if v == v {
//				s += v
//			}
//		}
//		return s
//	}
//
// and becomes, for the signature float64(float64),
//
//	func NansumFloat64ToFloat64(a []float64, out []float64) {
//		var s float64
//		...
//		out[0] = float64(s)
//	}
//
// A moving-window function already writes into its out parameter; its
// window argument arrives as a one-element slice, so every reference to it
// is rewritten to window[0].
//
// Transformations work on the go/ast of the function. Each one re-parses
// the original source, so a Func can be specialized any number of times and
// always yields the same text for the same signature.
package transform

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

// ErrTransform is the sentinel wrapped by every *Error.
var ErrTransform = errors.New("transform: cannot transform function")

// Error reports a function that does not have the shape a kernel needs.
type Error struct {
	Func   string
	Reason string
	Err    error // underlying parse error, if any
}

func (e *Error) Error() string {
	name := e.Func
	if name == "" {
		name = "<source>"
	}
	if e.Err != nil {
		return fmt.Sprintf("transform: %s: %s: %v", name, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform: %s: %s", name, e.Reason)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransform, e.Err}
	}
	return []error{ErrTransform}
}

// Func is a parsed user function ready to be specialized.
type Func struct {
	// Name is the function's declared name.
	Name string
	// TypeParams lists type parameter names in declaration order. The first
	// binds to a signature's input element type, the second to its output
	// element type.
	TypeParams []string
	// Params lists parameter names in declaration order ("_" for unnamed).
	Params []string
	// Results is the number of declared results.
	Results int

	src string
}

// Kernel is the output-parameter form of a Func for one signature.
type Kernel struct {
	Name      string
	Signature signature.Signature
	Source    string
	Imports   []string // import specs as written, e.g. `"math"` or `m "math"`
}

// Parse parses src and selects the function called name, or the only
// function in src when name is empty. src may be a complete Go file or just
// a function declaration.
func Parse(src, name string) (*Func, error) {
	if !hasPackageClause(src) {
		src = "package kernels\n\n" + src
	}
	_, _, decl, err := parseDecl(src, name)
	if err != nil {
		return nil, err
	}
	fn := &Func{Name: decl.Name.Name, src: src}
	if tps := decl.Type.TypeParams; tps != nil {
		for _, f := range tps.List {
			for _, n := range f.Names {
				fn.TypeParams = append(fn.TypeParams, n.Name)
			}
		}
	}
	if len(fn.TypeParams) > 2 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("has %d type parameters, at most 2 (input, output) are supported", len(fn.TypeParams))}
	}
	fn.Params = fieldNames(decl.Type.Params)
	if decl.Type.Results != nil {
		fn.Results = len(fieldNames(decl.Type.Results))
	}
	return fn, nil
}

// Reduce specializes fn as a reduction kernel for sig. fn must take one
// parameter, return one value, and end in its only return statement.
func Reduce(fn *Func, sig signature.Signature) (*Kernel, error) {
	if len(sig.In) != 1 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("reduction signature %s must have one input", sig)}
	}
	if len(fn.Params) != 1 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("reduction takes %d parameters, want 1", len(fn.Params))}
	}
	if fn.Results != 1 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("reduction returns %d values, want 1", fn.Results)}
	}
	fset, file, decl, err := parseDecl(fn.src, fn.Name)
	if err != nil {
		return nil, err
	}
	body := decl.Body
	if body == nil || len(body.List) == 0 {
		return nil, &Error{Func: fn.Name, Reason: "has no body"}
	}
	tail, ok := body.List[len(body.List)-1].(*ast.ReturnStmt)
	if !ok || len(tail.Results) != 1 {
		return nil, &Error{Func: fn.Name, Reason: "does not end in a single-value return statement"}
	}
	if n := countReturns(body); n != 1 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("has %d return statements, only the tail return is supported", n)}
	}

	bound := typeBinding(fn, sig.In[0], sig.Out)
	param := fieldTypes(decl.Type.Params)[0]
	if !sliceOf(param, sig.In[0], bound) {
		return nil, mismatch(fn, "parameter "+fn.Params[0], param, "[]"+sig.In[0])
	}
	result := decl.Type.Results.List[0]
	if len(result.Names) > 0 {
		return nil, &Error{Func: fn.Name, Reason: "named results are not supported"}
	}
	if !isTypeParam(result.Type, bound) && !namesType(result.Type, sig.Out, bound) {
		return nil, mismatch(fn, "result", result.Type, sig.Out)
	}

	bindTypeParams(fn, decl, sig.In[0], sig.Out)
	outName := freshName(decl, "out")
	body.List[len(body.List)-1] = &ast.AssignStmt{
		Lhs: []ast.Expr{&ast.IndexExpr{X: ast.NewIdent(outName), Index: zeroLit()}},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{&ast.CallExpr{Fun: ast.NewIdent(sig.Out), Args: []ast.Expr{tail.Results[0]}}},
	}
	decl.Type.Params = &ast.FieldList{List: []*ast.Field{
		sliceParam(fn.Params[0], sig.In[0]),
		sliceParam(outName, sig.Out),
	}}
	decl.Type.Results = nil
	return finish(fn, sig, fset, file, decl)
}

// Moving specializes fn as a moving-window kernel for sig, whose inputs are
// the array element type and the window type. fn must take (a, window, out)
// and return nothing. The window parameter must only be read, directly in
// fn's body: assigning it, taking its address, redeclaring its name or
// referring to it from a function literal is rejected.
func Moving(fn *Func, sig signature.Signature) (*Kernel, error) {
	if len(sig.In) != 2 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("moving signature %s must have two inputs (array, window)", sig)}
	}
	if len(fn.Params) != 3 {
		return nil, &Error{Func: fn.Name, Reason: fmt.Sprintf("moving function takes %d parameters, want 3 (a, window, out)", len(fn.Params))}
	}
	if fn.Results != 0 {
		return nil, &Error{Func: fn.Name, Reason: "moving function must write to its out parameter instead of returning values"}
	}
	fset, file, decl, err := parseDecl(fn.src, fn.Name)
	if err != nil {
		return nil, err
	}
	if decl.Body == nil {
		return nil, &Error{Func: fn.Name, Reason: "has no body"}
	}
	window := fn.Params[1]
	if window == "_" {
		return nil, &Error{Func: fn.Name, Reason: "window parameter must be named"}
	}
	if reason := checkWindowUse(decl.Body, window); reason != "" {
		return nil, &Error{Func: fn.Name, Reason: reason}
	}

	bound := typeBinding(fn, sig.In[0], sig.Out)
	params := fieldTypes(decl.Type.Params)
	if !sliceOf(params[0], sig.In[0], bound) {
		return nil, mismatch(fn, "parameter "+fn.Params[0], params[0], "[]"+sig.In[0])
	}
	if !isTypeParam(params[1], bound) && !namesType(params[1], sig.In[1], bound) {
		return nil, mismatch(fn, "window parameter "+window, params[1], sig.In[1])
	}
	if !sliceOf(params[2], sig.Out, bound) {
		return nil, mismatch(fn, "parameter "+fn.Params[2], params[2], "[]"+sig.Out)
	}

	bindTypeParams(fn, decl, sig.In[0], sig.Out)
	astutil.Apply(decl.Body, func(c *astutil.Cursor) bool {
		id, ok := c.Node().(*ast.Ident)
		if !ok || id.Name != window || !isValueRef(c) {
			return true
		}
		c.Replace(&ast.IndexExpr{X: ast.NewIdent(window), Index: zeroLit()})
		return false
	}, nil)
	decl.Type.Params = &ast.FieldList{List: []*ast.Field{
		sliceParam(fn.Params[0], sig.In[0]),
		sliceParam(window, sig.In[1]),
		sliceParam(fn.Params[2], sig.Out),
	}}
	return finish(fn, sig, fset, file, decl)
}

// EntryName returns the kernel entry name for fn and sig, e.g.
// "NansumFloat64ToFloat64" for nansum and float64(float64).
func EntryName(name string, sig signature.Signature) string {
	var sb strings.Builder
	sb.WriteString(titleWords(name))
	for _, t := range sig.In {
		sb.WriteString(titleWords(t))
	}
	sb.WriteString("To")
	sb.WriteString(titleWords(sig.Out))
	return sb.String()
}

func titleWords(s string) string {
	caser := cases.Title(language.English, cases.NoLower)
	var sb strings.Builder
	for _, w := range strings.Split(s, "_") {
		sb.WriteString(caser.String(w))
	}
	return sb.String()
}

func finish(fn *Func, sig signature.Signature, fset *token.FileSet, file *ast.File, decl *ast.FuncDecl) (*Kernel, error) {
	name := EntryName(fn.Name, sig)
	decl.Name = ast.NewIdent(name)
	decl.Type.TypeParams = nil
	decl.Doc = nil

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, decl); err != nil {
		return nil, &Error{Func: fn.Name, Reason: "format kernel", Err: err}
	}
	return &Kernel{
		Name:      name,
		Signature: sig,
		Source:    buf.String(),
		Imports:   usedImports(file, decl),
	}, nil
}

func hasPackageClause(src string) bool {
	_, err := parser.ParseFile(token.NewFileSet(), "", src, parser.PackageClauseOnly)
	return err == nil
}

func parseDecl(src, name string) (*token.FileSet, *ast.File, *ast.FuncDecl, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "kernel.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, nil, &Error{Func: name, Reason: "parse source", Err: err}
	}
	var found []*ast.FuncDecl
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		if name == "" || fd.Name.Name == name {
			found = append(found, fd)
		}
	}
	switch {
	case len(found) == 1:
		return fset, file, found[0], nil
	case name == "" && len(found) > 1:
		return nil, nil, nil, &Error{Reason: fmt.Sprintf("source declares %d functions, name the one to use", len(found))}
	default:
		return nil, nil, nil, &Error{Func: name, Reason: "function not found in source"}
	}
}

func fieldNames(fl *ast.FieldList) []string {
	var names []string
	if fl == nil {
		return names
	}
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			names = append(names, "_")
			continue
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

// countReturns counts return statements in body, not descending into
// function literals, whose returns belong to the literal.
func countReturns(body *ast.BlockStmt) int {
	n := 0
	ast.Inspect(body, func(node ast.Node) bool {
		switch node.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			n++
		}
		return true
	})
	return n
}

// typeBinding maps fn's type parameters to the concrete types they take
// for a signature: the first to the input element type, the second to the
// output element type.
func typeBinding(fn *Func, in, out string) map[string]string {
	bound := map[string]string{}
	if len(fn.TypeParams) > 0 {
		bound[fn.TypeParams[0]] = in
	}
	if len(fn.TypeParams) > 1 {
		bound[fn.TypeParams[1]] = out
	}
	return bound
}

// bindTypeParams replaces references to fn's type parameters in the body
// with the concrete input and output element types.
func bindTypeParams(fn *Func, decl *ast.FuncDecl, in, out string) {
	concrete := typeBinding(fn, in, out)
	if len(concrete) == 0 {
		return
	}
	astutil.Apply(decl.Body, func(c *astutil.Cursor) bool {
		id, ok := c.Node().(*ast.Ident)
		if !ok || !isValueRef(c) {
			return true
		}
		if t, ok := concrete[id.Name]; ok {
			c.Replace(ast.NewIdent(t))
		}
		return true
	}, nil)
}

// fieldTypes returns the type of every name in fl, in the order of
// fieldNames.
func fieldTypes(fl *ast.FieldList) []ast.Expr {
	var ts []ast.Expr
	if fl == nil {
		return ts
	}
	for _, f := range fl.List {
		for i := 0; i < max(len(f.Names), 1); i++ {
			ts = append(ts, f.Type)
		}
	}
	return ts
}

// namesType reports whether expr is the type want, either spelled out or
// as a type parameter bound to it.
func namesType(expr ast.Expr, want string, bound map[string]string) bool {
	id, ok := expr.(*ast.Ident)
	if !ok {
		return false
	}
	if t, ok := bound[id.Name]; ok {
		return t == want
	}
	return id.Name == want
}

func isTypeParam(expr ast.Expr, bound map[string]string) bool {
	id, ok := expr.(*ast.Ident)
	if !ok {
		return false
	}
	_, ok = bound[id.Name]
	return ok
}

// sliceOf reports whether expr is []X with X naming the type want.
func sliceOf(expr ast.Expr, want string, bound map[string]string) bool {
	at, ok := expr.(*ast.ArrayType)
	return ok && at.Len == nil && namesType(at.Elt, want, bound)
}

func mismatch(fn *Func, what string, got ast.Expr, want string) *Error {
	return &Error{Func: fn.Name, Reason: fmt.Sprintf("%s has type %s, want %s", what, types.ExprString(got), want)}
}

// isValueRef reports whether the identifier under c refers to a package or
// function scope name, as opposed to a field selector or a label.
func isValueRef(c *astutil.Cursor) bool {
	switch c.Parent().(type) {
	case *ast.SelectorExpr:
		return c.Name() != "Sel"
	case *ast.LabeledStmt, *ast.BranchStmt:
		return false
	case *ast.Field:
		return c.Name() != "Names"
	case *ast.KeyValueExpr:
		// Struct literal keys are field names; map keys are values but
		// kernels have no business building maps keyed by the window.
		return c.Name() != "Key"
	default:
		return true
	}
}

// checkWindowUse returns a non-empty reason when the window parameter is
// used in a way the window[0] rewrite cannot express.
func checkWindowUse(body *ast.BlockStmt, window string) string {
	var reason string
	isWindow := func(e ast.Expr) bool {
		id, ok := e.(*ast.Ident)
		return ok && id.Name == window
	}
	ast.Inspect(body, func(n ast.Node) bool {
		if reason != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.FuncLit:
			ast.Inspect(n, func(m ast.Node) bool {
				if reason != "" {
					return false
				}
				if id, ok := m.(*ast.Ident); ok && id.Name == window {
					reason = fmt.Sprintf("window parameter %q is referenced inside a function literal", window)
				}
				return true
			})
			return false
		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if isWindow(lhs) {
					reason = fmt.Sprintf("window parameter %q is assigned or redeclared", window)
				}
			}
		case *ast.IncDecStmt:
			if isWindow(n.X) {
				reason = fmt.Sprintf("window parameter %q is modified", window)
			}
		case *ast.UnaryExpr:
			if n.Op == token.AND && isWindow(n.X) {
				reason = fmt.Sprintf("address of window parameter %q is taken", window)
			}
		case *ast.ValueSpec:
			for _, id := range n.Names {
				if id.Name == window {
					reason = fmt.Sprintf("window parameter %q is redeclared", window)
				}
			}
		case *ast.RangeStmt:
			if (n.Key != nil && isWindow(n.Key)) || (n.Value != nil && isWindow(n.Value)) {
				reason = fmt.Sprintf("window parameter %q is used as a range variable", window)
			}
		}
		return reason == ""
	})
	return reason
}

// freshName returns base, or base followed by underscores, such that it
// collides with no identifier in decl.
func freshName(decl *ast.FuncDecl, base string) string {
	used := map[string]bool{}
	ast.Inspect(decl, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			used[id.Name] = true
		}
		return true
	})
	name := base
	for used[name] {
		name += "_"
	}
	return name
}

// usedImports returns the import specs of file that decl refers to.
func usedImports(file *ast.File, decl *ast.FuncDecl) []string {
	refs := map[string]bool{}
	ast.Inspect(decl, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				refs[id.Name] = true
			}
		}
		return true
	})
	var specs []string
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local := path.Base(p)
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if local == "_" || (local != "." && !refs[local]) {
			continue
		}
		if imp.Name != nil {
			specs = append(specs, imp.Name.Name+" "+imp.Path.Value)
		} else {
			specs = append(specs, imp.Path.Value)
		}
	}
	slices.Sort(specs)
	return specs
}

func sliceParam(name, elem string) *ast.Field {
	return &ast.Field{
		Names: []*ast.Ident{ast.NewIdent(name)},
		Type:  &ast.ArrayType{Elt: ast.NewIdent(elem)},
	}
}

func zeroLit() *ast.BasicLit {
	return &ast.BasicLit{Kind: token.INT, Value: "0"}
}
