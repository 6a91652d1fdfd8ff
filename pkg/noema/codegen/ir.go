// Package codegen compiles extracted validation rules into native C
// validation routines. Strategy selection and cost estimation live in the
// optimizer; the emitter assembles one self-contained compilation unit.
//
// Code is built as a small IR (functions, statements, expressions) and
// rendered in a separate pass, so generation logic stays testable without
// string comparison against full source text.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a C expression.
type Expr interface {
	expr() string
}

// Ident is a bare identifier or pre-formed expression fragment.
type Ident string

func (i Ident) expr() string { return string(i) }

// Str is a C string literal; quoting and escaping happen at render time.
type Str string

func (s Str) expr() string { return cQuote(string(s)) }

// Num is a numeric literal.
type Num float64

func (n Num) expr() string {
	if n == Num(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// Call is a function invocation.
type Call struct {
	Fn   string
	Args []Expr
}

func (c Call) expr() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.expr()
	}
	return c.Fn + "(" + strings.Join(args, ", ") + ")"
}

// Bin is a binary operation.
type Bin struct {
	Op   string
	L, R Expr
}

func (b Bin) expr() string {
	return b.L.expr() + " " + b.Op + " " + b.R.expr()
}

// Stmt is a C statement.
type Stmt interface {
	render(b *strings.Builder, indent string)
}

// Raw is a literal statement line (without trailing semicolon handling).
type Raw string

func (r Raw) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString(string(r))
	b.WriteString("\n")
}

// Decl declares and initializes a local variable.
type Decl struct {
	Type  string
	Name  string
	Value Expr
}

func (d Decl) render(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%s%s %s = %s;\n", indent, d.Type, d.Name, d.Value.expr())
}

// If renders a conditional with an optional single-branch body.
type If struct {
	Cond Expr
	Then []Stmt
}

func (i If) render(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%sif (%s) {\n", indent, i.Cond.expr())
	for _, s := range i.Then {
		s.render(b, indent+"    ")
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// Return renders a return statement.
type Return struct {
	Value Expr
}

func (r Return) render(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%sreturn %s;\n", indent, r.Value.expr())
}

// Param is one function parameter.
type Param struct {
	Type string
	Name string
}

// Func is a C function definition.
type Func struct {
	Comment string
	Ret     string
	Name    string
	Params  []Param
	Body    []Stmt
}

// Render produces the function's source text.
func (f *Func) Render() string {
	var b strings.Builder
	if f.Comment != "" {
		fmt.Fprintf(&b, "/* %s */\n", f.Comment)
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type + " " + p.Name
	}
	fmt.Fprintf(&b, "%s %s(%s) {\n", f.Ret, f.Name, strings.Join(params, ", "))
	for _, s := range f.Body {
		s.render(&b, "    ")
	}
	b.WriteString("}\n")
	return b.String()
}

// Signature returns the forward declaration for the function.
func (f *Func) Signature() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s);", f.Ret, f.Name, strings.Join(params, ", "))
}

// cQuote escapes a Go string into a C string literal.
func cQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
