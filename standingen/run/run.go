// Package run implements the main logic for the standingen tool in a testable way.
package run

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/alexflint/go-arg"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

// Interfaces - Public

// FileSystem interface for mocking.
type FileSystem interface {
	Glob(pattern string) ([]string, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Errors - Public

var (
	// ErrInterfaceNotFound is returned when the named interface isn't declared in the package.
	ErrInterfaceNotFound = errors.New("interface not found")
	// ErrUnsupportedInterface is returned for interfaces standingen can't generate doubles for.
	ErrUnsupportedInterface = errors.New("unsupported interface")
	// ErrMissingEnv is returned when a go:generate environment variable is absent.
	ErrMissingEnv = errors.New("missing environment variable")
)

// Structs - Private

// cliArgs defines the command-line arguments for the generator.
type cliArgs struct {
	Interface string `arg:"positional,required" help:"interface name to generate a standin for (e.g. MyInterface)"`
	Name      string `arg:"--name"              help:"name for the generated standin type (defaults to <Interface>Standin)"`
}

// method holds the pieces of one interface method needed for generation.
type method struct {
	name    string
	params  []param
	results []string
}

// param holds one generated parameter: its positional name and rendered type.
type param struct {
	name     string
	typeName string
	variadic bool
}

// Functions - Public

// Run executes the standingen tool logic. It takes command-line arguments, an environment variable getter, a
// FileSystem interface for file operations, and a writer for progress output. On success, it generates a Go
// source file containing a record/replay double for the specified interface, in the calling test package.
func Run(args []string, getEnv func(string) string, fileSys FileSystem, out io.Writer) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return err
	}

	pkgName := getEnv("GOPACKAGE")
	if pkgName == "" {
		return fmt.Errorf("%w: GOPACKAGE (standingen is meant to run under go generate)", ErrMissingEnv)
	}

	standinName := parsed.Name
	if standinName == "" {
		standinName = parsed.Interface + "Standin"
	}

	files, err := loadPackageFiles(fileSys)
	if err != nil {
		return err
	}

	methods, err := findInterfaceMethods(files, parsed.Interface)
	if err != nil {
		return err
	}

	code := generateCode(pkgName, parsed.Interface, standinName, methods)

	return writeGeneratedCode(fileSys, out, standinName, code)
}

// Functions - Private

// findInterfaceMethods locates the named interface declaration and extracts its methods.
func findInterfaceMethods(files []*dst.File, interfaceName string) ([]method, error) {
	for _, file := range files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*dst.GenDecl)
			if !ok {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*dst.TypeSpec)
				if !ok || typeSpec.Name.Name != interfaceName {
					continue
				}

				ifaceType, ok := typeSpec.Type.(*dst.InterfaceType)
				if !ok {
					return nil, fmt.Errorf("%w: %s is not an interface", ErrUnsupportedInterface, interfaceName)
				}

				return methodsOf(interfaceName, ifaceType)
			}
		}
	}

	return nil, fmt.Errorf("%w: %s is not declared in this package", ErrInterfaceNotFound, interfaceName)
}

// generateCode renders the full generated file for the interface's double.
func generateCode(pkgName, interfaceName, standinName string, methods []method) []byte {
	writer := &codeWriter{}

	writer.pf("// Code generated by standingen; DO NOT EDIT.\n\n")
	writer.pf("package %s\n\n", pkgName)
	writer.pf("import (\n\t\"github.com/toejough/standin\"\n)\n\n")

	writer.pf("// %s is a record/replay double for %s.\n", standinName, interfaceName)
	writer.pf("type %s struct {\n", standinName)
	writer.pf("\tt    standin.TestReporter\n")
	writer.pf("\tmock *standin.Mock\n")
	writer.pf("}\n\n")

	writer.pf("// New%s returns a double for %s wired to the Mock registered under t.\n", standinName, interfaceName)
	writer.pf("func New%s(t standin.TestReporter) *%s {\n", standinName, standinName)
	writer.pf("\treturn &%s{t: t, mock: standin.For(t)}\n", standinName)
	writer.pf("}\n\n")

	writer.pf("// Mock returns the underlying mock, for registration and assertions.\n")
	writer.pf("func (d *%s) Mock() *standin.Mock {\n\treturn d.mock\n}\n", standinName)

	for _, meth := range methods {
		writer.pf("\n")
		generateMethod(writer, standinName, meth)
	}

	return writer.bytes()
}

// generateMethod renders one method body, dispatching on the declared result
// shape: zero results are void calls, one result is a required typed call,
// and multiple results go through CallValues with per-result downcasts.
func generateMethod(writer *codeWriter, standinName string, meth method) {
	writer.pf("func (d *%s) %s(%s)%s {\n", standinName, meth.name, paramList(meth.params), resultList(meth.results))
	writer.pf("\td.t.Helper()\n")

	callArgs := writeArgForwarding(writer, meth.params)

	switch len(meth.results) {
	case 0:
		writer.pf("\tstandin.CallVoid(d.mock, d.%s%s)\n", meth.name, callArgs)
	case 1:
		writer.pf("\treturn standin.Call[%s](d.mock, d.%s%s)\n", meth.results[0], meth.name, callArgs)
	default:
		writer.pf("\tresults := standin.CallValues(d.mock, d.%s%s)\n", meth.name, callArgs)

		returnNames := make([]string, len(meth.results))
		for i, resultType := range meth.results {
			returnNames[i] = fmt.Sprintf("r%d", i)
			writer.pf("\tvar r%d %s\n", i, resultType)
			writer.pf("\tif results[%d] != nil {\n", i)
			writer.pf("\t\tr%d, _ = results[%d].(%s)\n", i, i, resultType)
			writer.pf("\t}\n")
		}

		writer.pf("\treturn %s\n", strings.Join(returnNames, ", "))
	}

	writer.pf("}\n")
}

// loadPackageFiles parses every Go file in the current directory with DST.
// Generated and test files are included too; duplicate declarations don't
// matter since we only scan for one interface.
func loadPackageFiles(fileSys FileSystem) ([]*dst.File, error) {
	names, err := fileSys.Glob("*.go")
	if err != nil {
		return nil, err
	}

	files := make([]*dst.File, 0, len(names))

	for _, name := range names {
		src, err := fileSys.ReadFile(name)
		if err != nil {
			return nil, err
		}

		file, err := decorator.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		files = append(files, file)
	}

	return files, nil
}

// methodsOf extracts generation info from an interface's method list.
func methodsOf(interfaceName string, ifaceType *dst.InterfaceType) ([]method, error) {
	if ifaceType.Methods == nil {
		return nil, nil
	}

	methods := make([]method, 0, len(ifaceType.Methods.List))

	for _, field := range ifaceType.Methods.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("%w: %s embeds another interface", ErrUnsupportedInterface, interfaceName)
		}

		funcType, ok := field.Type.(*dst.FuncType)
		if !ok {
			return nil, fmt.Errorf("%w: %s has a non-method member", ErrUnsupportedInterface, interfaceName)
		}

		params := paramsOf(funcType)
		results := resultsOf(funcType)

		for _, name := range field.Names {
			methods = append(methods, method{name: name.Name, params: params, results: results})
		}
	}

	return methods, nil
}

// paramList renders the generated method's parameter declarations.
func paramList(params []param) string {
	rendered := make([]string, len(params))

	for i, p := range params {
		if p.variadic {
			rendered[i] = fmt.Sprintf("%s ...%s", p.name, p.typeName)
		} else {
			rendered[i] = fmt.Sprintf("%s %s", p.name, p.typeName)
		}
	}

	return strings.Join(rendered, ", ")
}

// paramsOf flattens a method's parameters into positionally named params.
// Declared names are ignored; generated doubles use a1..aN.
func paramsOf(funcType *dst.FuncType) []param {
	if funcType.Params == nil {
		return nil
	}

	params := []param{}

	for _, field := range funcType.Params.List {
		count := len(field.Names)
		if count == 0 {
			count = 1
		}

		for range count {
			index := len(params) + 1

			if ellipsis, ok := field.Type.(*dst.Ellipsis); ok {
				params = append(params, param{
					name:     fmt.Sprintf("a%d", index),
					typeName: typeString(ellipsis.Elt),
					variadic: true,
				})
			} else {
				params = append(params, param{
					name:     fmt.Sprintf("a%d", index),
					typeName: typeString(field.Type),
				})
			}
		}
	}

	return params
}

// parseArgs parses command-line arguments into cliArgs.
func parseArgs(args []string) (cliArgs, error) {
	var parsed cliArgs

	parser, err := arg.NewParser(arg.Config{Program: "standingen"}, &parsed)
	if err != nil {
		return cliArgs{}, fmt.Errorf("failed to create argument parser: %w", err)
	}

	err = parser.Parse(args[1:])
	if err != nil {
		return cliArgs{}, fmt.Errorf("failed to parse arguments: %w", err)
	}

	return parsed, nil
}

// resultList renders the generated method's result declarations.
func resultList(results []string) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + results[0]
	default:
		return " (" + strings.Join(results, ", ") + ")"
	}
}

// resultsOf flattens a method's results into rendered type names.
func resultsOf(funcType *dst.FuncType) []string {
	if funcType.Results == nil {
		return nil
	}

	results := []string{}

	for _, field := range funcType.Results.List {
		count := len(field.Names)
		if count == 0 {
			count = 1
		}

		for range count {
			results = append(results, typeString(field.Type))
		}
	}

	return results
}

// typeString renders a DST type expression back to Go source.
func typeString(expr dst.Expr) string {
	switch t := expr.(type) {
	case *dst.Ident:
		return t.Name
	case *dst.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *dst.StarExpr:
		return "*" + typeString(t.X)
	case *dst.ArrayType:
		if t.Len == nil {
			return "[]" + typeString(t.Elt)
		}

		return "[" + typeString(t.Len) + "]" + typeString(t.Elt)
	case *dst.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *dst.Ellipsis:
		return "..." + typeString(t.Elt)
	case *dst.ChanType:
		switch t.Dir {
		case dst.RECV:
			return "<-chan " + typeString(t.Value)
		case dst.SEND:
			return "chan<- " + typeString(t.Value)
		default:
			return "chan " + typeString(t.Value)
		}
	case *dst.FuncType:
		return funcTypeString(t)
	case *dst.InterfaceType:
		return "any"
	case *dst.BasicLit:
		return t.Value
	case *dst.IndexExpr:
		return typeString(t.X) + "[" + typeString(t.Index) + "]"
	case *dst.IndexListExpr:
		indices := make([]string, len(t.Indices))
		for i, index := range t.Indices {
			indices[i] = typeString(index)
		}

		return typeString(t.X) + "[" + strings.Join(indices, ", ") + "]"
	default:
		return "any"
	}
}

// funcTypeString renders a func type expression.
func funcTypeString(funcType *dst.FuncType) string {
	params := make([]string, 0)

	if funcType.Params != nil {
		for _, field := range funcType.Params.List {
			count := len(field.Names)
			if count == 0 {
				count = 1
			}

			for range count {
				params = append(params, typeString(field.Type))
			}
		}
	}

	rendered := "func(" + strings.Join(params, ", ") + ")"

	results := resultsOf(funcType)
	rendered += resultList(results)

	return rendered
}

// writeArgForwarding emits any prelude needed to forward the method's
// arguments and returns the argument suffix for the dispatch call. Variadic
// methods flatten their trailing slice into the args bundle.
func writeArgForwarding(writer *codeWriter, params []param) string {
	if len(params) == 0 {
		return ""
	}

	last := params[len(params)-1]
	if !last.variadic {
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.name
		}

		return ", " + strings.Join(names, ", ")
	}

	fixed := make([]string, 0, len(params)-1)
	for _, p := range params[:len(params)-1] {
		fixed = append(fixed, p.name)
	}

	writer.pf("\targs := []any{%s}\n", strings.Join(fixed, ", "))
	writer.pf("\tfor _, v := range %s {\n", last.name)
	writer.pf("\t\targs = append(args, v)\n")
	writer.pf("\t}\n")

	return ", args..."
}

// writeGeneratedCode writes the generated file, printing a unified diff when
// it replaces an existing, different file.
func writeGeneratedCode(fileSys FileSystem, out io.Writer, standinName string, code []byte) error {
	fileName := strings.ToLower(standinName) + "_test.go"

	old, err := fileSys.ReadFile(fileName)
	if err == nil {
		if bytes.Equal(old, code) {
			fmt.Fprintf(out, "%s is up to date\n", fileName)

			return nil
		}

		diff := textdiff.Unified(fileName+" (old)", fileName+" (new)", string(old), string(code))
		fmt.Fprint(out, diff)
	}

	err = fileSys.WriteFile(fileName, code, 0o644)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "wrote %s\n", fileName)

	return nil
}

// codeWriter provides common buffer writing functionality for code generation.
type codeWriter struct {
	buf bytes.Buffer
}

// pf writes a formatted string to the buffer.
func (w *codeWriter) pf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

// bytes returns the buffer contents.
func (w *codeWriter) bytes() []byte {
	return w.buf.Bytes()
}
