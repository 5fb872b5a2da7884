// Package nopanic содержит пользовательский анализатор, который запрещает
// вызов panic в пакетах, обслуживающих метаданные ссылок. Ошибки там
// должны гаситься и логироваться, а не ронять запрос.
package nopanic

import (
	"go/ast"
	"go/types"
	"path"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Packages перечисляет последние элементы путей проверяемых пакетов.
var Packages = "metadata,payload,suggest"

// Analyzer запрещает panic в пакетах из Packages.
var Analyzer = &analysis.Analyzer{
	Name: "nopanic",
	Doc:  "запрещает вызов panic в пакетах метаданных",
	Run:  run,
}

func init() {
	Analyzer.Flags.StringVar(&Packages, "packages", Packages, "comma-separated package names to check")
}

// NewAnalyzer возвращает анализатор nopanic.
func NewAnalyzer() *analysis.Analyzer {
	return Analyzer
}

func checked(pkgPath string) bool {
	name := path.Base(pkgPath)
	for _, p := range strings.Split(Packages, ",") {
		if strings.TrimSpace(p) == name {
			return true
		}
	}
	return false
}

func run(pass *analysis.Pass) (interface{}, error) {
	if !checked(pass.Pkg.Path()) {
		return nil, nil
	}

	for _, file := range pass.Files {
		if strings.HasSuffix(pass.Fset.File(file.Pos()).Name(), "_test.go") {
			continue
		}
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			id, ok := call.Fun.(*ast.Ident)
			if !ok || id.Name != "panic" {
				return true
			}
			if _, ok := pass.TypesInfo.Uses[id].(*types.Builtin); ok {
				pass.Reportf(call.Pos(), "вызов panic в пакете %s запрещён", pass.Pkg.Name())
			}
			return true
		})
	}
	return nil, nil
}
