// Command staticlint проверяет код сервиса набором анализаторов:
// проходы go/analysis, SA-проверки staticcheck, S1000 и U1000, bodyclose
// и nopanic, который не пускает panic в пакеты метаданных.
//
// Область nopanic задаётся флагом:
//
//	go run ./cmd/staticlint -nopanic.packages=metadata,payload,suggest,storage ./...
package main

import (
	"strings"

	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"honnef.co/go/tools/staticcheck"

	"github.com/Totarae/UTMBuilder/cmd/staticlint/nopanic"
)

// extraChecks — проверки staticcheck вне группы SA.
var extraChecks = map[string]bool{
	"S1000": true, // select с одним case
	"U1000": true, // неиспользуемый код
}

func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		shadow.Analyzer,
		structtag.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		bodyclose.Analyzer, // тела ответов в HTTPSuggester и тестах
		nopanic.NewAnalyzer(),
	}
	for _, a := range staticcheck.Analyzers {
		if strings.HasPrefix(a.Analyzer.Name, "SA") || extraChecks[a.Analyzer.Name] {
			list = append(list, a.Analyzer)
		}
	}
	return list
}

func main() {
	multichecker.Main(analyzers()...)
}
