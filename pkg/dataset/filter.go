package dataset

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterEnv is what a filter expression sees for one game. Unknown text fields are empty
// and unknown ratings are 0; HasWhiteElo and HasBlackElo tell 0 apart from unknown.
type FilterEnv struct {
	Event       string
	Site        string
	Date        string
	Year        int
	Round       string
	White       string
	Black       string
	Result      string
	WhiteElo    int
	BlackElo    int
	HasWhiteElo bool
	HasBlackElo bool
	ECO         string
	Opening     string
	TimeControl string
	Termination string
	MoveCount   int
	StartFEN    string
}

// NewFilterEnv exposes the metadata of row to filter expressions.
func NewFilterEnv(row GameRow) FilterEnv {
	env := FilterEnv{
		Event:       deref(row.Event),
		Site:        deref(row.Site),
		Date:        deref(row.Date),
		Round:       deref(row.Round),
		White:       deref(row.White),
		Black:       deref(row.Black),
		Result:      deref(row.Result),
		ECO:         deref(row.ECO),
		Opening:     deref(row.Opening),
		TimeControl: deref(row.TimeControl),
		Termination: deref(row.Termination),
		MoveCount:   int(row.MoveCount),
		StartFEN:    row.StartFEN,
	}
	if row.WhiteElo != nil {
		env.WhiteElo, env.HasWhiteElo = int(*row.WhiteElo), true
	}
	if row.BlackElo != nil {
		env.BlackElo, env.HasBlackElo = int(*row.BlackElo), true
	}
	if played := row.Played(); played != nil {
		env.Year = played.Year()
	}
	return env
}

// Filter is a compiled boolean expression over FilterEnv, for example
// `WhiteElo >= 2000 && Result == "1-0"`. A nil Filter accepts every game.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source. An empty source yields a nil Filter.
func CompileFilter(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the filter against row.
func (f *Filter) Match(row GameRow) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, NewFilterEnv(row))
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
