package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Info is one parsed "info" line. Zero values mean the field was not reported.
type Info struct {
	Depth          int
	SelDepth       int
	MultiPV        int
	TimeMs         int64
	Nodes          int64
	NPS            int64
	HashFull       int
	TBHits         int64
	CurrMove       string
	CurrMoveNumber int
	Score          Score
	Bound          Bound
	WDL            [3]int
	HasWDL         bool
	PV             []string
	Text           string
}

// ParseInfo parses the fields of an "info" line. Unknown keys are skipped; a known numeric
// key followed by a non-number is an error.
func ParseInfo(line string) (Info, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Info{}, fmt.Errorf("not an info line: %q", line)
	}
	var info Info
	i := 1
	intArg := func(key string) (int64, error) {
		if i+1 >= len(fields) {
			return 0, fmt.Errorf("info %s: missing value", key)
		}
		v, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("info %s: %w", key, err)
		}
		i += 2
		return v, nil
	}
	for i < len(fields) {
		key := fields[i]
		var v int64
		var err error
		switch key {
		case "depth":
			v, err = intArg(key)
			info.Depth = int(v)
		case "seldepth":
			v, err = intArg(key)
			info.SelDepth = int(v)
		case "multipv":
			v, err = intArg(key)
			info.MultiPV = int(v)
		case "time":
			info.TimeMs, err = intArg(key)
		case "nodes":
			info.Nodes, err = intArg(key)
		case "nps":
			info.NPS, err = intArg(key)
		case "hashfull":
			v, err = intArg(key)
			info.HashFull = int(v)
		case "tbhits":
			info.TBHits, err = intArg(key)
		case "currmovenumber":
			v, err = intArg(key)
			info.CurrMoveNumber = int(v)
		case "cpuload", "sbhits":
			_, err = intArg(key)
		case "currmove":
			if i+1 >= len(fields) {
				return Info{}, fmt.Errorf("info currmove: missing value")
			}
			info.CurrMove = fields[i+1]
			i += 2
		case "score":
			err = info.parseScore(fields, &i)
		case "wdl":
			if i+3 >= len(fields) {
				return Info{}, fmt.Errorf("info wdl: missing values")
			}
			for k := 0; k < 3; k++ {
				n, convErr := strconv.Atoi(fields[i+1+k])
				if convErr != nil {
					return Info{}, fmt.Errorf("info wdl: %w", convErr)
				}
				info.WDL[k] = n
			}
			info.HasWDL = true
			i += 4
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		case "string":
			info.Text = strings.Join(fields[i+1:], " ")
			i = len(fields)
		case "refutation", "currline":
			i = len(fields)
		default:
			i++
		}
		if err != nil {
			return Info{}, err
		}
	}
	return info, nil
}

func (info *Info) parseScore(fields []string, i *int) error {
	if *i+2 >= len(fields) {
		return fmt.Errorf("info score: missing value")
	}
	n, err := strconv.Atoi(fields[*i+2])
	if err != nil {
		return fmt.Errorf("info score: %w", err)
	}
	switch fields[*i+1] {
	case "cp":
		info.Score = Centipawns(n)
	case "mate":
		info.Score = MateIn(n)
	default:
		return fmt.Errorf("info score: unknown kind %q", fields[*i+1])
	}
	*i += 3
	if *i < len(fields) {
		switch fields[*i] {
		case "lowerbound":
			info.Bound = LowerBound
			*i++
		case "upperbound":
			info.Bound = UpperBound
			*i++
		}
	}
	return nil
}
