// Command stats summarizes a game collection: players, rating distribution, results and
// game length. It reads either a games parquet file or a directory of PGN files.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"elucidate/pkg/chess"
	"elucidate/pkg/dataset"
)

type ratingStats struct {
	binSize     int
	known       int
	unknown     int
	min         int
	max         int
	initialized bool
	bins        map[int]int
}

type userRatingAgg struct {
	sum   int64
	count int
}

type collection struct {
	games   int
	plies   int
	results map[string]int
	users   map[string]struct{}
	agg     map[string]*userRatingAgg
}

func newRatingStats(binSize int) *ratingStats {
	return &ratingStats{
		binSize: binSize,
		bins:    make(map[int]int),
	}
}

func (rs *ratingStats) Add(rating int) {
	if rating <= 0 {
		rs.unknown++
		return
	}
	rs.known++
	if !rs.initialized {
		rs.min, rs.max = rating, rating
		rs.initialized = true
	} else {
		if rating < rs.min {
			rs.min = rating
		}
		if rating > rs.max {
			rs.max = rating
		}
	}
	rs.bins[(rating/rs.binSize)*rs.binSize]++
}

func newCollection() *collection {
	return &collection{
		results: make(map[string]int),
		users:   make(map[string]struct{}),
		agg:     make(map[string]*userRatingAgg),
	}
}

func (c *collection) add(row dataset.GameRow) {
	c.games++
	c.plies += int(row.MoveCount)
	result := "*"
	if row.Result != nil {
		result = *row.Result
	}
	c.results[result]++
	c.addPlayer(row.White, row.WhiteElo)
	c.addPlayer(row.Black, row.BlackElo)
}

func (c *collection) addPlayer(name *string, rating *int32) {
	if name == nil || *name == "" || *name == "?" {
		return
	}
	c.users[*name] = struct{}{}
	if rating == nil || *rating <= 0 {
		return
	}
	entry, ok := c.agg[*name]
	if !ok {
		entry = &userRatingAgg{}
		c.agg[*name] = entry
	}
	entry.sum += int64(*rating)
	entry.count++
}

func main() {
	pgnDir := flag.String("pgn-dir", "", "input directory of PGN files")
	parquetPath := flag.String("parquet", "", "input games parquet file")
	binSize := flag.Int("bin-size", 100, "rating bin size")
	minGames := flag.Int("min-games", 2, "minimum games per user to count")
	flag.Parse()

	if *binSize <= 0 {
		fatal(fmt.Errorf("bin-size must be > 0"))
	}
	if *minGames <= 0 {
		fatal(fmt.Errorf("min-games must be > 0"))
	}
	if (*pgnDir == "") == (*parquetPath == "") {
		fatal(fmt.Errorf("specify exactly one of -pgn-dir or -parquet"))
	}

	c := newCollection()
	failed := 0
	if *parquetPath != "" {
		if err := dataset.EachGame(*parquetPath, 4, func(row dataset.GameRow) error {
			c.add(row)
			return nil
		}); err != nil {
			fatal(err)
		}
	} else {
		files, err := chess.CollectPGN(*pgnDir)
		if err != nil {
			fatal(err)
		}
		if len(files) == 0 {
			fatal(fmt.Errorf("no .pgn files found in %s", *pgnDir))
		}
		for _, path := range files {
			text, err := chess.ReadPGNFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
				continue
			}
			out := chess.Parse(text, 1_000_000)
			failed += len(out.Errors)
			for _, g := range out.Games {
				c.add(dataset.NewGameRow(dataset.GameID(path, g.Ordinal), path, g))
			}
		}
	}

	ratings := newRatingStats(*binSize)
	unknownUsers := 0
	usersAtLeast := 0
	for name := range c.users {
		agg, ok := c.agg[name]
		if !ok || agg.count == 0 {
			unknownUsers++
			continue
		}
		if agg.count >= *minGames {
			usersAtLeast++
		}
		ratings.Add(int(agg.sum / int64(agg.count)))
	}

	if *parquetPath != "" {
		fmt.Printf("input parquet: %s\n", *parquetPath)
	} else {
		fmt.Printf("pgn dir: %s\n", *pgnDir)
		fmt.Printf("rejected games: %d\n", failed)
	}
	fmt.Printf("games: %d\n", c.games)
	if c.games > 0 {
		fmt.Printf("average plies: %.1f\n", float64(c.plies)/float64(c.games))
	}
	fmt.Printf("results:")
	for _, result := range []string{"1-0", "0-1", "1/2-1/2", "*"} {
		fmt.Printf(" %s=%d", result, c.results[result])
	}
	fmt.Println()
	fmt.Printf("unique users: %d\n", len(c.users))
	fmt.Printf("ratings: known=%d unknown=%d (users without rating=%d)\n", ratings.known, ratings.unknown, unknownUsers)
	fmt.Printf("users with >= %d games: %d\n", *minGames, usersAtLeast)
	if ratings.known > 0 {
		fmt.Printf("rating range: %d-%d\n", ratings.min, ratings.max)
	}
	fmt.Printf("rating distribution (bin size=%d):\n", ratings.binSize)
	keys := make([]int, 0, len(ratings.bins))
	for key := range ratings.bins {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, start := range keys {
		fmt.Printf("%d-%d,%d\n", start, start+ratings.binSize-1, ratings.bins[start])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
