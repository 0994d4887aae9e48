package main

import (
	"testing"
	"time"

	"elucidate/pkg/dataset"
)

func TestDispatchReturnsWhenWorkersExit(t *testing.T) {
	games := []dataset.GameRow{{GameID: "a"}, {GameID: "b"}, {GameID: "c"}}
	jobs := make(chan dataset.GameRow)
	workersDone := make(chan struct{})
	close(workersDone)

	var processed int64
	finished := make(chan int, 1)
	go func() {
		finished <- dispatch(games, map[string]struct{}{}, jobs, make(chan struct{}), workersDone, &processed)
	}()
	select {
	case queued := <-finished:
		if queued != 0 {
			t.Fatalf("queued %d games with no worker running", queued)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch blocked after every worker exited")
	}
}

func TestDispatchSkipsEvaluatedGames(t *testing.T) {
	games := []dataset.GameRow{{GameID: "a"}, {GameID: "b"}, {GameID: "c"}}
	jobs := make(chan dataset.GameRow, len(games))
	var processed int64
	queued := dispatch(games, map[string]struct{}{"b": {}}, jobs, make(chan struct{}), make(chan struct{}), &processed)
	close(jobs)
	if queued != 2 || processed != 1 {
		t.Fatalf("queued %d processed %d, want 2 and 1", queued, processed)
	}
	var ids []string
	for game := range jobs {
		ids = append(ids, game.GameID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("queued games: %v", ids)
	}
}

func TestDispatchStopsOnRequest(t *testing.T) {
	games := []dataset.GameRow{{GameID: "a"}, {GameID: "b"}}
	stop := make(chan struct{})
	close(stop)
	var processed int64
	if queued := dispatch(games, map[string]struct{}{}, make(chan dataset.GameRow), stop, make(chan struct{}), &processed); queued != 0 {
		t.Fatalf("queued %d games after stop", queued)
	}
}
