package main

import (
	"errors"
	"testing"
	"time"

	"elucidate/pkg/dataset"
)

func TestForwardStopsOnWriterError(t *testing.T) {
	rows := make(chan dataset.GameRow, 1)
	writeErr := make(chan error, 1)
	writeErr <- errors.New("create games.parquet: permission denied")

	batch := []dataset.GameRow{{GameID: "a"}, {GameID: "b"}, {GameID: "c"}}
	finished := make(chan error, 1)
	var sent int
	go func() {
		var err error
		sent, err = forward(rows, batch, writeErr)
		finished <- err
	}()
	select {
	case err := <-finished:
		if err == nil {
			t.Fatal("expected the writer error")
		}
		if sent > 1 {
			t.Fatalf("sent %d rows into a one-slot buffer", sent)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("forward blocked after the writer failed")
	}
}

func TestForwardSendsBatch(t *testing.T) {
	rows := make(chan dataset.GameRow, 3)
	batch := []dataset.GameRow{{GameID: "a"}, {GameID: "b"}}
	sent, err := forward(rows, batch, make(chan error))
	if err != nil || sent != 2 {
		t.Fatalf("forward: sent %d err %v", sent, err)
	}
	close(rows)
	var ids []string
	for row := range rows {
		ids = append(ids, row.GameID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("rows: %v", ids)
	}
}
