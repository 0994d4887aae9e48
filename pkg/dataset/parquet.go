// Package dataset stores parsed games and engine evaluations for the batch tools: parquet
// files for bulk rows, a SQLite cache for per-position analyses and an expression filter
// over game metadata.
package dataset

import (
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const readBatchSize = 1024

// writeParquet drains rows into a snappy-compressed parquet file at path. The row type is
// checked against its embedded schema first.
func writeParquet[T any](path, schemaName string, rows <-chan T, parallel int64) error {
	if parallel <= 0 {
		parallel = 1
	}
	schema, err := loadSchema(schemaName)
	if err != nil {
		return err
	}
	var sample T
	if err := validateSchema(schema, sample); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(T), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// readParquet calls fn for every row of the parquet file at path, in file order.
func readParquet[T any](path string, parallel int64, fn func(T) error) error {
	if parallel <= 0 {
		parallel = 1
	}
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(T), parallel)
	if err != nil {
		return err
	}
	defer parquetReader.ReadStop()

	rows := int(parquetReader.GetNumRows())
	batchSize := readBatchSize
	for offset := 0; offset < rows; offset += batchSize {
		if remain := rows - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]T, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return err
		}
		for i := range batch {
			if err := fn(batch[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func readAll[T any](path string, parallel int64) ([]T, error) {
	var out []T
	err := readParquet(path, parallel, func(row T) error {
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
