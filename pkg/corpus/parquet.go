package corpus

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/strategy"
)

// LoadScriptParquet reads an interaction script from a Parquet file with
// string columns "fact", "question" and "answer", one step per row.
func LoadScriptParquet(ctx context.Context, path string) (strategy.Script, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to open Parquet file"),
			errors.Fields{"path": path})
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to create Arrow reader")
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to read schema")
	}

	factIndices := schema.FieldIndices("fact")
	questionIndices := schema.FieldIndices("question")
	answerIndices := schema.FieldIndices("answer")
	if len(factIndices) == 0 || len(questionIndices) == 0 || len(answerIndices) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidResponse, "required columns 'fact', 'question' and 'answer' not found"),
			errors.Fields{"path": path})
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to read table")
	}
	defer table.Release()

	factChunk := table.Column(factIndices[0]).Data().Chunk(0)
	questionChunk := table.Column(questionIndices[0]).Data().Chunk(0)
	answerChunk := table.Column(answerIndices[0]).Data().Chunk(0)

	script := make(strategy.Script, table.NumRows())
	for i := 0; i < int(table.NumRows()); i++ {
		script[i] = strategy.Step{
			Fact:     factChunk.(*array.String).Value(i),
			Question: questionChunk.(*array.String).Value(i),
			Expected: answerChunk.(*array.String).Value(i),
		}
	}
	return script, nil
}
