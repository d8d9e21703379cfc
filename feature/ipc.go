package feature

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ReadRecordBatches reads every record batch of an Arrow IPC stream.
// The caller owns the returned batches and must Release them.
func ReadRecordBatches(r io.Reader, mem memory.Allocator) (*arrow.Schema, []arrow.RecordBatch, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer reader.Release()

	var out []arrow.RecordBatch
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		out = append(out, rec)
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, rec := range out {
			rec.Release()
		}
		return nil, nil, fmt.Errorf("failed to read IPC record: %w", err)
	}
	return reader.Schema(), out, nil
}

// WriteRecordBatches writes batches as an Arrow IPC stream.
func WriteRecordBatches(w io.Writer, schema *arrow.Schema, batches []arrow.RecordBatch, mem memory.Allocator) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	for _, rec := range batches {
		if err := writer.Write(rec); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write IPC record: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close IPC writer: %w", err)
	}
	return nil
}
