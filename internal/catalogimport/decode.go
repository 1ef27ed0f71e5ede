package catalogimport

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// cancelCheckInterval is how many lines are read between context checks.
const cancelCheckInterval = 1000

// decode reads gzipped JSON lines from r. Blank lines are skipped.
func decode(ctx context.Context, r io.Reader, source string) (*Batch, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	batch := &Batch{}

	scanner := bufio.NewScanner(gzipReader)
	// Product lines carry image lists; allow up to 1MB per line
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid record: %w", source, lineNo, err)
		}
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			return nil, fmt.Errorf("%s:%d: record has no name", source, lineNo)
		}

		switch rec.Type {
		case TypeCategory:
			batch.Categories = append(batch.Categories, rec)
		case TypeProduct:
			if rec.Price.IsNegative() || rec.Stock < 0 || rec.Discount < 0 || rec.Discount > 100 {
				return nil, fmt.Errorf("%s:%d: product %q has invalid price, stock or discount", source, lineNo, rec.Name)
			}
			if strings.TrimSpace(rec.Category) == "" {
				return nil, fmt.Errorf("%s:%d: product %q has no category", source, lineNo, rec.Name)
			}
			batch.Products = append(batch.Products, rec)
		default:
			return nil, fmt.Errorf("%s:%d: unknown record type %q", source, lineNo, rec.Type)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog file %s: %w", source, err)
	}

	return batch, nil
}
