// Package storage выгружает и загружает метаданные ссылок в файл
// в формате JSON Lines: одна запись на строку.
package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Totarae/UTMBuilder/internal/metadata"
	"github.com/Totarae/UTMBuilder/internal/model"
)

// ErrMalformedEntry — строка архива не разбирается или без ключевого слова.
var ErrMalformedEntry = errors.New("malformed archive entry")

// Lister отдаёт все записи метаданных.
type Lister interface {
	List(ctx context.Context) ([]model.MetaRecord, error)
}

// Upserter сохраняет метаданные ссылки.
type Upserter interface {
	Upsert(ctx context.Context, keyword string, data model.MetaData)
}

// Export пишет все записи в w и возвращает их количество.
func Export(ctx context.Context, src Lister, w io.Writer) (int, error) {
	records, err := src.List(ctx)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return i, fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return len(records), fmt.Errorf("failed to flush archive: %w", err)
	}
	return len(records), nil
}

// Import читает записи из r и сохраняет их через sink.
// Пустые строки пропускаются. Номер строки попадает в ошибку.
func Import(ctx context.Context, r io.Reader, sink Upserter) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n, line := 0, 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec model.MetaRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return n, fmt.Errorf("line %d: %w: %v", line, ErrMalformedEntry, err)
		}
		if _, err := metadata.SanitizeKeyword(rec.Keyword); err != nil {
			return n, fmt.Errorf("line %d: %w: %v", line, ErrMalformedEntry, err)
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		sink.Upsert(ctx, rec.Keyword, rec.MetaData)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to read archive: %w", err)
	}
	return n, nil
}

// ExportFile выгружает записи в файл path, перезаписывая его.
func ExportFile(ctx context.Context, src Lister, path string) (int, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	n, err := Export(ctx, src, file)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	return n, err
}

// ImportFile загружает записи из файла path.
func ImportFile(ctx context.Context, path string, sink Upserter) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()
	return Import(ctx, file, sink)
}
