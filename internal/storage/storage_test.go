package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totarae/UTMBuilder/internal/model"
)

type sliceLister struct {
	records []model.MetaRecord
	err     error
}

func (l sliceLister) List(context.Context) ([]model.MetaRecord, error) { return l.records, l.err }

type mapSink map[string]model.MetaData

func (m mapSink) Upsert(_ context.Context, keyword string, data model.MetaData) { m[keyword] = data }

func records() []model.MetaRecord {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []model.MetaRecord{
		{Keyword: "promo", MetaData: model.MetaData{OriginalURL: "https://example.com/", Source: "newsletter", Medium: "email", Campaign: "spring"}, CreatedAt: ts, UpdatedAt: ts},
		{Keyword: "promo2", MetaData: model.MetaData{Source: "news"}, CreatedAt: ts, UpdatedAt: ts},
	}
}

func TestExportImport(t *testing.T) {
	var buf bytes.Buffer
	n, err := Export(context.Background(), sliceLister{records: records()}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"keyword":"promo"`)

	sink := mapSink{}
	n, err = Import(context.Background(), &buf, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "spring", sink["promo"].Campaign)
	assert.Equal(t, "news", sink["promo2"].Source)
}

func TestExport_ListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Export(context.Background(), sliceLister{err: boom}, &bytes.Buffer{})
	assert.ErrorIs(t, err, boom)
}

func TestImport_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
	}{
		{name: "not json", input: `{"keyword":"a"}` + "\n" + `{oops`, n: 1},
		{name: "no keyword", input: `{"utm_source":"x"}`, n: 0},
		{name: "bad keyword", input: `{"keyword":"!!!"}`, n: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Import(context.Background(), strings.NewReader(tt.input), mapSink{})
			assert.ErrorIs(t, err, ErrMalformedEntry)
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestImport_SkipsBlankLines(t *testing.T) {
	sink := mapSink{}
	n, err := Import(context.Background(), strings.NewReader("\n"+`{"keyword":"a","utm_source":"x"}`+"\n\n"), sink)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "x", sink["a"].Source)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.jsonl")
	n, err := ExportFile(context.Background(), sliceLister{records: records()}, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sink := mapSink{}
	n, err = ImportFile(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sink, 2)

	_, err = ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing"), sink)
	assert.Error(t, err)
}
