package fileproc

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeprism/codeprism/pkg/parser"
)

func TestForEachFileCollectsResults(t *testing.T) {
	files := []string{"a.go", "b.go", "c.go"}
	results, errs := ForEachFile(context.Background(), files, 2, func(path string) (string, error) {
		return strings.ToUpper(path), nil
	}, nil)
	require.Nil(t, errs)
	assert.ElementsMatch(t, []string{"A.GO", "B.GO", "C.GO"}, results)
}

func TestForEachFileCollectsErrors(t *testing.T) {
	files := []string{"ok.go", "bad.go"}
	results, errs := ForEachFile(context.Background(), files, 0, func(path string) (string, error) {
		if path == "bad.go" {
			return "", errors.New("boom")
		}
		return path, nil
	}, nil)
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "bad.go", errs.Errors[0].Path)
	assert.Len(t, results, 1)
	assert.Contains(t, errs.Error(), "boom")
}

func TestForEachFileProgress(t *testing.T) {
	var calls atomic.Int32
	files := []string{"a", "b", "c", "d"}
	_, _ = ForEachFile(context.Background(), files, 2, func(path string) (struct{}, error) {
		if path == "b" {
			return struct{}{}, errors.New("fail")
		}
		return struct{}{}, nil
	}, func() { calls.Add(1) })
	assert.Equal(t, int32(4), calls.Load())
}

func TestForEachFileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := ForEachFile(ctx, []string{"a", "b"}, 1, func(path string) (string, error) {
		return path, nil
	}, nil)
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
}

func TestForEachFileEmptyInput(t *testing.T) {
	results, errs := ForEachFile(context.Background(), nil, 0, func(string) (int, error) {
		return 0, nil
	}, nil)
	assert.Nil(t, results)
	assert.Nil(t, errs)
}

func TestMapFilesProvidesWorkerParser(t *testing.T) {
	files := []string{"a.go", "b.go"}
	results, errs := MapFiles(context.Background(), files, 2, func(p *parser.Parser, path string) (string, error) {
		require.NotNil(t, p)
		res, err := p.Parse([]byte("package main"), parser.LangGo, path)
		if err != nil {
			return "", err
		}
		defer res.Tree.Close()
		return res.Tree.RootNode().Type(), nil
	}, nil)
	require.Nil(t, errs)
	assert.Equal(t, []string{"source_file", "source_file"}, results)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 4, Workers(4))
	assert.Positive(t, Workers(0))
	assert.Positive(t, Workers(-1))
}
