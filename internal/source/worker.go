// Package source edits workspace documents as YAML text: conversion on a
// background worker, parse and validation annotations, line lookup for
// JSON pointers, and explicit save.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrWorkerClosed = errors.New("yaml worker closed")

type job struct {
	run  func() (any, error)
	done chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// Worker serialises YAML conversions on a single goroutine so large
// documents never block the caller's loop.
type Worker struct {
	jobs      chan job
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWorker() *Worker {
	w := &Worker{jobs: make(chan job), quit: make(chan struct{})}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.quit:
			return
		case j := <-w.jobs:
			v, err := j.run()
			j.done <- jobResult{value: v, err: err}
		}
	}
}

// Close stops the worker. Pending calls fail with ErrWorkerClosed.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	w.wg.Wait()
}

func (w *Worker) do(ctx context.Context, run func() (any, error)) (any, error) {
	j := job{run: run, done: make(chan jobResult, 1)}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, ErrWorkerClosed
	case w.jobs <- j:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-j.done:
		return r.value, r.err
	}
}

// ToYAML renders v as block YAML with two-space indentation.
func (w *Worker) ToYAML(ctx context.Context, v any) (string, error) {
	out, err := w.do(ctx, func() (any, error) { return Marshal(v) })
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// FromYAML parses text into JSON-compatible values.
func (w *Worker) FromYAML(ctx context.Context, text string) (any, error) {
	return w.do(ctx, func() (any, error) { return Unmarshal(text) })
}

func Marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func Unmarshal(text string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// normalize turns YAML decodings into the shapes encoding/json produces:
// string keys and float64 numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = normalize(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = normalize(x)
		}
		return out
	case []any:
		for i, x := range t {
			t[i] = normalize(x)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
