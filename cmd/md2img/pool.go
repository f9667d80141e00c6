package main

import (
	"context"
	"fmt"

	md2img "github.com/alnah/go-md2img"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input md2img.Input) (*md2img.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*md2img.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (CLIConverter, error)
	Release(CLIConverter)
	Size() int
	Close() error
}

// converterPool adapts md2img.ConverterPool to Pool.
type converterPool struct {
	pool *md2img.ConverterPool
}

// Compile-time check that converterPool implements Pool.
var _ Pool = (*converterPool)(nil)

func newConverterPool(size int, opts ...md2img.Option) Pool {
	return &converterPool{pool: md2img.NewConverterPool(size, opts...)}
}

func (p *converterPool) Acquire(ctx context.Context) (CLIConverter, error) {
	conv, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics if conv did not come from Acquire.
func (p *converterPool) Release(conv CLIConverter) {
	c, ok := conv.(*md2img.Converter)
	if !ok {
		panic(fmt.Sprintf("converterPool.Release: unexpected type %T", conv))
	}
	p.pool.Release(c)
}

func (p *converterPool) Size() int {
	return p.pool.Size()
}

func (p *converterPool) Close() error {
	return p.pool.Close()
}
