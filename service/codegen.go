package service

import (
	"context"
	"math/rand"
	"strconv"
)

// Group codes are six digit numbers
const (
	groupCodeMin = 100000
	groupCodeMax = 999999
)

// CodeGenerator samples group codes until one is unused. There is no retry
// bound; with a 900000 value space collisions stay rare.
type CodeGenerator struct {
	// intN returns a value in [0, n)
	intN func(n int) int
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{intN: rand.Intn}
}

// NewCodeGeneratorWithSource uses intN instead of the global random source.
func NewCodeGeneratorWithSource(intN func(n int) int) *CodeGenerator {
	return &CodeGenerator{intN: intN}
}

// Sample draws one code uniformly from [100000, 999999]
func (g *CodeGenerator) Sample() string {
	return strconv.Itoa(groupCodeMin + g.intN(groupCodeMax-groupCodeMin+1))
}

// Generate resamples while inUse reports the code as held by a record.
func (g *CodeGenerator) Generate(ctx context.Context, inUse func(ctx context.Context, code string) (bool, error)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := g.Sample()
		used, err := inUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
}
