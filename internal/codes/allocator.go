// Package codes assigns hierarchical child codes of the form
// <parent><separator><zero-padded sequence>, scoped to rows sharing the same
// parent prefix. The same allocation rule is reused by every code-bearing
// aggregate; only the Spec differs per call site.
package codes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Spec parametrises one allocation scope.
type Spec struct {
	// Table and Column locate the existing child codes.
	Table  string
	Column string
	// Parent is the parent scope key. Empty for global counters.
	Parent string
	// Separator sits between the parent scope and the sequence, e.g. "D" or "MO".
	Separator string
	// Width is the zero-padded digit width of the sequence.
	Width int
	// ScopeSuffix, when positive, truncates Parent to its last N characters
	// before the prefix is computed. The truncation applies to both the row
	// filter and the produced code so sequences cannot fork across
	// inconsistent scopes.
	ScopeSuffix int
}

// Prefix returns the effective code prefix for this scope, truncation applied.
func (s Spec) Prefix() string {
	parent := s.Parent
	if s.ScopeSuffix > 0 && len(parent) > s.ScopeSuffix {
		parent = parent[len(parent)-s.ScopeSuffix:]
	}
	return parent + s.Separator
}

// Source lists existing codes sharing a prefix.
type Source interface {
	ExistingCodes(ctx context.Context, table, column, prefix string) ([]string, error)
}

// Allocator computes the next unused child code for a scope.
type Allocator struct {
	src Source
}

// NewAllocator constructs an Allocator over the given source.
func NewAllocator(src Source) *Allocator {
	return &Allocator{src: src}
}

// Next returns the next child code for the scope described by spec: the
// maximum existing sequence under the prefix plus one, zero-padded to
// spec.Width. Rows whose tail is not a well-formed sequence are skipped
// rather than aborting allocation.
func (a *Allocator) Next(ctx context.Context, spec Spec) (string, error) {
	if a == nil || a.src == nil {
		return "", errors.New("codes: allocator not initialised")
	}
	if spec.Width <= 0 {
		return "", fmt.Errorf("codes: invalid sequence width %d", spec.Width)
	}
	prefix := spec.Prefix()
	existing, err := a.src.ExistingCodes(ctx, spec.Table, spec.Column, prefix)
	if err != nil {
		return "", fmt.Errorf("codes: scan scope %q: %w", prefix, err)
	}
	next := maxSequence(existing, prefix, spec.Width) + 1
	return fmt.Sprintf("%s%0*d", prefix, spec.Width, next), nil
}

// maxSequence returns the highest valid sequence among codes under prefix,
// or 0 when no valid row exists.
func maxSequence(existing []string, prefix string, width int) int {
	max := 0
	for _, code := range existing {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		tail := code[len(prefix):]
		if len(tail) != width {
			continue
		}
		seq, err := strconv.Atoi(tail)
		if err != nil || seq < 0 {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}
