package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrInvalidWeight  = errors.New("edge weight must be a non-negative number")
	ErrInvalidPayload = errors.New("invalid graph document")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op      string // Operation that failed (e.g., "AddNode", "AddEdge")
	Entity  string // Entity type ("node", "edge", "document")
	ID      uint64 // Entity ID (if applicable)
	Field   string // Attribute or document field
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.ID != 0 {
		if e.Field != "" {
			return fmt.Sprintf("%s %s %d (field %s): %v", e.Op, e.Entity, e.ID, e.Field, e.Cause)
		}
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s %s (field %s): %v", e.Op, e.Entity, e.Field, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building GraphErrors.
type ErrorBuilder struct {
	err GraphError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id uint64) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id uint64) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Document sets the entity to "document".
func (b *ErrorBuilder) Document() *ErrorBuilder {
	b.err.Entity = "document"
	return b
}

// Field sets the attribute or document field name.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op string, nodeID uint64) error {
	return NewError(op).Node(nodeID).Cause(ErrNodeNotFound).Err()
}

// EdgeNotFoundError creates an edge not found error.
func EdgeNotFoundError(op string, edgeID uint64) error {
	return NewError(op).Edge(edgeID).Cause(ErrEdgeNotFound).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound)
}
