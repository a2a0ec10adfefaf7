package dom

import "errors"

var (
	// ErrIndexSize is returned when an offset or index falls outside a node.
	ErrIndexSize = errors.New("dom: index out of range")
	// ErrInvalidNodeType is returned when a node cannot serve the requested
	// role, e.g. selecting a parentless node as a unit.
	ErrInvalidNodeType = errors.New("dom: invalid node type")
	// ErrHierarchyRequest is returned when an insertion would break the tree.
	ErrHierarchyRequest = errors.New("dom: hierarchy request")
	// ErrInvalidState is returned when a range partially selects a non-text node.
	ErrInvalidState = errors.New("dom: invalid state")
	// ErrWrongDocument is returned when two boundary points live in different trees.
	ErrWrongDocument = errors.New("dom: wrong document")
	// ErrNotFound is returned when a node, path or text cannot be located.
	ErrNotFound = errors.New("dom: not found")
	// ErrNotSupported is returned for unknown comparison modes.
	ErrNotSupported = errors.New("dom: not supported")
)
