package graph

import (
	"errors"
	"fmt"
)

// GraphErrorCode categorizes topology failures.
type GraphErrorCode string

const (
	// ErrCodeInvalidTopology indicates the topology file failed schema or
	// semantic validation.
	ErrCodeInvalidTopology GraphErrorCode = "INVALID_TOPOLOGY"

	// ErrCodeUnknownNode indicates a reference to a node the topology does
	// not define.
	ErrCodeUnknownNode GraphErrorCode = "UNKNOWN_NODE"

	// ErrCodeDisconnectedBackbone indicates liquid-handling nodes that have
	// no backbone path between them, making transfers impossible by
	// construction.
	ErrCodeDisconnectedBackbone GraphErrorCode = "DISCONNECTED_BACKBONE"
)

// GraphError is a topology-level failure, detected at load time or on
// node resolution.
type GraphError struct {
	Code    GraphErrorCode
	Node    string
	Message string
}

func (e *GraphError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: node %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RouteErrorCode categorizes route-resolution failures.
type RouteErrorCode string

const (
	// ErrCodeNoRoute indicates src and dest are disconnected in the
	// backbone subgraph.
	ErrCodeNoRoute RouteErrorCode = "NO_ROUTE"

	// ErrCodeRouteConflict indicates every viable path holds at least one
	// edge reserved by an in-flight route. Conflicts are reported
	// immediately; the resolver never waits or queues.
	ErrCodeRouteConflict RouteErrorCode = "ROUTE_CONFLICT"
)

// RouteError is a route-resolution failure for one src/dest pair.
type RouteError struct {
	Code RouteErrorCode
	Src  string
	Dest string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Code, e.Src, e.Dest)
}

// IsRouteConflict reports whether err is a reservation conflict.
func IsRouteConflict(err error) bool {
	var re *RouteError
	return errors.As(err, &re) && re.Code == ErrCodeRouteConflict
}

// IsNoRoute reports whether err is a backbone disconnection.
func IsNoRoute(err error) bool {
	var re *RouteError
	return errors.As(err, &re) && re.Code == ErrCodeNoRoute
}

// IsUnknownNode reports whether err is an unknown-node resolution failure.
func IsUnknownNode(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge) && ge.Code == ErrCodeUnknownNode
}
