// Package engine decides per-RPC access requirements with OPA Rego.
package engine

import "context"

// AccessPolicy reports whether an RPC may be called without an access token.
type AccessPolicy interface {
	IsPublic(ctx context.Context, fullMethod string) (bool, error)
}
