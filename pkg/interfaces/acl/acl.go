package acl

import (
	"context"
	"time"
)

// Authorizer grants a single-host CIDR access to a named network ACL target
// for the given window. Grant state after the call returns is owned by the
// ACL backend; this module never tracks or revokes grants itself.
type Authorizer interface {
	Authorize(ctx context.Context, target, cidr string, ttl time.Duration) error
}
