// Package directory talks to the external identity directory that
// provisioned personnel accounts live in.
package directory

import (
	"context"

	id "induct/pkg/domain"
)

// Client is the outbound interface to the identity directory. Both calls
// are idempotent on the directory side: creating an account for an already
// known personnel ID links and returns the existing account, and assigning
// a group twice is a no-op.
type Client interface {
	CreateOrLinkAccount(ctx context.Context, personnelID id.PersonnelID, displayName string) (id.AccountID, error)
	AssignGroup(ctx context.Context, accountID id.AccountID, groupID id.GroupID) error
}
