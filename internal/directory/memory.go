package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "induct/pkg/domain"
)

// InMemory is a directory fake for tests and the demo environment. Account
// creation is idempotent per personnel ID, matching the real directory's
// contract.
type InMemory struct {
	mu       sync.Mutex
	accounts map[string]id.AccountID
	groups   map[string][]id.GroupID
	// NextAccountErr and NextGroupErr, when set, fail the next matching
	// call and are then cleared.
	NextAccountErr error
	NextGroupErr   error
}

// NewInMemory creates an empty directory fake.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[string]id.AccountID),
		groups:   make(map[string][]id.GroupID),
	}
}

func (d *InMemory) CreateOrLinkAccount(_ context.Context, personnelID id.PersonnelID, _ string) (id.AccountID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.NextAccountErr; err != nil {
		d.NextAccountErr = nil
		return id.AccountID{}, err
	}
	if existing, ok := d.accounts[personnelID.String()]; ok {
		return existing, nil
	}
	accountID := id.AccountID(uuid.New())
	d.accounts[personnelID.String()] = accountID
	return accountID, nil
}

func (d *InMemory) AssignGroup(_ context.Context, accountID id.AccountID, groupID id.GroupID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.NextGroupErr; err != nil {
		d.NextGroupErr = nil
		return err
	}
	key := accountID.String()
	for _, g := range d.groups[key] {
		if g == groupID {
			return nil
		}
	}
	d.groups[key] = append(d.groups[key], groupID)
	return nil
}

// Groups returns the groups assigned to an account.
func (d *InMemory) Groups(accountID id.AccountID) []id.GroupID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]id.GroupID(nil), d.groups[accountID.String()]...)
}

// AccountCount returns how many distinct accounts exist.
func (d *InMemory) AccountCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.accounts)
}

var _ Client = (*InMemory)(nil)
