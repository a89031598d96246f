package users

import (
	"context"
	"fmt"

	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// Provider is one source of directory entries.
type Provider interface {
	// Get returns the user, or nil when this provider does not know it.
	Get(ctx context.Context, userID string) (*models.User, error)
	// List returns the users of this provider without password hashes.
	List(ctx context.Context) ([]models.User, error)
}

// builtinProvider serves a fixed set of users held in memory.
type builtinProvider struct {
	order []string
	users map[string]models.User
}

// newBuiltinProvider hashes each credential once. Order is the listing order.
func newBuiltinProvider(credentials []credential) *builtinProvider {
	p := &builtinProvider{users: make(map[string]models.User, len(credentials))}
	for _, cred := range credentials {
		p.order = append(p.order, cred.user)
		p.users[cred.user] = models.User{ID: cred.user, PasswordHash: HashPassword(cred.user, cred.password)}
	}
	return p
}

func (p *builtinProvider) Get(_ context.Context, userID string) (*models.User, error) {
	user, ok := p.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (p *builtinProvider) List(_ context.Context) ([]models.User, error) {
	list := make([]models.User, 0, len(p.order))
	for _, id := range p.order {
		list = append(list, models.User{ID: id})
	}
	return list, nil
}

func (p *builtinProvider) has(userID string) bool {
	_, ok := p.users[userID]
	return ok
}

// storeProvider serves users persisted in the users table. Ids reserved by
// the built-in provider are excluded from listings.
type storeProvider struct {
	store    *recordstore.Store
	reserved []string
}

const selectUsers = `SELECT user, passwd_hash FROM users`

func scanUser(row recordstore.Scanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.PasswordHash)
	return user, err
}

func scanUserID(row recordstore.Scanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID)
	return user, err
}

func (p *storeProvider) Get(ctx context.Context, userID string) (*models.User, error) {
	return recordstore.QueryOne(ctx, p.store, scanUser, selectUsers+` WHERE user = ?`, userID)
}

func (p *storeProvider) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT user FROM users`
	args := make([]any, 0, len(p.reserved))
	for i, id := range p.reserved {
		if i == 0 {
			query += ` WHERE user NOT IN (?`
		} else {
			query += `, ?`
		}
		args = append(args, id)
	}
	if len(args) > 0 {
		query += `)`
	}
	return recordstore.QueryAll(ctx, p.store, scanUserID, query, args...)
}

func (p *storeProvider) add(ctx context.Context, userID, passwordHash string) error {
	_, err := p.store.Run(ctx, `INSERT INTO users (user, passwd_hash) VALUES (?, ?)`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("user %q: %w", userID, err)
	}
	return nil
}

func (p *storeProvider) remove(ctx context.Context, userID string) (int64, error) {
	removed, err := p.store.Run(ctx, `DELETE FROM users WHERE user = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("user %q: %w", userID, err)
	}
	return removed, nil
}
