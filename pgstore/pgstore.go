package pgstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"charity-matcher/models"
)

// Store reads charity, subscription and address records from Postgres. The
// pipeline treats this data as read-only reference data; writes happen in
// the separate preferences service that owns the schema.
type Store struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New connects and pings; an unreachable database is a startup failure.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// CharitiesForCategory returns every charity tagged with the relational
// category slug.
func (s *Store) CharitiesForCategory(ctx context.Context, slug string) ([]models.Charity, error) {
	query, args, err := s.sb.
		Select("c.name", "c.mission", "c.url").
		From("charities c").
		Join("charity_categories cc ON cc.charityname = c.name").
		Where(sq.Eq{"cc.category": slug}).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query charities for category %s: %w", slug, err)
	}
	defer rows.Close()

	var out []models.Charity
	for rows.Next() {
		var c models.Charity
		if err := rows.Scan(&c.Name, &c.Mission, &c.URL); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UsersForCategory returns the subscriptions for a category.
func (s *Store) UsersForCategory(ctx context.Context, category string) ([]models.Subscription, error) {
	query, args, err := s.sb.
		Select("userid", "category").
		From("user_categories").
		Where(sq.Eq{"category": category}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users for category %s: %w", category, err)
	}
	defer rows.Close()

	var out []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.UserID, &sub.Category); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// AllUsers returns every known user.
func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	query, _, err := s.sb.Select("userid").From("user_preferences").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CharityNamesByAddress resolves on-chain addresses to charity names,
// preserving the order of the input addresses. Unknown addresses are
// dropped.
func (s *Store) CharityNamesByAddress(ctx context.Context, addresses []string) ([]string, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query, args, err := s.sb.
		Select("name", "address").
		From("charity_addresses").
		Where(sq.Eq{"address": addresses}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query charity names: %w", err)
	}
	defer rows.Close()

	byAddress := map[string]string{}
	for rows.Next() {
		var name, address string
		if err := rows.Scan(&name, &address); err != nil {
			return nil, err
		}
		byAddress[address] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if name, ok := byAddress[addr]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// CharityAddressesByName resolves charity names to address records.
func (s *Store) CharityAddressesByName(ctx context.Context, names []string) ([]models.CharityAddress, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := s.sb.
		Select("name", "address").
		From("charity_addresses").
		Where(sq.Eq{"name": names}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query charity addresses: %w", err)
	}
	defer rows.Close()

	var out []models.CharityAddress
	for rows.Next() {
		var ca models.CharityAddress
		if err := rows.Scan(&ca.Name, &ca.Address); err != nil {
			return nil, err
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}
