package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gig-market/internal/marketerrors"
	"gig-market/internal/models"

	"github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	gigColumns  = []string{"id", "title", "description", "budget", "owner_id", "status", "created_at", "updated_at"}
	bidColumns  = []string{"id", "gig_id", "freelancer_id", "message", "price", "status", "created_at", "updated_at"}
	userColumns = []string{"id", "name", "email", "created_at"}
)

// Store implements repository.MarketStore and repository.UserDirectory on SQLite
type Store struct {
	*DB
}

// NewStore wraps an opened, migrated database
func NewStore(db *DB) *Store {
	return &Store{db}
}

// InsertGig stores a new gig
func (s *Store) InsertGig(ctx context.Context, gig models.Gig) error {
	query, args, err := s.SqlBuilder.
		Insert("gigs").
		Columns(gigColumns...).
		Values(gig.GigID, gig.Title, gig.Description, gig.Budget, gig.OwnerID, string(gig.Status),
			toUnix(gig.CreatedAt), toUnix(gig.UpdatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build insert gig: %w", err)
	}

	if _, err := s.Database.ExecContext(ctx, query, args...); err != nil {
		if isCheckViolation(err) {
			return marketerrors.Validation("sqlite: insert gig: %v", err)
		}
		return marketerrors.Transient("sqlite: insert gig", err)
	}
	return nil
}

// GetGig returns the gig with the given id
func (s *Store) GetGig(ctx context.Context, gigID string) (models.Gig, error) {
	return getGig(ctx, s.SqlBuilder.RunWith(s.Database), gigID)
}

// ListGigs returns gigs matching filter, newest first
func (s *Store) ListGigs(ctx context.Context, filter models.GigFilter) ([]models.Gig, error) {
	q := s.SqlBuilder.
		Select(gigColumns...).
		From("gigs").
		OrderBy("created_at DESC", "rowid DESC")

	if filter.OwnerID != "" {
		q = q.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		q = q.Where(squirrel.Or{
			squirrel.Expr(`fold(title) LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`fold(description) LIKE ? ESCAPE '\'`, pattern),
		})
	}

	rows, err := q.RunWith(s.Database).QueryContext(ctx)
	if err != nil {
		return nil, marketerrors.Transient("sqlite: list gigs", err)
	}
	defer rows.Close()

	gigs := make([]models.Gig, 0)
	for rows.Next() {
		gig, err := scanGig(rows)
		if err != nil {
			return nil, marketerrors.Transient("sqlite: scan gig", err)
		}
		gigs = append(gigs, gig)
	}
	if err := rows.Err(); err != nil {
		return nil, marketerrors.Transient("sqlite: list gigs", err)
	}
	return gigs, nil
}

// InsertBid stores a new bid. The insert only happens while the gig is open; the unique
// index on (gig_id, freelancer_id) rejects a second bid from the same freelancer.
func (s *Store) InsertBid(ctx context.Context, bid models.Bid) error {
	return s.withTx(ctx, "sqlite: insert bid", func(tx *sql.Tx) error {
		values := s.SqlBuilder.
			Select().
			Column("?", bid.BidID).
			Column("?", bid.GigID).
			Column("?", bid.FreelancerID).
			Column("?", bid.Message).
			Column("?", bid.Price).
			Column("?", string(bid.Status)).
			Column("?", toUnix(bid.CreatedAt)).
			Column("?", toUnix(bid.UpdatedAt)).
			Where(squirrel.Expr("EXISTS (SELECT 1 FROM gigs WHERE id = ? AND status = ?)", bid.GigID, string(models.GigOpen)))

		res, err := s.SqlBuilder.
			Insert("bids").
			Columns(bidColumns...).
			Select(values).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return marketerrors.ErrDuplicateBid
			}
			if isCheckViolation(err) {
				return marketerrors.Validation("sqlite: insert bid: %v", err)
			}
			return err
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 1 {
			return nil
		}

		// nothing inserted: tell a missing gig from a closed one
		if _, err := getGig(ctx, s.SqlBuilder.RunWith(tx), bid.GigID); err != nil {
			return err
		}
		return marketerrors.ErrGigNotOpen
	})
}

// GetBid returns the bid with the given id
func (s *Store) GetBid(ctx context.Context, bidID string) (models.Bid, error) {
	row := s.SqlBuilder.
		Select(bidColumns...).
		From("bids").
		Where(squirrel.Eq{"id": bidID}).
		RunWith(s.Database).
		QueryRowContext(ctx)

	bid, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bid{}, marketerrors.ErrBidNotFound
	}
	if err != nil {
		return models.Bid{}, marketerrors.Transient("sqlite: get bid", err)
	}
	return bid, nil
}

// ListBidsByGig returns all bids for a gig, newest first
func (s *Store) ListBidsByGig(ctx context.Context, gigID string) ([]models.Bid, error) {
	bids, err := listBids(ctx, s.SqlBuilder.RunWith(s.Database), gigID)
	if err != nil {
		return nil, marketerrors.Transient("sqlite: list bids", err)
	}
	return bids, nil
}

// HireBid runs the award transition in one write transaction
func (s *Store) HireBid(ctx context.Context, gigID, bidID string, at time.Time) ([]models.Bid, error) {
	var bids []models.Bid

	err := s.withTx(ctx, "sqlite: hire", func(tx *sql.Tx) error {
		b := s.SqlBuilder.RunWith(tx)

		var belongs int
		err := b.Select("COUNT(*)").
			From("bids").
			Where(squirrel.Eq{"id": bidID, "gig_id": gigID}).
			QueryRowContext(ctx).
			Scan(&belongs)
		if err != nil {
			return err
		}
		if belongs == 0 {
			return marketerrors.ErrBidNotFound
		}

		// compare-and-set: only an open gig can be assigned
		res, err := b.Update("gigs").
			Set("status", string(models.GigAssigned)).
			Set("updated_at", toUnix(at)).
			Where(squirrel.Eq{"id": gigID, "status": string(models.GigOpen)}).
			ExecContext(ctx)
		if err != nil {
			return err
		}
		assigned, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if assigned == 0 {
			if _, err := getGig(ctx, b, gigID); err != nil {
				return err
			}
			return marketerrors.ErrAlreadyAssigned
		}

		_, err = b.Update("bids").
			Set("status", squirrel.Expr("CASE WHEN id = ? THEN ? ELSE ? END",
				bidID, string(models.BidHired), string(models.BidRejected))).
			Set("updated_at", toUnix(at)).
			Where(squirrel.Eq{"gig_id": gigID}).
			ExecContext(ctx)
		if err != nil {
			return err
		}

		bids, err = listBids(ctx, b, gigID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// UpsertUser adds or replaces a directory entry. Users belong to the identity provider;
// this exists for seeding.
func (s *Store) UpsertUser(ctx context.Context, user models.User) error {
	_, err := s.SqlBuilder.
		Insert("users").
		Columns(userColumns...).
		Values(user.UserID, user.Name, user.Email, toUnix(user.CreatedAt)).
		Suffix("ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email").
		RunWith(s.Database).
		ExecContext(ctx)
	if err != nil {
		return marketerrors.Transient("sqlite: upsert user", err)
	}
	return nil
}

// GetUser returns a single user
func (s *Store) GetUser(ctx context.Context, userID string) (models.User, error) {
	row := s.SqlBuilder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": userID}).
		RunWith(s.Database).
		QueryRowContext(ctx)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, marketerrors.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, marketerrors.Transient("sqlite: get user", err)
	}
	return user, nil
}

// GetUsers returns the known users among userIDs
func (s *Store) GetUsers(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	found := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return found, nil
	}

	rows, err := s.SqlBuilder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": userIDs}).
		RunWith(s.Database).
		QueryContext(ctx)
	if err != nil {
		return nil, marketerrors.Transient("sqlite: get users", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, marketerrors.Transient("sqlite: scan user", err)
		}
		found[user.UserID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, marketerrors.Transient("sqlite: get users", err)
	}
	return found, nil
}

// withTx runs fn in a transaction. Domain errors from fn pass through unchanged; anything
// else is reported as transient. Every failure rolls back.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.Database.BeginTx(ctx, nil)
	if err != nil {
		return marketerrors.Transient(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
		if marketerrors.KindOf(err) == marketerrors.KindInternal {
			return marketerrors.Transient(op, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return marketerrors.Transient(op, err)
	}
	return nil
}

func getGig(ctx context.Context, b squirrel.StatementBuilderType, gigID string) (models.Gig, error) {
	row := b.Select(gigColumns...).
		From("gigs").
		Where(squirrel.Eq{"id": gigID}).
		QueryRowContext(ctx)

	gig, err := scanGig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Gig{}, marketerrors.ErrGigNotFound
	}
	if err != nil {
		return models.Gig{}, marketerrors.Transient("sqlite: get gig", err)
	}
	return gig, nil
}

func listBids(ctx context.Context, b squirrel.StatementBuilderType, gigID string) ([]models.Bid, error) {
	rows, err := b.Select(bidColumns...).
		From("bids").
		Where(squirrel.Eq{"gig_id": gigID}).
		OrderBy("created_at DESC", "rowid DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]models.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGig(row scanner) (models.Gig, error) {
	var (
		gig                  models.Gig
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&gig.GigID, &gig.Title, &gig.Description, &gig.Budget, &gig.OwnerID, &status, &createdAt, &updatedAt)
	if err != nil {
		return models.Gig{}, err
	}
	gig.Status = models.GigStatus(status)
	gig.CreatedAt = fromUnix(createdAt)
	gig.UpdatedAt = fromUnix(updatedAt)
	return gig, nil
}

func scanBid(row scanner) (models.Bid, error) {
	var (
		bid                  models.Bid
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&bid.BidID, &bid.GigID, &bid.FreelancerID, &bid.Message, &bid.Price, &status, &createdAt, &updatedAt)
	if err != nil {
		return models.Bid{}, err
	}
	bid.Status = models.BidStatus(status)
	bid.CreatedAt = fromUnix(createdAt)
	bid.UpdatedAt = fromUnix(updatedAt)
	return bid, nil
}

func scanUser(row scanner) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	if err := row.Scan(&user.UserID, &user.Name, &user.Email, &createdAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = fromUnix(createdAt)
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// a failed CHECK is a rejected value, not a fault worth retrying
func isCheckViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// timestamps are stored as unix nanoseconds so ordering is numeric
func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
