package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/oliban/anagram-game-sub002/internal/model"
)

const (
	errUniqueViolation     pq.ErrorCode = "23505"
	errForeignKeyViolation pq.ErrorCode = "23503"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

func NewPostgresDB(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore implements DataStore on PostgreSQL. Inside WithinTx all
// methods run against the open transaction.
type PostgresStore struct {
	db *sql.DB
	q  dbtx
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx DataStore) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback tx: %v (caused by: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const phraseColumns = "id, content, hint, lang, difficulty, is_global, is_approved, phrase_type, priority, created_by, created_at"

func (s *PostgresStore) InsertPhrase(ctx context.Context, r PhraseInsertRequest) (model.Phrase, error) {
	createdBy := sql.NullString{String: r.CreatedBy, Valid: r.CreatedBy != ""}

	row := s.q.QueryRowContext(ctx, `
		INSERT INTO phrases (id, content, hint, lang, difficulty, is_global, is_approved, phrase_type, priority, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		r.ID, r.Content, r.Hint, r.Lang, r.Difficulty, r.IsGlobal, r.IsApproved, r.Type, r.Priority, createdBy)

	var createdAt time.Time
	if err := row.Scan(&createdAt); err != nil {
		if isPqErr(err, errUniqueViolation) {
			return model.Phrase{}, ErrExists
		}
		return model.Phrase{}, fmt.Errorf("insert phrase: %w", err)
	}

	return model.Phrase{
		ID:         r.ID,
		Content:    r.Content,
		Hint:       r.Hint,
		Lang:       r.Lang,
		Difficulty: r.Difficulty,
		IsGlobal:   r.IsGlobal,
		IsApproved: r.IsApproved,
		Type:       r.Type,
		Priority:   r.Priority,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  createdAt,
	}, nil
}

func (s *PostgresStore) GetPhrase(ctx context.Context, id string) (model.Phrase, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+phraseColumns+" FROM phrases WHERE id = $1", id)

	p, err := scanPhrase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Phrase{}, ErrNotFound
		}
		return model.Phrase{}, fmt.Errorf("get phrase: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) CreateAssignments(ctx context.Context, r AssignmentsCreateRequest) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO assignments (phrase_id, player_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (phrase_id, player_id) DO NOTHING`,
		r.PhraseID, pq.Array(r.PlayerIDs))
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return ErrNotFound
		}
		return fmt.Errorf("create assignments: %w", err)
	}

	return nil
}

func (s *PostgresStore) HasAssignment(ctx context.Context, r AssignmentKey) (bool, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM assignments WHERE phrase_id = $1 AND player_id = $2)",
		r.PhraseID, r.PlayerID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}

	return exists, nil
}

// ConsumeAssignment flips delivered false -> true under a row lock. It returns
// ErrNotFound when no assignment exists and ErrNotConsumable when the
// assignment was consumed before; exactly one of N concurrent calls succeeds.
func (s *PostgresStore) ConsumeAssignment(ctx context.Context, r AssignmentKey) error {
	row := s.q.QueryRowContext(ctx,
		"SELECT delivered FROM assignments WHERE phrase_id = $1 AND player_id = $2 FOR UPDATE",
		r.PhraseID, r.PlayerID)

	var delivered bool
	if err := row.Scan(&delivered); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock assignment: %w", err)
	}

	if delivered {
		return ErrNotConsumable
	}

	_, err := s.q.ExecContext(ctx,
		"UPDATE assignments SET delivered = true, delivered_at = now() WHERE phrase_id = $1 AND player_id = $2",
		r.PhraseID, r.PlayerID)
	if err != nil {
		return fmt.Errorf("consume assignment: %w", err)
	}

	return nil
}

// FreshAssignedPhrases and FreshGlobalPhrases never serve a phrase with a
// live skip row; skipped phrases surface through SkippedPhrases only.
func (s *PostgresStore) FreshAssignedPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.content, p.hint, p.lang, p.difficulty, p.is_global, p.is_approved, p.phrase_type, p.priority, p.created_by, p.created_at
		FROM assignments a
		JOIN phrases p ON p.id = a.phrase_id
		WHERE a.player_id = $1 AND NOT a.delivered
		  AND (p.created_by IS NULL OR p.created_by <> a.player_id)
		  AND NOT EXISTS (SELECT 1 FROM skips s WHERE s.player_id = a.player_id AND s.phrase_id = p.id)
		ORDER BY p.priority DESC, a.created_at DESC
		LIMIT $2`,
		r.PlayerID, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("query assigned phrases: %w", err)
	}
	defer rows.Close()

	return scanPhrases(rows)
}

func (s *PostgresStore) FreshGlobalPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases p
		WHERE p.is_global AND p.is_approved
		  AND (p.created_by IS NULL OR p.created_by <> $1)
		  AND ($2 = 0 OR p.difficulty <= $2)
		  AND NOT EXISTS (SELECT 1 FROM completions c WHERE c.phrase_id = p.id AND c.player_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM skips s WHERE s.player_id = $1 AND s.phrase_id = p.id)
		ORDER BY p.priority DESC, p.created_at DESC
		LIMIT $3`,
		r.PlayerID, r.MaxDifficulty, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("query global phrases: %w", err)
	}
	defer rows.Close()

	return scanPhrases(rows)
}

func (s *PostgresStore) SkippedPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.content, p.hint, p.lang, p.difficulty, p.is_global, p.is_approved, p.phrase_type, p.priority, p.created_by, p.created_at
		FROM skips s
		JOIN phrases p ON p.id = s.phrase_id
		WHERE s.player_id = $1
		  AND (p.created_by IS NULL OR p.created_by <> $1)
		  AND ($2 = 0 OR p.difficulty <= $2)
		  AND NOT EXISTS (SELECT 1 FROM completions c WHERE c.phrase_id = p.id AND c.player_id = $1)
		ORDER BY s.skipped_at ASC
		LIMIT $3`,
		r.PlayerID, r.MaxDifficulty, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("query skipped phrases: %w", err)
	}
	defer rows.Close()

	return scanPhrases(rows)
}

func (s *PostgresStore) UpsertSkip(ctx context.Context, r SkipKey) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO skips (player_id, phrase_id)
		VALUES ($1, $2)
		ON CONFLICT (player_id, phrase_id) DO UPDATE SET skipped_at = now()`,
		r.PlayerID, r.PhraseID)
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert skip: %w", err)
	}

	return nil
}

func (s *PostgresStore) ClearSkips(ctx context.Context, r SkipsClearRequest) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM skips WHERE player_id = $1 AND phrase_id = ANY($2::text[])",
		r.PlayerID, pq.Array(r.PhraseIDs))
	if err != nil {
		return fmt.Errorf("clear skips: %w", err)
	}

	return nil
}

func (s *PostgresStore) HintLevels(ctx context.Context, r AssignmentKey) ([]int, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT level FROM hint_usages WHERE player_id = $1 AND phrase_id = $2 ORDER BY level",
		r.PlayerID, r.PhraseID)
	if err != nil {
		return nil, fmt.Errorf("query hint levels: %w", err)
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var lvl int
		if err := rows.Scan(&lvl); err != nil {
			return nil, fmt.Errorf("scan hint level: %w", err)
		}
		levels = append(levels, lvl)
	}

	return levels, rows.Err()
}

func (s *PostgresStore) InsertHintUsage(ctx context.Context, r HintUsageInsertRequest) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO hint_usages (player_id, phrase_id, level) VALUES ($1, $2, $3)",
		r.PlayerID, r.PhraseID, r.Level)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return ErrExists
		}
		if isPqErr(err, errForeignKeyViolation) {
			return ErrNotFound
		}
		return fmt.Errorf("insert hint usage: %w", err)
	}

	return nil
}

// InsertCompletion reports whether a new row was written. A conflict on the
// (player, phrase) key is a no-op so duplicate completion attempts stay safe
// to retry.
func (s *PostgresStore) InsertCompletion(ctx context.Context, r CompletionInsertRequest) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO completions (player_id, phrase_id, score, completion_time_ms)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, phrase_id) DO NOTHING`,
		r.PlayerID, r.PhraseID, r.Score, r.CompletionTimeMs)
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert completion: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("completion rows affected: %w", err)
	}

	return affected == 1, nil
}

func (s *PostgresStore) GetCompletion(ctx context.Context, r AssignmentKey) (model.Completion, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT player_id, phrase_id, score, completion_time_ms, completed_at
		FROM completions WHERE player_id = $1 AND phrase_id = $2`,
		r.PlayerID, r.PhraseID)

	var c model.Completion
	if err := row.Scan(&c.PlayerID, &c.PhraseID, &c.Score, &c.CompletionTimeMs, &c.CompletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Completion{}, ErrNotFound
		}
		return model.Completion{}, fmt.Errorf("get completion: %w", err)
	}

	return c, nil
}

func (s *PostgresStore) CountCompletions(ctx context.Context, playerID string) (int, error) {
	row := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM completions WHERE player_id = $1", playerID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}

	return count, nil
}

// RefreshAggregates rebuilds one period's ranking from completion records.
// Dense ranks are assigned by score descending; achieved_at keeps the earliest
// qualifying completion for tie ordering.
func (s *PostgresStore) RefreshAggregates(ctx context.Context, r AggregatesRefreshRequest) error {
	since := sql.NullTime{Time: r.Since, Valid: !r.Since.IsZero()}

	_, err := s.q.ExecContext(ctx, "DELETE FROM score_aggregates WHERE period = $1", r.Period)
	if err != nil {
		return fmt.Errorf("clear aggregates: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO score_aggregates (period, player_id, score, rank, achieved_at, refreshed_at)
		SELECT $1, c.player_id, SUM(c.score),
		       DENSE_RANK() OVER (ORDER BY SUM(c.score) DESC),
		       MIN(c.completed_at), now()
		FROM completions c
		WHERE $2::timestamptz IS NULL OR c.completed_at >= $2
		GROUP BY c.player_id`,
		r.Period, since)
	if err != nil {
		return fmt.Errorf("rebuild aggregates: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetLeaderboard(ctx context.Context, r LeaderboardRequest) (LeaderboardResponse, error) {
	row := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_aggregates WHERE period = $1", r.Period)

	var resp LeaderboardResponse
	if err := row.Scan(&resp.Total); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("count aggregates: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT player_id, score, rank, achieved_at
		FROM score_aggregates
		WHERE period = $1
		ORDER BY rank ASC, achieved_at ASC, player_id ASC
		LIMIT $2 OFFSET $3`,
		r.Period, r.Limit, r.Offset)
	if err != nil {
		return LeaderboardResponse{}, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Score, &e.Rank, &e.AchievedAt); err != nil {
			return LeaderboardResponse{}, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		resp.Entries = append(resp.Entries, e)
	}

	return resp, rows.Err()
}

func (s *PostgresStore) PlayerAggregate(ctx context.Context, r PlayerAggregateRequest) (model.ScoreAggregate, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT period, player_id, score, rank, achieved_at
		FROM score_aggregates
		WHERE period = $1 AND player_id = $2`,
		r.Period, r.PlayerID)

	var a model.ScoreAggregate
	if err := row.Scan(&a.Period, &a.PlayerID, &a.Score, &a.Rank, &a.AchievedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ScoreAggregate{}, ErrNotFound
		}
		return model.ScoreAggregate{}, fmt.Errorf("get player aggregate: %w", err)
	}

	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhrase(row rowScanner) (model.Phrase, error) {
	var p model.Phrase
	var createdBy sql.NullString
	err := row.Scan(&p.ID, &p.Content, &p.Hint, &p.Lang, &p.Difficulty,
		&p.IsGlobal, &p.IsApproved, &p.Type, &p.Priority, &createdBy, &p.CreatedAt)
	if err != nil {
		return model.Phrase{}, err
	}

	p.CreatedBy = createdBy.String
	return p, nil
}

func scanPhrases(rows *sql.Rows) ([]model.Phrase, error) {
	var phrases []model.Phrase
	for rows.Next() {
		p, err := scanPhrase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		phrases = append(phrases, p)
	}

	return phrases, rows.Err()
}

func isPqErr(err error, code pq.ErrorCode) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code == code
}
