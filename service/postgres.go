package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addy2510/policymanager/config"
	"github.com/addy2510/policymanager/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

var (
	pgxPoolNewWithConfig = pgxpool.NewWithConfig
	postgresRetryDelay   = 2 * time.Second
	postgresPingTimeout  = 2 * time.Second
	postgresSleep        = time.Sleep
)

// NewPostgresPool connects and pings, retrying while the database comes up.
func NewPostgresPool(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = 1
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		pool, err := pgxPoolNewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = err
			postgresSleep(postgresRetryDelay)
			continue
		}
		ctxPing, cancel := context.WithTimeout(ctx, postgresPingTimeout)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			return pool, nil
		}
		lastErr = err
		pool.Close()
		if ctx.Err() != nil {
			break
		}
		postgresSleep(postgresRetryDelay)
	}
	return nil, fmt.Errorf("db ping retries exhausted: %w", lastErr)
}

// EnsureSchema creates the tables if they are missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

const (
	policySelect = `SELECT policy_no, policy_holder, group_code, group_head, fup,
	to_char(dob, 'YYYY-MM-DD'), address, term, mode, product,
	to_char(commencement_date, 'YYYY-MM-DD'), to_char(maturity_date, 'YYYY-MM-DD'),
	sum_assured::text, premium::text
FROM user_policy_details`

	policyInsert = `INSERT INTO user_policy_details (policy_no, policy_holder, group_code, group_head, fup,
	dob, address, term, mode, product, commencement_date, maturity_date, sum_assured, premium)
VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11::date, $12::date, $13::numeric, $14::numeric)`

	policyUpsert = policyInsert + `
ON CONFLICT (policy_no) DO UPDATE SET
	policy_holder = EXCLUDED.policy_holder,
	group_code = EXCLUDED.group_code,
	group_head = EXCLUDED.group_head,
	fup = EXCLUDED.fup,
	dob = EXCLUDED.dob,
	address = EXCLUDED.address,
	term = EXCLUDED.term,
	mode = EXCLUDED.mode,
	product = EXCLUDED.product,
	commencement_date = EXCLUDED.commencement_date,
	maturity_date = EXCLUDED.maturity_date,
	sum_assured = EXCLUDED.sum_assured,
	premium = EXCLUDED.premium`

	policyOrder = ` ORDER BY seq`
)

// PostgresPolicyStore is the pgx backed PolicyStore over user_policy_details
type PostgresPolicyStore struct {
	pool *pgxpool.Pool
}

var (
	_ PolicyStore   = (*PostgresPolicyStore)(nil)
	_ ArtifactStore = (*PostgresArtifactStore)(nil)
)

func NewPostgresPolicyStore(pool *pgxpool.Pool) *PostgresPolicyStore {
	return &PostgresPolicyStore{pool: pool}
}

func (s *PostgresPolicyStore) Exists(ctx context.Context, policyNo int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_policy_details WHERE policy_no = $1)`, policyNo).Scan(&ok)
	return ok, err
}

func (s *PostgresPolicyStore) Get(ctx context.Context, policyNo int64) (*model.Policy, error) {
	p, err := scanPolicy(s.pool.QueryRow(ctx, policySelect+` WHERE policy_no = $1`, policyNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return p, err
}

func (s *PostgresPolicyStore) Insert(ctx context.Context, p *model.Policy) error {
	return insertPolicy(ctx, s.pool, p)
}

// InsertUniqueGroupCode serializes writers of the same code with a
// transaction scoped advisory lock, then inserts only if the code is unused.
func (s *PostgresPolicyStore) InsertUniqueGroupCode(ctx context.Context, p *model.Policy) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.GroupCode); err != nil {
		return fmt.Errorf("lock group code: %w", err)
	}
	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_policy_details WHERE group_code = $1)`, p.GroupCode).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return ErrGroupCodeTaken
	}
	if err := insertPolicy(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgExecer is satisfied by both the pool and a transaction
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertPolicy(ctx context.Context, db pgExecer, p *model.Policy) error {
	tag, err := db.Exec(ctx, policyInsert+` ON CONFLICT (policy_no) DO NOTHING`, policyArgs(p)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (s *PostgresPolicyStore) Save(ctx context.Context, p *model.Policy) error {
	_, err := s.pool.Exec(ctx, policyUpsert, policyArgs(p)...)
	return err
}

func (s *PostgresPolicyStore) Count(ctx context.Context) (int64, error) {
	return s.count(ctx, "", nil)
}

func (s *PostgresPolicyStore) FindAll(ctx context.Context, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, "", nil, req)
}

func (s *PostgresPolicyStore) FindByPrefix(ctx context.Context, field Field, prefix string, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, fieldColumn(field)+` ILIKE $1 ESCAPE '\'`, []any{escapeLike(prefix) + "%"}, req)
}

func (s *PostgresPolicyStore) FindByContains(ctx context.Context, field Field, text string, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, fieldColumn(field)+` ILIKE $1 ESCAPE '\'`, []any{"%" + escapeLike(text) + "%"}, req)
}

func (s *PostgresPolicyStore) FindMaturityBefore(ctx context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, `maturity_date < $1::date`, []any{d.String()}, req)
}

func (s *PostgresPolicyStore) FindMaturityBetween(ctx context.Context, from, to model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, `maturity_date BETWEEN $1::date AND $2::date`, []any{from.String(), to.String()}, req)
}

func (s *PostgresPolicyStore) FindMaturityAfter(ctx context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.page(ctx, `maturity_date > $1::date`, []any{d.String()}, req)
}

func (s *PostgresPolicyStore) CountMaturityBefore(ctx context.Context, d model.Date) (int64, error) {
	return s.count(ctx, `maturity_date < $1::date`, []any{d.String()})
}

func (s *PostgresPolicyStore) ExistsByGroupCode(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_policy_details WHERE group_code = $1)`, code).Scan(&ok)
	return ok, err
}

func (s *PostgresPolicyStore) count(ctx context.Context, where string, args []any) (int64, error) {
	q := `SELECT count(*) FROM user_policy_details`
	if where != "" {
		q += ` WHERE ` + where
	}
	var n int64
	err := s.pool.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}

// page runs the count and the slice query for one filter. Placeholders in
// where start at $1; limit and offset take the next two.
func (s *PostgresPolicyStore) page(ctx context.Context, where string, args []any, req model.PageRequest) (model.Page[model.Policy], error) {
	total, err := s.count(ctx, where, args)
	if err != nil {
		return model.Page[model.Policy]{}, err
	}
	if total == 0 || int64(req.Offset()) >= total {
		return model.NewPage[model.Policy](nil, req, total), nil
	}

	q := policySelect
	if where != "" {
		q += ` WHERE ` + where
	}
	n := len(args)
	q += policyOrder + fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := s.pool.Query(ctx, q, append(args, req.Size, req.Offset())...)
	if err != nil {
		return model.Page[model.Policy]{}, err
	}
	defer rows.Close()

	var content []model.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return model.Page[model.Policy]{}, err
		}
		content = append(content, *p)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Policy]{}, err
	}
	return model.NewPage(content, req, total), nil
}

func fieldColumn(f Field) string {
	if f == FieldPolicyNo {
		return "policy_no::text"
	}
	return f.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func policyArgs(p *model.Policy) []any {
	return []any{
		p.PolicyNo, p.PolicyHolder, p.GroupCode, p.GroupHead, p.FUP,
		dateArg(p.DOB), p.Address, p.Term, p.Mode, p.Product,
		dateArg(p.CommencementDate), dateArg(p.MaturityDate),
		decimalArg(p.SumAssured), decimalArg(p.Premium),
	}
}

func dateArg(d *model.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func scanPolicy(row pgx.Row) (*model.Policy, error) {
	var (
		p                        model.Policy
		dob, commenced, maturity *string
		sumAssured, premium      *string
	)
	err := row.Scan(
		&p.PolicyNo, &p.PolicyHolder, &p.GroupCode, &p.GroupHead, &p.FUP,
		&dob, &p.Address, &p.Term, &p.Mode, &p.Product,
		&commenced, &maturity, &sumAssured, &premium,
	)
	if err != nil {
		return nil, err
	}
	if p.DOB, err = parseDateCol(dob); err != nil {
		return nil, err
	}
	if p.CommencementDate, err = parseDateCol(commenced); err != nil {
		return nil, err
	}
	if p.MaturityDate, err = parseDateCol(maturity); err != nil {
		return nil, err
	}
	if p.SumAssured, err = parseDecimalCol(sumAssured); err != nil {
		return nil, err
	}
	if p.Premium, err = parseDecimalCol(premium); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseDateCol(s *string) (*model.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDecimalCol(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// PostgresArtifactStore is the pgx backed ArtifactStore over user_policy_artifact
type PostgresArtifactStore struct {
	pool *pgxpool.Pool
}

func NewPostgresArtifactStore(pool *pgxpool.Pool) *PostgresArtifactStore {
	return &PostgresArtifactStore{pool: pool}
}

const artifactSelect = `SELECT id, policy_no, file_name, content_type, size, file_path, uploaded_at FROM user_policy_artifact`

func (s *PostgresArtifactStore) Create(ctx context.Context, a *model.Artifact) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO user_policy_artifact (policy_no, file_name, content_type, size, file_path, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.PolicyNo, a.FileName, a.ContentType, a.Size, a.Location, a.UploadedAt,
	).Scan(&a.ID)
}

func (s *PostgresArtifactStore) Get(ctx context.Context, id int64) (*model.Artifact, error) {
	a, err := scanArtifact(s.pool.QueryRow(ctx, artifactSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return a, err
}

func (s *PostgresArtifactStore) FindByPolicy(ctx context.Context, policyNo int64, req model.PageRequest) (model.Page[model.Artifact], error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM user_policy_artifact WHERE policy_no = $1`, policyNo).Scan(&total); err != nil {
		return model.Page[model.Artifact]{}, err
	}
	if total == 0 || int64(req.Offset()) >= total {
		return model.NewPage[model.Artifact](nil, req, total), nil
	}

	rows, err := s.pool.Query(ctx, artifactSelect+` WHERE policy_no = $1 ORDER BY id LIMIT $2 OFFSET $3`, policyNo, req.Size, req.Offset())
	if err != nil {
		return model.Page[model.Artifact]{}, err
	}
	defer rows.Close()

	var content []model.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return model.Page[model.Artifact]{}, err
		}
		content = append(content, *a)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Artifact]{}, err
	}
	return model.NewPage(content, req, total), nil
}

func scanArtifact(row pgx.Row) (*model.Artifact, error) {
	var a model.Artifact
	err := row.Scan(&a.ID, &a.PolicyNo, &a.FileName, &a.ContentType, &a.Size, &a.Location, &a.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
