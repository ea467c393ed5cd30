package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/teachreg/trs-api/internal/models"
)

// slowTransactionThreshold flags transactions holding a connection long
// enough to starve the pool under load.
const slowTransactionThreshold = time.Second

// entityMapper translates one entity type to and from its table. The registry
// is closed: every persistable type is listed here explicitly, so writes never
// depend on reflection over arbitrary attribute bags.
type entityMapper struct {
	table   string
	columns []string
	scan    func(rows *sqlx.Rows) (Entity, error)
}

func scanInto[T any, PT interface {
	*T
	Entity
}](rows *sqlx.Rows) (Entity, error) {
	var v T
	if err := rows.StructScan(&v); err != nil {
		return nil, err
	}
	return PT(&v), nil
}

var mappers = map[string]entityMapper{
	models.EntityTeacher: {
		table: "teachers",
		columns: []string{
			"id", "trn", "first_name", "middle_name", "last_name",
			"stated_first_name", "stated_middle_name", "stated_last_name",
			"birth_date", "email", "address_line1", "address_line2", "address_line3",
			"city", "postcode", "gender", "husid", "slug_id", "qts_date", "eyts_date",
			"active_sanctions", "allow_pii_updates", "pending_name_change",
			"pending_dob_change", "active", "created_at", "updated_at",
		},
		scan: scanInto[models.Teacher],
	},
	models.EntityTrainingRecord: {
		table: "training_records",
		columns: []string{
			"id", "teacher_id", "provider_id", "programme_type", "result",
			"subject1_id", "subject2_id", "subject3_id", "age_range_from",
			"age_range_to", "start_date", "end_date", "slug_id", "active",
			"created_at", "updated_at",
		},
		scan: scanInto[models.TrainingRecord],
	},
	models.EntityQTSRegistration: {
		table: "qts_registrations",
		columns: []string{
			"id", "teacher_id", "teacher_status_id", "early_years_status_id",
			"qts_date", "eyts_date", "active", "created_at", "updated_at",
		},
		scan: scanInto[models.QTSRegistration],
	},
	models.EntityQualification: {
		table: "qualifications",
		columns: []string{
			"id", "teacher_id", "qualification_ref_id", "country_id",
			"subject1_id", "subject2_id", "subject3_id", "class",
			"completion_date", "active", "created_at", "updated_at",
		},
		scan: scanInto[models.Qualification],
	},
	models.EntityInduction: {
		table: "inductions",
		columns: []string{
			"id", "teacher_id", "status", "start_date", "active",
			"created_at", "updated_at",
		},
		scan: scanInto[models.Induction],
	},
	models.EntityReviewTask: {
		table: "review_tasks",
		columns: []string{
			"id", "teacher_id", "category", "title", "description",
			"completed", "created_at", "updated_at",
		},
		scan: scanInto[models.ReviewTask],
	},
	models.EntityOutboxMessage: {
		table: "outbox_messages",
		columns: []string{
			"id", "message_name", "payload", "dispatched", "dispatched_at",
			"created_at",
		},
		scan: scanInto[models.OutboxMessage],
	},
}

// PostgresClient implements EntityClient over sqlx. Atomicity is delegated
// entirely to the database transaction; connection acquisition blocks on the
// pool and release is deferred on every path.
type PostgresClient struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresClient constructs a PostgresClient.
func NewPostgresClient(db *sqlx.DB, logger *zap.Logger) *PostgresClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresClient{db: db, logger: logger}
}

// Execute runs a single request outside any transaction.
func (c *PostgresClient) Execute(ctx context.Context, req Request) (Response, error) {
	return c.execOne(ctx, c.db, req)
}

// ExecuteBatch runs each request independently. Failures are reported per
// response; successful requests are not rolled back.
func (c *PostgresClient) ExecuteBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	responses := make([]Response, len(reqs))
	for i, req := range reqs {
		resp, err := c.execOne(ctx, c.db, req)
		if err != nil {
			responses[i] = Response{Err: err}
			continue
		}
		responses[i] = resp
	}
	return responses, nil
}

// ExecuteTransaction runs every request inside one database transaction.
func (c *PostgresClient) ExecuteTransaction(ctx context.Context, reqs []Request) ([]Response, error) {
	start := time.Now()
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	responses := make([]Response, len(reqs))
	for i, req := range reqs {
		resp, err := c.execOne(ctx, tx, req)
		if err != nil {
			c.logger.Error("transaction rolled back",
				zap.Int("requests", len(reqs)),
				zap.Int("failed_index", i),
				zap.Error(err))
			return nil, fmt.Errorf("transaction request %d: %w", i, err)
		}
		responses[i] = resp
	}
	if err := tx.Commit(); err != nil {
		c.logger.Error("transaction commit failed",
			zap.Int("requests", len(reqs)),
			zap.Error(err))
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	if elapsed := time.Since(start); elapsed > slowTransactionThreshold {
		c.logger.Warn("slow transaction",
			zap.Int("requests", len(reqs)),
			zap.Duration("elapsed", elapsed))
	}
	return responses, nil
}

func (c *PostgresClient) execOne(ctx context.Context, ext sqlx.ExtContext, req Request) (Response, error) {
	switch r := req.(type) {
	case CreateRequest:
		return c.execCreate(ctx, ext, r)
	case UpdateRequest:
		return c.execUpdate(ctx, ext, r)
	case RetrieveRequest:
		return c.execRetrieve(ctx, ext, r)
	case QueryRequest:
		return c.execQuery(ctx, ext, r)
	default:
		return Response{}, fmt.Errorf("unsupported request type %T", req)
	}
}

func (c *PostgresClient) execCreate(ctx context.Context, ext sqlx.ExtContext, r CreateRequest) (Response, error) {
	m, err := mapperFor(r.Entity.EntityType())
	if err != nil {
		return Response{}, err
	}
	if r.Entity.EntityID() == uuid.Nil {
		return Response{}, fmt.Errorf("create %s: entity id not assigned", m.table)
	}
	placeholders := make([]string, len(m.columns))
	for i, col := range m.columns {
		placeholders[i] = ":" + col
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.table, strings.Join(m.columns, ", "), strings.Join(placeholders, ", "))
	if _, err := sqlx.NamedExecContext(ctx, ext, query, r.Entity); err != nil {
		return Response{}, fmt.Errorf("create %s: %w", m.table, err)
	}
	return Response{CreatedID: r.Entity.EntityID()}, nil
}

func (c *PostgresClient) execUpdate(ctx context.Context, ext sqlx.ExtContext, r UpdateRequest) (Response, error) {
	m, err := mapperFor(r.Entity.EntityType())
	if err != nil {
		return Response{}, err
	}
	columns := r.Columns
	if len(columns) == 0 {
		columns = m.columns
	}
	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "id" {
			continue
		}
		if !m.hasColumn(col) {
			return Response{}, fmt.Errorf("update %s: unknown column %q", m.table, col)
		}
		sets = append(sets, fmt.Sprintf("%s = :%s", col, col))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", m.table, strings.Join(sets, ", "))
	result, err := sqlx.NamedExecContext(ctx, ext, query, r.Entity)
	if err != nil {
		return Response{}, fmt.Errorf("update %s: %w", m.table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return Response{}, fmt.Errorf("update %s %s: %w", m.table, r.Entity.EntityID(), ErrNotFound)
	}
	return Response{}, nil
}

func (c *PostgresClient) execRetrieve(ctx context.Context, ext sqlx.ExtContext, r RetrieveRequest) (Response, error) {
	m, err := mapperFor(r.Type)
	if err != nil {
		return Response{}, err
	}
	columns := r.Columns
	if len(columns) == 0 {
		columns = m.columns
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1",
		strings.Join(columns, ", "), m.table)
	rows, err := ext.QueryxContext(ctx, query, r.ID)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve %s: %w", m.table, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Response{}, fmt.Errorf("retrieve %s: %w", m.table, err)
		}
		return Response{}, fmt.Errorf("retrieve %s %s: %w", m.table, r.ID, ErrNotFound)
	}
	entity, err := m.scan(rows)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve %s: %w", m.table, err)
	}
	return Response{Entity: entity}, nil
}

func (c *PostgresClient) execQuery(ctx context.Context, ext sqlx.ExtContext, r QueryRequest) (Response, error) {
	m, err := mapperFor(r.Query.Type)
	if err != nil {
		return Response{}, err
	}
	columns := r.Query.Columns
	if len(columns) == 0 {
		columns = m.columns
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(columns, ", "), m.table)

	var args []interface{}
	if r.Query.Filter != nil && !r.Query.Filter.Empty() {
		clause, err := buildFilter(*r.Query.Filter, &args)
		if err != nil {
			return Response{}, fmt.Errorf("query %s: %w", m.table, err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
	}
	if len(r.Query.OrderBy) > 0 {
		terms := make([]string, len(r.Query.OrderBy))
		for i, o := range r.Query.OrderBy {
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			terms[i] = o.Column + " " + direction
		}
		sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	if r.Query.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", r.Query.Limit)
	}

	rows, err := ext.QueryxContext(ctx, sb.String(), args...)
	if err != nil {
		return Response{}, fmt.Errorf("query %s: %w", m.table, err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		entity, err := m.scan(rows)
		if err != nil {
			return Response{}, fmt.Errorf("query %s: %w", m.table, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return Response{}, fmt.Errorf("query %s: %w", m.table, err)
	}
	return Response{Entities: entities}, nil
}

// buildFilter renders the filter as SQL, appending bind args. EqualCI relies
// on the unaccent extension being installed.
func buildFilter(f Filter, args *[]interface{}) (string, error) {
	op := f.Operator
	if op == "" {
		op = And
	}
	parts := make([]string, 0, len(f.Conditions)+len(f.Filters))
	for _, cond := range f.Conditions {
		clause, err := buildCondition(cond, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	for _, nested := range f.Filters {
		if nested.Empty() {
			continue
		}
		clause, err := buildFilter(nested, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+clause+")")
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty filter")
	}
	return strings.Join(parts, " "+string(op)+" "), nil
}

func buildCondition(cond Condition, args *[]interface{}) (string, error) {
	switch cond.Operator {
	case Equal:
		*args = append(*args, cond.Value)
		return fmt.Sprintf("%s = $%d", cond.Column, len(*args)), nil
	case NotEqual:
		*args = append(*args, cond.Value)
		return fmt.Sprintf("%s <> $%d", cond.Column, len(*args)), nil
	case EqualCI:
		*args = append(*args, cond.Value)
		return fmt.Sprintf("LOWER(unaccent(%s)) = LOWER(unaccent($%d))", cond.Column, len(*args)), nil
	case In:
		if len(cond.Values) == 0 {
			return "", fmt.Errorf("in condition on %s has no values", cond.Column)
		}
		placeholders := make([]string, len(cond.Values))
		for i, v := range cond.Values {
			*args = append(*args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(*args))
		}
		return fmt.Sprintf("%s IN (%s)", cond.Column, strings.Join(placeholders, ", ")), nil
	case IsNull:
		return cond.Column + " IS NULL", nil
	case NotNull:
		return cond.Column + " IS NOT NULL", nil
	default:
		return "", fmt.Errorf("unsupported condition operator %q", cond.Operator)
	}
}

func mapperFor(entityType string) (entityMapper, error) {
	m, ok := mappers[entityType]
	if !ok {
		return entityMapper{}, fmt.Errorf("unmapped entity type %q", entityType)
	}
	return m, nil
}

func (m entityMapper) hasColumn(col string) bool {
	for _, c := range m.columns {
		if c == col {
			return true
		}
	}
	return false
}
