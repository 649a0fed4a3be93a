package repository

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	portal "github.com/goliatone/go-auth-portal"
)

// ActivityModel is the Bun model for portal activity.
type ActivityModel struct {
	bun.BaseModel `bun:"table:portal_activity"`

	ID         uuid.UUID      `bun:"id,pk,type:uuid"`
	Type       string         `bun:"type,notnull"`
	UserID     string         `bun:"user_id"`
	Email      string         `bun:"email"`
	Screen     string         `bun:"screen"`
	Outcome    string         `bun:"outcome,notnull"`
	Message    string         `bun:"message"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	OccurredAt time.Time      `bun:"occurred_at,notnull"`
}

// ActivityRepository persists activity events. It satisfies portal.ActivitySink.
type ActivityRepository struct {
	db *bun.DB
}

var _ portal.ActivitySink = (*ActivityRepository)(nil)

func NewActivityRepository(db *bun.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// OpenSQLite opens a Bun handle on a sqlite DSN.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open activity database")
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateTable creates the activity table and its indexes when missing.
func (r *ActivityRepository) CreateTable(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().
		Model((*ActivityModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create activity table")
	}

	_, err := r.db.NewCreateIndex().
		Model((*ActivityModel)(nil)).
		Index("idx_portal_activity_user").
		IfNotExists().
		Column("user_id", "occurred_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create activity index")
	}
	return nil
}

// Record implements portal.ActivitySink.
func (r *ActivityRepository) Record(ctx context.Context, event portal.ActivityEvent) error {
	model := fromEvent(event)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "insert activity")
	}
	return nil
}

// ListByUser returns the newest events for a user.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]portal.ActivityEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []ActivityModel
	err := r.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		OrderExpr("occurred_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "list activity")
	}

	events := make([]portal.ActivityEvent, len(models))
	for i := range models {
		events[i] = toEvent(&models[i])
	}
	return events, nil
}

func fromEvent(e portal.ActivityEvent) *ActivityModel {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}

	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &ActivityModel{
		ID:         id,
		Type:       string(e.Type),
		UserID:     e.UserID,
		Email:      e.Email,
		Screen:     e.Screen,
		Outcome:    string(e.Outcome),
		Message:    e.Message,
		Metadata:   metadata,
		OccurredAt: occurred.UTC(),
	}
}

func toEvent(m *ActivityModel) portal.ActivityEvent {
	return portal.ActivityEvent{
		ID:         m.ID.String(),
		Type:       portal.ActivityEventType(m.Type),
		UserID:     m.UserID,
		Email:      m.Email,
		Screen:     m.Screen,
		Outcome:    portal.ActivityOutcome(m.Outcome),
		Message:    m.Message,
		Metadata:   m.Metadata,
		OccurredAt: m.OccurredAt,
	}
}
