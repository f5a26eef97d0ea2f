// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"opportune-notifier/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const applicationColumns = `id, user_id, company, position, status, application_date,
	followup_date, custom_reminder_date, location, salary, job_url,
	contact_person, contact_email, notes, reminder_sent, last_reminder_sent,
	created_at, updated_at`

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			company TEXT NOT NULL,
			position TEXT NOT NULL,
			status TEXT NOT NULL,
			application_date TIMESTAMPTZ NOT NULL,
			followup_date TIMESTAMPTZ,
			custom_reminder_date TIMESTAMPTZ,
			location TEXT NOT NULL DEFAULT '',
			salary TEXT NOT NULL DEFAULT '',
			job_url TEXT NOT NULL DEFAULT '',
			contact_person TEXT NOT NULL DEFAULT '',
			contact_email TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
			last_reminder_sent TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_followup_date ON applications (followup_date)`,
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			reminder_days_before INT NOT NULL DEFAULT 1,
			daily_digest BOOLEAN NOT NULL DEFAULT FALSE,
			digest_time TEXT NOT NULL DEFAULT '09:00',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		app.ID, app.UserID, app.Company, app.Position, string(app.Status), app.ApplicationDate,
		app.FollowupDate, app.CustomReminderDate, app.Location, app.Salary, app.JobURL,
		app.ContactPerson, app.ContactEmail, app.Notes, app.ReminderSent, app.LastReminderSent,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (p *PostgresStore) FindApplications(ctx context.Context, q ApplicationQuery) ([]models.Application, error) {
	var (
		conditions []string
		args       []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.UserID != "" {
		conditions = append(conditions, "user_id = "+arg(q.UserID))
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if q.FollowupFrom != nil {
		conditions = append(conditions, "followup_date >= "+arg(*q.FollowupFrom))
	}
	if q.FollowupBefore != nil {
		conditions = append(conditions, "followup_date < "+arg(*q.FollowupBefore))
	}
	if q.CustomReminderDueBy != nil {
		conditions = append(conditions, "custom_reminder_date IS NOT NULL")
		conditions = append(conditions, "custom_reminder_date <= "+arg(*q.CustomReminderDueBy))
	}
	if q.WithoutCustomReminder {
		conditions = append(conditions, "custom_reminder_date IS NULL")
	}
	if q.PendingReminderOnly {
		conditions = append(conditions, "reminder_sent = FALSE")
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if q.OrderByFollowup {
		query += " ORDER BY followup_date ASC"
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}
	defer rows.Close()

	var result []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		result = append(result, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}
	return result, nil
}

func (p *PostgresStore) UpdateApplication(ctx context.Context, id string, upd ApplicationUpdate) (*models.Application, error) {
	var (
		sets []string
		args []interface{}
	)

	set := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Company != nil {
		set("company", *upd.Company)
	}
	if upd.Position != nil {
		set("position", *upd.Position)
	}
	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	if upd.ApplicationDate != nil {
		set("application_date", *upd.ApplicationDate)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.Salary != nil {
		set("salary", *upd.Salary)
	}
	if upd.JobURL != nil {
		set("job_url", *upd.JobURL)
	}
	if upd.ContactPerson != nil {
		set("contact_person", *upd.ContactPerson)
	}
	if upd.ContactEmail != nil {
		set("contact_email", *upd.ContactEmail)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}

	if upd.ClearFollowupDate {
		sets = append(sets, "followup_date = NULL")
	} else if upd.FollowupDate != nil {
		set("followup_date", *upd.FollowupDate)
	}
	if upd.ClearCustomReminderDate {
		sets = append(sets, "custom_reminder_date = NULL")
	} else if upd.CustomReminderDate != nil {
		set("custom_reminder_date", *upd.CustomReminderDate)
	}

	// A changed trigger date invalidates the previous reminder.
	if upd.TouchesReminderTrigger() {
		sets = append(sets, "reminder_sent = FALSE", "last_reminder_sent = NULL")
	}

	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE applications SET %s WHERE id = $%d RETURNING `+applicationColumns,
		strings.Join(sets, ", "), len(args),
	)

	row := p.db.QueryRowContext(ctx, query, args...)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return app, nil
}

func (p *PostgresStore) DeleteApplication(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE applications SET reminder_sent = TRUE, last_reminder_sent = $1, updated_at = now() WHERE id = $2`,
		at, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return requireAffected(res)
}

func (p *PostgresStore) RecordManualReminder(ctx context.Context, id string, at time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE applications SET last_reminder_sent = $1, updated_at = now() WHERE id = $2`,
		at, id)
	if err != nil {
		return fmt.Errorf("record manual reminder: %w", err)
	}
	return requireAffected(res)
}

func (p *PostgresStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT email, name, email_enabled, reminder_days_before, daily_digest, digest_time, created_at
		 FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (p *PostgresStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (email, name, email_enabled, reminder_days_before, daily_digest, digest_time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			email_enabled = EXCLUDED.email_enabled,
			reminder_days_before = EXCLUDED.reminder_days_before,
			daily_digest = EXCLUDED.daily_digest,
			digest_time = EXCLUDED.digest_time`,
		user.Email, user.Name, user.Settings.EmailEnabled, user.Settings.ReminderDaysBefore,
		user.Settings.DailyDigest, user.Settings.DigestTime, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (p *PostgresStore) FindDigestUsers(ctx context.Context) ([]models.User, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT email, name, email_enabled, reminder_days_before, daily_digest, digest_time, created_at
		 FROM users WHERE daily_digest = TRUE AND email_enabled = TRUE ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("find digest users: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find digest users: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app              models.Application
		status           string
		followup         sql.NullTime
		customReminder   sql.NullTime
		lastReminderSent sql.NullTime
	)

	err := row.Scan(
		&app.ID, &app.UserID, &app.Company, &app.Position, &status, &app.ApplicationDate,
		&followup, &customReminder, &app.Location, &app.Salary, &app.JobURL,
		&app.ContactPerson, &app.ContactEmail, &app.Notes, &app.ReminderSent, &lastReminderSent,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Status = models.Status(status)
	if followup.Valid {
		t := followup.Time
		app.FollowupDate = &t
	}
	if customReminder.Valid {
		t := customReminder.Time
		app.CustomReminderDate = &t
	}
	if lastReminderSent.Valid {
		t := lastReminderSent.Time
		app.LastReminderSent = &t
	}
	return &app, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.Email, &user.Name, &user.Settings.EmailEnabled, &user.Settings.ReminderDaysBefore,
		&user.Settings.DailyDigest, &user.Settings.DigestTime, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
