package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"voicepanels/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS panels (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS interviews (
	id                  TEXT PRIMARY KEY,
	panel_id            TEXT NOT NULL REFERENCES panels(id) ON DELETE CASCADE,
	participant_name    TEXT NOT NULL DEFAULT '',
	participant_company TEXT NOT NULL DEFAULT '',
	completed_at        TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS evaluations (
	interview_id      TEXT PRIMARY KEY REFERENCES interviews(id) ON DELETE CASCADE,
	panel_id          TEXT NOT NULL REFERENCES panels(id) ON DELETE CASCADE,
	summary           TEXT NOT NULL DEFAULT '',
	executive_summary TEXT NOT NULL DEFAULT '',
	sentiment         TEXT NOT NULL DEFAULT '',
	sentiment_score   JSONB,
	quality_score     JSONB,
	topics            JSONB,
	pain_points       JSONB,
	desires           JSONB,
	key_quotes        JSONB,
	follow_up_worthy  BOOLEAN,
	needs_review      BOOLEAN,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_evaluations_panel_created ON evaluations (panel_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_evaluations_sentiment_created ON evaluations (sentiment, created_at DESC);
`

// OpenPostgres connects a pool and makes sure the schema exists
func OpenPostgres(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, nil
}

type pgEvaluationRepo struct {
	pool *pgxpool.Pool
}

// NewPgEvaluationRepo creates the PostgreSQL evaluation store
func NewPgEvaluationRepo(pool *pgxpool.Pool) EvaluationStore {
	return &pgEvaluationRepo{pool: pool}
}

func (r *pgEvaluationRepo) InsertEvaluation(ctx context.Context, ev *model.RawEvaluation) (bool, error) {
	doc := storable(ev)
	args := []any{doc.InterviewID, doc.PanelID, doc.Summary, doc.ExecutiveSummary, doc.Sentiment}
	for _, v := range []any{doc.SentimentScore, doc.QualityScore, doc.Topics, doc.PainPoints, doc.Desires, doc.KeyQuotes} {
		encoded, err := jsonArg(v)
		if err != nil {
			return false, err
		}
		args = append(args, encoded)
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	args = append(args, doc.FollowUpWorthy, doc.NeedsReview, createdAt)

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO evaluations (
			interview_id, panel_id, summary, executive_summary, sentiment,
			sentiment_score, quality_score, topics, pain_points, desires, key_quotes,
			follow_up_worthy, needs_review, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb, $9::jsonb, $10::jsonb, $11::jsonb, $12, $13, $14)
		ON CONFLICT (interview_id) DO NOTHING`, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgEvaluationRepo) ListEvaluations(ctx context.Context, q EvaluationQuery) ([]model.RawEvaluation, error) {
	sql, args := evaluationSelect(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RawEvaluation
	for rows.Next() {
		var ev model.RawEvaluation
		var sentimentScore, qualityScore, topics, painPoints, desires, keyQuotes []byte
		if err := rows.Scan(
			&ev.InterviewID, &ev.PanelID, &ev.Summary, &ev.ExecutiveSummary, &ev.Sentiment,
			&sentimentScore, &qualityScore, &topics, &painPoints, &desires, &keyQuotes,
			&ev.FollowUpWorthy, &ev.NeedsReview, &ev.CreatedAt,
			&ev.PanelName, &ev.ParticipantName, &ev.ParticipantCompany, &ev.CompletedAt,
		); err != nil {
			return nil, err
		}
		ev.SentimentScore = decodeScalar(sentimentScore)
		ev.QualityScore = decodeScalar(qualityScore)
		ev.Topics = decodeList(topics)
		ev.PainPoints = decodeList(painPoints)
		ev.Desires = decodeList(desires)
		ev.KeyQuotes = decodeList(keyQuotes)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// evaluationSelect builds the joined read for q
func evaluationSelect(q EvaluationQuery) (string, []any) {
	var where []string
	var args []any
	if q.InterviewID != "" {
		args = append(args, q.InterviewID)
		where = append(where, fmt.Sprintf("e.interview_id = $%d", len(args)))
	}
	if q.PanelID != "" {
		args = append(args, q.PanelID)
		where = append(where, fmt.Sprintf("e.panel_id = $%d", len(args)))
	}
	if s := strings.ToLower(strings.TrimSpace(q.Sentiment)); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("e.sentiment = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT e.interview_id, e.panel_id, e.summary, e.executive_summary, e.sentiment,
		e.sentiment_score, e.quality_score, e.topics, e.pain_points, e.desires, e.key_quotes,
		e.follow_up_worthy, e.needs_review, e.created_at,
		COALESCE(p.name, ''), COALESCE(i.participant_name, ''), COALESCE(i.participant_company, ''), i.completed_at
	FROM evaluations e
	LEFT JOIN interviews i ON i.id = e.interview_id
	LEFT JOIN panels p ON p.id = e.panel_id`)
	if len(where) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\n\tORDER BY e.created_at DESC, e.interview_id DESC")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, "\n\tLIMIT $%d", len(args))
	}
	return b.String(), args
}

func jsonArg(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	if list, ok := v.([]any); ok && list == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb column: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func decodeScalar(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// decodeList tolerates non-array JSON by dropping it
func decodeList(raw []byte) []any {
	if len(raw) == 0 {
		return nil
	}
	var v []any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

type pgPanelRepo struct {
	pool *pgxpool.Pool
}

// NewPgPanelRepo creates the PostgreSQL panel and interview store
func NewPgPanelRepo(pool *pgxpool.Pool) PanelStore {
	return &pgPanelRepo{pool: pool}
}

func (r *pgPanelRepo) CreatePanel(ctx context.Context, panel *model.Panel) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO panels (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		panel.ID, panel.Name, panel.Description, panel.CreatedAt)
	return err
}

func (r *pgPanelRepo) GetPanel(ctx context.Context, id string) (*model.Panel, error) {
	return r.onePanel(ctx, `SELECT id, name, description, created_at FROM panels WHERE id = $1`, id)
}

func (r *pgPanelRepo) FindPanelByName(ctx context.Context, name string) (*model.Panel, error) {
	return r.onePanel(ctx, `SELECT id, name, description, created_at FROM panels
		WHERE strpos(lower(name), lower($1)) > 0
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, name)
}

func (r *pgPanelRepo) onePanel(ctx context.Context, sql string, arg string) (*model.Panel, error) {
	var p model.Panel
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPanelRepo) ListPanels(ctx context.Context) ([]model.Panel, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM panels ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	panels := []model.Panel{}
	for rows.Next() {
		var p model.Panel
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		panels = append(panels, p)
	}
	return panels, rows.Err()
}

func (r *pgPanelRepo) UpsertInterview(ctx context.Context, iv *model.Interview) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interviews (id, panel_id, participant_name, participant_company, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			participant_name = EXCLUDED.participant_name,
			participant_company = EXCLUDED.participant_company,
			completed_at = EXCLUDED.completed_at`,
		iv.ID, iv.PanelID, iv.ParticipantName, iv.ParticipantCompany, iv.CompletedAt, iv.CreatedAt)
	return err
}

func (r *pgPanelRepo) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	var iv model.Interview
	err := r.pool.QueryRow(ctx, `
		SELECT id, panel_id, participant_name, participant_company, completed_at, created_at
		FROM interviews WHERE id = $1`, id).
		Scan(&iv.ID, &iv.PanelID, &iv.ParticipantName, &iv.ParticipantCompany, &iv.CompletedAt, &iv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}
