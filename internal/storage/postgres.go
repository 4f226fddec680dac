package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fruzzinn/phishwatch/internal/domain"
)

// PostgresStore handles interactions with the PostgreSQL database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// InitSchema creates the phishing_sites table if it does not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS phishing_sites (
			id                 TEXT PRIMARY KEY,
			url                TEXT UNIQUE NOT NULL,
			domain             TEXT NOT NULL,
			target_page        TEXT NOT NULL,
			status             TEXT NOT NULL,
			first_detected     TIMESTAMPTZ NOT NULL,
			last_checked       TIMESTAMPTZ NOT NULL,
			ip_address         TEXT,
			country_code       TEXT,
			hosting_provider   TEXT,
			registrar          TEXT,
			registration_date  TIMESTAMPTZ,
			similarity_score   DOUBLE PRECISION NOT NULL,
			url_similarity     DOUBLE PRECISION NOT NULL,
			content_similarity DOUBLE PRECISION NOT NULL,
			visual_similarity  DOUBLE PRECISION NOT NULL,
			ml_confidence      DOUBLE PRECISION NOT NULL,
			features_detected  JSONB NOT NULL DEFAULT '[]',
			has_login_form     BOOLEAN NOT NULL DEFAULT FALSE,
			has_tamm_logo      BOOLEAN NOT NULL DEFAULT FALSE,
			form_targets       JSONB NOT NULL DEFAULT '[]',
			html_content       TEXT,
			screenshot_path    TEXT,
			is_reported        BOOLEAN NOT NULL DEFAULT FALSE,
			report_details     JSONB,
			blocked            BOOLEAN NOT NULL DEFAULT FALSE,
			notes              TEXT,
			takedown_requested TIMESTAMPTZ,
			taken_down_date    TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_phishing_sites_status ON phishing_sites (status);
		CREATE INDEX IF NOT EXISTS idx_phishing_sites_domain ON phishing_sites (domain);
		CREATE INDEX IF NOT EXISTS idx_phishing_sites_first_detected ON phishing_sites (first_detected);
	`)
	return err
}

const siteColumns = `id, url, domain, target_page, status, first_detected, last_checked,
	ip_address, country_code, hosting_provider, registrar, registration_date,
	similarity_score, url_similarity, content_similarity, visual_similarity, ml_confidence,
	features_detected, has_login_form, has_tamm_logo, form_targets,
	html_content, screenshot_path,
	is_reported, report_details, blocked, notes, takedown_requested, taken_down_date`

// Persist inserts a newly detected site. Each insert commits on its own, so
// a scan interrupted mid-batch leaves a valid prefix of results behind.
func (s *PostgresStore) Persist(ctx context.Context, record *domain.SiteRecord) error {
	features, err := json.Marshal(record.FeaturesDetected)
	if err != nil {
		return err
	}
	formTargets, err := json.Marshal(record.FormTargets)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO phishing_sites (
			id, url, domain, target_page, status, first_detected, last_checked,
			ip_address, country_code, hosting_provider, registrar, registration_date,
			similarity_score, url_similarity, content_similarity, visual_similarity, ml_confidence,
			features_detected, has_login_form, has_tamm_logo, form_targets,
			html_content, screenshot_path
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (url) DO UPDATE SET
			status = EXCLUDED.status,
			last_checked = EXCLUDED.last_checked,
			similarity_score = EXCLUDED.similarity_score,
			url_similarity = EXCLUDED.url_similarity,
			content_similarity = EXCLUDED.content_similarity,
			visual_similarity = EXCLUDED.visual_similarity,
			ml_confidence = EXCLUDED.ml_confidence,
			features_detected = EXCLUDED.features_detected,
			has_login_form = EXCLUDED.has_login_form,
			has_tamm_logo = EXCLUDED.has_tamm_logo,
			form_targets = EXCLUDED.form_targets,
			html_content = EXCLUDED.html_content,
			screenshot_path = EXCLUDED.screenshot_path`,
		record.ID, record.URL, record.Domain, record.TargetPage, record.Status,
		record.FirstDetected, record.LastChecked,
		nullStr(record.DomainInfo.IPAddress), nullStr(record.DomainInfo.CountryCode),
		nullStr(record.DomainInfo.HostingProvider), nullStr(record.DomainInfo.Registrar),
		record.DomainInfo.CreationDate,
		record.SimilarityScore, record.URLSimilarity, record.ContentSimilarity,
		record.VisualSimilarity, record.MLConfidence,
		features, record.HasLoginForm, record.HasTammLogo, formTargets,
		nullStr(record.HTMLContent), nullStr(record.ScreenshotPath),
	)
	return err
}

// FindByURL returns the record for a URL, or (nil, nil) when none exists.
func (s *PostgresStore) FindByURL(ctx context.Context, url string) (*domain.SiteRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM phishing_sites WHERE url = $1`, url)
	record, err := scanSite(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// FindByID returns the record for a site id, or (nil, nil) when none exists.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.SiteRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM phishing_sites WHERE id = $1`, id)
	record, err := scanSite(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// TouchLastChecked refreshes the last-checked timestamp of a known site.
func (s *PostgresStore) TouchLastChecked(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE phishing_sites SET last_checked = NOW() WHERE id = $1`, id)
	return err
}

// UpdateSite applies the operator-editable fields. Moving a site to
// taken-down stamps the takedown date.
func (s *PostgresStore) UpdateSite(ctx context.Context, id string, update domain.SiteUpdate) (*domain.SiteRecord, error) {
	sets := []string{"last_checked = NOW()"}
	args := []interface{}{id}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		appendSet("status", *update.Status)
		if *update.Status == domain.StatusTakenDown {
			sets = append(sets, "taken_down_date = NOW()")
		}
	}
	if update.IsReported != nil {
		appendSet("is_reported", *update.IsReported)
	}
	if update.Blocked != nil {
		appendSet("blocked", *update.Blocked)
	}
	if update.Notes != nil {
		appendSet("notes", *update.Notes)
	}

	query := fmt.Sprintf(
		`UPDATE phishing_sites SET %s WHERE id = $1 RETURNING `+siteColumns,
		strings.Join(sets, ", "))
	record, err := scanSite(s.db.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// MarkReported records a takedown report against a site.
func (s *PostgresStore) MarkReported(ctx context.Context, id string, details map[string]string) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE phishing_sites SET is_reported = TRUE, report_details = $2 WHERE id = $1`,
		id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

var sortColumns = map[string]string{
	"first_detected":   "first_detected",
	"last_checked":     "last_checked",
	"similarity_score": "similarity_score",
	"url":              "url",
	"domain":           "domain",
	"status":           "status",
}

// ListSites returns a filtered, sorted page of records plus the total count
// matching the filter.
func (s *PostgresStore) ListSites(ctx context.Context, filter domain.SiteFilter) ([]domain.SiteRecord, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	appendWhere := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		appendWhere("status = $%d", filter.Status)
	}
	if filter.TargetPage != "" {
		appendWhere("target_page = $%d", filter.TargetPage)
	}
	if filter.MinSimilarity > 0 {
		appendWhere("similarity_score >= $%d", filter.MinSimilarity)
	}
	if filter.Days > 0 {
		appendWhere("first_detected >= $%d", time.Now().UTC().AddDate(0, 0, -filter.Days))
	}
	if filter.Search != "" {
		appendWhere("(url ILIKE '%%' || $%d || '%%' OR domain ILIKE '%%' || $%[1]d || '%%')", filter.Search)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM phishing_sites WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	sortBy, ok := sortColumns[filter.SortBy]
	if !ok {
		sortBy = "first_detected"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(
		"SELECT %s FROM phishing_sites WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		siteColumns, whereClause, sortBy, order, pageSize, (page-1)*pageSize)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []domain.SiteRecord{}
	for rows.Next() {
		record, err := scanSite(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *record)
	}
	return records, total, rows.Err()
}

// Stats aggregates the persisted records: totals, per-dimension counts, and
// the daily detection trend over the last 30 days.
func (s *PostgresStore) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{
		ByTargetPage:   map[string]int{},
		ByCountry:      map[string]int{},
		ByStatus:       map[string]int{},
		DetectionTrend: map[string]int{},
	}

	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'taken-down'),
		       COALESCE(AVG(similarity_score), 0)
		FROM phishing_sites`).Scan(
		&stats.TotalSites, &stats.ActiveSites, &stats.TakenDownSites, &stats.AverageSimilarity)
	if err != nil {
		return nil, err
	}

	if err := s.groupCount(ctx, "target_page", stats.ByTargetPage); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "COALESCE(country_code, 'Unknown')", stats.ByCountry); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT first_detected::date::text, COUNT(*)
		FROM phishing_sites
		WHERE first_detected >= NOW() - INTERVAL '30 days'
		GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		stats.DetectionTrend[day] = count
	}
	return stats, rows.Err()
}

func (s *PostgresStore) groupCount(ctx context.Context, expr string, into map[string]int) error {
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM phishing_sites GROUP BY 1", expr))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func scanSite(row pgx.Row) (*domain.SiteRecord, error) {
	var r domain.SiteRecord
	var ip, country, hosting, registrar, html, screenshot, notes *string
	var features, formTargets, reportDetails []byte

	err := row.Scan(
		&r.ID, &r.URL, &r.Domain, &r.TargetPage, &r.Status,
		&r.FirstDetected, &r.LastChecked,
		&ip, &country, &hosting, &registrar, &r.DomainInfo.CreationDate,
		&r.SimilarityScore, &r.URLSimilarity, &r.ContentSimilarity,
		&r.VisualSimilarity, &r.MLConfidence,
		&features, &r.HasLoginForm, &r.HasTammLogo, &formTargets,
		&html, &screenshot,
		&r.IsReported, &reportDetails, &r.Blocked, &notes,
		&r.TakedownRequested, &r.TakenDownDate,
	)
	if err != nil {
		return nil, err
	}

	r.DomainInfo.Domain = r.Domain
	r.DomainInfo.IPAddress = deref(ip)
	r.DomainInfo.CountryCode = deref(country)
	r.DomainInfo.HostingProvider = deref(hosting)
	r.DomainInfo.Registrar = deref(registrar)
	r.HTMLContent = deref(html)
	r.ScreenshotPath = deref(screenshot)
	r.Notes = deref(notes)

	if len(features) > 0 {
		if err := json.Unmarshal(features, &r.FeaturesDetected); err != nil {
			return nil, err
		}
	}
	if len(formTargets) > 0 {
		if err := json.Unmarshal(formTargets, &r.FormTargets); err != nil {
			return nil, err
		}
	}
	if len(reportDetails) > 0 {
		if err := json.Unmarshal(reportDetails, &r.ReportDetails); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
