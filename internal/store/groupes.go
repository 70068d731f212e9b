package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"groupelive/shared/models"
)

// ListGroupes searches the public marketplace. Hidden profiles never
// appear; results carry review aggregates for ranking.
func (s *Store) ListGroupes(ctx context.Context, filter models.GroupeFilter) ([]*models.GroupeWithStats, error) {
	query := `
		SELECT g.id, g.user_id, g.slug, g.nom, g.description, g.ville, g.visible,
		       g.created_at, g.updated_at,
		       COALESCE(array_agg(DISTINCT ge.nom) FILTER (WHERE ge.nom IS NOT NULL), '{}') AS genres,
		       COALESCE(AVG(a.note) FILTER (WHERE a.visible), 0) AS note_moyenne,
		       COUNT(a.id) FILTER (WHERE a.visible) AS nb_avis
		FROM groupes g
		LEFT JOIN groupe_genres gg ON gg.groupe_id = g.id
		LEFT JOIN genres ge ON ge.id = gg.genre_id
		LEFT JOIN avis a ON a.groupe_id = g.id
		WHERE g.visible = TRUE
	`
	var args []any
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND (g.nom ILIKE $%d OR g.description ILIKE $%d)", len(args), len(args))
	}
	if filter.Ville != "" {
		args = append(args, filter.Ville)
		query += fmt.Sprintf(" AND LOWER(g.ville) = LOWER($%d)", len(args))
	}
	query += " GROUP BY g.id"
	if filter.Genre != "" {
		args = append(args, filter.Genre)
		query += fmt.Sprintf(" HAVING bool_or(LOWER(ge.nom) = LOWER($%d))", len(args))
	}
	query += " ORDER BY note_moyenne DESC, nb_avis DESC, g.nom ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select groupes: %w", err)
	}
	defer rows.Close()

	var out []*models.GroupeWithStats
	for rows.Next() {
		g := &models.GroupeWithStats{}
		var genres pq.StringArray
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Slug, &g.Nom, &g.Description, &g.Ville, &g.Visible,
			&g.CreatedAt, &g.UpdatedAt, &genres, &g.NoteMoyenne, &g.NbAvis,
		); err != nil {
			return nil, fmt.Errorf("scan groupe: %w", err)
		}
		g.Genres = genres
		out = append(out, g)
	}
	return out, rows.Err()
}

// GroupeBySlug returns a visible groupe profile with its genres.
func (s *Store) GroupeBySlug(ctx context.Context, slug string) (*models.GroupeWithStats, error) {
	g := &models.GroupeWithStats{}
	var genres pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT g.id, g.user_id, g.slug, g.nom, g.description, g.ville, g.visible,
		       g.created_at, g.updated_at,
		       COALESCE(array_agg(DISTINCT ge.nom) FILTER (WHERE ge.nom IS NOT NULL), '{}') AS genres,
		       COALESCE(AVG(a.note) FILTER (WHERE a.visible), 0) AS note_moyenne,
		       COUNT(a.id) FILTER (WHERE a.visible) AS nb_avis
		FROM groupes g
		LEFT JOIN groupe_genres gg ON gg.groupe_id = g.id
		LEFT JOIN genres ge ON ge.id = gg.genre_id
		LEFT JOIN avis a ON a.groupe_id = g.id
		WHERE g.slug = $1 AND g.visible = TRUE
		GROUP BY g.id
	`, slug).Scan(
		&g.ID, &g.UserID, &g.Slug, &g.Nom, &g.Description, &g.Ville, &g.Visible,
		&g.CreatedAt, &g.UpdatedAt, &genres, &g.NoteMoyenne, &g.NbAvis,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select groupe: %w", err)
	}
	g.Genres = genres
	return g, nil
}

// GroupeIDBySlug resolves a slug regardless of visibility, for the
// groupe-scoped review path.
func (s *Store) GroupeIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM groupes WHERE slug = $1
	`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrGroupeNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup groupe: %w", err)
	}
	return id, nil
}
