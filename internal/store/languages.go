package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/codetype/internal/model"
)

const languageColumns = `id, name, display_name, icon, snippet_count`

func scanLanguage(row interface{ Scan(...any) error }) (model.Language, error) {
	var l model.Language
	err := row.Scan(&l.ID, &l.Name, &l.DisplayName, &l.Icon, &l.SnippetCount)
	return l, err
}

// ListLanguages returns all languages ordered by display name.
func (s *Store) ListLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := s.query(ctx, `SELECT `+languageColumns+` FROM languages ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetLanguage returns a language by id.
func (s *Store) GetLanguage(ctx context.Context, id string) (model.Language, error) {
	l, err := scanLanguage(s.queryRow(ctx, `SELECT `+languageColumns+` FROM languages WHERE id = ?`, id))
	if err != nil {
		return model.Language{}, notFound(err)
	}
	return l, nil
}

// GetLanguageByName returns a language by its short name.
func (s *Store) GetLanguageByName(ctx context.Context, name string) (model.Language, error) {
	l, err := scanLanguage(s.queryRow(ctx, `SELECT `+languageColumns+` FROM languages WHERE name = ?`, name))
	if err != nil {
		return model.Language{}, notFound(err)
	}
	return l, nil
}

// CreateLanguage inserts a language with a zero snippet count.
func (s *Store) CreateLanguage(ctx context.Context, l model.Language) (model.Language, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.SnippetCount = 0
	if _, err := s.exec(ctx,
		`INSERT INTO languages (id, name, display_name, icon, snippet_count) VALUES (?, ?, ?, ?, 0)`,
		l.ID, l.Name, l.DisplayName, l.Icon,
	); err != nil {
		return model.Language{}, err
	}
	return l, nil
}

const snippetColumns = `id, language_id, title, code, difficulty, created_at`

func scanSnippet(row interface{ Scan(...any) error }) (model.Snippet, error) {
	var sn model.Snippet
	var createdAt string
	if err := row.Scan(&sn.ID, &sn.LanguageID, &sn.Title, &sn.Code, &sn.Difficulty, &createdAt); err != nil {
		return model.Snippet{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return model.Snippet{}, err
	}
	sn.CreatedAt = parsed
	return sn, nil
}

// ListSnippets returns snippets filtered by language and difficulty.
// Empty filters match everything.
func (s *Store) ListSnippets(ctx context.Context, languageID, difficulty string) ([]model.Snippet, error) {
	rows, err := s.query(ctx,
		`SELECT `+snippetColumns+` FROM code_snippets
		 WHERE (? = '' OR language_id = ?) AND (? = '' OR difficulty = ?)
		 ORDER BY title, id`,
		languageID, languageID, difficulty, difficulty,
	)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSnippet returns a snippet by id.
func (s *Store) GetSnippet(ctx context.Context, id string) (model.Snippet, error) {
	sn, err := scanSnippet(s.queryRow(ctx, `SELECT `+snippetColumns+` FROM code_snippets WHERE id = ?`, id))
	if err != nil {
		return model.Snippet{}, notFound(err)
	}
	return sn, nil
}

// CreateSnippet inserts a snippet and bumps its language's snippet count.
func (s *Store) CreateSnippet(ctx context.Context, sn model.Snippet) (model.Snippet, error) {
	if sn.ID == "" {
		sn.ID = uuid.NewString()
	}
	if sn.CreatedAt.IsZero() {
		sn.CreatedAt = time.Now().UTC()
	}
	if sn.Difficulty == "" {
		sn.Difficulty = model.DifficultyBeginner
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Snippet{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, s.q(`UPDATE languages SET snippet_count = snippet_count + 1 WHERE id = ?`), sn.LanguageID)
	if err != nil {
		return model.Snippet{}, err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return model.Snippet{}, err
	}
	if n == 0 {
		err = ErrNotFound
		return model.Snippet{}, err
	}
	if _, err = tx.ExecContext(ctx,
		s.q(`INSERT INTO code_snippets (id, language_id, title, code, difficulty, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		sn.ID, sn.LanguageID, sn.Title, sn.Code, sn.Difficulty, formatTime(sn.CreatedAt),
	); err != nil {
		return model.Snippet{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.Snippet{}, err
	}
	return sn, nil
}
