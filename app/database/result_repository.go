package database

import (
	"database/sql"
	"fmt"
	"time"
)

type resultRepository struct {
	db *DB
}

func NewResultRepository(db *DB) ResultRepository {
	return &resultRepository{db: db}
}

const resultColumns = `id, platform, url, creator, campaign_id, posted_at,
       views, likes, comments, engagement_rate, notes, fetched_at`

const insertResultSQL = `
	INSERT INTO results (platform, url, creator, campaign_id, posted_at,
	                     views, likes, comments, engagement_rate, notes, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id
`

func insertResultArgs(result Result) []interface{} {
	return []interface{}{
		result.Platform, result.URL, result.Creator, result.CampaignID, result.PostedAt,
		result.Views, result.Likes, result.Comments, result.EngagementRate,
		result.Notes, result.FetchedAt,
	}
}

// UpsertResult runs the check-and-write inside a single immediate
// transaction, so concurrent upserts of the same URL serialize on the write
// lock instead of both inserting.
func (r *resultRepository) UpsertResult(result Result) (*Result, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := r.scanOne(tx.QueryRow(`SELECT `+resultColumns+` FROM results WHERE url = ? ORDER BY id DESC LIMIT 1`, result.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to check existing result: %w", err)
	}

	var id int64
	if existing == nil {
		if err := tx.QueryRow(insertResultSQL, insertResultArgs(result)...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert result: %w", err)
		}
	} else {
		id = existing.ID

		creator := result.Creator
		if creator == nil {
			creator = existing.Creator
		}
		postedAt := result.PostedAt
		if postedAt == nil {
			postedAt = existing.PostedAt
		}

		_, err = tx.Exec(`
			UPDATE results
			SET platform = ?, creator = ?, campaign_id = ?, posted_at = ?,
			    views = ?, likes = ?, comments = ?, engagement_rate = ?,
			    notes = ?, fetched_at = ?
			WHERE id = ?
		`, result.Platform, creator, result.CampaignID, postedAt,
			result.Views, result.Likes, result.Comments, result.EngagementRate,
			result.Notes, result.FetchedAt, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update result: %w", err)
		}
	}

	saved, err := r.scanOne(tx.QueryRow(`SELECT `+resultColumns+` FROM results WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

func (r *resultRepository) InsertResult(result Result) (*Result, error) {
	var id int64
	if err := r.db.QueryRow(insertResultSQL, insertResultArgs(result)...).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}

	return r.GetResultByID(id)
}

func (r *resultRepository) GetResults(limit int, platform string) ([]Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results`
	args := []interface{}{}
	if platform != "" {
		query += ` WHERE platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY fetched_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (r *resultRepository) GetAllResults() ([]Result, error) {
	rows, err := r.db.Query(`SELECT ` + resultColumns + ` FROM results ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (r *resultRepository) GetResultByID(id int64) (*Result, error) {
	result, err := r.scanOne(r.db.QueryRow(`SELECT `+resultColumns+` FROM results WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}
	return result, nil
}

func (r *resultRepository) GetResultCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get result count: %w", err)
	}
	return count, nil
}

func (r *resultRepository) GetStaleResults(olderThan time.Time, limit int) ([]Result, error) {
	rows, err := r.db.Query(`
		SELECT `+resultColumns+`
		FROM results
		WHERE fetched_at < ?
		ORDER BY fetched_at ASC
		LIMIT ?
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (r *resultRepository) UpdateNote(id int64, note string) (*Result, error) {
	existing, err := r.GetResultByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	_, err = r.db.Exec(`UPDATE results SET notes = ? WHERE id = ?`, note, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return r.GetResultByID(id)
}

func (r *resultRepository) scanOne(row *sql.Row) (*Result, error) {
	result, err := scanResult(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		result, err := scanResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}

	return results, nil
}

func scanResult(scan func(dest ...interface{}) error) (*Result, error) {
	var result Result
	var creator, campaignID, notes sql.NullString
	var postedAt sql.NullTime
	var views, likes, comments sql.NullInt64

	err := scan(
		&result.ID, &result.Platform, &result.URL, &creator, &campaignID, &postedAt,
		&views, &likes, &comments, &result.EngagementRate, &notes, &result.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if creator.Valid {
		result.Creator = &creator.String
	}
	if campaignID.Valid {
		result.CampaignID = &campaignID.String
	}
	if notes.Valid {
		result.Notes = &notes.String
	}
	if postedAt.Valid {
		t := postedAt.Time.UTC()
		result.PostedAt = &t
	}
	if views.Valid {
		result.Views = &views.Int64
	}
	if likes.Valid {
		result.Likes = &likes.Int64
	}
	if comments.Valid {
		result.Comments = &comments.Int64
	}
	result.FetchedAt = result.FetchedAt.UTC()

	return &result, nil
}
