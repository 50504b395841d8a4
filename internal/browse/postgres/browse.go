package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/browse"
	"github.com/jmoiron/sqlx"
)

// BrowseRepository runs the aggregate read queries behind the folder tree and
// the dashboard with sqlx, so they stay plain SQL.
type BrowseRepository struct {
	db *sqlx.DB
}

func NewBrowseRepository(db *sqlx.DB) browse.RepositoryAPI {
	return &BrowseRepository{db: db}
}

func departmentClause(scope browse.Scope, prefix string) (string, []interface{}) {
	if scope.DepartmentID == nil {
		return "", nil
	}
	return " " + prefix + " c.department_id = ?", []interface{}{*scope.DepartmentID}
}

// FolderCounts groups files by the DateFolder they live in. The category
// comes from the folder chain rather than the file row.
func (r *BrowseRepository) FolderCounts(ctx context.Context, scope browse.Scope) ([]browse.FolderCount, error) {
	where, args := departmentClause(scope, "WHERE")
	query := `
		SELECT c.name AS category, yf.year AS year, mo.month AS month, df.day AS day, COUNT(mf.id) AS file_count
		FROM medical_files mf
		JOIN date_folders df ON df.id = mf.date_folder_id
		JOIN month_folders mo ON mo.id = df.month_folder_id
		JOIN year_folders yf ON yf.id = mo.year_folder_id
		JOIN categories c ON c.id = yf.category_id` + where + `
		GROUP BY c.name, yf.year, mo.month, df.day
		HAVING COUNT(mf.id) > 0
		ORDER BY c.name, yf.year DESC, mo.month, df.day`

	var counts []browse.FolderCount
	if err := r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return counts, nil
}

// ProvisionedCategories names the categories that own at least one year
// folder.
func (r *BrowseRepository) ProvisionedCategories(ctx context.Context, scope browse.Scope) ([]string, error) {
	where, args := departmentClause(scope, "WHERE")
	query := `
		SELECT DISTINCT c.name
		FROM categories c
		JOIN year_folders yf ON yf.category_id = c.id` + where + `
		ORDER BY c.name`

	var names []string
	if err := r.db.SelectContext(ctx, &names, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *BrowseRepository) Totals(ctx context.Context, scope browse.Scope) (browse.Totals, error) {
	var totals browse.Totals

	where, args := departmentClause(scope, "WHERE")
	files := `
		SELECT COUNT(mf.id) AS total_files, CAST(COALESCE(SUM(mf.size), 0) AS BIGINT) AS storage_used
		FROM medical_files mf
		JOIN categories c ON c.id = mf.category_id` + where
	if err := r.db.GetContext(ctx, &totals, r.db.Rebind(files), args...); err != nil {
		return totals, err
	}

	categories := `SELECT COUNT(c.id) FROM categories c` + where
	if err := r.db.GetContext(ctx, &totals.CategoryCount, r.db.Rebind(categories), args...); err != nil {
		return totals, err
	}
	return totals, nil
}

func (r *BrowseRepository) CategoryStats(ctx context.Context, scope browse.Scope) ([]browse.CategoryStat, error) {
	where, args := departmentClause(scope, "WHERE")
	query := `
		SELECT c.name AS name, d.name AS department, COUNT(mf.id) AS file_count
		FROM categories c
		JOIN departments d ON d.id = c.department_id
		LEFT JOIN medical_files mf ON mf.category_id = c.id` + where + `
		GROUP BY c.id, c.name, d.name
		ORDER BY c.name, c.id`

	var stats []browse.CategoryStat
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *BrowseRepository) RecentUploads(ctx context.Context, scope browse.Scope, since time.Time, limit int) ([]browse.RecentUpload, error) {
	where, args := departmentClause(scope, "AND")
	query := `
		SELECT mf.id AS id, mf.name AS name, c.name AS category, mf.size AS size,
			u.name AS uploader_name, u.username AS uploader_username, mf.uploaded_at AS uploaded_at
		FROM medical_files mf
		JOIN categories c ON c.id = mf.category_id
		JOIN users u ON u.id = mf.uploaded_by
		WHERE mf.uploaded_at >= ?` + where + `
		ORDER BY mf.uploaded_at DESC, mf.id DESC
		LIMIT ?`

	params := append([]interface{}{since}, args...)
	params = append(params, limit)

	var uploads []browse.RecentUpload
	if err := r.db.SelectContext(ctx, &uploads, r.db.Rebind(query), params...); err != nil {
		return nil, err
	}
	return uploads, nil
}
