package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/document"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	mainCategoryColumns = []string{"id", "name", "name_ar", "description", "created_at"}
	subCategoryColumns  = []string{"id", "main_category_id", "name", "name_ar", "description", "created_at"}
	documentColumns     = []string{
		"id", "title", "title_ar", "file_name", "original_name", "file_extension", "remote_url", "remote_id",
		"file_size", "mime_type", "main_category_id", "sub_category_id", "created_at",
	}
)

type (
	mainCategoryRow struct {
		ID          string      `db:"id"`
		Name        string      `db:"name"`
		NameAr      string      `db:"name_ar"`
		Description null.String `db:"description"`
		CreatedAt   time.Time   `db:"created_at"`
	}

	subCategoryRow struct {
		ID             string      `db:"id"`
		MainCategoryID string      `db:"main_category_id"`
		Name           string      `db:"name"`
		NameAr         string      `db:"name_ar"`
		Description    null.String `db:"description"`
		CreatedAt      time.Time   `db:"created_at"`
	}

	documentRow struct {
		ID             string      `db:"id"`
		Title          string      `db:"title"`
		TitleAr        null.String `db:"title_ar"`
		FileName       string      `db:"file_name"`
		OriginalName   string      `db:"original_name"`
		FileExtension  null.String `db:"file_extension"`
		RemoteURL      null.String `db:"remote_url"`
		RemoteID       null.String `db:"remote_id"`
		FileSize       int64       `db:"file_size"`
		MimeType       string      `db:"mime_type"`
		MainCategoryID string      `db:"main_category_id"`
		SubCategoryID  null.String `db:"sub_category_id"`
		CreatedAt      time.Time   `db:"created_at"`
	}
)

func (r mainCategoryRow) toModel() document.MainCategory {
	return document.MainCategory{
		ID:          r.ID,
		Name:        r.Name,
		NameAr:      r.NameAr,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r subCategoryRow) toModel() document.SubCategory {
	return document.SubCategory{
		ID:             r.ID,
		MainCategoryID: r.MainCategoryID,
		Name:           r.Name,
		NameAr:         r.NameAr,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

func (r documentRow) toModel() document.Document {
	return document.Document{
		ID:             r.ID,
		Title:          r.Title,
		TitleAr:        r.TitleAr,
		FileName:       r.FileName,
		OriginalName:   r.OriginalName,
		FileExtension:  r.FileExtension,
		RemoteURL:      r.RemoteURL,
		RemoteID:       r.RemoteID,
		FileSize:       r.FileSize,
		MimeType:       r.MimeType,
		MainCategoryID: r.MainCategoryID,
		SubCategoryID:  r.SubCategoryID,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type documentRepository struct {
	db core.DBExecutor
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db core.DBExecutor) document.Repository {
	return &documentRepository{db: db}
}

// validID reports whether `id` can be compared with a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (repo *documentRepository) get(ctx context.Context, dest interface{}, query sq.SelectBuilder) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return repo.db.GetContext(ctx, dest, q, args...)
}

func (repo *documentRepository) selectAll(ctx context.Context, dest interface{}, query sq.SelectBuilder) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return repo.db.SelectContext(ctx, dest, q, args...)
}

func (repo *documentRepository) insert(ctx context.Context, query sq.InsertBuilder) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, q, args...)
	return err
}

func (repo *documentRepository) GetMainCategory(ctx context.Context, id string) (document.MainCategory, error) {
	if !validID(id) {
		return document.MainCategory{}, document.ErrNotFound
	}
	var row mainCategoryRow
	err := repo.get(ctx, &row, psql.Select(mainCategoryColumns...).From("main_categories").Where(sq.Eq{"id": id}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.MainCategory{}, document.ErrNotFound
		}
		return document.MainCategory{}, errors.Wrap(err, "getting main category")
	}

	cat := row.toModel()
	if cat.SubCategories, err = repo.QuerySubCategories(ctx, cat.ID); err != nil {
		return document.MainCategory{}, err
	}
	return cat, nil
}

func (repo *documentRepository) GetSubCategory(ctx context.Context, id string) (document.SubCategory, error) {
	if !validID(id) {
		return document.SubCategory{}, document.ErrNotFound
	}
	var row subCategoryRow
	err := repo.get(ctx, &row, psql.Select(subCategoryColumns...).From("sub_categories").Where(sq.Eq{"id": id}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.SubCategory{}, document.ErrNotFound
		}
		return document.SubCategory{}, errors.Wrap(err, "getting subcategory")
	}
	return row.toModel(), nil
}

func (repo *documentRepository) QueryMainCategories(ctx context.Context) ([]document.MainCategory, error) {
	var mainRows []mainCategoryRow
	err := repo.selectAll(ctx, &mainRows, psql.Select(mainCategoryColumns...).From("main_categories").OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return nil, errors.Wrap(err, "querying main categories")
	}

	var subRows []subCategoryRow
	err = repo.selectAll(ctx, &subRows, psql.Select(subCategoryColumns...).From("sub_categories").OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return nil, errors.Wrap(err, "querying subcategories")
	}
	subs := make(map[string][]document.SubCategory, len(mainRows))
	for _, r := range subRows {
		subs[r.MainCategoryID] = append(subs[r.MainCategoryID], r.toModel())
	}

	cats := make([]document.MainCategory, 0, len(mainRows))
	for _, r := range mainRows {
		cat := r.toModel()
		cat.SubCategories = subs[cat.ID]
		if cat.SubCategories == nil {
			cat.SubCategories = []document.SubCategory{}
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func (repo *documentRepository) QuerySubCategories(ctx context.Context, mainID string) ([]document.SubCategory, error) {
	if !validID(mainID) {
		return []document.SubCategory{}, nil
	}
	var rows []subCategoryRow
	query := psql.Select(subCategoryColumns...).
		From("sub_categories").
		Where(sq.Eq{"main_category_id": mainID}).
		OrderBy("created_at ASC", "id ASC")
	if err := repo.selectAll(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying subcategories")
	}

	cats := make([]document.SubCategory, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, r.toModel())
	}
	return cats, nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, filter document.DocumentFilter) ([]document.Document, error) {
	query := psql.Select(documentColumns...).From("documents").OrderBy("created_at ASC", "id ASC")

	if filter.MainCategoryID != "" {
		if !validID(filter.MainCategoryID) {
			return []document.Document{}, nil
		}
		query = query.Where(sq.Eq{"main_category_id": filter.MainCategoryID})
		if filter.DirectOnly {
			query = query.Where(sq.Eq{"sub_category_id": nil})
		}
	}
	if len(filter.SubCategoryIDs) > 0 {
		ids := make([]string, 0, len(filter.SubCategoryIDs))
		for _, id := range filter.SubCategoryIDs {
			if validID(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return []document.Document{}, nil
		}
		query = query.Where(sq.Eq{"sub_category_id": ids})
	}

	var rows []documentRow
	if err := repo.selectAll(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	docs := make([]document.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.toModel())
	}
	return docs, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	if !validID(id) {
		return document.Document{}, document.ErrDocumentNotFound
	}
	var row documentRow
	err := repo.get(ctx, &row, psql.Select(documentColumns...).From("documents").Where(sq.Eq{"id": id}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Document{}, document.ErrDocumentNotFound
		}
		return document.Document{}, errors.Wrap(err, "getting document")
	}
	return row.toModel(), nil
}

func (repo *documentRepository) CreateMainCategory(ctx context.Context, cat document.MainCategory) (document.MainCategory, error) {
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	cat.CreatedAt = cat.CreatedAt.UTC()
	query := psql.Insert("main_categories").
		Columns(mainCategoryColumns...).
		Values(cat.ID, cat.Name, cat.NameAr, cat.Description, cat.CreatedAt)
	if err := repo.insert(ctx, query); err != nil {
		return document.MainCategory{}, errors.Wrap(err, "creating main category")
	}
	cat.SubCategories = []document.SubCategory{}
	return cat, nil
}

func (repo *documentRepository) CreateSubCategory(ctx context.Context, cat document.SubCategory) (document.SubCategory, error) {
	if !validID(cat.MainCategoryID) {
		return document.SubCategory{}, document.ErrNotFound
	}
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	cat.CreatedAt = cat.CreatedAt.UTC()
	query := psql.Insert("sub_categories").
		Columns(subCategoryColumns...).
		Values(cat.ID, cat.MainCategoryID, cat.Name, cat.NameAr, cat.Description, cat.CreatedAt)
	if err := repo.insert(ctx, query); err != nil {
		return document.SubCategory{}, errors.Wrap(err, "creating subcategory")
	}
	return cat, nil
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	if !validID(doc.MainCategoryID) {
		return document.Document{}, document.ErrNotFound
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	query := psql.Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.Title, doc.TitleAr, doc.FileName, doc.OriginalName, doc.FileExtension, doc.RemoteURL,
			doc.RemoteID, doc.FileSize, doc.MimeType, doc.MainCategoryID, doc.SubCategoryID, doc.CreatedAt,
		)
	if err := repo.insert(ctx, query); err != nil {
		return document.Document{}, errors.Wrap(err, "creating document")
	}
	return doc, nil
}
