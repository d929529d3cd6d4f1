package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/schooldocs/core/document"
)

type documentRepository struct {
	db *documentTables
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) nextSeq() int {
	repo.db.seq++
	return repo.db.seq
}

func sortedValues[T any](table map[string]*row[T], createdAt func(T) time.Time, keep func(T) bool) []T {
	rows := make([]*row[T], 0, len(table))
	for _, r := range table {
		if keep == nil || keep(r.val) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := createdAt(rows[i].val), createdAt(rows[j].val)
		if ci.Equal(cj) {
			return rows[i].seq < rows[j].seq
		}
		return ci.Before(cj)
	})
	vals := make([]T, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r.val)
	}
	return vals
}

func mainCreatedAt(c document.MainCategory) time.Time { return c.CreatedAt }
func subCreatedAt(c document.SubCategory) time.Time   { return c.CreatedAt }
func docCreatedAt(d document.Document) time.Time      { return d.CreatedAt }

func (repo *documentRepository) GetMainCategory(_ context.Context, id string) (document.MainCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	r, ok := repo.db.mainCategories[id]
	if !ok {
		return document.MainCategory{}, document.ErrNotFound
	}
	cat := r.val
	cat.SubCategories = repo.subCategoriesOf(id)
	return cat, nil
}

func (repo *documentRepository) GetSubCategory(_ context.Context, id string) (document.SubCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.subCategories[id]; ok {
		return r.val, nil
	}
	return document.SubCategory{}, document.ErrNotFound
}

func (repo *documentRepository) subCategoriesOf(mainID string) []document.SubCategory {
	return sortedValues(repo.db.subCategories, subCreatedAt, func(c document.SubCategory) bool {
		return c.MainCategoryID == mainID
	})
}

func (repo *documentRepository) QueryMainCategories(_ context.Context) ([]document.MainCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cats := sortedValues(repo.db.mainCategories, mainCreatedAt, nil)
	for i := range cats {
		cats[i].SubCategories = repo.subCategoriesOf(cats[i].ID)
	}
	return cats, nil
}

func (repo *documentRepository) QuerySubCategories(_ context.Context, mainID string) ([]document.SubCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.subCategoriesOf(mainID), nil
}

func (repo *documentRepository) QueryDocuments(_ context.Context, filter document.DocumentFilter) ([]document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subIDs := make(map[string]struct{}, len(filter.SubCategoryIDs))
	for _, id := range filter.SubCategoryIDs {
		subIDs[id] = struct{}{}
	}

	return sortedValues(repo.db.documents, docCreatedAt, func(d document.Document) bool {
		if filter.MainCategoryID != "" {
			if d.MainCategoryID != filter.MainCategoryID {
				return false
			}
			if filter.DirectOnly && d.SubCategoryID.Valid {
				return false
			}
		}
		if len(filter.SubCategoryIDs) > 0 {
			if _, ok := subIDs[d.SubCategoryID.String]; !ok || !d.SubCategoryID.Valid {
				return false
			}
		}
		return true
	}), nil
}

func (repo *documentRepository) GetDocument(_ context.Context, id string) (document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.documents[id]; ok {
		return r.val, nil
	}
	return document.Document{}, document.ErrDocumentNotFound
}

func (repo *documentRepository) CreateMainCategory(_ context.Context, cat document.MainCategory) (document.MainCategory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	cat.SubCategories = nil
	repo.db.mainCategories[cat.ID] = &row[document.MainCategory]{seq: repo.nextSeq(), val: cat}
	cat.SubCategories = []document.SubCategory{}
	return cat, nil
}

func (repo *documentRepository) CreateSubCategory(_ context.Context, cat document.SubCategory) (document.SubCategory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.mainCategories[cat.MainCategoryID]; !ok {
		return document.SubCategory{}, document.ErrNotFound
	}
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	repo.db.subCategories[cat.ID] = &row[document.SubCategory]{seq: repo.nextSeq(), val: cat}
	return cat, nil
}

func (repo *documentRepository) CreateDocument(_ context.Context, doc document.Document) (document.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.mainCategories[doc.MainCategoryID]; !ok {
		return document.Document{}, document.ErrNotFound
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	repo.db.documents[doc.ID] = &row[document.Document]{seq: repo.nextSeq(), val: doc}
	return doc, nil
}
