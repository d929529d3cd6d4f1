package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/document"
	"github.com/trezcool/schooldocs/storage/database/inmem"
)

// NewDocumentService returns a document.Service backed by an in-memory repository.
func NewDocumentService(t *testing.T, store document.FileStore) (*document.Service, document.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewDocumentService() failed: %v", err)
	}
	repo := inmemdb.NewDocumentRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	return document.NewService(repo, store, validate, translator), repo
}

func CreateMainCategory(t *testing.T, repo document.Repository, name, nameAr string, createdAt ...time.Time) document.MainCategory {
	cat, err := repo.CreateMainCategory(context.Background(), document.MainCategory{
		Name:      name,
		NameAr:    nameAr,
		CreatedAt: tstamp(createdAt),
	})
	if err != nil {
		t.Fatalf("CreateMainCategory() failed: %v", err)
	}
	return cat
}

func CreateSubCategory(t *testing.T, repo document.Repository, mainID, name, nameAr string, createdAt ...time.Time) document.SubCategory {
	cat, err := repo.CreateSubCategory(context.Background(), document.SubCategory{
		MainCategoryID: mainID,
		Name:           name,
		NameAr:         nameAr,
		CreatedAt:      tstamp(createdAt),
	})
	if err != nil {
		t.Fatalf("CreateSubCategory() failed: %v", err)
	}
	return cat
}

// CreateDocument saves a document of the main category `mainID` (and of `subID` if not empty).
// An empty `remoteURL` makes a document without remote location.
func CreateDocument(t *testing.T, repo document.Repository, mainID, subID, title, ext, remoteURL string, createdAt ...time.Time) document.Document {
	doc, err := repo.CreateDocument(context.Background(), document.Document{
		Title:          title,
		FileName:       title + "." + ext,
		OriginalName:   title + "." + ext,
		FileExtension:  null.NewString(ext, ext != ""),
		RemoteURL:      null.NewString(remoteURL, remoteURL != ""),
		MimeType:       "application/octet-stream",
		MainCategoryID: mainID,
		SubCategoryID:  null.NewString(subID, subID != ""),
		CreatedAt:      tstamp(createdAt),
	})
	if err != nil {
		t.Fatalf("CreateDocument() failed: %v", err)
	}
	return doc
}

func tstamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}
