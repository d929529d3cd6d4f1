package document

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldocs/core"
)

var (
	// errors
	ErrNotFound         = errors.New("category not found")
	ErrDocumentNotFound = errors.New("document not found")
)

type (
	// Repository is the data-access layer of categories and documents.
	// Unknown or malformed ids yield ErrNotFound (categories) or ErrDocumentNotFound.
	Repository interface {
		// GetMainCategory returns the category with its subcategories, by creation date.
		GetMainCategory(ctx context.Context, id string) (MainCategory, error)
		GetSubCategory(ctx context.Context, id string) (SubCategory, error)
		// QueryMainCategories returns all main categories with their subcategories, by creation date.
		QueryMainCategories(ctx context.Context) ([]MainCategory, error)
		// QuerySubCategories returns the subcategories of a main category, by creation date.
		QuerySubCategories(ctx context.Context, mainID string) ([]SubCategory, error)
		// QueryDocuments returns the documents matching the filter, by creation date.
		QueryDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		CreateMainCategory(ctx context.Context, cat MainCategory) (MainCategory, error)
		CreateSubCategory(ctx context.Context, cat SubCategory) (SubCategory, error)
		CreateDocument(ctx context.Context, doc Document) (Document, error)
	}

	// FileStore keeps the bytes of uploaded documents.
	FileStore interface {
		Upload(ctx context.Context, r io.Reader, params UploadParams) (StoredFile, error)
		Delete(ctx context.Context, remoteID string) error
	}

	UploadParams struct {
		Folders  []string // path segments below the store's root folder
		FileName string
		MimeType string
	}

	StoredFile struct {
		URL      string
		RemoteID string
		Size     int64
	}

	Service struct {
		repo       Repository
		store      FileStore
		validate   *validator.Validate
		translator ut.Translator
	}
)

// NewService returns a document service. `store` may be nil when uploads are not needed.
func NewService(repo Repository, store FileStore, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, store: store, validate: validate, translator: translator}
}

// ResolveFolder resolves `id` to a main category, or else a subcategory, with the flat list of its documents.
// A main category holds its direct documents followed by the documents of each of its subcategories.
func (svc *Service) ResolveFolder(ctx context.Context, id string) (Folder, error) {
	id = core.CleanString(id, true /* lower */)

	mainCat, err := svc.repo.GetMainCategory(ctx, id)
	switch {
	case err == nil:
		return svc.resolveMainFolder(ctx, mainCat)
	case !errors.Is(err, ErrNotFound):
		return Folder{}, pkgerrors.Wrap(err, "getting main category")
	}

	subCat, err := svc.repo.GetSubCategory(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Folder{}, ErrNotFound
		}
		return Folder{}, pkgerrors.Wrap(err, "getting subcategory")
	}
	docs, err := svc.repo.QueryDocuments(ctx, DocumentFilter{SubCategoryIDs: []string{subCat.ID}})
	if err != nil {
		return Folder{}, pkgerrors.Wrap(err, "querying subcategory documents")
	}
	return Folder{ID: subCat.ID, Kind: KindSubCategory, Name: subCat.LocalizedName(), Documents: docs}, nil
}

func (svc *Service) resolveMainFolder(ctx context.Context, cat MainCategory) (Folder, error) {
	docs, err := svc.repo.QueryDocuments(ctx, DocumentFilter{MainCategoryID: cat.ID, DirectOnly: true})
	if err != nil {
		return Folder{}, pkgerrors.Wrap(err, "querying direct documents")
	}

	if len(cat.SubCategories) > 0 {
		ids := make([]string, 0, len(cat.SubCategories))
		for _, sc := range cat.SubCategories {
			ids = append(ids, sc.ID)
		}
		subDocs, err := svc.repo.QueryDocuments(ctx, DocumentFilter{SubCategoryIDs: ids})
		if err != nil {
			return Folder{}, pkgerrors.Wrap(err, "querying subcategory documents")
		}
		docs = append(docs, orderBySubCategory(subDocs, ids)...)
	}

	return Folder{ID: cat.ID, Kind: KindMainCategory, Name: cat.LocalizedName(), Documents: dedupe(docs)}, nil
}

// orderBySubCategory groups docs by subcategory, following the order of `subIDs`.
// Documents keep their relative order within a group.
func orderBySubCategory(docs []Document, subIDs []string) []Document {
	groups := make(map[string][]Document, len(subIDs))
	for _, doc := range docs {
		groups[doc.SubCategoryID.String] = append(groups[doc.SubCategoryID.String], doc)
	}
	ordered := make([]Document, 0, len(docs))
	for _, id := range subIDs {
		ordered = append(ordered, groups[id]...)
	}
	return ordered
}

func dedupe(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out
}

func (svc *Service) QueryCategories(ctx context.Context) ([]MainCategory, error) {
	return svc.repo.QueryMainCategories(ctx)
}

func (svc *Service) GetDocument(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, core.CleanString(id, true /* lower */))
}

// CreateCategory creates a MainCategory, or a SubCategory of nc.ParentID when set.
// It returns the created category's id.
func (svc *Service) CreateCategory(ctx context.Context, nc NewCategory) (string, error) {
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return "", core.TranslateValidationErrors(err, svc.translator)
	}

	now := time.Now().UTC()
	desc := null.NewString(nc.Description, nc.Description != "")

	if nc.ParentID == "" {
		cat, err := svc.repo.CreateMainCategory(ctx, MainCategory{
			Name:        nc.Name,
			NameAr:      nc.NameAr,
			Description: desc,
			CreatedAt:   now,
		})
		return cat.ID, err
	}

	if _, err := svc.repo.GetMainCategory(ctx, nc.ParentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", core.NewValidationError(err, core.FieldError{Field: "parent_id", Error: err.Error()})
		}
		return "", err
	}
	cat, err := svc.repo.CreateSubCategory(ctx, SubCategory{
		MainCategoryID: nc.ParentID,
		Name:           nc.Name,
		NameAr:         nc.NameAr,
		Description:    desc,
		CreatedAt:      now,
	})
	return cat.ID, err
}

// Upload stores the content of `r` in the FileStore, under the folder of its category, and saves the Document.
func (svc *Service) Upload(ctx context.Context, nd NewDocument, r io.Reader) (Document, error) {
	if svc.store == nil {
		return Document{}, errors.New("no file store configured")
	}

	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Document{}, core.TranslateValidationErrors(err, svc.translator)
	}

	mainCat, err := svc.repo.GetMainCategory(ctx, nd.MainCategoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, core.NewValidationError(err, core.FieldError{Field: "main_category_id", Error: err.Error()})
		}
		return Document{}, err
	}
	folders := []string{mainCat.LocalizedName()}

	var subID null.String
	if nd.SubCategoryID != "" {
		subCat, err := svc.repo.GetSubCategory(ctx, nd.SubCategoryID)
		if err == nil && subCat.MainCategoryID != mainCat.ID {
			err = ErrNotFound
		}
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Document{}, core.NewValidationError(err, core.FieldError{Field: "sub_category_id", Error: err.Error()})
			}
			return Document{}, err
		}
		folders = append(folders, subCat.LocalizedName())
		subID = null.StringFrom(subCat.ID)
	}

	stored, err := svc.store.Upload(ctx, r, UploadParams{Folders: folders, FileName: nd.OriginalName, MimeType: nd.MimeType})
	if err != nil {
		return Document{}, pkgerrors.Wrap(err, "uploading file")
	}

	size := nd.FileSize
	if stored.Size > 0 {
		size = stored.Size
	}
	doc := Document{
		Title:          nd.Title,
		TitleAr:        null.NewString(nd.TitleAr, nd.TitleAr != ""),
		FileName:       nd.OriginalName,
		OriginalName:   nd.OriginalName,
		RemoteURL:      null.StringFrom(stored.URL),
		RemoteID:       null.NewString(stored.RemoteID, stored.RemoteID != ""),
		FileSize:       size,
		MimeType:       nd.MimeType,
		MainCategoryID: mainCat.ID,
		SubCategoryID:  subID,
		CreatedAt:      time.Now().UTC(),
	}
	if ext := cleanExtension(path.Ext(nd.OriginalName)); ext != "" {
		doc.FileExtension = null.StringFrom(ext)
	}

	saved, err := svc.repo.CreateDocument(ctx, doc)
	if err != nil {
		// do not leave an orphan file behind
		if stored.RemoteID != "" {
			if dErr := svc.store.Delete(ctx, stored.RemoteID); dErr != nil {
				return Document{}, pkgerrors.Wrapf(err, "saving document (orphan file %s: %v)", stored.RemoteID, dErr)
			}
		}
		return Document{}, pkgerrors.Wrap(err, "saving document")
	}
	return saved, nil
}
