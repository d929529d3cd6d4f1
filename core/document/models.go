package document

import (
	"path"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldocs/core"
)

// DefaultExtension is used for documents whose extension cannot be determined.
const DefaultExtension = "bin"

// Folder kinds
const (
	KindMainCategory = "main"
	KindSubCategory  = "sub"
)

type MainCategory struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	NameAr        string        `json:"name_ar"`
	Description   null.String   `json:"description"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	SubCategories []SubCategory `json:"sub_categories"`
}

func (c MainCategory) LocalizedName() string { return LocalizedName(c.Name, c.NameAr) }

type SubCategory struct {
	ID             string      `json:"id"`
	MainCategoryID string      `json:"main_category_id"`
	Name           string      `json:"name"`
	NameAr         string      `json:"name_ar"`
	Description    null.String `json:"description"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
}

func (c SubCategory) LocalizedName() string { return LocalizedName(c.Name, c.NameAr) }

// Document is the read-only metadata of an uploaded file.
type Document struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	TitleAr        null.String `json:"title_ar"`
	FileName       string      `json:"file_name"`
	OriginalName   string      `json:"original_name"`
	FileExtension  null.String `json:"file_extension"`
	RemoteURL      null.String `json:"remote_url"` // absent: the file cannot be fetched
	RemoteID       null.String `json:"remote_id"`
	FileSize       int64       `json:"file_size"`
	MimeType       string      `json:"mime_type"`
	MainCategoryID string      `json:"main_category_id"`
	SubCategoryID  null.String `json:"sub_category_id"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
}

// HasRemoteLocation reports whether the document's bytes can be fetched.
func (d Document) HasRemoteLocation() bool {
	return d.RemoteURL.Valid && core.CleanString(d.RemoteURL.String) != ""
}

// DisplayTitle returns the arabic title if set, else the title.
func (d Document) DisplayTitle() string {
	return LocalizedName(d.Title, d.TitleAr.String)
}

// Extension returns the extension (without dot) used when serving the file.
// Lookup order: FileExtension, OriginalName's extension, MimeType, DefaultExtension.
func (d Document) Extension() string {
	if ext := cleanExtension(d.FileExtension.String); ext != "" {
		return ext
	}
	if ext := cleanExtension(path.Ext(d.OriginalName)); ext != "" {
		return ext
	}
	if ext := extensionFromMimeType(d.MimeType); ext != "" {
		return ext
	}
	return DefaultExtension
}

// StoredExtension returns FileExtension as stored (without leading dot), else DefaultExtension.
// Nothing is inferred.
func (d Document) StoredExtension() string {
	if ext := strings.TrimPrefix(core.CleanString(d.FileExtension.String), "."); ext != "" {
		return ext
	}
	return DefaultExtension
}

// DisplayFileName returns "{DisplayTitle}.{Extension}".
func (d Document) DisplayFileName() string {
	return d.DisplayTitle() + "." + d.Extension()
}

// Folder is a resolved export target: a category with the flat list of its documents.
type Folder struct {
	ID        string
	Kind      string
	Name      string // localized
	Documents []Document
}

// NewDocument contains information needed to upload a new Document.
type NewDocument struct {
	Title          string `json:"title" validate:"required,max=255"`
	TitleAr        string `json:"title_ar" validate:"max=255"`
	OriginalName   string `json:"original_name" validate:"required,max=255"`
	MimeType       string `json:"mime_type"`
	FileSize       int64  `json:"file_size" validate:"gte=0"`
	MainCategoryID string `json:"main_category_id" validate:"required,uuid"`
	SubCategoryID  string `json:"sub_category_id" validate:"omitempty,uuid"`
}

func (nd *NewDocument) Clean() {
	nd.Title = core.CleanString(nd.Title)
	nd.TitleAr = core.CleanString(nd.TitleAr)
	nd.OriginalName = core.CleanString(nd.OriginalName)
	nd.MimeType = core.CleanString(nd.MimeType, true /* lower */)
	nd.MainCategoryID = core.CleanString(nd.MainCategoryID, true /* lower */)
	nd.SubCategoryID = core.CleanString(nd.SubCategoryID, true /* lower */)
}

// NewCategory contains information needed to create a MainCategory or, with ParentID, a SubCategory.
type NewCategory struct {
	Name        string `json:"name" validate:"required,max=255"`
	NameAr      string `json:"name_ar" validate:"required,max=255"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id" validate:"omitempty,uuid"`
}

func (nc *NewCategory) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.NameAr = core.CleanString(nc.NameAr)
	nc.Description = core.CleanString(nc.Description)
	nc.ParentID = core.CleanString(nc.ParentID, true /* lower */)
}

// DocumentFilter selects documents of a main category or of a set of subcategories.
type DocumentFilter struct {
	MainCategoryID string
	DirectOnly     bool // only documents without subcategory
	SubCategoryIDs []string
}

// LocalizedName returns `nameAr` if it is not blank, else `name`.
func LocalizedName(name, nameAr string) string {
	if ar := core.CleanString(nameAr); ar != "" {
		return ar
	}
	return core.CleanString(name)
}

func cleanExtension(ext string) string {
	return strings.TrimPrefix(core.CleanString(ext, true /* lower */), ".")
}

func extensionFromMimeType(mimeType string) string {
	mt := core.CleanString(mimeType, true /* lower */)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	openXML := strings.Contains(mt, "openxml")

	switch {
	case mt == "":
		return ""
	case strings.Contains(mt, "pdf"):
		return "pdf"
	// officedocument mime types of sheets and slides also contain "document"
	case strings.Contains(mt, "excel"), strings.Contains(mt, "spreadsheet"):
		if openXML {
			return "xlsx"
		}
		return "xls"
	case strings.Contains(mt, "powerpoint"), strings.Contains(mt, "presentation"):
		if openXML {
			return "pptx"
		}
		return "ppt"
	case strings.Contains(mt, "word"), strings.Contains(mt, "document"):
		if openXML {
			return "docx"
		}
		return "doc"
	case strings.HasPrefix(mt, "image/"):
		sub := strings.TrimPrefix(mt, "image/")
		if i := strings.IndexByte(sub, '+'); i >= 0 {
			sub = sub[:i]
		}
		return sub
	}
	return ""
}
