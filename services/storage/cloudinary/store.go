package cloudinarystore

import (
	"context"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/document"
)

const (
	maxFolderLen   = 50
	maxFileNameLen = 100
	defaultRoot    = "school-docs"
)

// uploadAPI is the part of the Cloudinary upload API used by Store.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Store keeps document files on Cloudinary.
type Store struct {
	cld  uploadAPI
	root string
}

var _ document.FileStore = (*Store)(nil) // interface compliance check

// NewStore returns a Store configured with explicit credentials.
func NewStore(conf core.CloudinaryConfig) (*Store, error) {
	if !conf.IsConfigured() {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(conf.CloudName, conf.APIKey, conf.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "creating cloudinary client")
	}
	return newStore(&cld.Upload, conf.RootFolder), nil
}

func newStore(cld uploadAPI, root string) *Store {
	root = strings.Trim(core.CleanString(root), "/")
	if root == "" {
		root = defaultRoot
	}
	return &Store{cld: cld, root: root}
}

// Upload stores `r` under "<root>/<folders...>", named after params.FileName without extension.
// Cloudinary appends a random suffix to keep public ids unique.
func (s *Store) Upload(ctx context.Context, r io.Reader, params document.UploadParams) (document.StoredFile, error) {
	res, err := s.cld.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder(params.Folders),
		PublicID:       sanitizeFileName(strings.TrimSuffix(params.FileName, path.Ext(params.FileName))),
		ResourceType:   "auto",
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
	})
	if err != nil {
		return document.StoredFile{}, errors.Wrap(err, "uploading to cloudinary")
	}
	if res.Error.Message != "" {
		return document.StoredFile{}, errors.Errorf("uploading to cloudinary: %s", res.Error.Message)
	}
	return document.StoredFile{URL: res.SecureURL, RemoteID: res.PublicID, Size: int64(res.Bytes)}, nil
}

// Delete removes a stored file. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, remoteID string) error {
	res, err := s.cld.Destroy(ctx, uploader.DestroyParams{PublicID: remoteID})
	if err != nil {
		return errors.Wrap(err, "deleting from cloudinary")
	}
	if res.Error.Message != "" {
		return errors.Errorf("deleting from cloudinary: %s", res.Error.Message)
	}
	return nil
}

func (s *Store) folder(folders []string) string {
	parts := make([]string, 0, len(folders)+1)
	parts = append(parts, s.root)
	for _, f := range folders {
		if f = sanitizeFolderName(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "/")
}

func sanitizeFolderName(name string) string {
	return sanitize(name, "", maxFolderLen)
}

func sanitizeFileName(name string) string {
	return sanitize(name, ".", maxFileNameLen)
}

// sanitize keeps latin & arabic letters, digits, `-`, `_` and the runes of `extra`.
// Whitespace runs become a single `_`. The result is cut to `max` runes.
func sanitize(s, extra string, max int) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), r == '_':
			if lastUnderscore {
				continue
			}
			sb.WriteRune('_')
			lastUnderscore = true
			continue
		case isASCIIAlnum(r), isArabic(r), r == '-', strings.ContainsRune(extra, r):
			sb.WriteRune(r)
		default:
			continue // dropped
		}
		lastUnderscore = false
	}

	runes := []rune(sb.String())
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// isArabic reports whether r is in one of the Arabic blocks (incl. supplement, extended-A and presentation forms).
func isArabic(r rune) bool {
	switch {
	case 0x0600 <= r && r <= 0x06FF,
		0x0750 <= r && r <= 0x077F,
		0x08A0 <= r && r <= 0x08FF,
		0xFB50 <= r && r <= 0xFDFF,
		0xFE70 <= r && r <= 0xFEFF:
		return true
	}
	return false
}
