package cloudinarystore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/document"
)

type fakeUploadAPI struct {
	params    uploader.UploadParams
	data      string
	destroyed string
	res       *uploader.UploadResult
	err       error
}

func (f *fakeUploadAPI) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(file.(io.Reader))
	if err != nil {
		return nil, err
	}
	f.params, f.data = params, string(b)
	return f.res, nil
}

func (f *fakeUploadAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = params.PublicID
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func Test_sanitize(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{name: "arabic folder", fn: sanitizeFolderName, in: "التقارير السنوية", want: "التقارير_السنوية"},
		{name: "symbols dropped", fn: sanitizeFolderName, in: "Reports & Grades (2024)!", want: "Reports_Grades_2024"},
		{name: "underscore runs", fn: sanitizeFolderName, in: "a __  _b", want: "a_b"},
		{name: "dots dropped in folders", fn: sanitizeFolderName, in: "v1.2", want: "v12"},
		{name: "dots kept in files", fn: sanitizeFileName, in: "v1.2 final", want: "v1.2_final"},
		{name: "folder length", fn: sanitizeFolderName, in: strings.Repeat("ب", 60), want: strings.Repeat("ب", 50)},
		{name: "file length", fn: sanitizeFileName, in: strings.Repeat("x", 120), want: strings.Repeat("x", 100)},
		{name: "slashes dropped", fn: sanitizeFolderName, in: "a/b\\c", want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("sanitize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_Upload(t *testing.T) {
	fake := &fakeUploadAPI{res: &uploader.UploadResult{
		SecureURL: "https://res.cloudinary.com/demo/raw/upload/v1/school-docs/x/report_ab12.pdf",
		PublicID:  "school-docs/x/report_ab12",
		Bytes:     6,
	}}
	store := newStore(fake, " /school-docs/ ")

	got, err := store.Upload(context.Background(), strings.NewReader("report"), document.UploadParams{
		Folders:  []string{"التقارير السنوية", "امتحانات 2024"},
		FileName: "Annual report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, document.StoredFile{
		URL:      "https://res.cloudinary.com/demo/raw/upload/v1/school-docs/x/report_ab12.pdf",
		RemoteID: "school-docs/x/report_ab12",
		Size:     6,
	}, got)

	assert.Equal(t, "report", fake.data)
	assert.Equal(t, "school-docs/التقارير_السنوية/امتحانات_2024", fake.params.Folder)
	assert.Equal(t, "Annual_report", fake.params.PublicID)
	assert.Equal(t, "auto", fake.params.ResourceType)
	assert.Equal(t, api.Bool(true), fake.params.UseFilename)
	assert.Equal(t, api.Bool(true), fake.params.UniqueFilename)

	t.Run("api error", func(t *testing.T) {
		fake := &fakeUploadAPI{res: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid Signature"}}}
		_, err := newStore(fake, "").Upload(context.Background(), strings.NewReader("x"), document.UploadParams{FileName: "x.pdf"})
		assert.EqualError(t, err, "uploading to cloudinary: Invalid Signature")
		assert.Equal(t, "school-docs", fake.params.Folder)
	})

	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := newStore(&fakeUploadAPI{err: boom}, "").Upload(context.Background(), strings.NewReader("x"), document.UploadParams{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestStore_Delete(t *testing.T) {
	fake := new(fakeUploadAPI)
	require.NoError(t, newStore(fake, "").Delete(context.Background(), "school-docs/x/report_ab12"))
	assert.Equal(t, "school-docs/x/report_ab12", fake.destroyed)
}

func TestNewStore_notConfigured(t *testing.T) {
	_, err := NewStore(core.CloudinaryConfig{CloudName: "demo"})
	assert.Error(t, err)
}
