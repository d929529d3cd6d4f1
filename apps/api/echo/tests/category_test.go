package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/trezcool/schooldocs/tests"
)

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to School Docs API!", rec.Body.String())
}

func Test_categoryApi_query(t *testing.T) {
	reports := testutil.CreateMainCategory(t, docRepo, "Reports", "تقارير")
	testutil.CreateSubCategory(t, docRepo, reports.ID, "Exams", "امتحانات")

	cats, err := docRepo.QueryMainCategories(context.Background())
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/v1/categories")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, cats)}, rec)
}

func Test_categoryApi_download(t *testing.T) {
	t0 := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	at := func(mins int) time.Time { return t0.Add(time.Duration(mins) * time.Minute) }

	reports := testutil.CreateMainCategory(t, docRepo, "Reports", "تقارير", at(0))
	exams := testutil.CreateSubCategory(t, docRepo, reports.ID, "Exams", "", at(1))
	testutil.CreateDocument(t, docRepo, reports.ID, "", "direct-1", "pdf", fileURL("d1"), at(2))
	testutil.CreateDocument(t, docRepo, reports.ID, "", "direct-2", "pdf", fileURL("d2"), at(3))
	testutil.CreateDocument(t, docRepo, reports.ID, "", "direct-3", "pdf", "", at(4))
	testutil.CreateDocument(t, docRepo, reports.ID, exams.ID, "exam", "docx", fileURL("e1"), at(5))
	testutil.CreateDocument(t, docRepo, reports.ID, exams.ID, "exam", "docx", fileURL("e2"), at(6))

	empty := testutil.CreateMainCategory(t, docRepo, "Empty", "", at(7))

	broken := testutil.CreateMainCategory(t, docRepo, "Broken", "", at(8))
	testutil.CreateDocument(t, docRepo, broken.ID, "", "gone", "pdf", brokenURL("gone"), at(9))
	testutil.CreateDocument(t, docRepo, broken.ID, "", "nowhere", "pdf", "", at(10))

	t.Run("main category", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/categories/"+reports.ID+"/download")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Equal(t,
			`attachment; filename="______.zip"; filename*=UTF-8''%D8%AA%D9%82%D8%A7%D8%B1%D9%8A%D8%B1.zip`,
			rec.Header().Get("Content-Disposition"),
		)
		assert.Equal(t, rec.Header().Get("Content-Length"), itoa(rec.Body.Len()))

		names, contents := readZip(t, rec.Body.Bytes())
		assert.Equal(t, []string{"direct-1.pdf", "direct-2.pdf", "exam.docx", "exam (2).docx"}, names)
		assert.Equal(t, "content of e2", contents["exam (2).docx"])
	})

	t.Run("subcategory", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/categories/"+exams.ID+"/download")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="Exams.zip"; filename*=UTF-8''Exams.zip`, rec.Header().Get("Content-Disposition"))

		names, _ := readZip(t, rec.Body.Bytes())
		assert.Equal(t, []string{"exam.docx", "exam (2).docx"}, names)
	})

	t.Run("nothing fetched", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/categories/"+broken.ID+"/download")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		names, contents := readZip(t, rec.Body.Bytes())
		require.Equal(t, []string{"README.txt"}, names)
		assert.Contains(t, contents["README.txt"], "- gone (remote location: yes)")
		assert.Contains(t, contents["README.txt"], "- nowhere (remote location: no)")
	})

	tests := []httpTest{
		{
			name:     "empty category",
			path:     "/v1/categories/" + empty.ID + "/download",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "no documents found in this category"}),
		},
		{
			name:     "unknown category",
			path:     "/v1/categories/7d0c4a5e-0d7b-4f7e-9b36-5d1b3e9f2a11/download",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "category not found"}),
		},
		{
			name:     "malformed id",
			path:     "/v1/categories/lol/download",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "category not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
