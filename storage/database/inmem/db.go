package inmemdb

import (
	"sync"

	"github.com/trezcool/schooldocs/core/document"
)

type (
	DB struct {
		document *documentTables
	}

	documentTables struct {
		sync.RWMutex
		seq            int
		mainCategories map[string]*row[document.MainCategory]
		subCategories  map[string]*row[document.SubCategory]
		documents      map[string]*row[document.Document]
	}

	// row keeps the insertion sequence so listings are stable for equal creation dates.
	row[T any] struct {
		seq int
		val T
	}
)

func Open() (*DB, error) {
	db := &DB{
		document: &documentTables{
			mainCategories: make(map[string]*row[document.MainCategory]),
			subCategories:  make(map[string]*row[document.SubCategory]),
			documents:      make(map[string]*row[document.Document]),
		},
	}
	return db, nil
}
