package main

import (
	"context"
	"fmt"

	"github.com/trezcool/schooldocs/core/document"
)

func (cli *commandLine) addCategory(nc document.NewCategory) error {
	id, err := cli.docSvc.CreateCategory(context.Background(), nc)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, id)
	return nil
}
