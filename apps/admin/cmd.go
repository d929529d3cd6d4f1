package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	docSvc   *document.Service
	exporter *archive.Exporter
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the database")
	_, _ = fmt.Fprintln(cli.out, "  addcategory -name NAME -name-ar NAME [-parent ID] [-description TEXT] - create a category")
	_, _ = fmt.Fprintln(cli.out, "  upload -category ID [-subcategory ID] -title TITLE [-title-ar TITLE] -file PATH - upload a document")
	_, _ = fmt.Fprintln(cli.out, "  export -id ID [-out PATH] - write the ZIP archive of a category")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addcategory":
		cmd := cli.newFlagSet("addcategory")
		name := cmd.String("name", "", "The category name.")
		nameAr := cmd.String("name-ar", "", "The arabic category name.")
		parent := cmd.String("parent", "", "The main category ID. Creates a subcategory if set.")
		desc := cmd.String("description", "", "The category description.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *name == "" || *nameAr == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addCategory(document.NewCategory{Name: *name, NameAr: *nameAr, ParentID: *parent, Description: *desc})

	case "upload":
		cmd := cli.newFlagSet("upload")
		category := cmd.String("category", "", "The main category ID.")
		subCategory := cmd.String("subcategory", "", "The subcategory ID.")
		title := cmd.String("title", "", "The document title.")
		titleAr := cmd.String("title-ar", "", "The arabic document title.")
		file := cmd.String("file", "", "The path of the file to upload.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *category == "" || *title == "" || *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.upload(*file, document.NewDocument{
			Title:          *title,
			TitleAr:        *titleAr,
			MainCategoryID: *category,
			SubCategoryID:  *subCategory,
		})

	case "export":
		cmd := cli.newFlagSet("export")
		id := cmd.String("id", "", "The category or subcategory ID.")
		out := cmd.String("out", "", "The archive path. Defaults to <category name>.zip in the current directory.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *id == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.export(*id, *out)

	default:
		cli.printUsage()
		return errHelp
	}
}
