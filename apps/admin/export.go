package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core/archive"
)

// export writes the archive of the category `id` to `out`.
func (cli *commandLine) export(id, out string) error {
	ctx := context.Background()

	folder, err := cli.docSvc.ResolveFolder(ctx, id)
	if err != nil {
		return err
	}
	res, err := cli.exporter.Export(ctx, folder.Name, folder.Documents)
	if err != nil {
		return err
	}

	if out == "" {
		out = res.SuggestedName + ".zip"
	}
	if err = os.WriteFile(out, res.Archive, 0o644); err != nil {
		return errors.Wrap(err, "writing archive")
	}

	for _, o := range res.Outcomes {
		switch o.Status {
		case archive.StatusNoRemoteLocation:
			_, _ = fmt.Fprintf(cli.out, "skipped %q: no remote location\n", o.Title)
		case archive.StatusFetchFailed:
			_, _ = fmt.Fprintf(cli.out, "failed %q: %v\n", o.Title, o.Err)
		}
	}
	_, _ = fmt.Fprintf(
		cli.out, "%s: %d included, %d skipped, %d failed\n",
		out, res.Succeeded, res.SkippedNoURL, res.FailedFetch,
	)
	return nil
}
