package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/orenro/wp-download/internal/config"
)

func newURLsCmd(a *app) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Print the URLs that download would fetch",
		Long: `Print the URL of every dump file download would fetch, one per line,
without downloading anything. Languages whose dump date cannot be
determined are logged and left out.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			opts, err := config.LoadOptions(v)
			if err != nil {
				return &exitError{code: ExitInvalidArgs, err: err}
			}
			return a.urls(cmd, opts)
		},
	}

	fs := cmd.Flags()
	fs.String(config.KeyTimeout, config.FormatTimeout(d.Timeout), "Network timeout per connect and read, in seconds or as a duration like 1m30s")
	fs.Int(config.KeyRetries, d.Retries, "Attempts per listing page")
	fs.StringSlice(config.KeyCustomDump, nil, "Use a fixed dump date for a language (lang:YYYYMMDD, repeatable)")

	return cmd
}

func (a *app) urls(cmd *cobra.Command, opts config.Options) error {
	ctx := cmd.Context()

	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}
	languages, err := catalog.EnabledLanguages()
	if err != nil {
		return err
	}

	locator, err := newLocator(a, catalog, newClient(opts), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, language := range languages {
		if err := ctx.Err(); err != nil {
			return err
		}

		seq := locator.Tasks(ctx, language)
		for {
			task, err := seq.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, task.URL)
		}
	}
	return nil
}
