package leasectl

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/leasekeeper/internal/signing"
)

func (a *App) signers(ctx context.Context, args []string) error {
	fs := a.flagSet("signers")
	answersPath := fs.StringP("answers", "a", "", "answers file, .json/.yaml/.yml, or - for JSON on stdin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *answersPath == "" {
		return fmt.Errorf("%w: --answers is required", ErrUsage)
	}

	answers, err := a.loadAnswers(*answersPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tNAME\tEMAIL\tKEY")
	for _, s := range signing.RequiredSigners(answers) {
		email := s.Email
		if email == "" {
			email = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Label, s.Name, email, s.Key)
	}
	return tw.Flush()
}
