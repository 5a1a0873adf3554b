package leasectl

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/dmitrijs2005/leasekeeper/internal/assemble"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/server/templates"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var emphasisRe = regexp.MustCompile(`\*\*([^*\n]*)\*\*`)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

func (a *App) merge(ctx context.Context, args []string) error {
	fs := a.flagSet("merge")
	templatePath := fs.StringP("template", "t", "", "template file (default: built-in lease)")
	answersPath := fs.StringP("answers", "a", "", "answers file, .json/.yaml/.yml, or - for JSON on stdin")
	asHTML := fs.Bool("html", false, "print HTML instead of text")
	plainText := fs.Bool("plain", false, "keep ** emphasis markers even on a terminal")
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
	tmpl, err := templates.New(*templatePath).Load(ctx)
	if err != nil {
		return err
	}

	text, _ := assemble.Assemble(lease.Merge(tmpl, answers), nil)

	switch {
	case *asHTML:
		html, err := lease.ToHTML(text)
		if err != nil {
			return err
		}
		_, err = io.WriteString(a.stdout, html)
		return err
	case !*plainText && isTerminal(a.stdout):
		text = emphasisRe.ReplaceAllString(text, ansiBold+"$1"+ansiReset)
	}
	_, err = io.WriteString(a.stdout, text)
	return err
}
