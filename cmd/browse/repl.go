package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/frankli0324/go-browse/internal"
	"github.com/frankli0324/go-browse/internal/render"
)

const help = `commands:
  go <url>                   fetch and show a page
  back, forward              move through the history
  refresh                    fetch the current page again
  bookmark add <title> <url> remember a page
  bookmarks                  list remembered pages
  history                    list visited pages
  clear                      empty the response cache
  quit                       leave`

type repl struct {
	s      *internal.Session
	out    io.Writer
	status io.Writer // progress lines, kept apart from page output
	raw    bool      // print bodies as received
}

// exec runs one command line and reports whether the user asked to quit.
func (r *repl) exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "go", "open":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: go <url>")
			return false
		}
		fmt.Fprintln(r.status, "Loading...")
		r.show(r.s.Fetch(ctx, args[0]))
	case "back":
		r.show(r.s.Back(ctx))
	case "forward":
		r.show(r.s.Forward(ctx))
	case "refresh", "reload":
		fmt.Fprintln(r.status, "Loading...")
		r.show(r.s.Refresh(ctx))
	case "bookmark":
		if len(args) < 3 || args[0] != "add" {
			fmt.Fprintln(r.out, "usage: bookmark add <title> <url>")
			return false
		}
		r.s.Bookmarks().Add(strings.Join(args[1:len(args)-1], " "), args[len(args)-1])
	case "bookmarks":
		for _, b := range r.s.Bookmarks().List() {
			fmt.Fprintln(r.out, b)
		}
	case "history":
		entries, cursor := r.s.History()
		for i, u := range entries {
			mark := "  "
			if i == cursor {
				mark = "> "
			}
			fmt.Fprintln(r.out, mark+u.String())
		}
	case "clear":
		r.s.ClearCache()
	case "help":
		fmt.Fprintln(r.out, help)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(r.out, "unknown command %q, try help\n", cmd)
	}
	return false
}

func (r *repl) show(page *internal.Page, err error) {
	switch {
	case errors.Is(err, internal.ErrNoHistory):
		fmt.Fprintln(r.out, "nothing there")
		return
	case err != nil:
		fmt.Fprintf(r.out, "error (%s): %v\n", internal.ErrorKind(err), err)
		return
	}
	source := "network"
	if page.Cached {
		source = "cache"
	}
	fmt.Fprintf(r.out, "%s  %s  [%s]\n", page.URL, page.Status(), source)
	if page.Truncated {
		fmt.Fprintln(r.out, "(response truncated)")
	}
	body := page.Text()
	if r.raw {
		fmt.Fprintln(r.out, body)
		return
	}
	if title := render.Title(body); title != "" {
		fmt.Fprintln(r.out, "# "+title)
	}
	fmt.Fprintln(r.out, render.Text(body))
}
