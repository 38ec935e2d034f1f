package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"uigen/internal/project"

	"github.com/fatih/color"
)

var (
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	headerColor = color.New(color.FgCyan)
	dimColor    = color.New(color.Faint)
)

func printResult(w io.Writer, text string, isError bool) {
	if isError {
		errColor.Fprintln(w, text)
		return
	}
	fmt.Fprintln(w, text)
}

func printColoredDiff(w io.Writer, diff string) {
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case line == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			headerColor.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			okColor.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			errColor.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
}

func printFiles(w io.Writer, files map[string]string) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		headerColor.Fprintf(w, "==> %s <==\n", p)
		fmt.Fprintln(w, files[p])
	}
}

func printProject(w io.Writer, p *project.Project) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(w, "%s  %s  rev %d  %d file(s)  %s\n",
		green(p.ID), p.Name, p.Revision, len(p.Files),
		dimColor.Sprint(p.UpdatedAt.Local().Format(time.DateTime)))
}

func printChange(w io.Writer, c project.ChangeStats) {
	fmt.Fprintf(w, "  %d added, %d modified, %d removed file(s), %s %s\n",
		c.FilesAdded, c.FilesModified, c.FilesRemoved,
		okColor.Sprintf("+%d", c.Additions), errColor.Sprintf("-%d", c.Deletions))
}
