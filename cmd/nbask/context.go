package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/germanamz/nbask/pkg/chats/content"
	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/germanamz/nbask/pkg/notebookctx"
)

// Column widths of the context table, in terminal cells.
const (
	colIndex  = 4
	colRole   = 10
	colSender = 9
)

func runContext(args []string) error {
	var common commonFlags

	fs := flag.NewFlagSet("context", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nbask context [flags] NOTEBOOK CELL_ID\n\n"+
			"Print the chat history replayed for an ask in CELL_ID.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	common.register(fs)
	width := fs.Int("width", 0, "table width in columns (default: terminal width or 100)")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("context: NOTEBOOK and CELL_ID are required")
	}

	eng, _, _, err := setup(common)
	if err != nil {
		return err
	}

	nb, err := notebook.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	nctx, err := eng.BuildContext(nb, fs.Arg(1))
	if err != nil {
		return err
	}

	w := *width
	if w <= 0 {
		w = terminalWidth(os.Stdout, 100)
	}

	return printContext(os.Stdout, nctx, w)
}

// printContext writes one table row per message part.
func printContext(w io.Writer, nctx notebookctx.Context, width int) error {
	colPart := max(width-colIndex-colRole-colSender-3, 10)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(row("#", "ROLE", "SENDER", "CONTENT", colPart)))
	sb.WriteByte('\n')

	for i, m := range nctx.Messages {
		for j, p := range m.Parts {
			idx, r, sender := "", "", ""
			if j == 0 {
				idx, r, sender = strconv.Itoa(i), m.Role.String(), m.Sender
			}
			sb.WriteString(row(idx, r, sender, describePart(p), colPart))
			sb.WriteByte('\n')
		}
	}

	scope := "cells above the invoking cell"
	if !nctx.BoundaryFound {
		scope = "whole notebook, invoking cell not found"
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%d cells, %d messages (%s)", nctx.Cells, len(nctx.Messages), scope)))
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func row(idx, r, sender, part string, partWidth int) string {
	return padCell(fitCell(idx, colIndex), colIndex) + " " +
		padCell(fitCell(r, colRole), colRole) + " " +
		padCell(fitCell(sender, colSender), colSender) + " " +
		fitCell(part, partWidth)
}

// describePart summarizes a part on one line.
func describePart(p content.Part) string {
	switch v := p.(type) {
	case content.Text:
		return strconv.Quote(v.Text)
	case content.Image:
		if len(v.Data) == 0 {
			return fmt.Sprintf("[image %s]", v.URL)
		}
		return fmt.Sprintf("[image/%s %d bytes]", v.Format(), len(v.Data))
	default:
		return "[" + p.PartKind() + "]"
	}
}
