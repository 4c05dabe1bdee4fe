package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsr/internal/casing"
	"github.com/standardbeagle/lsr/internal/pattern"
)

func compileCommandDef() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Show the regular expression a pattern compiles to",
		ArgsUsage: "<pattern>",
		Flags:     patternFlags(),
		Action:    compileCommand,
	}
}

type compiledInfo struct {
	Pattern           string   `json:"pattern"`
	MatchType         string   `json:"match_type"`
	Source            string   `json:"source"`
	Regexp            string   `json:"regexp"`
	Flags             []string `json:"flags"`
	NotAfterWordChar  bool     `json:"not_after_word_char"`
	NotBeforeWordChar bool     `json:"not_before_word_char"`
	Multiline         bool     `json:"multiline"`
	Groups            int      `json:"groups"`
}

func compileCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("compile requires exactly one pattern", exitError)
	}
	ws, err := openWorkspace(c, nil)
	if err != nil {
		return err
	}
	q := ws.NewQuery(c.Args().First())
	compiled, err := ws.Compile(q)
	if err != nil {
		return exitFor(err)
	}

	info := compiledInfo{
		Pattern:           q.Expr,
		MatchType:         q.MatchType.String(),
		Source:            compiled.Source,
		Regexp:            compiled.Expr(),
		Flags:             flagNames(compiled),
		NotAfterWordChar:  compiled.NotAfterWordChar,
		NotBeforeWordChar: compiled.NotBeforeWordChar,
		Multiline:         compiled.Multiline,
		Groups:            compiled.NumGroups(),
	}
	if ws.Config().Output.Format == "json" {
		return json.NewEncoder(c.App.Writer).Encode(info)
	}

	guards := []string{}
	if info.NotAfterWordChar {
		guards = append(guards, "not after word char")
	}
	if info.NotBeforeWordChar {
		guards = append(guards, "not before word char")
	}
	if len(guards) == 0 {
		guards = append(guards, "none")
	}

	table := tablewriter.NewWriter(c.App.Writer)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"pattern", fmt.Sprintf("%q (%s)", info.Pattern, info.MatchType)},
		{"source", info.Source},
		{"regexp", info.Regexp},
		{"flags", strings.Join(info.Flags, ", ")},
		{"guards", strings.Join(guards, ", ")},
		{"multiline", fmt.Sprintf("%t", info.Multiline)},
		{"groups", fmt.Sprintf("%d", info.Groups)},
	})
	table.Render()
	return nil
}

func flagNames(compiled *pattern.CompiledPattern) []string {
	names := []string{}
	if compiled.CaseInsensitive {
		names = append(names, "ignore case")
	}
	if compiled.Pattern().WholeWords() {
		names = append(names, "whole words")
	}
	if compiled.DotAll {
		names = append(names, "dot all")
	}
	if len(names) == 0 {
		names = append(names, "none")
	}
	return names
}

func caseCommandDef() *cli.Command {
	return &cli.Command{
		Name:      "case",
		Usage:     "Re-case a replacement to follow the casing of matched text",
		ArgsUsage: "<replacement> <matched>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("case requires a replacement and a matched text", exitError)
			}
			_, err := fmt.Fprintln(c.App.Writer, casing.AdaptCase(c.Args().Get(0), c.Args().Get(1)))
			return err
		},
	}
}
