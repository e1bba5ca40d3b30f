// FILE: lixenwraith/bridge/cmd/bridge/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lixenwraith/bridge"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "bridge",
		Short:         "Convert value documents and extract pattern matches",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "settings file (default: discovered)")
	root.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.Format, "format", formatJSON, "output format: json, dump, script")
	root.PersistentFlags().StringArrayVar(&g.Sets, "set", nil, "override a setting, e.g. --set max_depth=64")

	root.AddCommand(
		newConvertCommand(&g),
		newFindCommand(&g),
		newSegmentsCommand(&g),
		newConfigCommand(&g),
	)
	return root
}

func newConvertCommand(g *globalFlags) *cobra.Command {
	var direction, types, inputFormat string

	cmd := &cobra.Command{
		Use:   "convert [flags] FILE|-",
		Short: "Convert a JSON, TOML or YAML document across the bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, ok := bridge.ParseDirection(direction)
			if !ok {
				return fmt.Errorf("invalid direction %q (want in or out)", direction)
			}
			c, err := assemble(*g)
			if err != nil {
				return err
			}

			v, err := readDocument(args[0], inputFormat)
			if err != nil {
				return err
			}
			return convertAndWrite(cmd, c, v, dir, types, g.Format)
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "in", "in (host to engine) or out (engine to host)")
	cmd.Flags().StringVar(&types, "types", "", `categories to convert, e.g. "dates, files" (default: configured)`)
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "json, toml or yaml (default: detected)")
	return cmd
}

// readDocument loads a file by extension, or parses stdin and explicit
// formats with ParseDocument.
func readDocument(path, format string) (bridge.Value, error) {
	if path != "-" && format == "" {
		return bridge.LoadDocument(path)
	}
	data, err := readInput(path)
	if err != nil {
		return bridge.Null(), err
	}
	return bridge.ParseDocument(data, format)
}

func convertAndWrite(cmd *cobra.Command, c components, v bridge.Value, dir bridge.Direction, types, format string) error {
	var (
		out bridge.Value
		err error
	)
	if dir == bridge.Outbound {
		out, err = c.Engine.ConvertOutbound(v, types)
	} else {
		out, err = c.Engine.ConvertInbound(v, types)
	}
	if err != nil {
		return err
	}
	return writeValue(cmd.OutOrStdout(), out, format)
}

// parseGroups reads "1,2" into group numbers
func parseGroups(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	groups := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid group %q: %w", p, err)
		}
		groups = append(groups, n)
	}
	return groups, nil
}

func newFindCommand(g *globalFlags) *cobra.Command {
	var options, groupList string
	var first, text bool

	cmd := &cobra.Command{
		Use:   "find [flags] PATTERN FILE|-",
		Short: "Print regular expression match records for a text file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := parseGroups(groupList)
			if err != nil {
				return err
			}
			c, err := assemble(*g)
			if err != nil {
				return err
			}
			data, err := readInput(args[1])
			if err != nil {
				return err
			}

			pattern, subject := args[0], string(data)
			var out bridge.Value
			switch {
			case first && text:
				out, err = c.Engine.FindFirstMatch(pattern, subject, options)
			case first:
				out, err = c.Engine.FindFirstMatchRecord(pattern, subject, options)
			case len(groups) > 0 && text:
				out, err = c.Engine.FindMatchesInGroups(pattern, subject, options, groups)
			case len(groups) > 0:
				out, err = c.Engine.FindMatchRecordsInGroups(pattern, subject, options, groups)
			case text:
				out, err = c.Engine.FindMatches(pattern, subject, options)
			default:
				out, err = c.Engine.FindMatchRecords(pattern, subject, options)
			}
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), out, g.Format)
		},
	}
	cmd.Flags().StringVar(&options, "options", "", "option letters: i, m, s, x, w")
	cmd.Flags().StringVar(&groupList, "groups", "", "capture groups in output order, e.g. 2,1")
	cmd.Flags().BoolVar(&first, "first", false, "only the first match")
	cmd.Flags().BoolVar(&text, "text", false, "matched text instead of records")
	return cmd
}

func newSegmentsCommand(g *globalFlags) *cobra.Command {
	var ranges, count bool

	cmd := &cobra.Command{
		Use:   "segments [flags] characters|words|sentences|paragraphs|lines FILE|-",
		Short: "Split text into segments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, ok := bridge.ParseUnit(args[0])
			if !ok {
				return fmt.Errorf("unknown unit %q", args[0])
			}
			data, err := readInput(args[1])
			if err != nil {
				return err
			}

			s := string(data)
			var out bridge.Value
			switch {
			case count:
				out = bridge.Int(int64(bridge.SegmentCount(s, unit)))
			case ranges:
				out = bridge.SegmentRanges(s, unit)
			default:
				out = bridge.Segments(s, unit)
			}
			return writeValue(cmd.OutOrStdout(), out, g.Format)
		},
	}
	cmd.Flags().BoolVar(&ranges, "ranges", false, "print {location, length} ranges")
	cmd.Flags().BoolVar(&count, "count", false, "print the number of segments")
	return cmd
}

func newConfigCommand(g *globalFlags) *cobra.Command {
	var origins bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := assemble(*g)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !origins {
				return c.Settings.WriteTOML(w)
			}
			if f := c.File; f.Path != "" {
				fmt.Fprintf(w, "# settings file: %s (%s)\n", f.Path, f.Origin)
			}
			for _, path := range c.Settings.Paths() {
				value, _ := c.Settings.String(path)
				origin, _ := c.Settings.Origin(path)
				fmt.Fprintf(w, "%s = %q (%s)\n", path, value, origin)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&origins, "origins", false, "list each path with the source of its value")
	return cmd
}
