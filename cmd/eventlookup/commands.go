package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/glesirok/eventlookup/pkg/internalevent"
	"github.com/glesirok/eventlookup/pkg/lookup"
	"github.com/glesirok/eventlookup/pkg/processor"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse PATH...",
		Short: "Parse lookup paths and print their canonical form and segments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, arg := range args {
				l, err := lookup.Parse(arg)
				if err != nil {
					failed++
					a.emitter.Emit(internalevent.LookupParseFailed{
						Path:          arg,
						Err:           err,
						ComponentKind: internalevent.ComponentSource,
						ComponentType: "cli",
					})
					fmt.Fprintf(out, "%s\tERROR %v\n", strconv.Quote(arg), err)
					continue
				}

				fmt.Fprintln(out, l.String())
				for i, seg := range l.Segments() {
					fmt.Fprintf(out, "  %d\t%s\t%s\n", i, seg.Kind(), describeSegment(seg))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d paths failed to parse", failed, len(args))
			}
			return nil
		},
	}
}

func describeSegment(seg lookup.Segment) string {
	if seg.IsIndex() {
		return strconv.Itoa(seg.Index())
	}
	if seg.Quoted() {
		return strconv.Quote(seg.Name()) + " (quoted)"
	}
	return strconv.Quote(seg.Name())
}

func newPathsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths FILE",
		Short: "List the leaf field paths of every event in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := processor.ReadEvents(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, ev := range events {
				fmt.Fprintf(out, "# event %d\n", i)
				for _, path := range ev.Paths() {
					fmt.Fprintln(out, path.String())
				}
			}
			a.emitter.Emit(internalevent.EventsProcessed{
				File:          args[0],
				Count:         len(events),
				ComponentType: "cli",
			})
			return nil
		},
	}
}
