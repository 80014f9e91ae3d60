package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
)

// ErrInconsistent is returned by inspect when the document needs a resync.
var ErrInconsistent = errors.New("collection is out of sync")

type reportStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	success lipgloss.Style
	problem lipgloss.Style
}

func newReportStyles(out io.Writer) reportStyles {
	r := lipgloss.NewRenderer(out)
	return reportStyles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("8")),
		value:   r.NewStyle(),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		problem: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func newInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Report the collection's items and any stale names or labels",
		Long: strings.TrimSpace(`
Inspect reads the document as it is, without renumbering, and checks that
every item's field names, ordinal label and ordinal value match its position.
It exits non-zero when a resync is needed.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, editor, err := app.openEditor(cmd, args[0], collection.WithoutResync())
			if err != nil {
				return err
			}
			problems := verifyProblems(editor.Verify())
			writeReport(cmd.OutOrStdout(), args[0], editor, problems)
			if len(problems) > 0 {
				return fmt.Errorf("%s: %w (%d problems)", args[0], ErrInconsistent, len(problems))
			}
			return nil
		},
	}
}

// verifyProblems flattens the joined errors Verify reports.
func verifyProblems(err error) []string {
	if err == nil {
		return nil
	}
	joined, ok := errors.Unwrap(err).(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}

func writeReport(out io.Writer, path string, editor *collection.Editor, problems []string) {
	styles := newReportStyles(out)
	schema := editor.Schema()

	fmt.Fprintln(out, styles.title.Render(path))
	row := func(label, value string) {
		fmt.Fprintf(out, "  %s %s\n", styles.label.Render(fmt.Sprintf("%-10s", label)), styles.value.Render(value))
	}
	row("collection", schema.Name)
	row("container", "#"+schema.ContainerID)
	row("items", fmt.Sprintf("%d", editor.Len()))

	for i, item := range editor.Items() {
		var fields []string
		for _, field := range dom.QueryAll(item, dom.ByAttr(collection.FieldAttr)) {
			if v := strings.TrimSpace(dom.Value(field)); v != "" {
				fields = append(fields, dom.AttrOr(field, collection.FieldAttr, "")+"="+v)
			}
		}
		label := schema.OrdinalLabel(i)
		if label == "" {
			label = fmt.Sprintf("[%d]", i)
		}
		row("", strings.TrimSpace(label+"  "+strings.Join(fields, " ")))
	}

	if len(problems) == 0 {
		fmt.Fprintln(out, styles.success.Render("in sync"))
		return
	}
	for _, p := range problems {
		fmt.Fprintln(out, styles.problem.Render("  ! "+p))
	}
}
