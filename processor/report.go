package processor

import (
	"io"

	"github.com/CloudyKit/jet"

	"github.com/nci/burnscar/metrics"
)

// WriteRunReport renders the human-readable summary of a detection
// run through the burn_report.tpl template under templateRoot.
func WriteRunReport(w io.Writer, templateRoot string, info *metrics.RunInfo) error {
	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), templateRoot, "/")

	template, err := view.GetTemplate("burn_report.tpl")
	if err != nil {
		return err
	}

	vars := make(jet.VarMap)
	return template.Execute(w, vars, info)
}
