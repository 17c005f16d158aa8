package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/luminancehdr/hdr-batch/pkg/logsink"
)

var (
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	noticeColor  = color.New(color.FgYellow)
)

// printer returns a log sink hook writing each entry to w, colored by kind.
func printer(w io.Writer) func(logsink.Entry) {
	return func(e logsink.Entry) {
		msg := e.Message
		switch {
		case strings.HasPrefix(msg, logsink.FilterErrors):
			errorColor.Fprintln(w, msg)
		case strings.HasPrefix(msg, logsink.FilterSuccessful):
			successColor.Fprintln(w, msg)
		case strings.HasPrefix(msg, "cancelled"), strings.HasPrefix(msg, "Batch cancelled"):
			noticeColor.Fprintln(w, msg)
		default:
			fmt.Fprintln(w, msg)
		}
	}
}
