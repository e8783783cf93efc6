package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ui prints status lines
type ui struct {
	out          io.Writer
	colorInfo    *color.Color
	colorSuccess *color.Color
	colorWarning *color.Color
	colorError   *color.Color
}

func newUI(out io.Writer) *ui {
	return &ui{
		out:          out,
		colorInfo:    color.New(color.FgBlue),
		colorSuccess: color.New(color.FgGreen),
		colorWarning: color.New(color.FgYellow),
		colorError:   color.New(color.FgRed),
	}
}

func (u *ui) Infof(format string, args ...interface{}) {
	u.colorInfo.Fprintf(u.out, "[INFO] %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Successf(format string, args ...interface{}) {
	u.colorSuccess.Fprintf(u.out, "[✓] %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Warningf(format string, args ...interface{}) {
	u.colorWarning.Fprintf(u.out, "[WARNING] %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Errorf(format string, args ...interface{}) {
	u.colorError.Fprintf(u.out, "[ERROR] %s", fmt.Sprintf(format, args...))
}
