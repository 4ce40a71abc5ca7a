package logmux

import (
	"errors"
	"fmt"
	"strings"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "logmux: ") {
		format = "logmux: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper, keeps both chains visible to errors.Is/As
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return errors.Join(err1, err2)
}
