// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("nothing to copy")

var clipboardWrite = clipboard.WriteAll

// Copy writes text to the system clipboard. Blank text is rejected.
func Copy(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	if err := clipboardWrite(text); err != nil {
		return fmt.Errorf("clipboard copy failed: %w", err)
	}
	return nil
}
