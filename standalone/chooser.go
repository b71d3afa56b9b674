package standalone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sqweek/dialog"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/romloader"
	"github.com/user-none/eblitnes/session"
)

var archiveExtensions = []string{"zip", "7z", "gz", "tgz", "rar"}

// DialogChooser asks for a ROM with the native file dialog.
type DialogChooser struct {
	title      string
	extensions []string
}

// NewDialogChooser creates a chooser filtered to the system's ROM
// extensions.
func NewDialogChooser(info emucore.SystemInfo) *DialogChooser {
	exts := make([]string, len(info.Extensions))
	for i, e := range info.Extensions {
		exts[i] = strings.TrimPrefix(e, ".")
	}
	return &DialogChooser{
		title:      fmt.Sprintf("Open %s ROM", info.ConsoleName),
		extensions: exts,
	}
}

// Choose implements session.Chooser. The dialog blocks its goroutine;
// the session abandons the wait if ctx ends.
func (c *DialogChooser) Choose(ctx context.Context) (romloader.Source, error) {
	path, err := dialog.File().
		Title(c.title).
		Filter("ROM files", c.extensions...).
		Filter("Archives", archiveExtensions...).
		Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return nil, session.ErrUserCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("file dialog: %w", err)
	}
	return romloader.FileSource(path), nil
}
