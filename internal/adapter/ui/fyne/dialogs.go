package fyne

import (
	"log/slog"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// FileDialog is a helper for creating audio file open dialogs.
type FileDialog struct {
	window     fyneapp.Window
	callback   func(string)
	extensions []string
	logger     *slog.Logger
}

// NewFileDialog creates a new file dialog. extensions, if not empty, filters the listing.
func NewFileDialog(window fyneapp.Window, callback func(string), extensions []string, logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:     window,
		callback:   callback,
		extensions: extensions,
		logger:     logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyneapp.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		filePath := reader.URI().Path()
		if d.callback != nil {
			d.callback(filePath)
		}
	}, d.window)

	if len(d.extensions) > 0 {
		fd.SetFilter(storage.NewExtensionFileFilter(d.extensions))
	}
	fd.Show()
}
