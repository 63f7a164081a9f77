package helpers

import (
	"fmt"
	"io"
	"path"

	tele "gopkg.in/telebot.v4"
)

// maxAttachmentBytes caps how much of an incoming attachment is read into
// memory. Telegram bots cannot download files above 20 MB anyway.
const maxAttachmentBytes = 20 << 20

func downloadFile(c tele.Context, f *tele.File) ([]byte, error) {
	rc, err := c.Bot().File(f)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", f.FileID, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", f.FileID, err)
	}
	if len(data) > maxAttachmentBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", f.FileID, maxAttachmentBytes)
	}
	return data, nil
}

// PhotoBytes downloads the photo attached to the current message and returns
// its contents plus a filename hint for extension detection.
func PhotoBytes(c tele.Context) ([]byte, string, error) {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil, "", fmt.Errorf("message carries no photo")
	}
	data, err := downloadFile(c, &msg.Photo.File)
	if err != nil {
		return nil, "", err
	}
	hint := path.Base(msg.Photo.FilePath)
	if hint == "." || hint == "/" {
		hint = ""
	}
	return data, hint, nil
}

// DocumentBytes downloads the document attached to the current message and
// returns its contents plus the original filename.
func DocumentBytes(c tele.Context) ([]byte, string, error) {
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return nil, "", fmt.Errorf("message carries no document")
	}
	data, err := downloadFile(c, &msg.Document.File)
	if err != nil {
		return nil, "", err
	}
	return data, msg.Document.FileName, nil
}
