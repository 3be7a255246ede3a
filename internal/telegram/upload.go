package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/retry"
)

const (
	// uploadBaseTimeout is the floor for a sendDocument deadline, covering
	// connection setup and server processing for even tiny files.
	uploadBaseTimeout = time.Minute

	// uploadMaxTimeout caps the deadline however large the file is.
	uploadMaxTimeout = 30 * time.Minute

	// uploadMinThroughput is the assumed worst-case upload rate used to
	// scale the deadline with file size.
	uploadMinThroughput = 128 * 1024 // bytes per second

	// minUploadFileIDLen is the shortest file_id accepted from a
	// sendDocument response before the upload is declared successful.
	minUploadFileIDLen = 10
)

// UploadedObject identifies a document stored in the channel: the file_id
// used to retrieve it later and the message_id needed to delete it.
type UploadedObject struct {
	FileID    string
	MessageID int64
}

// uploadTimeout scales the request deadline with file size, bounded on
// both sides. A fixed timeout either kills large uploads or lets small
// ones hang far too long.
func uploadTimeout(size int64) time.Duration {
	d := uploadBaseTimeout + time.Duration(size/uploadMinThroughput)*time.Second
	if d > uploadMaxTimeout {
		d = uploadMaxTimeout
	}

	return d
}

// mediaFileIDPaths are the gjson paths searched for a file identifier when
// the server stored the document as a different media type. Photos come
// back as an array of sizes; the last element is the largest.
var mediaFileIDPaths = []string{
	"result.document.file_id",
	"result.video.file_id",
	"result.audio.file_id",
	"result.animation.file_id",
	"result.photo.@reverse.0.file_id",
}

// SendDocument uploads one local file to the channel as a document and
// returns its identifiers. The request streams the file; nothing is
// buffered in memory. A transport-level success with an incomplete
// response body still counts as failure.
//
// Transient failures and rate limits are retried internally up to the
// client's retry policy; permanent failures return immediately.
func (c *Client) SendDocument(ctx context.Context, channelID, localPath string) (*UploadedObject, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}

	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s is %.2fGB: %w",
			filepath.Base(localPath), float64(info.Size())/(1024*1024*1024), apperrors.ErrFileTooLarge)
	}

	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", filepath.Base(localPath))
	}

	return retry.DoWithResult(ctx, c.retry, func() (*UploadedObject, error) {
		return c.sendDocumentOnce(ctx, channelID, localPath, info.Size())
	})
}

func (c *Client) sendDocumentOnce(ctx context.Context, channelID, localPath string, size int64) (*UploadedObject, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout(size))
	defer cancel()

	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer file.Close()

	// Stream the multipart body through a pipe so 2GB uploads do not get
	// buffered in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeDocumentForm(writer, channelID, filepath.Base(localPath), file)
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), pr)
	if err != nil {
		return nil, fmt.Errorf("creating sendDocument request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("sendDocument: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("reading sendDocument response: %w", err))
	}

	if !gjson.GetBytes(body, "ok").Bool() {
		return nil, c.apiError("sendDocument", resp.StatusCode, body)
	}

	obj := &UploadedObject{
		MessageID: gjson.GetBytes(body, "result.message_id").Int(),
	}

	for _, path := range mediaFileIDPaths {
		if id := gjson.GetBytes(body, path).String(); id != "" {
			obj.FileID = id

			break
		}
	}

	// The transport said OK but the response does not identify the stored
	// object. Treat as failure; a half-recorded upload is worse than none.
	if len(obj.FileID) < minUploadFileIDLen || obj.MessageID <= 0 {
		return nil, fmt.Errorf("sendDocument for %s: %w", filepath.Base(localPath), apperrors.ErrIncompleteUpload)
	}

	c.logger.Debug("document uploaded",
		slog.String("file", filepath.Base(localPath)),
		slog.Int64("message_id", obj.MessageID),
	)

	return obj, nil
}

func writeDocumentForm(writer *multipart.Writer, channelID, fileName string, file io.Reader) error {
	if err := writer.WriteField("chat_id", channelID); err != nil {
		return err
	}

	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	return writer.Close()
}
