package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

const (
	FieldReturn   = "return"
	FieldAPIToken = "api_token"
	FieldFile     = "file"
)

type Kind int

const (
	KindFilesystem Kind = iota + 1
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client uploads audio samples to an AudD compatible recognition endpoint.
type Client struct {
	Endpoint   string
	APIToken   string
	Return     string
	HTTPClient *http.Client

	open func(name string) (io.ReadCloser, error)
}

func NewClient(endpoint, apiToken, returnProviders string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		Endpoint:   endpoint,
		APIToken:   apiToken,
		Return:     returnProviders,
		HTTPClient: httpClient,
		open:       openFile,
	}
}

func openFile(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Fields returns the fixed form fields sent with every upload.
func (c *Client) Fields() map[string]string {
	return map[string]string{
		FieldReturn:   c.Return,
		FieldAPIToken: c.APIToken,
	}
}

// Recognize posts the file at filePath and returns the raw response body.
// A non-2xx status yields a network error together with the body.
func (c *Client) Recognize(ctx context.Context, filePath string) (string, error) {
	open := c.open
	if open == nil {
		open = openFile
	}

	file, err := open(filePath)
	if err != nil {
		return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("error opening file: %w", err)}
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := c.Fields()
	for _, name := range []string{FieldReturn, FieldAPIToken} {
		if err := writer.WriteField(name, fields[name]); err != nil {
			return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("error writing field %s: %w", name, err)}
		}
	}

	part, err := writer.CreateFormFile(FieldFile, filepath.Base(filePath))
	if err != nil {
		return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("error creating form file: %w", err)}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("error copying file data: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("error closing multipart writer: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Info("Sending file to recognition API", "file", filepath.Base(filePath), "endpoint", c.Endpoint)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("error sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("error reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return string(respBody), &Error{Kind: KindNetwork, Err: fmt.Errorf("API request failed with status %d", resp.StatusCode)}
	}

	slog.Debug("Recognition response received", "status", resp.StatusCode, "bytes", len(respBody))
	return string(respBody), nil
}
