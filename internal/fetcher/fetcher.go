package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kkdai/youtube/v2"
)

// AudioExt is the extension every fetched file ends up with. The file is only
// renamed, never transcoded.
const AudioExt = ".mp3"

// maxTitleBytes keeps <title>.<subtype> under the common 255 byte name limit.
const maxTitleBytes = 200

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// VideoClient is the subset of *youtube.Client used by Fetcher.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

type Fetcher struct {
	client VideoClient
	getwd  func() (string, error)
}

func New(client VideoClient) *Fetcher {
	return &Fetcher{client: client, getwd: os.Getwd}
}

// NewYoutubeClient builds a youtube client, routed through proxy when set.
func NewYoutubeClient(proxy string, timeout time.Duration) (*youtube.Client, error) {
	httpClient := &http.Client{Timeout: timeout}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return &youtube.Client{HTTPClient: httpClient}, nil
}

// Fetch downloads the best audio-only stream of videoURL into outputDir and
// renames it to AudioExt. An empty outputDir means the working directory.
func (f *Fetcher) Fetch(ctx context.Context, videoURL string, outputDir string) (string, error) {
	dir, err := f.ResolveOutputDir(outputDir)
	if err != nil {
		return "", err
	}

	video, err := f.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", downloadErr("error getting video %s: %w", videoURL, err)
	}

	format, err := SelectAudioFormat(video.Formats)
	if err != nil {
		return "", &Error{Kind: KindDownload, Err: err}
	}

	slog.Debug("Selected audio stream",
		"video", video.ID,
		"itag", format.ItagNo,
		"mime", format.MimeType,
		"bitrate", format.Bitrate)

	downloadedPath := filepath.Join(dir, sanitize(video.Title)+"."+mimeToExt(format.MimeType))
	if err := f.download(ctx, video, format, downloadedPath); err != nil {
		return "", err
	}

	audioPath, err := RenameToAudio(downloadedPath)
	if err != nil {
		return "", err
	}

	slog.Info("Audio file has been saved", "path", audioPath)
	return audioPath, nil
}

// ResolveOutputDir returns outputDir, or the working directory when empty.
func (f *Fetcher) ResolveOutputDir(outputDir string) (string, error) {
	if outputDir != "" {
		return outputDir, nil
	}
	wd, err := f.getwd()
	if err != nil {
		return "", filesystemErr("error resolving working directory: %w", err)
	}
	return wd, nil
}

func (f *Fetcher) download(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return filesystemErr("error creating output directory: %w", err)
	}

	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return downloadErr("error getting stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return filesystemErr("error creating output file: %w", err)
	}

	if _, err := io.Copy(file, stream); err != nil {
		file.Close()
		os.Remove(path)
		return downloadErr("error copying stream to file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return filesystemErr("error closing output file: %w", err)
	}

	return nil
}

// RenameToAudio replaces the extension of path with AudioExt and moves the
// file there.
func RenameToAudio(path string) (string, error) {
	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + AudioExt
	if newPath == path {
		return path, nil
	}
	if err := os.Rename(path, newPath); err != nil {
		return "", filesystemErr("error renaming %s: %w", filepath.Base(path), err)
	}
	return newPath, nil
}

// SelectAudioFormat picks the best audio-only format: audio/mp4 first, then
// the highest bitrate.
func SelectAudioFormat(formats youtube.FormatList) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels == 0 || format.Width != 0 || format.Height != 0 {
			continue
		}
		if best == nil || betterAudioFormat(format, best) {
			best = format
		}
	}
	if best == nil {
		return nil, errors.New("no audio-only formats available")
	}
	return best, nil
}

func betterAudioFormat(candidate, current *youtube.Format) bool {
	candidateMP4 := mimeToExt(candidate.MimeType) == "mp4"
	currentMP4 := mimeToExt(current.MimeType) == "mp4"
	if candidateMP4 != currentMP4 {
		return candidateMP4
	}
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

func bitrateForFormat(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

func sanitize(name string) string {
	clean := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(name, ""))
	if len(clean) > maxTitleBytes {
		cut := maxTitleBytes
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = strings.TrimSpace(clean[:cut])
	}
	if clean == "" {
		return "audio"
	}
	return clean
}

func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(mime), "/")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return "bin"
}
