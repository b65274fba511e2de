package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DownloadOptions configures the rate schedule downloader.
type DownloadOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RateLimit caps outgoing HTTP requests per second. Rate schedule hosts
	// are mostly government servers; stay polite.
	RateLimit float64
}

// Downloader retrieves rate schedule files over FTP or HTTP(S).
type Downloader struct {
	opts    DownloadOptions
	client  *http.Client
	limiter *rate.Limiter
}

// NewDownloader creates a Downloader with the given options.
func NewDownloader(opts DownloadOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2
	}
	return &Downloader{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// Download retrieves the file behind rawURL, dispatching on the scheme. The
// caller must close the returned reader.
func (d *Downloader) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}

	switch u.Scheme {
	case "ftp":
		return d.downloadFTP(ctx, u)
	case "http", "https":
		return d.downloadHTTP(ctx, rawURL)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// DownloadToFile downloads rawURL to a local path. Returns bytes written.
func (d *Downloader) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	rc, err := d.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, rc)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}

func (d *Downloader) downloadHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	zap.L().Debug("fetcher: http get", zap.String("url", rawURL))
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: http get")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Errorf("fetcher: http status %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

func (d *Downloader) downloadFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return nil, eris.New("fetcher: empty path in ftp url")
	}

	zap.L().Debug("fetcher: ftp retrieve", zap.String("host", host), zap.String("path", u.Path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(d.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: ftp dial")
	}
	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "fetcher: ftp login")
	}
	resp, err := conn.Retr(u.Path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "fetcher: ftp retrieve")
	}
	return &ftpReader{resp: resp, conn: conn}, nil
}

// ftpReader ties the FTP data connection lifetime to the reader: closing it
// closes the response and quits the control connection.
type ftpReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *ftpReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "fetcher: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "fetcher: quit ftp connection")
	}
	return nil
}
