package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"quire/internal/config"
	"quire/internal/descramble"
	"quire/internal/ledger"
	"quire/internal/logging"
	"quire/internal/manifest"
	"quire/internal/play"
)

// ErrWorkLocked indicates another downloader holds the lock for a work.
var ErrWorkLocked = errors.New("work output is locked by another process")

// ErrLengthMismatch indicates fetched bytes don't match the manifest's
// declared length.
var ErrLengthMismatch = errors.New("byte length mismatch")

// ContentClient is the slice of the Play client the downloader needs.
type ContentClient interface {
	DownloadToken(ctx context.Context, workno string) (play.Token, error)
	ZipTree(ctx context.Context, token play.Token) (*manifest.Tree, error)
	FetchFile(ctx context.Context, token play.Token, encodedName string) (io.ReadCloser, error)
}

// Failure describes one asset that could not be downloaded. Failures are
// scoped to their asset; the walk continues past them.
type Failure struct {
	Path string
	Err  error
}

// Result summarizes one work download run.
type Result struct {
	Workno    string
	SessionID string
	Written   int
	Skipped   int
	Bytes     int64
	Failures  []Failure
}

// Downloader fetches works through an authenticated Play session.
type Downloader struct {
	cfg    *config.Config
	client ContentClient
	store  *ledger.Store
	logger *slog.Logger
}

// New constructs a downloader. The ledger store is optional; nil disables
// history recording.
func New(cfg *config.Config, client ContentClient, store *ledger.Store, logger *slog.Logger) *Downloader {
	return &Downloader{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logging.NewComponentLogger(logger, "download"),
	}
}

// Work downloads every asset of workno using an existing token and parsed
// tree. The work's output directory is guarded by a file lock so concurrent
// invocations cannot interleave writes.
func (d *Downloader) Work(ctx context.Context, token play.Token, tree *manifest.Tree) (*Result, error) {
	workno := tree.Workno
	workDir := filepath.Join(d.cfg.Paths.OutputDir, workno)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}

	lock := flock.New(workDir + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire work lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrWorkLocked, workno)
	}
	defer func() { _ = lock.Unlock() }()

	result := &Result{Workno: workno, SessionID: uuid.NewString()}
	logger := d.logger.With(
		logging.String(logging.FieldWorkno, workno),
		logging.String(logging.FieldSessionID, result.SessionID))
	logger.Info("downloading work",
		logging.Int("assets", tree.Len()),
		logging.String(logging.FieldVariant, d.cfg.Download.Variant))

	for _, path := range tree.Paths() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		asset, _ := tree.Lookup(path)
		written, n, err := d.asset(ctx, token, workDir, asset)
		switch {
		case err != nil:
			logger.Warn("asset failed; continuing",
				logging.String(logging.FieldPath, path), logging.Error(err))
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
		case written:
			result.Written++
			result.Bytes += n
			d.record(ctx, logger, asset, workno, n, result.SessionID)
		default:
			result.Skipped++
		}
	}

	logger.Info("work download finished",
		logging.Int("written", result.Written),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", len(result.Failures)))
	return result, nil
}

// Fetch resolves the token and manifest for workno and downloads it.
func (d *Downloader) Fetch(ctx context.Context, workno string) (*Result, error) {
	token, err := d.client.DownloadToken(ctx, workno)
	if err != nil {
		return nil, err
	}
	tree, err := d.client.ZipTree(ctx, token)
	if err != nil {
		return nil, err
	}
	return d.Work(ctx, token, tree)
}

// asset downloads one asset. The bool reports whether a file was written;
// false with nil error means the destination already existed.
func (d *Downloader) asset(ctx context.Context, token play.Token, workDir string, asset *manifest.Asset) (bool, int64, error) {
	variant, err := asset.Variant(d.cfg.Download.Variant)
	if err != nil {
		return false, 0, err
	}

	dest := filepath.Join(workDir, filepath.FromSlash(asset.Path))
	if variant.Scrambled {
		dest = replaceExt(dest, "."+normalizedFormat(d.cfg.Download.ImageFormat))
	}
	if !d.cfg.Download.OverwriteExisting {
		if _, err := os.Stat(dest); err == nil {
			return false, 0, nil
		}
	}

	body, err := d.client.FetchFile(ctx, token, variant.Name)
	if err != nil {
		return false, 0, err
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return false, 0, fmt.Errorf("read %s: %w", asset.Path, err)
	}
	if variant.Length > 0 && int64(len(payload)) != variant.Length {
		return false, 0, fmt.Errorf("%w: %s has %d bytes, manifest declares %d",
			ErrLengthMismatch, asset.Path, len(payload), variant.Length)
	}

	if variant.Scrambled {
		seed, err := descramble.SeedFromName(variant.Name)
		if err != nil {
			return false, 0, err
		}
		payload, err = d.restoreImage(payload, descramble.Geometry{
			Width:  variant.Width,
			Height: variant.Height,
			Seed:   seed,
		})
		if err != nil {
			return false, 0, fmt.Errorf("descramble %s: %w", asset.Path, err)
		}
	}

	if err := writeAtomic(dest, payload); err != nil {
		return false, 0, err
	}
	return true, int64(len(payload)), nil
}

// restoreImage decodes a scrambled raster, reverses the cell permutation,
// and re-encodes it in the configured output format.
func (d *Downloader) restoreImage(payload []byte, g descramble.Geometry) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	restored, err := descramble.Unscramble(img, g)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch normalizedFormat(d.cfg.Download.ImageFormat) {
	case "jpg":
		err = jpeg.Encode(&buf, restored, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(&buf, restored)
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Downloader) record(ctx context.Context, logger *slog.Logger, asset *manifest.Asset, workno string, n int64, sessionID string) {
	if d.store == nil {
		return
	}
	variant, err := asset.Variant(d.cfg.Download.Variant)
	if err != nil {
		return
	}
	err = d.store.RecordDownload(ctx, ledger.Record{
		Workno:      workno,
		Path:        asset.Path,
		Variant:     d.cfg.Download.Variant,
		Bytes:       n,
		Descrambled: variant.Scrambled,
		SessionID:   sessionID,
	})
	if err != nil {
		logger.Warn("failed to record download",
			logging.String(logging.FieldPath, asset.Path), logging.Error(err))
	}
}

func writeAtomic(dest string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	tmp := dest + ".partial"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("finalize %s: %w", dest, err)
	}
	return nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// normalizedFormat folds jpeg/jpg onto one extension; anything else means
// png.
func normalizedFormat(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "jpg"
	default:
		return "png"
	}
}
