// Package uploader publishes wheel files to object storage and records them in the registry.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralt/wheelhouse/internal/generator"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/ralt/wheelhouse/internal/scanner"
	"github.com/ralt/wheelhouse/internal/signer"
	"github.com/ralt/wheelhouse/internal/storage"
	"github.com/ralt/wheelhouse/internal/utils"
	"github.com/ralt/wheelhouse/internal/wheel"
	"github.com/sirupsen/logrus"
)

// Sidecar suffixes published next to a wheel
const (
	MetadataSuffix  = ".metadata"
	SignatureSuffix = ".asc"
)

// Action describes what an upload did to the registry
type Action string

const (
	ActionNone     Action = "none"
	ActionAppended Action = "appended"
	ActionReplaced Action = "replaced"
)

// Result reports the outcome of one upload
type Result struct {
	Package  string // Registry display name, or the parsed name when unregistered
	Filename string
	URL      string
	SHA256   string
	Action   Action
}

// Uploader transfers wheels and keeps the registry and index up to date
type Uploader struct {
	store             registry.Store
	transferer        storage.Transferer
	gen               generator.Generator
	digester          utils.Digester
	signer            signer.Signer
	prefix            string
	requireRegistered bool
	now               func() time.Time
}

// Option configures an Uploader
type Option func(*Uploader)

// WithDigester sets the content hash implementation
func WithDigester(d utils.Digester) Option {
	return func(u *Uploader) {
		u.digester = d
	}
}

// WithSigner enables detached signatures for uploaded wheels
func WithSigner(s signer.Signer) Option {
	return func(u *Uploader) {
		u.signer = s
	}
}

// WithPrefix sets the object key prefix
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = prefix
	}
}

// WithRequireRegistered makes uploads for unregistered packages fail before any transfer
func WithRequireRegistered(require bool) Option {
	return func(u *Uploader) {
		u.requireRegistered = require
	}
}

// WithClock sets the time source for upload dates
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) {
		u.now = now
	}
}

// New creates an uploader
func New(store registry.Store, t storage.Transferer, gen generator.Generator, opts ...Option) *Uploader {
	u := &Uploader{
		store:      store,
		transferer: t,
		gen:        gen,
		digester:   utils.SHA256Digester{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UploadAll uploads every path in order, expanding directories to the wheels
// they contain. It stops at the first failure.
func (u *Uploader) UploadAll(ctx context.Context, paths []string) ([]*Result, error) {
	files, err := expandPaths(ctx, paths)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(files))
	for _, path := range files {
		res, err := u.Upload(ctx, path)
		// A render failure still returns the recorded result
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Upload publishes one wheel. The wheel and its sidecars are transferred
// before the registry is touched, so a failed transfer leaves the registry
// unchanged.
func (u *Uploader) Upload(ctx context.Context, path string) (*Result, error) {
	// Step 1: Check the artifact
	if !utils.IsRegularFile(path) {
		return nil, models.NewError(models.ErrFileNotFound, path, fmt.Errorf("no such file"))
	}

	filename := filepath.Base(path)
	fn, err := wheel.ParseFilename(filename)
	if err != nil {
		return nil, err
	}

	checksum, err := utils.CalculateChecksums(path, u.digester)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	logrus.Debugf("%s: sha256=%s size=%d", filename, checksum.SHA256, checksum.Size)

	// Step 2: Resolve the registry entry
	reg, err := u.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	name, entry, registered := registry.Lookup(reg, fn.Package)
	if !registered {
		if u.requireRegistered {
			return nil, models.NewError(models.ErrPackageNotFound, fn.Package,
				fmt.Errorf("not in registry (normalized %q), register it first", registry.Normalize(fn.Package)))
		}
		logrus.Warnf("Package %s is not registered; uploading %s without updating the registry", fn.Package, filename)
		name = fn.Package
	}

	// Step 3: Transfer the wheel and its sidecars
	key := storage.Key(u.prefix, filename)
	logrus.Infof("Uploading %s to %s", filename, key)
	if err := u.transferer.Transfer(ctx, path, key); err != nil {
		return nil, asTransferFailure(key, err)
	}

	record := models.WheelRecord{
		Filename:      filename,
		URL:           u.transferer.URL(key),
		PythonVersion: fn.InterpreterTag,
		Platform:      fn.PlatformTag,
		UploadDate:    u.now().UTC().Format(time.DateOnly),
		SHA256:        checksum.SHA256,
	}

	if err := u.publishMetadata(ctx, path, key, fn, &record); err != nil {
		return nil, err
	}
	if err := u.publishSignature(ctx, path, key, &record); err != nil {
		return nil, err
	}

	res := &Result{
		Package:  name,
		Filename: filename,
		URL:      record.URL,
		SHA256:   record.SHA256,
		Action:   ActionNone,
	}
	if !registered {
		return res, nil
	}

	// Step 4: Record the wheel, then re-render
	if i := registry.FindWheel(entry, filename); i >= 0 {
		entry.Wheels[i] = record
		res.Action = ActionReplaced
	} else {
		entry.Wheels = append(entry.Wheels, record)
		res.Action = ActionAppended
	}

	if err := u.store.Save(ctx, reg); err != nil {
		return nil, err
	}
	logrus.Infof("Registry updated: %s %s (%d wheels)", res.Action, filename, len(entry.Wheels))

	if err := u.gen.Generate(ctx, reg); err != nil {
		return res, models.NewError(models.ErrRenderFailure, name,
			fmt.Errorf("registry saved but index is stale, run render: %w", err))
	}

	return res, nil
}

// publishMetadata uploads the wheel's core metadata as <wheel>.metadata
func (u *Uploader) publishMetadata(ctx context.Context, path, key string, fn *wheel.Filename, record *models.WheelRecord) error {
	md, err := wheel.ReadMetadata(path)
	if err != nil {
		logrus.Warnf("Skipping core metadata for %s: %v", filepath.Base(path), err)
		return nil
	}
	if msg := metadataMismatch(fn, md); msg != "" {
		logrus.Warnf("%s: %s", filepath.Base(path), msg)
	}

	if err := u.transferBytes(ctx, md.Raw, key+MetadataSuffix); err != nil {
		return err
	}

	record.RequiresPython = md.RequiresPython
	record.MetadataSHA256 = utils.CalculateChecksum(md.Raw)
	return nil
}

// metadataMismatch describes how METADATA disagrees with the wheel filename,
// or returns "" when it names the same project and version
func metadataMismatch(fn *wheel.Filename, md *wheel.Metadata) string {
	var problems []string
	if md.Name != "" && registry.Normalize(md.Name) != registry.Normalize(fn.Package) {
		problems = append(problems, fmt.Sprintf("METADATA names %q but the filename names %q", md.Name, fn.Package))
	}
	// Filenames escape '-' in versions as '_'
	if md.Version != "" && strings.ReplaceAll(md.Version, "-", "_") != fn.Version {
		problems = append(problems, fmt.Sprintf("METADATA version %q differs from filename version %q", md.Version, fn.Version))
	}
	return strings.Join(problems, "; ")
}

// publishSignature uploads a detached signature as <wheel>.asc
func (u *Uploader) publishSignature(ctx context.Context, path, key string, record *models.WheelRecord) error {
	if u.signer == nil {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return models.NewError(models.ErrFileNotFound, path, err)
	}
	defer f.Close()

	sig, err := u.signer.SignDetached(f)
	if err != nil {
		return models.NewError(models.ErrSigning, filepath.Base(path), err)
	}

	if err := u.transferBytes(ctx, sig, key+SignatureSuffix); err != nil {
		return err
	}

	record.GPGSig = true
	return nil
}

// transferBytes stages data in a temp file and transfers it under key
func (u *Uploader) transferBytes(ctx context.Context, data []byte, key string) error {
	tmp, err := os.CreateTemp("", "wheelhouse-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = bytes.NewReader(data).WriteTo(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := u.transferer.Transfer(ctx, tmp.Name(), key); err != nil {
		return asTransferFailure(key, err)
	}
	return nil
}

func asTransferFailure(key string, err error) error {
	if models.IsErrorType(err, models.ErrTransferFailure) {
		return err
	}
	return models.NewError(models.ErrTransferFailure, key, err)
}

// expandPaths replaces directories with the wheels found beneath them
func expandPaths(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, models.NewError(models.ErrFileNotFound, p, fmt.Errorf("no such file or directory"))
			}
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		wheels, err := scanner.FindWheels(ctx, p)
		if err != nil {
			return nil, err
		}
		if len(wheels) == 0 {
			logrus.Warnf("No wheels found in %s", p)
		}
		files = append(files, wheels...)
	}
	return files, nil
}
