// Package scan walks a source tree and produces model.SourceEntry records,
// grounded on original_source/src/pac/scanner.py and the teacher's
// pkg/storage.Local.List deterministic-walk pattern.
package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pacmirror/pac/pkg/flacmeta"
	"github.com/pacmirror/pac/pkg/model"
)

// SourceExt is the only lossless extension the scanner recognises.
const SourceExt = ".flac"

// ScanFlacTree walks root depth-first, entries within a directory sorted by
// byte-wise path (§4.2), and returns one SourceEntry per .flac file found.
// Hidden files/directories (dot-prefixed) and non-matching extensions are
// skipped. A per-file stat/header error records the entry with
// AudioMD5 == "" and ScanErr set; it does not abort the walk.
//
// Exposed as a standalone function (not buried inside a larger pipeline) so
// an external collaborator — e.g. the optional FLAC library-maintenance
// subsystem — can reuse the same scan without depending on the planner or
// executor.
func ScanFlacTree(ctx context.Context, root string) ([]model.SourceEntry, error) {
	var entries []model.SourceEntry

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Directory-level errors (e.g. permission denied on a subtree)
			// are reported as a scan error entry keyed by that path, rather
			// than aborting the entire walk.
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				rel = p
			}
			entries = append(entries, model.SourceEntry{
				RelPath: filepath.ToSlash(rel),
				ScanErr: err,
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if p != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), SourceExt) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		entry := model.SourceEntry{RelPath: rel}

		info, statErr := d.Info()
		if statErr != nil {
			entry.ScanErr = statErr
			entries = append(entries, entry)
			return nil
		}
		entry.Size = info.Size()
		entry.MtimeNs = info.ModTime().UnixNano()

		md5, md5Err := flacmeta.ReadAudioMD5(p)
		if md5Err != nil {
			entry.ScanErr = md5Err
		} else {
			entry.AudioMD5 = md5
		}
		entries = append(entries, entry)
		return nil
	})
	if walkErr != nil {
		return entries, walkErr
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
	return entries, nil
}

// ScanFlacDir scans a single directory non-recursively, supplementing the
// tree-walk mode per the original prototype's convert_dir.py convenience
// entry point.
func ScanFlacDir(ctx context.Context, dir string) ([]model.SourceEntry, error) {
	all, err := ScanFlacTree(ctx, dir)
	if err != nil {
		return nil, err
	}
	var top []model.SourceEntry
	for _, e := range all {
		if !strings.Contains(strings.TrimPrefix(e.RelPath, "./"), "/") {
			top = append(top, e)
		}
	}
	return top, nil
}

// SortedRelPaths returns just the rel_path set, sorted byte-wise.
func SortedRelPaths(entries []model.SourceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelPath
	}
	sort.Strings(out)
	return out
}
