// Package destindex builds the destination tree's by_rel and by_md5 views
// the planner reconciles against, grounded on
// original_source/src/pac/dest_index.py. No state survives between runs:
// every invocation re-derives both maps from what is actually on disk plus
// whatever PAC_* fingerprint each file currently carries.
package destindex

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/tagio"
)

var supportedExt = map[string]string{
	".m4a": "mp4",
	".mp4": "mp4",
	".mp4a": "mp4",
	".opus": "opus",
}

// Index is the destination tree's two views: unique by relative path, and
// grouped by the source audio-MD5 each output's fingerprint claims.
type Index struct {
	ByRel map[string]model.OutputEntry
	ByMD5 map[string][]model.OutputEntry
}

// PreferredByMD5 returns the deterministically-first entry for a given
// source MD5 (smallest rel path first, container only as a tie-break), or false if
// no destination claims that MD5 at all.
func (idx Index) PreferredByMD5(md5 string) (model.OutputEntry, bool) {
	entries := idx.ByMD5[md5]
	if len(entries) == 0 {
		return model.OutputEntry{}, false
	}
	return entries[0], true
}

// Build walks destRoot, reads each media file's embedded fingerprint, and
// assembles both views. Unreadable or unparsable files are recorded with
// IndexErr in ByRel and excluded from ByMD5 rather than aborting the walk,
// matching the original's "skip unreadable/bad files" behaviour.
func Build(ctx context.Context, destRoot string, workers int) (Index, error) {
	paths, err := walkMediaFiles(destRoot)
	if err != nil {
		return Index{}, err
	}

	entries := make([]model.OutputEntry, len(paths))
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					entries[i] = model.OutputEntry{IndexErr: ctx.Err()}
					continue
				default:
				}
				entries[i] = buildEntry(destRoot, paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Index{}, err
	}

	byRel := make(map[string]model.OutputEntry, len(entries))
	md5Groups := make(map[string][]model.OutputEntry)
	for _, e := range entries {
		byRel[e.RelPath] = e
		if e.Fingerprint.SrcMD5 != "" {
			md5Groups[e.Fingerprint.SrcMD5] = append(md5Groups[e.Fingerprint.SrcMD5], e)
		}
	}
	for md5, group := range md5Groups {
		sort.Slice(group, func(i, j int) bool {
			return preferredKey(group[i]) < preferredKey(group[j])
		})
		md5Groups[md5] = group
	}

	return Index{ByRel: byRel, ByMD5: md5Groups}, nil
}

// preferredKey orders duplicates deterministically: by rel path first, with
// mp4 sorting ahead of opus on an exact rel-path tie (which cannot actually
// happen within one destination tree, but mirrors the original's tie-break
// rule exactly).
func preferredKey(e model.OutputEntry) string {
	container := "1"
	if supportedExt[strings.ToLower(filepath.Ext(e.RelPath))] == "mp4" {
		container = "0"
	}
	return e.RelPath + "\x00" + container
}

func buildEntry(destRoot, absPath string) model.OutputEntry {
	rel, err := filepath.Rel(destRoot, absPath)
	if err != nil {
		return model.OutputEntry{RelPath: absPath, IndexErr: err}
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Stat(absPath)
	if err != nil {
		return model.OutputEntry{RelPath: rel, IndexErr: err}
	}

	fp, err := tagio.ReadFingerprint(absPath)
	if err != nil {
		// A file that exists but whose tags can't be parsed still belongs in
		// ByRel (so the planner can see and potentially prune it); it's just
		// absent from ByMD5.
		return model.OutputEntry{
			RelPath:  rel,
			Size:     info.Size(),
			MtimeNs:  info.ModTime().UnixNano(),
			IndexErr: err,
		}
	}

	return model.OutputEntry{
		RelPath:     rel,
		Size:        info.Size(),
		MtimeNs:     info.ModTime().UnixNano(),
		Fingerprint: fp,
	}
}

func walkMediaFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, ok := supportedExt[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
