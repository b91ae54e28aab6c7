// Package discovery walks an input tree, filters by file role, and
// assembles the stem-grouped work items the group scheduler consumes.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mdickers47/mux-media/internal/classify"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/pathutil"
)

// Group is the maximal set of media files in one directory sharing a
// file_stem, plus the metadata needed to name the output.
type Group struct {
	Stem          string
	Files         []string // lexicographically smallest path first
	OutNameMiddle string
	MediaNumber   int
	HasMediaNum   bool
}

// Walker enumerates an input tree per the configured depth/skip-set, then
// yields stem groups filtered by the configured range.
type Walker struct {
	Root  string
	Depth int
	Skip  []string
	Range *config.RangeFilter

	mediaDirs []string
	fontDirs  []string
}

// IterMediaInDir lists the media-classified files directly in dir.
func IterMediaInDir(dir string) ([]string, error) {
	return listByRole(dir, classify.IsMedia)
}

// IterFontsInDir lists the font-classified files directly in dir.
func IterFontsInDir(dir string) ([]string, error) {
	return listByRole(dir, classify.IsFont)
}

func listByRole(dir string, pred func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pred(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Finalize walks the tree to depth w.Depth (DFS, skip-set filtered) and
// partitions directories into those holding ≥1 font file and those holding
// ≥1 media file. It fails if the root directory's own subtree has no media
// at all.
func (w *Walker) Finalize() error {
	var mediaDirs, fontDirs []string

	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if w.skip(dir) {
			return nil
		}
		media, err := IterMediaInDir(dir)
		if err != nil {
			return err
		}
		if len(media) > 0 {
			mediaDirs = append(mediaDirs, dir)
		}
		fonts, err := IterFontsInDir(dir)
		if err != nil {
			return err
		}
		if len(fonts) > 0 {
			fontDirs = append(fontDirs, dir)
		}
		if depth >= w.Depth {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		var subdirs []string
		for _, e := range entries {
			if e.IsDir() {
				subdirs = append(subdirs, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(subdirs)
		for _, sub := range subdirs {
			if err := walk(sub, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(w.Root, 0); err != nil {
		return err
	}
	if len(mediaDirs) == 0 {
		return fmt.Errorf("no media files found under %s", w.Root)
	}
	w.mediaDirs = mediaDirs
	w.fontDirs = fontDirs
	return nil
}

func (w *Walker) skip(dir string) bool {
	base := filepath.Base(dir)
	for _, pat := range w.Skip {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, dir); ok {
			return true
		}
	}
	return false
}

// FontFiles flattens every font-classified file across all font-carrying
// directories found during Finalize, sorted for deterministic --attach-file
// ordering.
func (w *Walker) FontFiles() ([]string, error) {
	var out []string
	for _, dir := range w.fontDirs {
		files, err := IterFontsInDir(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	sort.Strings(out)
	return out, nil
}

// IterMediaGroupedByStem yields every stem group across the walked tree,
// filtered by the configured media-number range. Subtitle files in a media
// directory are grouped alongside its media files. Tie-break: when multiple
// files in a directory share the same media number under different stems,
// the lexicographically smallest path wins primary membership and the rest
// attach to it in path order.
type numbered struct {
	path string
	stem string
	num  int
	hasN bool
}

func (w *Walker) IterMediaGroupedByStem() ([]Group, error) {
	byDir := map[string][]numbered{}
	for _, dir := range w.mediaDirs {
		files, err := listByRole(dir, func(name string) bool {
			return classify.IsMedia(name) || classify.IsSubtitle(name)
		})
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			stem := pathutil.Stem(f)
			num, hasN := pathutil.MediaNumber(stem)
			if w.Range != nil && hasN && !w.Range.Contains(num) {
				continue
			}
			byDir[dir] = append(byDir[dir], numbered{path: f, stem: stem, num: num, hasN: hasN})
		}
	}

	var groups []Group
	for _, files := range byDir {
		byNum := map[int][]numbered{}
		var unnumbered []numbered
		for _, f := range files {
			if f.hasN {
				byNum[f.num] = append(byNum[f.num], f)
			} else {
				unnumbered = append(unnumbered, f)
			}
		}
		for num, group := range byNum {
			groups = append(groups, buildGroup(group, num, true))
		}
		byStem := map[string][]numbered{}
		for _, f := range unnumbered {
			byStem[f.stem] = append(byStem[f.stem], f)
		}
		for _, group := range byStem {
			groups = append(groups, buildGroup(group, 0, false))
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Files[0] < groups[j].Files[0] })
	return groups, nil
}

func buildGroup(files []numbered, num int, hasNum bool) Group {
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	stem := files[0].stem
	middle := stem
	if hasNum {
		middle = fmt.Sprintf("%d", num)
	}
	return Group{
		Stem:          stem,
		Files:         paths,
		OutNameMiddle: middle,
		MediaNumber:   num,
		HasMediaNum:   hasNum,
	}
}
