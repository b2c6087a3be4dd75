package export

import (
	"path/filepath"

	"github.com/tphakala/waves-previewer/internal/listmodel"
)

// PostProcess applies spec.md §4.8's post-processing step once a Run
// completes: clearing overrides on saved sources, propagating format-
// override renames into the list model, and merging any NewFile additions.
func PostProcess(list *listmodel.List, tasks []Task, result Result, forgetMeta func(path string)) {
	byDst := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byDst[t.Dst] = t
	}

	succeeded := make(map[string]bool, len(result.SuccessPaths))
	for _, p := range result.SuccessPaths {
		succeeded[p] = true
	}

	for dst, src := range result.RenamedFrom {
		if !succeeded[dst] {
			continue
		}
		item, ok := list.ByPath(src)
		if !ok {
			continue
		}
		if err := list.RenamePath(item.ID, dst); err == nil && forgetMeta != nil {
			forgetMeta(src)
		}
	}

	for dst := range succeeded {
		task, ok := byDst[dst]
		if !ok {
			continue
		}
		if _, ok := list.ByID(task.ItemID); !ok {
			continue
		}
		list.ClearOverrides(task.ItemID)
		list.SetDisplayName(task.ItemID, displayNameFor(dst))
	}
}

// MergeNewFiles adds each successfully written NewFile-mode destination
// not already tracked in list, returning the first added item so the
// caller can select it (spec.md §4.8 "If NewFile: merge new files into the
// list, select the first added").
func MergeNewFiles(list *listmodel.List, paths []string) (*listmodel.MediaItem, error) {
	var first *listmodel.MediaItem
	for _, path := range paths {
		if _, exists := list.ByPath(path); exists {
			continue
		}
		item, err := list.Add(path, displayNameFor(path))
		if err != nil {
			return first, err
		}
		if first == nil {
			first = item
		}
	}
	return first, nil
}

func displayNameFor(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
