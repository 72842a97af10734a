package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Autodetect locates the template and lookup workbooks in dir by filename
// convention: the newest .xlsx whose name contains TEMPLATE, and the newest
// whose name contains LOOKUPTABLE. Excel lock files (~$ prefix) are skipped.
func Autodetect(dir string) (templatePath, lookupPath string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("scan %s: %w", dir, err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var xlsx []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		xlsx = append(xlsx, candidate{path: filepath.Join(dir, name), modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(xlsx, func(i, j int) bool { return xlsx[i].modTime > xlsx[j].modTime })

	pick := func(marker string) string {
		for _, c := range xlsx {
			if strings.Contains(strings.ToUpper(filepath.Base(c.path)), marker) {
				return c.path
			}
		}
		return ""
	}

	templatePath = pick("TEMPLATE")
	lookupPath = pick("LOOKUPTABLE")
	if templatePath == "" {
		return "", "", fmt.Errorf("no template workbook (*TEMPLATE*.xlsx) found in %s", dir)
	}
	if lookupPath == "" {
		return "", "", fmt.Errorf("no lookup workbook (*LOOKUPTABLE*.xlsx) found in %s", dir)
	}
	return templatePath, lookupPath, nil
}
