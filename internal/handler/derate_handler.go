package handler

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/bom_derating/internal/logger"
	"github.com/locvowork/bom_derating/internal/parser"
)

// DerateHandler runs one derating pass per request: the three uploaded
// workbooks go into a per-request temp directory, and the two artifacts
// come back as a single zip attachment.
type DerateHandler struct {
	workDir string
}

func NewDerateHandler(workDir string) *DerateHandler {
	return &DerateHandler{workDir: workDir}
}

func (h *DerateHandler) HealthHandler(c echo.Context) error {
	return responseSuccess(c, http.StatusOK, "ok", nil)
}

func (h *DerateHandler) DerateHandler(c echo.Context) error {
	ctx := c.Request().Context()

	dir, err := os.MkdirTemp(h.workDir, "derate-*")
	if err != nil {
		return responseError(c, http.StatusInternalServerError, "Failed to create working directory", err)
	}
	defer os.RemoveAll(dir)

	in := parser.Inputs{}
	for _, f := range []struct {
		field string
		dst   *string
	}{
		{"bom", &in.BOMPath},
		{"template", &in.TemplatePath},
		{"lookup", &in.LookupPath},
	} {
		path, err := saveUpload(c, f.field, dir)
		if err != nil {
			return responseError(c, http.StatusBadRequest,
				fmt.Sprintf("Missing or unreadable %q upload", f.field), err)
		}
		*f.dst = path
	}

	out := parser.OutputsFor(in.BOMPath, dir)
	result, err := parser.Run(ctx, in, out)
	if err != nil {
		// Run only fails on malformed input workbooks (missing sheets or
		// header columns) or on write errors inside our own temp dir.
		return responseError(c, http.StatusUnprocessableEntity, "Derating run failed", err)
	}
	logger.InfoLog(ctx, "Derating run finished: %d unclassified, %d duplicates, %d missing ratings",
		result.Unclassified, result.DuplicateRefs, result.MissingCount)

	archive, err := zipArtifacts(result.WorkbookPath, result.ReportPath)
	if err != nil {
		return responseError(c, http.StatusInternalServerError, "Failed to package artifacts", err)
	}

	c.Response().Header().Set("Content-Type", "application/zip")
	c.Response().Header().Set("Content-Disposition", `attachment; filename="derating_result.zip"`)
	_, err = c.Response().Write(archive)
	return err
}

func saveUpload(c echo.Context, field, dir string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst := filepath.Join(dir, filepath.Base(fh.Filename))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return dst, nil
}

// zipArtifacts packs the result workbook and the issue report into one
// in-memory zip, stored under their base names.
func zipArtifacts(paths ...string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		w, err := zw.Create(filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
