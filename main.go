package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/locvowork/bom_derating/internal/config"
	"github.com/locvowork/bom_derating/internal/logger"
	"github.com/locvowork/bom_derating/internal/parser"
)

func main() {
	bomPath := flag.String("bom", "", "path to the BOM workbook (required)")
	templatePath := flag.String("template", "", "path to the template workbook (autodetected next to the BOM when empty)")
	lookupPath := flag.String("lookup", "", "path to the lookup workbook (autodetected next to the BOM when empty)")
	outDir := flag.String("outdir", "", "output directory (defaults to the BOM's directory)")
	flag.Parse()

	ctx := context.Background()

	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		panic(err)
	}

	// Initialize logging
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH)

	if *bomPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *templatePath == "" || *lookupPath == "" {
		tpl, lk, err := parser.Autodetect(filepath.Dir(*bomPath))
		if err != nil {
			logger.ErrorLog(ctx, "Failed to autodetect workbooks: %v", err)
			os.Exit(1)
		}
		if *templatePath == "" {
			*templatePath = tpl
		}
		if *lookupPath == "" {
			*lookupPath = lk
		}
	}
	logger.InfoLog(ctx, "Using template %s and lookup %s", *templatePath, *lookupPath)

	dir := *outDir
	if dir == "" {
		dir = config.DefaultEnvConfig.OUTPUT_DIR
	}

	in := parser.Inputs{
		BOMPath:      *bomPath,
		TemplatePath: *templatePath,
		LookupPath:   *lookupPath,
	}
	result, err := parser.Run(ctx, in, parser.OutputsFor(*bomPath, dir))
	if err != nil {
		logger.ErrorLog(ctx, "Derating run failed", err)
		os.Exit(1)
	}
	logger.InfoLog(ctx, "Wrote %s and %s", result.WorkbookPath, result.ReportPath)
}
