package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/config"
	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/generator"
	"github.com/ByLCY/orderpdf/layout"
	"github.com/ByLCY/orderpdf/logger"
	"github.com/ByLCY/orderpdf/order"
	"github.com/ByLCY/orderpdf/storage"
	"github.com/ByLCY/orderpdf/thumbnail"
)

func main() {
	input := flag.String("in", "order.json", "订单 JSON 路径")
	output := flag.String("out", "", "PDF 输出路径，默认为 Commande_<订单号>.pdf")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	configFile := flag.String("config", "", "配置文件路径，默认查找 orderdoc.yaml")
	lang := flag.String("lang", "", "表格语言（en、fr），覆盖配置")
	store := flag.Bool("store", false, "归一化商品图片并把 PDF 与 order.json 存入存储目录")
	normalize := flag.String("normalize", "", "只归一化这张图片，结果写到 -out")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *lang != "" {
		cfg.Page.Language = *lang
	}
	zl, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *normalize != "" {
		if err := runNormalize(cfg, *normalize, *output); err != nil {
			zl.Fatal("图片归一化失败", zap.String("code", string(docerr.CodeOf(err))), zap.Error(err))
		}
		return
	}

	path, err := run(ctx, cfg, zl, *input, *output, *debug, *store)
	if err != nil {
		zl.Fatal("生成 PDF 失败", zap.String("code", string(docerr.CodeOf(err))), zap.Error(err))
	}
	fmt.Printf("已生成 PDF：%s\n", path)
}

// run 串联加载、布局与渲染，返回 PDF 路径。
func run(ctx context.Context, cfg *config.Config, zl *zap.Logger, inputPath, outputPath, debugPath string, toStore bool) (string, error) {
	doc, err := order.LoadFile(inputPath)
	if err != nil {
		return "", err
	}
	if doc.ID == "" {
		now := doc.CreatedAt
		if now.IsZero() {
			now = time.Now()
		}
		doc.ID = order.NewID(doc.CustomerName, now)
	}

	table, err := cfg.TableOptions()
	if err != nil {
		return "", err
	}
	gen, err := generator.New(generator.Options{
		Table:  table,
		Fonts:  cfg.FontOptions(zl),
		Logger: zl,
	})
	if err != nil {
		return "", err
	}

	if debugPath != "" {
		result, err := gen.Layout(doc)
		if err != nil {
			return "", fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(result, debugPath); err != nil {
			return "", err
		}
	}

	if toStore {
		fs, err := storage.NewFileSystem(storage.Options{BaseDir: cfg.Storage.BaseDir, Logger: zl})
		if err != nil {
			return "", err
		}
		thumbOpts, err := cfg.ThumbnailOptions()
		if err != nil {
			return "", err
		}
		if doc, err = fs.ImportImages(ctx, doc, thumbOpts, cfg.Thumbnail.Workers); err != nil {
			return "", err
		}
		return gen.Store(ctx, fs, doc)
	}

	if outputPath == "" {
		outputPath = storage.PDFName(doc.ID)
	}
	if err := gen.WriteFile(doc, outputPath); err != nil {
		return "", fmt.Errorf("生成 PDF 文件失败: %w", err)
	}
	return outputPath, nil
}

func runNormalize(cfg *config.Config, src, dst string) error {
	opts, err := cfg.ThumbnailOptions()
	if err != nil {
		return err
	}
	if dst == "" {
		base := filepath.Base(src)
		dst = base[:len(base)-len(filepath.Ext(base))] + "_thumb" + opts.Extension()
	}
	return thumbnail.NormalizeFile(src, dst, opts)
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
