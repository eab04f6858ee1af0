package thumbnail

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Input 是批量归一化中的一张图片。
type Input struct {
	Name string
	Data []byte
}

// Output 对应同序号的 Input；Err 非空时 Data 为空。
type Output struct {
	Name string
	Data []byte
	Err  error
}

// NormalizeAll 以最多 workers 个并发归一化 inputs，结果与输入一一对应。
// 单张图片失败记录在对应 Output 中，不影响其他图片；只有 ctx 取消会让整体返回错误。
func NormalizeAll(ctx context.Context, inputs []Input, opts Options, workers int) ([]Output, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Output, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := Normalize(in.Data, opts)
			out[i] = Output{Name: in.Name, Data: data, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
