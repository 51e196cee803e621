package segment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode 单主体或多主体分割
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// Resolution 模型内部分辨率，越高越准越慢
type Resolution string

const (
	ResolutionLow    Resolution = "low"
	ResolutionMedium Resolution = "medium"
	ResolutionHigh   Resolution = "high"
	ResolutionFull   Resolution = "full"
)

const DefaultThreshold = 0.7

var ErrInvalidOptions = errors.New("invalid segmentation options")

type Options struct {
	Resolution Resolution
	// 判为前景的最小概率，[0,1]
	Threshold  float64
	Mode       Mode
}

func DefaultOptions() Options {
	return Options{
		Resolution: ResolutionMedium,
		Threshold:  DefaultThreshold,
		Mode:       ModeSingle,
	}
}

func (o Options) Validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v not in [0,1]", ErrInvalidOptions, o.Threshold)
	}
	switch o.Mode {
	case ModeSingle, ModeMulti:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	switch o.Resolution {
	case ResolutionLow, ResolutionMedium, ResolutionHigh, ResolutionFull:
	default:
		return fmt.Errorf("%w: unknown resolution %q", ErrInvalidOptions, o.Resolution)
	}
	return nil
}

// ParseOptions 解析表单或命令行参数，空字符串沿用 base 中的值
func ParseOptions(threshold, mode, resolution string, base Options) (Options, error) {
	opts := base
	if s := strings.TrimSpace(threshold); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Options{}, fmt.Errorf("%w: threshold %q", ErrInvalidOptions, threshold)
		}
		opts.Threshold = t
	}
	if s := strings.TrimSpace(mode); s != "" {
		opts.Mode = Mode(strings.ToLower(s))
	}
	if s := strings.TrimSpace(resolution); s != "" {
		opts.Resolution = Resolution(strings.ToLower(s))
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// String 阈值按两位小数显示
func (o Options) String() string {
	return fmt.Sprintf("threshold=%.2f mode=%s resolution=%s", o.Threshold, o.Mode, o.Resolution)
}
