// Package staging 负责把调用方的“虚拟”内核标识映射到当前后端
// 底层库可见的物理位置（原生后端为真实临时文件，WASM 后端为模块
// 虚拟文件系统内路径），并在清单查询时做反向还原。
package staging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
)

// VirtualRoot 是虚拟内核命名空间的根。
const VirtualRoot = "/kernels"

// FS 是暂存层落地文件所需的最小文件系统能力。
type FS interface {
	// Root 返回暂存根目录（已按实现约定的路径风格）。
	Root() string
	// Join 拼接路径（宿主实现用 OS 分隔符，VFS 实现用 POSIX）。
	Join(elem ...string) string
	// WriteFile 写入文件，必要时创建父目录。
	WriteFile(path string, data []byte) error
	// Remove 删除文件。文件不存在时返回满足 IsNotExist 的错误。
	Remove(path string) error
	// Exists 报告路径是否存在于该文件系统。
	Exists(path string) bool
	// IsNotExist 判定 Remove 的“文件已不在”错误。
	IsNotExist(err error) bool
}

// Canonicalize 把虚拟内核标识规范化到 /kernels/ 根下。
// 拒绝 ..、空段和空标识；已在根下的路径保持原位。
func Canonicalize(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", backend.Validation("虚拟内核路径不能为空")
	}
	p = strings.TrimPrefix(p, VirtualRoot+"/")
	p = strings.TrimPrefix(p, "/")

	segs := strings.Split(p, "/")
	clean := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg {
		case "":
			return "", backend.Validation(fmt.Sprintf("虚拟内核路径含空段: %q", path))
		case ".", "..":
			return "", backend.Validation(fmt.Sprintf("虚拟内核路径不允许相对段: %q", path))
		}
		clean = append(clean, seg)
	}
	return VirtualRoot + "/" + strings.Join(clean, "/"), nil
}

// IsVirtualSpelling 判断路径在语法上是否属于虚拟命名空间：
// /kernels/... 或裸相对名。绝对 OS 路径永远不算。
func IsVirtualSpelling(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, VirtualRoot+"/") {
		return true
	}
	// 其余以 / 或盘符开头的路径都按后端原生路径处理。
	if strings.HasPrefix(path, "/") || strings.Contains(path, ":") {
		return false
	}
	return true
}

// Stager 维护单个后端实例的 虚拟路径 <-> 物理位置 双向映射。
// 并发安全由事件序列化保证，这里仍按惯例加锁。
type Stager struct {
	mu         sync.Mutex
	fs         FS
	namer      func(base string) string
	byVirtual  map[string]string
	byPhysical map[string]string
	logger     *zap.SugaredLogger
}

// New 创建暂存管理器。namer 生成物理文件名（默认 UUID 前缀）。
func New(fs FS, logger *zap.SugaredLogger) *Stager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Stager{
		fs:         fs,
		namer:      defaultNamer,
		byVirtual:  map[string]string{},
		byPhysical: map[string]string{},
		logger:     logger,
	}
}

// Staged 返回虚拟路径当前映射到的物理位置。
func (s *Stager) Staged(canonical string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byVirtual[canonical]
	return p, ok
}

// Stage 把字节内核落地为新的物理文件并记录映射。
// 同一虚拟路径重复 Stage 属于调用序错误：必须先 Release。
func (s *Stager) Stage(canonical string, bytes []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byVirtual[canonical]; ok {
		return "", &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("虚拟路径已有暂存, 需先释放: %s", canonical),
		}
	}

	base := canonical[strings.LastIndex(canonical, "/")+1:]
	physical := s.fs.Join(s.fs.Root(), s.namer(base))
	if err := s.fs.WriteFile(physical, bytes); err != nil {
		return "", &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("暂存内核写入失败: %s", canonical),
			Cause:   errors.WithStack(err),
		}
	}

	s.byVirtual[canonical] = physical
	s.byPhysical[physical] = canonical
	s.logger.Debugw("内核已暂存", "virtual", canonical, "physical", physical)
	return physical, nil
}

// Release 移除一条暂存映射并尽力删除物理文件。
// “文件已不在”不算错误，其余删除失败照实上抛。
func (s *Stager) Release(canonical string) error {
	s.mu.Lock()
	physical, ok := s.byVirtual[canonical]
	if ok {
		delete(s.byVirtual, canonical)
		delete(s.byPhysical, physical)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.fs.Remove(physical); err != nil && !s.fs.IsNotExist(err) {
		return &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("暂存内核删除失败: %s", physical),
			Cause:   errors.WithStack(err),
		}
	}
	return nil
}

// ReleaseAll 清空全部映射并尽力删除所有暂存文件，返回物理路径清单。
func (s *Stager) ReleaseAll() []string {
	s.mu.Lock()
	physicals := make([]string, 0, len(s.byVirtual))
	for virtual, physical := range s.byVirtual {
		physicals = append(physicals, physical)
		delete(s.byVirtual, virtual)
		delete(s.byPhysical, physical)
	}
	s.mu.Unlock()

	for _, physical := range physicals {
		if err := s.fs.Remove(physical); err != nil && !s.fs.IsNotExist(err) {
			s.logger.Warnw("暂存内核清理失败", "physical", physical, "err", err)
		}
	}
	return physicals
}

// VirtualFor 反查物理位置对应的虚拟标识（kdata/kinfo 回写用）。
func (s *Stager) VirtualFor(physical string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byPhysical[physical]
	return v, ok
}

// ResolveUnload 把调用方的 unload 路径解析为物理位置。
// 命中暂存映射时返回 staged=true 与规范虚拟路径；否则原样透传。
//
// 虚拟判定沿用既有启发式：语法上属于虚拟命名空间、且该拼写在真实
// 文件系统上不存在。该检查存在 TOCTOU 竞态且依赖环境，这里保持
// 原有语义不做加强（已知限制）。
func (s *Stager) ResolveUnload(path string) (physical string, canonical string, staged bool) {
	if !IsVirtualSpelling(path) || s.fs.Exists(path) {
		return path, "", false
	}
	c, err := Canonicalize(path)
	if err != nil {
		return path, "", false
	}
	p, ok := s.Staged(c)
	if !ok {
		return path, "", false
	}
	return p, c, true
}

// SetNamer 仅供测试注入确定性文件名。
func (s *Stager) SetNamer(namer func(base string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namer = namer
}
