package wasmspice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/staging"
)

// stagedEntry 记录一条挂载映射：宿主物理文件与调用方当初的拼写。
type stagedEntry struct {
	physical string
	spelling string
}

// vfsStager 把字节内核落地到挂载目录。宿主目录被挂载为客体的
// /kernels，因此客体路径与规范虚拟路径天然一致，不需要改名。
// 调用方拼写（含宿主绝对路径）一并登记，Unload/Kdata 按原拼写还原。
type vfsStager struct {
	mu         sync.Mutex
	root       string
	staged     map[string]stagedEntry // canonical -> 映射条目
	bySpelling map[string]string      // 调用方拼写 -> canonical
	logger     *zap.SugaredLogger
}

func newVFSStager(root string, logger *zap.SugaredLogger) *vfsStager {
	return &vfsStager{
		root:       root,
		staged:     map[string]stagedEntry{},
		bySpelling: map[string]string{},
		logger:     logger,
	}
}

func (s *vfsStager) hostPath(canonical string) string {
	rel := strings.TrimPrefix(canonical, staging.VirtualRoot+"/")
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Stage 写入字节内核，返回客体可见的虚拟路径。
// 同一虚拟路径重复 Stage 属于调用序错误：必须先 Release。
func (s *vfsStager) Stage(canonical, spelling string, bytes []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staged[canonical]; ok {
		return "", &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("虚拟路径已有暂存, 需先释放: %s", canonical),
		}
	}

	physical := s.hostPath(canonical)
	if err := os.MkdirAll(filepath.Dir(physical), 0o755); err != nil {
		return "", &backend.SpiceError{Kind: backend.ErrStaging, Message: "暂存目录创建失败", Cause: err}
	}
	if err := os.WriteFile(physical, bytes, 0o644); err != nil {
		return "", &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("暂存内核写入失败: %s", canonical),
			Cause:   err,
		}
	}
	s.record(canonical, spelling, physical)
	s.logger.Debugw("内核已暂存到挂载目录", "virtual", canonical, "physical", physical, "spelling", spelling)
	return canonical, nil
}

// Adopt 收编一个已经存在于挂载目录的文件（客体写出的内核定稿），
// 之后它可以像字节内核一样被 Furnsh/Unload/Kdata 按拼写寻址。
func (s *vfsStager) Adopt(canonical, spelling string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.staged[canonical]; ok {
		return
	}
	s.record(canonical, spelling, s.hostPath(canonical))
	s.logger.Debugw("写出内核已收编", "virtual", canonical, "spelling", spelling)
}

// record 调用方必须持有 s.mu。
func (s *vfsStager) record(canonical, spelling, physical string) {
	s.staged[canonical] = stagedEntry{physical: physical, spelling: spelling}
	if spelling != "" {
		s.bySpelling[spelling] = canonical
	}
}

func (s *vfsStager) Staged(canonical string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.staged[canonical]
	return ok
}

// SpellingFor 反查客体路径对应的调用方拼写（kdata 回写用）。
func (s *vfsStager) SpellingFor(canonical string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.staged[canonical]
	if !ok || e.spelling == "" {
		return "", false
	}
	return e.spelling, true
}

func (s *vfsStager) Release(canonical string) error {
	s.mu.Lock()
	e, ok := s.staged[canonical]
	if ok {
		delete(s.staged, canonical)
		delete(s.bySpelling, e.spelling)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(e.physical); err != nil && !os.IsNotExist(err) {
		return &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("暂存内核删除失败: %s", e.physical),
			Cause:   err,
		}
	}
	return nil
}

func (s *vfsStager) ReleaseAll() {
	s.mu.Lock()
	physicals := make([]string, 0, len(s.staged))
	for canonical, e := range s.staged {
		physicals = append(physicals, e.physical)
		delete(s.staged, canonical)
		delete(s.bySpelling, e.spelling)
	}
	s.mu.Unlock()
	for _, physical := range physicals {
		if err := os.Remove(physical); err != nil && !os.IsNotExist(err) {
			s.logger.Warnw("暂存内核清理失败", "physical", physical, "err", err)
		}
	}
}

// EnsureWritable 把写目标映射到挂载目录并预创建宿主父目录，
// 客体随后可以在该位置直接创建文件。
func (s *vfsStager) EnsureWritable(path string) (string, error) {
	c, err := staging.Canonicalize(path)
	if err != nil {
		return "", err
	}
	physical := s.hostPath(c)
	if err := os.MkdirAll(filepath.Dir(physical), 0o755); err != nil {
		return "", &backend.SpiceError{Kind: backend.ErrStaging, Message: "写目标目录创建失败", Cause: err}
	}
	return c, nil
}

// readHostKernel 读取纯路径内核的宿主内容，交给暂存层写入挂载目录。
func readHostKernel(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrStaging,
			Message: fmt.Sprintf("宿主内核读取失败: %s", path),
			Cause:   err,
		}
	}
	return data, nil
}

// Resolve 把调用方路径规范化为客体路径。先按登记过的原拼写精确
// 命中（宿主绝对路径也能找回来），再退回虚拟拼写启发式；
// 其余拼写原样透传给客体。
func (s *vfsStager) Resolve(path string) (guest string, canonical string, hit bool) {
	s.mu.Lock()
	c, ok := s.bySpelling[path]
	s.mu.Unlock()
	if ok {
		return c, c, true
	}
	if !staging.IsVirtualSpelling(path) {
		return path, "", false
	}
	c, err := staging.Canonicalize(path)
	if err != nil {
		return path, "", false
	}
	if !s.Staged(c) {
		return c, "", false
	}
	return c, c, true
}
