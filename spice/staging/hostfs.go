package staging

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// HostFS 是宿主文件系统上的暂存实现：每实例一个临时目录，
// 文件名带随机 UUID 前缀避免冲突。
type HostFS struct {
	root string
}

// NewHostFS 在 baseDir（留空用系统临时目录）下创建实例暂存目录。
func NewHostFS(baseDir string) (*HostFS, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	root, err := os.MkdirTemp(baseDir, "gospice-kernels-")
	if err != nil {
		return nil, err
	}
	return &HostFS{root: root}, nil
}

func (h *HostFS) Root() string { return h.root }

func (h *HostFS) Join(elem ...string) string { return filepath.Join(elem...) }

func (h *HostFS) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (h *HostFS) Remove(path string) error { return os.Remove(path) }

func (h *HostFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *HostFS) IsNotExist(err error) bool { return os.IsNotExist(err) }

// Destroy 删除整个暂存目录（实例释放时调用，尽力而为）。
func (h *HostFS) Destroy() {
	_ = os.RemoveAll(h.root)
}

func defaultNamer(base string) string {
	return uuid.NewString() + "-" + base
}
