package staging

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"testing"
)

// memFS 纯内存 FS 实现，POSIX 路径。
type memFS struct {
	files map[string][]byte
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}}
}

func (m *memFS) Root() string                { return "/staged" }
func (m *memFS) Join(elem ...string) string  { return path.Join(elem...) }
func (m *memFS) WriteFile(p string, data []byte) error {
	m.files[p] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) Remove(p string) error {
	if _, ok := m.files[p]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, p)
	return nil
}

func (m *memFS) Exists(p string) bool {
	_, ok := m.files[p]
	return ok
}

func (m *memFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "naif0012.tls", want: "/kernels/naif0012.tls"},
		{in: "/kernels/naif0012.tls", want: "/kernels/naif0012.tls"},
		{in: "lsk/naif0012.tls", want: "/kernels/lsk/naif0012.tls"},
		{in: "/kernels/lsk/naif0012.tls", want: "/kernels/lsk/naif0012.tls"},
		{in: "", wantErr: true},
		{in: "a//b", wantErr: true},
		{in: "../escape.bsp", wantErr: true},
		{in: "/kernels/a/../b", wantErr: true},
	}
	for _, c := range cases {
		got, err := Canonicalize(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("Canonicalize(%q) 应当报错", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Canonicalize(%q) 失败: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Canonicalize(%q): got=%q want=%q", c.in, got, c.want)
		}
	}
}

func TestCanonicalStability(t *testing.T) {
	// 同一虚拟路径的不同拼写必须归一到同一规范形
	a, err := Canonicalize("naif0012.tls")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonicalize("/kernels/naif0012.tls")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("规范形不一致: %q vs %q", a, b)
	}
}

func TestIsVirtualSpelling(t *testing.T) {
	if !IsVirtualSpelling("/kernels/de405s.bsp") {
		t.Fatal("/kernels/ 前缀应判为虚拟拼写")
	}
	if !IsVirtualSpelling("de405s.bsp") {
		t.Fatal("裸相对名应判为虚拟拼写")
	}
	if IsVirtualSpelling("/tmp/de405s.bsp") {
		t.Fatal("绝对 OS 路径不应判为虚拟拼写")
	}
	if IsVirtualSpelling("C:\\kernels\\de405s.bsp") {
		t.Fatal("盘符路径不应判为虚拟拼写")
	}
}

func TestStageReleaseRoundTrip(t *testing.T) {
	fsys := newMemFS()
	s := New(fsys, nil)
	s.SetNamer(func(base string) string { return "X-" + base })

	physical, err := s.Stage("/kernels/naif0012.tls", []byte("KPL/LSK"))
	if err != nil {
		t.Fatalf("Stage 失败: %v", err)
	}
	if physical != "/staged/X-naif0012.tls" {
		t.Fatalf("物理路径错误: %q", physical)
	}
	if !fsys.Exists(physical) {
		t.Fatal("物理文件未写入")
	}

	// 同一虚拟路径在生命周期内解析到同一物理位置
	if p, ok := s.Staged("/kernels/naif0012.tls"); !ok || p != physical {
		t.Fatalf("Staged 查询错误: %q ok=%v", p, ok)
	}
	// 反向映射
	if v, ok := s.VirtualFor(physical); !ok || v != "/kernels/naif0012.tls" {
		t.Fatalf("反向映射错误: %q ok=%v", v, ok)
	}

	// 重复 Stage 必须先 Release
	if _, err := s.Stage("/kernels/naif0012.tls", []byte("x")); err == nil {
		t.Fatal("未释放的重复 Stage 应当报错")
	}

	if err := s.Release("/kernels/naif0012.tls"); err != nil {
		t.Fatalf("Release 失败: %v", err)
	}
	if fsys.Exists(physical) {
		t.Fatal("Release 后物理文件应已删除")
	}
	// 文件已不在时的再次 Release 不算错误
	if err := s.Release("/kernels/naif0012.tls"); err != nil {
		t.Fatalf("重复 Release 不应报错: %v", err)
	}
}

func TestReleaseSwallowsOnlyNotExist(t *testing.T) {
	fsys := newMemFS()
	s := New(fsys, nil)

	physical, err := s.Stage("/kernels/a.bsp", []byte("DAF/SPK"))
	if err != nil {
		t.Fatal(err)
	}
	// 文件被外部删掉后 Release 仍然成功
	delete(fsys.files, physical)
	if err := s.Release("/kernels/a.bsp"); err != nil {
		t.Fatalf("ENOENT 清理应被吞掉: %v", err)
	}
}

func TestReleaseAll(t *testing.T) {
	fsys := newMemFS()
	s := New(fsys, nil)

	if _, err := s.Stage("/kernels/a.tls", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Stage("/kernels/b.bsp", []byte("b")); err != nil {
		t.Fatal(err)
	}

	released := s.ReleaseAll()
	if len(released) != 2 {
		t.Fatalf("ReleaseAll 数量错误: got=%d want=2", len(released))
	}
	if len(fsys.files) != 0 {
		t.Fatalf("暂存文件未清空: %v", fsys.files)
	}
	if _, ok := s.Staged("/kernels/a.tls"); ok {
		t.Fatal("映射未清空")
	}
}

func TestResolveUnload(t *testing.T) {
	fsys := newMemFS()
	s := New(fsys, nil)

	physical, err := s.Stage("/kernels/lsk/naif0012.tls", []byte("KPL/LSK"))
	if err != nil {
		t.Fatal(err)
	}

	// 规范拼写与等价拼写都命中同一物理位置
	for _, spelling := range []string{"/kernels/lsk/naif0012.tls", "lsk/naif0012.tls"} {
		p, c, staged := s.ResolveUnload(spelling)
		if !staged {
			t.Fatalf("拼写 %q 应命中暂存", spelling)
		}
		if p != physical || c != "/kernels/lsk/naif0012.tls" {
			t.Fatalf("解析结果错误: p=%q c=%q", p, c)
		}
	}

	// 未暂存的路径原样透传
	p, _, staged := s.ResolveUnload("/data/other.bsp")
	if staged || p != "/data/other.bsp" {
		t.Fatalf("原生路径应透传: p=%q staged=%v", p, staged)
	}

	// 真实文件系统上恰好存在的同拼写路径按原生路径处理
	if err := fsys.WriteFile("existing.tls", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Stage("/kernels/existing.tls", []byte("y")); err != nil {
		t.Fatal(err)
	}
	p, _, staged = s.ResolveUnload("existing.tls")
	if staged {
		t.Fatalf("存在的真实路径不应按虚拟处理: p=%q", p)
	}
	if !strings.HasSuffix(p, "existing.tls") {
		t.Fatalf("透传路径错误: %q", p)
	}
}
