package backend

import (
	"context"

	"go.uber.org/zap"
)

// BackendName 标识 CSPICE 后端实现类型。
type BackendName string

const (
	BackendNative BackendName = "native"
	BackendWasm   BackendName = "wasm"
)

// Config 是后端实现使用的最小运行配置。
// 该结构应保持小且与具体后端无关，仅在需要时扩展字段。
type Config struct {
	Name BackendName
	// ModulePath 是 WASM 后端加载的 .wasm 工件路径。
	ModulePath string
	// TempDir 是内核暂存目录（留空使用系统临时目录）。
	TempDir string
	// Logger 为空时各实现使用 zap.NewNop().Sugar()。
	Logger *zap.SugaredLogger
}

// KernelSource 表示一个内核来源：普通路径，或携带内容的虚拟路径。
// Bytes 非空时 Path 按虚拟标识解释，由暂存层落地为物理文件。
type KernelSource struct {
	Path  string
	Bytes []byte
}

// Kernel 构造纯路径内核来源。
func Kernel(path string) KernelSource {
	return KernelSource{Path: path}
}

// KernelBytes 构造内存内核来源。
func KernelBytes(path string, bytes []byte) KernelSource {
	return KernelSource{Path: path, Bytes: bytes}
}

// KernelAPI 内核池管理。
type KernelAPI interface {
	Furnsh(kernel KernelSource) error
	Unload(path string) error
	Kclear() error
	Ktotal(kind string) (int, error)
	Kdata(which int, kind string) (KernelInfo, bool, error)
	Kinfo(file string) (KernelTag, bool, error)
}

// KernelPoolAPI 内核池变量的读写与订阅。
// start/room 对应底层窗口语义：从第 start 个元素起最多取 room 个。
type KernelPoolAPI interface {
	Gdpool(name string, start, room int) ([]float64, bool, error)
	Gipool(name string, start, room int) ([]int, bool, error)
	Gcpool(name string, start, room int) ([]string, bool, error)
	Gnpool(template string, start, room int) ([]string, bool, error)
	Dtpool(name string) (PoolVarInfo, bool, error)
	Pdpool(name string, values []float64) error
	Pipool(name string, values []int) error
	Pcpool(name string, values []string) error
	Swpool(agent string, names []string) error
	Cvpool(agent string) (bool, error)
	Expool(name string) (bool, error)
}

// TimeAPI 时间系统转换。
type TimeAPI interface {
	Str2et(utc string) (float64, error)
	Et2utc(et float64, format string, prec int) (string, error)
	Timout(et float64, picture string) (string, error)
	Tparse(str string) (float64, error)
	Deltet(epoch float64, eptype string) (float64, error)
	Unitim(epoch float64, insys, outsys string) (float64, error)
	Tpictr(sample string) (string, bool, error)
	Timdef(action, item, value string) (string, error)
	Scs2e(sc int, sclkch string) (float64, error)
	Sce2s(sc int, et float64) (string, error)
}

// IDsAPI 天体与参考系的编号/名称解析。
type IDsAPI interface {
	Bodn2c(name string) (int, bool, error)
	Bodc2n(code int) (string, bool, error)
	Bodc2s(code int) (string, error)
	Bods2c(name string) (int, bool, error)
	Boddef(name string, code int) error
	Bodfnd(body int, item string) (bool, error)
	Bodvar(body int, item string) ([]float64, error)
	Namfrm(name string) (int, bool, error)
	Frmnam(code int) (string, bool, error)
	Cidfrm(center int) (FrameIdent, bool, error)
	Cnmfrm(centerName string) (FrameIdent, bool, error)
	Frinfo(frcode int) (FrameInfo, bool, error)
	Ccifrm(frclass, clssid int) (FrameIdent, bool, error)
}

// FramesAPI 参考系变换矩阵。
type FramesAPI interface {
	Pxform(from, to string, et float64) (Matrix3x3, error)
	Sxform(from, to string, et float64) (Matrix6x6, error)
}

// EphemerisAPI 星历状态查询与 SPK 读写。
type EphemerisAPI interface {
	Spkezr(target string, et float64, ref, abcorr, observer string) (State6, float64, error)
	Spkpos(target string, et float64, ref, abcorr, observer string) (Vector3, float64, error)
	Spkez(target int, et float64, ref, abcorr string, observer int) (State6, float64, error)
	Spkezp(target int, et float64, ref, abcorr string, observer int) (Vector3, float64, error)
	Spkgeo(target int, et float64, ref string, observer int) (State6, float64, error)
	Spkgps(target int, et float64, ref string, observer int) (Vector3, float64, error)
	Spkssb(target int, et float64, ref string) (State6, error)
	Spkcov(spk string, idcode int, cover Handle) error
	Spkobj(spk string, ids Handle) error
	Spksfs(body int, et float64) (SpkSegment, bool, error)
	Spkpds(body, center int, frame string, typ int, first, last float64) (SpkDescriptor, error)
	Spkuds(descr SpkDescriptor) (SpkParts, error)
	Spkopn(path, ifname string, ncomch int) (Handle, error)
	Spkopa(path string) (Handle, error)
	Spkw08(handle Handle, body, center int, frame string, first, last float64,
		segid string, degree int, states []float64, epoch1, step float64) error
	Spkcls(handle Handle) error
}

// GeometryAPI 观测几何。
type GeometryAPI interface {
	Subpnt(method, target string, et float64, fixref, abcorr, observer string) (SubPoint, error)
	Subslr(method, target string, et float64, fixref, abcorr, observer string) (SubPoint, error)
	Sincpt(method, target string, et float64, fixref, abcorr, observer, dref string, dvec Vector3) (SurfaceIntercept, bool, error)
	Ilumin(method, target string, et float64, fixref, abcorr, observer string, spoint Vector3) (Illumination, error)
	Illumg(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint Vector3) (Illumination, error)
	Illumf(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint Vector3) (IlluminationFlags, error)
	Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer string, et float64) (int, error)
	Nvc2pl(normal Vector3, konst float64) (Plane, error)
	Pl2nvc(plane Plane) (Vector3, float64, error)
}

// CoordsAPI 坐标系转换与向量/矩阵运算。
// 这些运算全部经由底层库执行，本层只做编解码，不做数值重实现。
type CoordsAPI interface {
	Reclat(rect Vector3) (Latitudinal, error)
	Latrec(radius, lon, lat float64) (Vector3, error)
	Recsph(rect Vector3) (Spherical, error)
	Sphrec(r, colat, slon float64) (Vector3, error)
	Georec(lon, lat, alt, re, f float64) (Vector3, error)
	Recgeo(rect Vector3, re, f float64) (Geodetic, error)
	Vnorm(v Vector3) (float64, error)
	Vhat(v Vector3) (Vector3, error)
	Vdot(a, b Vector3) (float64, error)
	Vcrss(a, b Vector3) (Vector3, error)
	Vadd(a, b Vector3) (Vector3, error)
	Vsub(a, b Vector3) (Vector3, error)
	Vminus(v Vector3) (Vector3, error)
	Vscl(s float64, v Vector3) (Vector3, error)
	Mxv(m Matrix3x3, v Vector3) (Vector3, error)
	Mtxv(m Matrix3x3, v Vector3) (Vector3, error)
	Mxm(a, b Matrix3x3) (Matrix3x3, error)
	Rotate(angle float64, iaxis int) (Matrix3x3, error)
	Rotmat(m Matrix3x3, angle float64, iaxis int) (Matrix3x3, error)
	Axisar(axis Vector3, angle float64) (Matrix3x3, error)
}

// FileAPI DAF/DAS/DLA 文件访问。
type FileAPI interface {
	Exists(path string) (bool, error)
	Getfat(path string) (FileArch, error)
	Dafopr(path string) (Handle, error)
	Dafcls(handle Handle) error
	Dafbfs(handle Handle) error
	Daffna(handle Handle) (bool, error)
	Dasopr(path string) (Handle, error)
	Dascls(handle Handle) error
	Dlaopn(path, ftype, ifname string, ncomch int) (Handle, error)
	Dlabfs(handle Handle) (DlaDescriptor, bool, error)
	Dlafns(handle Handle, descr DlaDescriptor) (DlaDescriptor, bool, error)
	Dlacls(handle Handle) error
}

// CellAPI SPICE cell/window 容器。
// 容量在创建时固定，越界插入必须报错而不是扩容。
type CellAPI interface {
	NewIntCell(capacity int) (Handle, error)
	NewDoubleCell(capacity int) (Handle, error)
	NewCharCell(capacity, length int) (Handle, error)
	Insrti(item int, cell Handle) error
	Insrtd(item float64, cell Handle) error
	Insrtc(item string, cell Handle) error
	Card(cell Handle) (int, error)
	Size(cell Handle) (int, error)
	CellGetInt(cell Handle, index int) (int, error)
	CellGetDouble(cell Handle, index int) (float64, error)
	CellGetChar(cell Handle, index int) (string, error)
	FreeCell(cell Handle) error
	NewWindow(capacity int) (Handle, error)
	Wninsd(left, right float64, window Handle) error
	Wncard(window Handle) (int, error)
	Wnfetd(window Handle, n int) (float64, float64, error)
	FreeWindow(window Handle) error
}

// SpiceBackend 是 CSPICE 后端统一抽象接口。
// 调用方只依赖该契约，不关心当前激活的是哪个后端。
// 单实例内所有调用必须串行：底层库持有全局错误/内核池状态。
type SpiceBackend interface {
	Name() BackendName
	Init(ctx context.Context, cfg Config) error
	Dispose() error

	// Tkvrsn 返回底层工具包版本串。
	Tkvrsn() (string, error)
	// LastSpiceError 返回最近一次底层库错误的结构化字段。
	LastSpiceError() (SpiceErrorDetail, error)

	KernelAPI
	KernelPoolAPI
	TimeAPI
	IDsAPI
	FramesAPI
	EphemerisAPI
	GeometryAPI
	CoordsAPI
	FileAPI
	CellAPI
}
