package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
)

// nativeRuntime 定义原生 CSPICE 运行时最小能力，方法与底层包装
// 例程一一对应，句柄为底层库原生编号。
// 具体实现由带构建标签的文件提供：
// - runtime_nocspice.go: 默认降级实现
// - runtime_cspice.go: CGO 直连 CSPICE 实现
type nativeRuntime interface {
	Dispose() error
	Tkvrsn() (string, error)
	LastError() backend.SpiceErrorDetail

	// 内核池
	Furnsh(path string) error
	Unload(path string) error
	Kclear() error
	Ktotal(kind string) (int, error)
	KtotalAll() (int, error)
	Kdata(which int, kind string) (backend.KernelInfo, bool, error)
	Kinfo(file string) (backend.KernelTag, bool, error)

	// 内核池变量
	Gdpool(name string, start, room int32) ([]float64, bool, error)
	Gipool(name string, start, room int32) ([]int32, bool, error)
	Gcpool(name string, start, room int32) ([]string, bool, error)
	Gnpool(template string, start, room int32) ([]string, bool, error)
	Dtpool(name string) (int32, string, bool, error)
	Pdpool(name string, values []float64) error
	Pipool(name string, values []int32) error
	Pcpool(name string, values []string) error
	Swpool(agent string, names []string) error
	Cvpool(agent string) (bool, error)
	Expool(name string) (bool, error)

	// 时间
	Str2et(utc string) (float64, error)
	Et2utc(et float64, format string, prec int32) (string, error)
	Timout(et float64, picture string) (string, error)
	Tparse(str string) (float64, error)
	Deltet(epoch float64, eptype string) (float64, error)
	Unitim(epoch float64, insys, outsys string) (float64, error)
	Tpictr(sample string) (string, bool, error)
	Timdef(action, item, value string) (string, error)
	Scs2e(sc int32, sclkch string) (float64, error)
	Sce2s(sc int32, et float64) (string, error)

	// 编号/名称
	Bodn2c(name string) (int32, bool, error)
	Bodc2n(code int32) (string, bool, error)
	Bodc2s(code int32) (string, error)
	Bods2c(name string) (int32, bool, error)
	Boddef(name string, code int32) error
	Bodfnd(body int32, item string) (bool, error)
	Bodvar(body int32, item string) ([]float64, error)
	Namfrm(name string) (int32, bool, error)
	Frmnam(code int32) (string, bool, error)
	Cidfrm(center int32) (int32, string, bool, error)
	Cnmfrm(centerName string) (int32, string, bool, error)
	Frinfo(frcode int32) (int32, int32, int32, bool, error)
	Ccifrm(frclass, clssid int32) (int32, string, bool, error)

	// 参考系
	Pxform(from, to string, et float64) ([]float64, error)
	Sxform(from, to string, et float64) ([]float64, error)

	// 星历
	Spkezr(target string, et float64, ref, abcorr, observer string) ([]float64, float64, error)
	Spkpos(target string, et float64, ref, abcorr, observer string) ([]float64, float64, error)
	Spkez(target int32, et float64, ref, abcorr string, observer int32) ([]float64, float64, error)
	Spkezp(target int32, et float64, ref, abcorr string, observer int32) ([]float64, float64, error)
	Spkgeo(target int32, et float64, ref string, observer int32) ([]float64, float64, error)
	Spkgps(target int32, et float64, ref string, observer int32) ([]float64, float64, error)
	Spkssb(target int32, et float64, ref string) ([]float64, error)
	Spkcov(spk string, idcode int32, coverNative int32) error
	Spkobj(spk string, idsNative int32) error
	Spksfs(body int32, et float64) (int32, []float64, string, bool, error)
	Spkpds(body, center int32, frame string, typ int32, first, last float64) ([]float64, error)
	Spkuds(descr []float64) (backend.SpkParts, error)
	Spkopn(path, ifname string, ncomch int32) (int32, error)
	Spkopa(path string) (int32, error)
	Spkw08(handle int32, body, center int32, frame string, first, last float64,
		segid string, degree int32, states []float64, epoch1, step float64) error
	Spkcls(handle int32) error

	// 几何
	Subpnt(method, target string, et float64, fixref, abcorr, observer string) ([]float64, float64, []float64, error)
	Subslr(method, target string, et float64, fixref, abcorr, observer string) ([]float64, float64, []float64, error)
	Sincpt(method, target string, et float64, fixref, abcorr, observer, dref string, dvec []float64) ([]float64, float64, []float64, bool, error)
	Ilumin(method, target string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, error)
	Illumg(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, error)
	Illumf(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, bool, bool, error)
	Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer string, et float64) (int32, error)
	Nvc2pl(normal []float64, konst float64) ([]float64, error)
	Pl2nvc(plane []float64) ([]float64, float64, error)

	// 坐标/向量
	Reclat(rect []float64) (float64, float64, float64, error)
	Latrec(radius, lon, lat float64) ([]float64, error)
	Recsph(rect []float64) (float64, float64, float64, error)
	Sphrec(r, colat, slon float64) ([]float64, error)
	Georec(lon, lat, alt, re, f float64) ([]float64, error)
	Recgeo(rect []float64, re, f float64) (float64, float64, float64, error)
	Vnorm(v []float64) (float64, error)
	Vhat(v []float64) ([]float64, error)
	Vdot(a, b []float64) (float64, error)
	Vcrss(a, b []float64) ([]float64, error)
	Vadd(a, b []float64) ([]float64, error)
	Vsub(a, b []float64) ([]float64, error)
	Vminus(v []float64) ([]float64, error)
	Vscl(s float64, v []float64) ([]float64, error)
	Mxv(m, v []float64) ([]float64, error)
	Mtxv(m, v []float64) ([]float64, error)
	Mxm(a, b []float64) ([]float64, error)
	Rotate(angle float64, iaxis int32) ([]float64, error)
	Rotmat(m []float64, angle float64, iaxis int32) ([]float64, error)
	Axisar(axis []float64, angle float64) ([]float64, error)

	// 文件
	Exists(path string) (bool, error)
	Getfat(path string) (backend.FileArch, error)
	Dafopr(path string) (int32, error)
	Dafcls(handle int32) error
	Dafbfs(handle int32) error
	Daffna(handle int32) (bool, error)
	Dasopr(path string) (int32, error)
	Dascls(handle int32) error
	Dlaopn(path, ftype, ifname string, ncomch int32) (int32, error)
	Dlabfs(handle int32) (backend.DlaDescriptor, bool, error)
	Dlafns(handle int32, descr backend.DlaDescriptor) (backend.DlaDescriptor, bool, error)
	Dlacls(handle int32) error

	// cell/window（运行时签发的本地编号）
	NewIntCell(capacity int32) (int32, error)
	NewDoubleCell(capacity int32) (int32, error)
	NewCharCell(capacity, length int32) (int32, error)
	Insrti(item int32, cell int32) error
	Insrtd(item float64, cell int32) error
	Insrtc(item string, cell int32) error
	Card(cell int32) (int32, error)
	CellSize(cell int32) (int32, error)
	CellGetInt(cell int32, index int32) (int32, error)
	CellGetDouble(cell int32, index int32) (float64, error)
	CellGetChar(cell int32, index int32) (string, error)
	FreeCell(cell int32) error
	NewWindow(capacity int32) (int32, error)
	Wninsd(left, right float64, window int32) error
	Wncard(window int32) (int32, error)
	Wnfetd(window int32, n int32) (float64, float64, error)
	FreeWindow(window int32) error
}

// newNativeRuntime 用于创建具体运行时实现，测试可整体替换。
var newNativeRuntime func(cfg backend.Config) (nativeRuntime, error)
