//go:build cspice

package nativespice

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/cspice/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/cspice/lib -lcspice -lm

#include <stdlib.h>
#include <string.h>

#include "SpiceUsr.h"

// 错误策略只设置一次：RETURN 模式 + 关闭库内打印，
// 让失败回到 Go 层转换为结构化错误。
static int g_gospice_inited = 0;

static void gospice_init_once(void) {
  if (g_gospice_inited) {
    return;
  }
  erract_c("SET", 0, "RETURN");
  errprt_c("SET", 0, "NONE");
  g_gospice_inited = 1;
}

// ---- cell/window 注册表 --------------------------------------------------
//
// SpiceCell 需要控制区+数据区连续分配，这里手工复刻
// SPICEINT_CELL 宏的布局以支持运行期创建。

#define GOSPICE_MAX_CELLS 1024

typedef struct {
  SpiceCell *cell;
  int in_use;
} gospice_cell_slot;

static gospice_cell_slot g_cells[GOSPICE_MAX_CELLS];

static size_t gospice_elem_size(SpiceDataType dtype, SpiceInt length) {
  switch (dtype) {
  case SPICE_INT:
    return sizeof(SpiceInt);
  case SPICE_DP:
    return sizeof(SpiceDouble);
  default:
    return (size_t)length;
  }
}

static int gospice_cell_new(SpiceDataType dtype, SpiceInt size, SpiceInt length) {
  int id;
  for (id = 0; id < GOSPICE_MAX_CELLS; id++) {
    if (!g_cells[id].in_use) {
      break;
    }
  }
  if (id == GOSPICE_MAX_CELLS) {
    return -1;
  }

  size_t elem = gospice_elem_size(dtype, length);
  SpiceCell *cell = (SpiceCell *)malloc(sizeof(SpiceCell));
  if (!cell) {
    return -1;
  }
  void *base = malloc((size_t)(size + SPICE_CELL_CTRLSZ) * elem);
  if (!base) {
    free(cell);
    return -1;
  }
  memset(base, 0, (size_t)(size + SPICE_CELL_CTRLSZ) * elem);

  cell->dtype = dtype;
  cell->length = dtype == SPICE_CHR ? length : 0;
  cell->size = size;
  cell->card = 0;
  cell->isSet = SPICETRUE;
  cell->adjust = SPICEFALSE;
  cell->init = SPICEFALSE;
  cell->base = base;
  cell->data = (char *)base + (size_t)SPICE_CELL_CTRLSZ * elem;

  g_cells[id].cell = cell;
  g_cells[id].in_use = 1;
  return id;
}

static SpiceCell *gospice_cell_get(int id) {
  if (id < 0 || id >= GOSPICE_MAX_CELLS || !g_cells[id].in_use) {
    return NULL;
  }
  return g_cells[id].cell;
}

static void gospice_cell_free(int id) {
  if (id < 0 || id >= GOSPICE_MAX_CELLS || !g_cells[id].in_use) {
    return;
  }
  free(g_cells[id].cell->base);
  free(g_cells[id].cell);
  g_cells[id].cell = NULL;
  g_cells[id].in_use = 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/rybosome/gospice/spice/backend"
)

// spiceMsgLen 底层库错误消息缓冲长度（含 NUL）。
const spiceMsgLen = 1841

// outStrLen 通用字符串输出缓冲长度。
const outStrLen = 256

type cspiceRuntime struct {
	// CSPICE 持有全局错误/内核池状态，所有调用必须串行。
	mu   sync.Mutex
	last backend.SpiceErrorDetail
}

func init() {
	newNativeRuntime = func(_ backend.Config) (nativeRuntime, error) {
		C.gospice_init_once()
		return &cspiceRuntime{}, nil
	}
}

func (r *cspiceRuntime) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.kclear_c()
	C.reset_c()
	return nil
}

func (r *cspiceRuntime) LastError() backend.SpiceErrorDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// checkFailed 在底层调用后检查失败标志，捕获结构化消息并复位。
// 必须持锁调用。
func (r *cspiceRuntime) checkFailed(fn string) error {
	if C.failed_c() == C.SPICEFALSE {
		return nil
	}

	var shortBuf, longBuf, traceBuf [spiceMsgLen]C.char
	C.getmsg_c(cstr("SHORT"), spiceMsgLen, &shortBuf[0])
	C.getmsg_c(cstr("LONG"), spiceMsgLen, &longBuf[0])
	C.qcktrc_c(spiceMsgLen, &traceBuf[0])
	C.reset_c()

	r.last = backend.SpiceErrorDetail{
		Short: C.GoString(&shortBuf[0]),
		Long:  C.GoString(&longBuf[0]),
		Trace: C.GoString(&traceBuf[0]),
	}
	return backend.FromDetail(fmt.Sprintf("%s 调用失败", fn), r.last)
}

// cstr 返回静态字符串常量指针，仅限字面量使用（不释放）。
var cstrCache = map[string]*C.char{}
var cstrMu sync.Mutex

func cstr(s string) *C.char {
	cstrMu.Lock()
	defer cstrMu.Unlock()
	if p, ok := cstrCache[s]; ok {
		return p
	}
	p := C.CString(s)
	cstrCache[s] = p
	return p
}

// withCStrs 把参数串转换为 C 字符串并在调用后统一释放。
func withCStrs(args []string, fn func(ps []*C.char)) {
	ps := make([]*C.char, len(args))
	for i, a := range args {
		ps[i] = C.CString(a)
	}
	defer func() {
		for _, p := range ps {
			C.free(unsafe.Pointer(p))
		}
	}()
	fn(ps)
}

// ---- 顶层 ---------------------------------------------------------------

func (r *cspiceRuntime) Tkvrsn() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	version := C.GoString(C.tkvrsn_c(cstr("TOOLKIT")))
	if err := r.checkFailed("tkvrsn"); err != nil {
		return "", err
	}
	return version, nil
}

// ---- 内核池 -------------------------------------------------------------

func (r *cspiceRuntime) Furnsh(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.furnsh_c(ps[0])
		err = r.checkFailed("furnsh")
	})
	return err
}

func (r *cspiceRuntime) Unload(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.unload_c(ps[0])
		err = r.checkFailed("unload")
	})
	return err
}

func (r *cspiceRuntime) Kclear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.kclear_c()
	return r.checkFailed("kclear")
}

func (r *cspiceRuntime) Ktotal(kind string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count C.SpiceInt
	var err error
	withCStrs([]string{kind}, func(ps []*C.char) {
		C.ktotal_c(ps[0], &count)
		err = r.checkFailed("ktotal")
	})
	return int(count), err
}

func (r *cspiceRuntime) KtotalAll() (int, error) {
	return r.Ktotal("ALL")
}

func (r *cspiceRuntime) Kdata(which int, kind string) (backend.KernelInfo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var info backend.KernelInfo
	var file, filtyp, source [outStrLen]C.char
	var handle C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{kind}, func(ps []*C.char) {
		C.kdata_c(C.SpiceInt(which), ps[0],
			outStrLen, outStrLen, outStrLen,
			&file[0], &filtyp[0], &source[0], &handle, &found)
		err = r.checkFailed("kdata")
	})
	if err != nil || found == C.SPICEFALSE {
		return info, false, err
	}
	info.File = C.GoString(&file[0])
	info.Filtyp = C.GoString(&filtyp[0])
	info.Source = C.GoString(&source[0])
	info.Handle = int32(handle)
	return info, true, nil
}

func (r *cspiceRuntime) Kinfo(file string) (backend.KernelTag, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tag backend.KernelTag
	var filtyp, source [outStrLen]C.char
	var handle C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{file}, func(ps []*C.char) {
		C.kinfo_c(ps[0], outStrLen, outStrLen, &filtyp[0], &source[0], &handle, &found)
		err = r.checkFailed("kinfo")
	})
	if err != nil || found == C.SPICEFALSE {
		return tag, false, err
	}
	tag.Filtyp = C.GoString(&filtyp[0])
	tag.Source = C.GoString(&source[0])
	tag.Handle = int32(handle)
	return tag, true, nil
}

// ---- 内核池变量 ---------------------------------------------------------

// packChars 把字符串打包为定长 C 字符数组，每项以 NUL 结尾。
func packChars(vals []string, length int) []byte {
	buf := make([]byte, len(vals)*length)
	for i, v := range vals {
		if len(v) >= length {
			v = v[:length-1]
		}
		copy(buf[i*length:], v)
	}
	return buf
}

func (r *cspiceRuntime) Gdpool(name string, start, room int32) ([]float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make([]C.SpiceDouble, room)
	var n C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.gdpool_c(ps[0], C.SpiceInt(start), C.SpiceInt(room), &n, &vals[0], &found)
		err = r.checkFailed("gdpool")
	})
	if err != nil || found == C.SPICEFALSE {
		return nil, false, err
	}
	out := make([]float64, int(n))
	for i := range out {
		out[i] = float64(vals[i])
	}
	return out, true, nil
}

func (r *cspiceRuntime) Gipool(name string, start, room int32) ([]int32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make([]C.SpiceInt, room)
	var n C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.gipool_c(ps[0], C.SpiceInt(start), C.SpiceInt(room), &n, &vals[0], &found)
		err = r.checkFailed("gipool")
	})
	if err != nil || found == C.SPICEFALSE {
		return nil, false, err
	}
	out := make([]int32, int(n))
	for i := range out {
		out[i] = int32(vals[i])
	}
	return out, true, nil
}

func (r *cspiceRuntime) Gcpool(name string, start, room int32) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := make([]byte, int(room)*outStrLen)
	var n C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.gcpool_c(ps[0], C.SpiceInt(start), C.SpiceInt(room), outStrLen,
			&n, unsafe.Pointer(&buf[0]), &found)
		err = r.checkFailed("gcpool")
	})
	if err != nil || found == C.SPICEFALSE {
		return nil, false, err
	}
	return unpackChars(buf, int(n), outStrLen), true, nil
}

func (r *cspiceRuntime) Gnpool(template string, start, room int32) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := make([]byte, int(room)*outStrLen)
	var n C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{template}, func(ps []*C.char) {
		C.gnpool_c(ps[0], C.SpiceInt(start), C.SpiceInt(room), outStrLen,
			&n, unsafe.Pointer(&buf[0]), &found)
		err = r.checkFailed("gnpool")
	})
	if err != nil || found == C.SPICEFALSE {
		return nil, false, err
	}
	return unpackChars(buf, int(n), outStrLen), true, nil
}

// unpackChars 从定长 C 字符数组还原前 n 个字符串。
func unpackChars(buf []byte, n, length int) []string {
	out := make([]string, n)
	for i := range out {
		cell := buf[i*length : (i+1)*length]
		end := 0
		for end < len(cell) && cell[end] != 0 {
			end++
		}
		out[i] = string(cell[:end])
	}
	return out
}

func (r *cspiceRuntime) Dtpool(name string) (int32, string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n C.SpiceInt
	var found C.SpiceBoolean
	var typ [2]C.char
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.dtpool_c(ps[0], &found, &n, &typ[0])
		err = r.checkFailed("dtpool")
	})
	if err != nil || found == C.SPICEFALSE {
		return 0, "", false, err
	}
	return int32(n), C.GoStringN(&typ[0], 1), true, nil
}

func (r *cspiceRuntime) Pdpool(name string, values []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cvals := make([]C.SpiceDouble, len(values)+1)
	for i, v := range values {
		cvals[i] = C.SpiceDouble(v)
	}
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.pdpool_c(ps[0], C.SpiceInt(len(values)), &cvals[0])
		err = r.checkFailed("pdpool")
	})
	return err
}

func (r *cspiceRuntime) Pipool(name string, values []int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cvals := make([]C.SpiceInt, len(values)+1)
	for i, v := range values {
		cvals[i] = C.SpiceInt(v)
	}
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.pipool_c(ps[0], C.SpiceInt(len(values)), &cvals[0])
		err = r.checkFailed("pipool")
	})
	return err
}

func (r *cspiceRuntime) Pcpool(name string, values []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := packChars(values, outStrLen)
	if len(buf) == 0 {
		buf = make([]byte, outStrLen)
	}
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.pcpool_c(ps[0], C.SpiceInt(len(values)), outStrLen, unsafe.Pointer(&buf[0]))
		err = r.checkFailed("pcpool")
	})
	return err
}

func (r *cspiceRuntime) Swpool(agent string, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := packChars(names, outStrLen)
	if len(buf) == 0 {
		buf = make([]byte, outStrLen)
	}
	var err error
	withCStrs([]string{agent}, func(ps []*C.char) {
		C.swpool_c(ps[0], C.SpiceInt(len(names)), outStrLen, unsafe.Pointer(&buf[0]))
		err = r.checkFailed("swpool")
	})
	return err
}

func (r *cspiceRuntime) Cvpool(agent string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var update C.SpiceBoolean
	var err error
	withCStrs([]string{agent}, func(ps []*C.char) {
		C.cvpool_c(ps[0], &update)
		err = r.checkFailed("cvpool")
	})
	return update == C.SPICETRUE, err
}

func (r *cspiceRuntime) Expool(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.expool_c(ps[0], &found)
		err = r.checkFailed("expool")
	})
	return found == C.SPICETRUE, err
}

// ---- 时间 ---------------------------------------------------------------

func (r *cspiceRuntime) Str2et(utc string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var et C.SpiceDouble
	var err error
	withCStrs([]string{utc}, func(ps []*C.char) {
		C.str2et_c(ps[0], &et)
		err = r.checkFailed("str2et")
	})
	return float64(et), err
}

func (r *cspiceRuntime) Et2utc(et float64, format string, prec int32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [outStrLen]C.char
	var err error
	withCStrs([]string{format}, func(ps []*C.char) {
		C.et2utc_c(C.SpiceDouble(et), ps[0], C.SpiceInt(prec), outStrLen, &out[0])
		err = r.checkFailed("et2utc")
	})
	if err != nil {
		return "", err
	}
	return C.GoString(&out[0]), nil
}

func (r *cspiceRuntime) Timout(et float64, picture string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [outStrLen]C.char
	var err error
	withCStrs([]string{picture}, func(ps []*C.char) {
		C.timout_c(C.SpiceDouble(et), ps[0], outStrLen, &out[0])
		err = r.checkFailed("timout")
	})
	if err != nil {
		return "", err
	}
	return C.GoString(&out[0]), nil
}

func (r *cspiceRuntime) Tparse(str string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sp2000 C.SpiceDouble
	var errmsg [spiceMsgLen]C.char
	withCStrs([]string{str}, func(ps []*C.char) {
		C.tparse_c(ps[0], spiceMsgLen, &sp2000, &errmsg[0])
	})
	if msg := C.GoString(&errmsg[0]); msg != "" {
		r.last = backend.SpiceErrorDetail{Long: msg}
		return 0, backend.FromDetail("tparse 调用失败", r.last)
	}
	return float64(sp2000), nil
}

func (r *cspiceRuntime) Deltet(epoch float64, eptype string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var delta C.SpiceDouble
	var err error
	withCStrs([]string{eptype}, func(ps []*C.char) {
		C.deltet_c(C.SpiceDouble(epoch), ps[0], &delta)
		err = r.checkFailed("deltet")
	})
	return float64(delta), err
}

func (r *cspiceRuntime) Unitim(epoch float64, insys, outsys string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out C.SpiceDouble
	var err error
	withCStrs([]string{insys, outsys}, func(ps []*C.char) {
		out = C.unitim_c(C.SpiceDouble(epoch), ps[0], ps[1])
		err = r.checkFailed("unitim")
	})
	return float64(out), err
}

func (r *cspiceRuntime) Tpictr(sample string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pictur [outStrLen]C.char
	var errmsg [spiceMsgLen]C.char
	var ok C.SpiceBoolean
	withCStrs([]string{sample}, func(ps []*C.char) {
		C.tpictr_c(ps[0], outStrLen, spiceMsgLen, &pictur[0], &ok, &errmsg[0])
	})
	if err := r.checkFailed("tpictr"); err != nil {
		return "", false, err
	}
	if ok == C.SPICEFALSE {
		return "", false, nil
	}
	return C.GoString(&pictur[0]), true, nil
}

func (r *cspiceRuntime) Timdef(action, item, value string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buf [outStrLen]C.char
	var err error
	withCStrs([]string{action, item}, func(ps []*C.char) {
		cvalue := C.CString(value)
		defer C.free(unsafe.Pointer(cvalue))
		// GET 走输出缓冲，SET 透传调用方的值
		if action == "GET" {
			C.timdef_c(ps[0], ps[1], outStrLen, &buf[0])
		} else {
			C.strncpy(&buf[0], cvalue, outStrLen-1)
			C.timdef_c(ps[0], ps[1], outStrLen, &buf[0])
		}
		err = r.checkFailed("timdef")
	})
	if err != nil {
		return "", err
	}
	return C.GoString(&buf[0]), nil
}

func (r *cspiceRuntime) Scs2e(sc int32, sclkch string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var et C.SpiceDouble
	var err error
	withCStrs([]string{sclkch}, func(ps []*C.char) {
		C.scs2e_c(C.SpiceInt(sc), ps[0], &et)
		err = r.checkFailed("scs2e")
	})
	return float64(et), err
}

func (r *cspiceRuntime) Sce2s(sc int32, et float64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [outStrLen]C.char
	C.sce2s_c(C.SpiceInt(sc), C.SpiceDouble(et), outStrLen, &out[0])
	if err := r.checkFailed("sce2s"); err != nil {
		return "", err
	}
	return C.GoString(&out[0]), nil
}

// ---- 编号/名称 ----------------------------------------------------------

func (r *cspiceRuntime) Bodn2c(name string) (int32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var code C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.bodn2c_c(ps[0], &code, &found)
		err = r.checkFailed("bodn2c")
	})
	return int32(code), found == C.SPICETRUE, err
}

func (r *cspiceRuntime) Bodc2n(code int32) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var name [outStrLen]C.char
	var found C.SpiceBoolean
	C.bodc2n_c(C.SpiceInt(code), outStrLen, &name[0], &found)
	if err := r.checkFailed("bodc2n"); err != nil {
		return "", false, err
	}
	return C.GoString(&name[0]), found == C.SPICETRUE, nil
}

func (r *cspiceRuntime) Bodc2s(code int32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var name [outStrLen]C.char
	C.bodc2s_c(C.SpiceInt(code), outStrLen, &name[0])
	if err := r.checkFailed("bodc2s"); err != nil {
		return "", err
	}
	return C.GoString(&name[0]), nil
}

func (r *cspiceRuntime) Bods2c(name string) (int32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var code C.SpiceInt
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.bods2c_c(ps[0], &code, &found)
		err = r.checkFailed("bods2c")
	})
	return int32(code), found == C.SPICETRUE, err
}

func (r *cspiceRuntime) Boddef(name string, code int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.boddef_c(ps[0], C.SpiceInt(code))
		err = r.checkFailed("boddef")
	})
	return err
}

func (r *cspiceRuntime) Bodfnd(body int32, item string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{item}, func(ps []*C.char) {
		found = C.bodfnd_c(C.SpiceInt(body), ps[0])
		err = r.checkFailed("bodfnd")
	})
	return found == C.SPICETRUE, err
}

func (r *cspiceRuntime) Bodvar(body int32, item string) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const maxVals = 80
	var dim C.SpiceInt
	var vals [maxVals]C.SpiceDouble
	var err error
	withCStrs([]string{item}, func(ps []*C.char) {
		C.bodvcd_c(C.SpiceInt(body), ps[0], maxVals, &dim, &vals[0])
		err = r.checkFailed("bodvar")
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, int(dim))
	for i := range out {
		out[i] = float64(vals[i])
	}
	return out, nil
}

func (r *cspiceRuntime) Namfrm(name string) (int32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var code C.SpiceInt
	var err error
	withCStrs([]string{name}, func(ps []*C.char) {
		C.namfrm_c(ps[0], &code)
		err = r.checkFailed("namfrm")
	})
	// 底层约定：0 表示未识别
	return int32(code), code != 0, err
}

func (r *cspiceRuntime) Frmnam(code int32) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var name [outStrLen]C.char
	C.frmnam_c(C.SpiceInt(code), outStrLen, &name[0])
	if err := r.checkFailed("frmnam"); err != nil {
		return "", false, err
	}
	s := C.GoString(&name[0])
	return s, s != "", nil
}

func (r *cspiceRuntime) Cidfrm(center int32) (int32, string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frcode C.SpiceInt
	var frname [outStrLen]C.char
	var found C.SpiceBoolean
	C.cidfrm_c(C.SpiceInt(center), outStrLen, &frcode, &frname[0], &found)
	if err := r.checkFailed("cidfrm"); err != nil {
		return 0, "", false, err
	}
	return int32(frcode), C.GoString(&frname[0]), found == C.SPICETRUE, nil
}

func (r *cspiceRuntime) Cnmfrm(centerName string) (int32, string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frcode C.SpiceInt
	var frname [outStrLen]C.char
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{centerName}, func(ps []*C.char) {
		C.cnmfrm_c(ps[0], outStrLen, &frcode, &frname[0], &found)
		err = r.checkFailed("cnmfrm")
	})
	return int32(frcode), C.GoString(&frname[0]), found == C.SPICETRUE, err
}

func (r *cspiceRuntime) Frinfo(frcode int32) (int32, int32, int32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var center, class, clssid C.SpiceInt
	var found C.SpiceBoolean
	C.frinfo_c(C.SpiceInt(frcode), &center, &class, &clssid, &found)
	if err := r.checkFailed("frinfo"); err != nil {
		return 0, 0, 0, false, err
	}
	return int32(center), int32(class), int32(clssid), found == C.SPICETRUE, nil
}

func (r *cspiceRuntime) Ccifrm(frclass, clssid int32) (int32, string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frcode, center C.SpiceInt
	var frname [outStrLen]C.char
	var found C.SpiceBoolean
	C.ccifrm_c(C.SpiceInt(frclass), C.SpiceInt(clssid), outStrLen, &frcode, &frname[0], &center, &found)
	if err := r.checkFailed("ccifrm"); err != nil {
		return 0, "", false, err
	}
	return int32(frcode), C.GoString(&frname[0]), found == C.SPICETRUE, nil
}

// ---- 参考系 -------------------------------------------------------------

func (r *cspiceRuntime) Pxform(from, to string, et float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rot [3][3]C.SpiceDouble
	var err error
	withCStrs([]string{from, to}, func(ps []*C.char) {
		C.pxform_c(ps[0], ps[1], C.SpiceDouble(et), &rot[0])
		err = r.checkFailed("pxform")
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = float64(rot[i][j])
		}
	}
	return out, nil
}

func (r *cspiceRuntime) Sxform(from, to string, et float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var xform [6][6]C.SpiceDouble
	var err error
	withCStrs([]string{from, to}, func(ps []*C.char) {
		C.sxform_c(ps[0], ps[1], C.SpiceDouble(et), &xform[0])
		err = r.checkFailed("sxform")
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, 36)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[i*6+j] = float64(xform[i][j])
		}
	}
	return out, nil
}

// ---- 星历 ---------------------------------------------------------------

func stateToSlice(state *[6]C.SpiceDouble) []float64 {
	out := make([]float64, 6)
	for i := range out {
		out[i] = float64(state[i])
	}
	return out
}

func vec3ToSlice(v *[3]C.SpiceDouble) []float64 {
	out := make([]float64, 3)
	for i := range out {
		out[i] = float64(v[i])
	}
	return out
}

func sliceToVec3(v []float64) [3]C.SpiceDouble {
	var out [3]C.SpiceDouble
	for i := 0; i < 3 && i < len(v); i++ {
		out[i] = C.SpiceDouble(v[i])
	}
	return out
}

func (r *cspiceRuntime) Spkezr(target string, et float64, ref, abcorr, observer string) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var state [6]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{target, ref, abcorr, observer}, func(ps []*C.char) {
		C.spkezr_c(ps[0], C.SpiceDouble(et), ps[1], ps[2], ps[3], &state[0], &lt)
		err = r.checkFailed("spkezr")
	})
	if err != nil {
		return nil, 0, err
	}
	return stateToSlice(&state), float64(lt), nil
}

func (r *cspiceRuntime) Spkpos(target string, et float64, ref, abcorr, observer string) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pos [3]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{target, ref, abcorr, observer}, func(ps []*C.char) {
		C.spkpos_c(ps[0], C.SpiceDouble(et), ps[1], ps[2], ps[3], &pos[0], &lt)
		err = r.checkFailed("spkpos")
	})
	if err != nil {
		return nil, 0, err
	}
	return vec3ToSlice(&pos), float64(lt), nil
}

func (r *cspiceRuntime) Spkez(target int32, et float64, ref, abcorr string, observer int32) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var state [6]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{ref, abcorr}, func(ps []*C.char) {
		C.spkez_c(C.SpiceInt(target), C.SpiceDouble(et), ps[0], ps[1], C.SpiceInt(observer), &state[0], &lt)
		err = r.checkFailed("spkez")
	})
	if err != nil {
		return nil, 0, err
	}
	return stateToSlice(&state), float64(lt), nil
}

func (r *cspiceRuntime) Spkezp(target int32, et float64, ref, abcorr string, observer int32) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pos [3]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{ref, abcorr}, func(ps []*C.char) {
		C.spkezp_c(C.SpiceInt(target), C.SpiceDouble(et), ps[0], ps[1], C.SpiceInt(observer), &pos[0], &lt)
		err = r.checkFailed("spkezp")
	})
	if err != nil {
		return nil, 0, err
	}
	return vec3ToSlice(&pos), float64(lt), nil
}

func (r *cspiceRuntime) Spkgeo(target int32, et float64, ref string, observer int32) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var state [6]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{ref}, func(ps []*C.char) {
		C.spkgeo_c(C.SpiceInt(target), C.SpiceDouble(et), ps[0], C.SpiceInt(observer), &state[0], &lt)
		err = r.checkFailed("spkgeo")
	})
	if err != nil {
		return nil, 0, err
	}
	return stateToSlice(&state), float64(lt), nil
}

func (r *cspiceRuntime) Spkgps(target int32, et float64, ref string, observer int32) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pos [3]C.SpiceDouble
	var lt C.SpiceDouble
	var err error
	withCStrs([]string{ref}, func(ps []*C.char) {
		C.spkgps_c(C.SpiceInt(target), C.SpiceDouble(et), ps[0], C.SpiceInt(observer), &pos[0], &lt)
		err = r.checkFailed("spkgps")
	})
	if err != nil {
		return nil, 0, err
	}
	return vec3ToSlice(&pos), float64(lt), nil
}

func (r *cspiceRuntime) Spkssb(target int32, et float64, ref string) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var state [6]C.SpiceDouble
	var err error
	withCStrs([]string{ref}, func(ps []*C.char) {
		C.spkssb_c(C.SpiceInt(target), C.SpiceDouble(et), ps[0], &state[0])
		err = r.checkFailed("spkssb")
	})
	if err != nil {
		return nil, err
	}
	return stateToSlice(&state), nil
}

func (r *cspiceRuntime) Spkcov(spk string, idcode int32, coverNative int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cover := C.gospice_cell_get(C.int(coverNative))
	if cover == nil {
		return backend.Validation("spkcov(): 无效 window 编号")
	}
	var err error
	withCStrs([]string{spk}, func(ps []*C.char) {
		C.spkcov_c(ps[0], C.SpiceInt(idcode), cover)
		err = r.checkFailed("spkcov")
	})
	return err
}

func (r *cspiceRuntime) Spkobj(spk string, idsNative int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := C.gospice_cell_get(C.int(idsNative))
	if ids == nil {
		return backend.Validation("spkobj(): 无效 cell 编号")
	}
	var err error
	withCStrs([]string{spk}, func(ps []*C.char) {
		C.spkobj_c(ps[0], ids)
		err = r.checkFailed("spkobj")
	})
	return err
}

func (r *cspiceRuntime) Spksfs(body int32, et float64) (int32, []float64, string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// NAIF SIDLEN 为 40 字符，缓冲需 41 字节
	const sidLen = 41
	var handle C.SpiceInt
	var descr [5]C.SpiceDouble
	var ident [sidLen]C.char
	var found C.SpiceBoolean
	C.spksfs_c(C.SpiceInt(body), C.SpiceDouble(et), sidLen, &handle, &descr[0], &ident[0], &found)
	if err := r.checkFailed("spksfs"); err != nil {
		return 0, nil, "", false, err
	}
	if found == C.SPICEFALSE {
		return 0, nil, "", false, nil
	}
	out := make([]float64, 5)
	for i := range out {
		out[i] = float64(descr[i])
	}
	return int32(handle), out, C.GoString(&ident[0]), true, nil
}

func (r *cspiceRuntime) Spkpds(body, center int32, frame string, typ int32, first, last float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var descr [5]C.SpiceDouble
	var err error
	withCStrs([]string{frame}, func(ps []*C.char) {
		C.spkpds_c(C.SpiceInt(body), C.SpiceInt(center), ps[0], C.SpiceInt(typ),
			C.SpiceDouble(first), C.SpiceDouble(last), &descr[0])
		err = r.checkFailed("spkpds")
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, 5)
	for i := range out {
		out[i] = float64(descr[i])
	}
	return out, nil
}

func (r *cspiceRuntime) Spkuds(descr []float64) (backend.SpkParts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var parts backend.SpkParts
	var cdescr [5]C.SpiceDouble
	for i := 0; i < 5 && i < len(descr); i++ {
		cdescr[i] = C.SpiceDouble(descr[i])
	}
	var body, center, frame, typ, baddr, eaddr C.SpiceInt
	var first, last C.SpiceDouble
	C.spkuds_c(&cdescr[0], &body, &center, &frame, &typ, &first, &last, &baddr, &eaddr)
	if err := r.checkFailed("spkuds"); err != nil {
		return parts, err
	}
	parts = backend.SpkParts{
		Body:   int(body),
		Center: int(center),
		Frame:  int(frame),
		Type:   int(typ),
		First:  float64(first),
		Last:   float64(last),
		Baddr:  int(baddr),
		Eaddr:  int(eaddr),
	}
	return parts, nil
}

func (r *cspiceRuntime) Spkopn(path, ifname string, ncomch int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handle C.SpiceInt
	var err error
	withCStrs([]string{path, ifname}, func(ps []*C.char) {
		C.spkopn_c(ps[0], ps[1], C.SpiceInt(ncomch), &handle)
		err = r.checkFailed("spkopn")
	})
	return int32(handle), err
}

func (r *cspiceRuntime) Spkopa(path string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handle C.SpiceInt
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.spkopa_c(ps[0], &handle)
		err = r.checkFailed("spkopa")
	})
	return int32(handle), err
}

func (r *cspiceRuntime) Spkw08(handle int32, body, center int32, frame string, first, last float64,
	segid string, degree int32, states []float64, epoch1, step float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(states) / 6
	cstates := make([]C.SpiceDouble, len(states))
	for i, v := range states {
		cstates[i] = C.SpiceDouble(v)
	}
	var err error
	withCStrs([]string{frame, segid}, func(ps []*C.char) {
		C.spkw08_c(C.SpiceInt(handle), C.SpiceInt(body), C.SpiceInt(center), ps[0],
			C.SpiceDouble(first), C.SpiceDouble(last), ps[1], C.SpiceInt(degree),
			C.SpiceInt(n), &cstates[0], C.SpiceDouble(epoch1), C.SpiceDouble(step))
		err = r.checkFailed("spkw08")
	})
	return err
}

func (r *cspiceRuntime) Spkcls(handle int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.spkcls_c(C.SpiceInt(handle))
	return r.checkFailed("spkcls")
}

// ---- 几何 ---------------------------------------------------------------

func (r *cspiceRuntime) Subpnt(method, target string, et float64, fixref, abcorr, observer string) ([]float64, float64, []float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var spoint, srfvec [3]C.SpiceDouble
	var trgepc C.SpiceDouble
	var err error
	withCStrs([]string{method, target, fixref, abcorr, observer}, func(ps []*C.char) {
		C.subpnt_c(ps[0], ps[1], C.SpiceDouble(et), ps[2], ps[3], ps[4], &spoint[0], &trgepc, &srfvec[0])
		err = r.checkFailed("subpnt")
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return vec3ToSlice(&spoint), float64(trgepc), vec3ToSlice(&srfvec), nil
}

func (r *cspiceRuntime) Subslr(method, target string, et float64, fixref, abcorr, observer string) ([]float64, float64, []float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var spoint, srfvec [3]C.SpiceDouble
	var trgepc C.SpiceDouble
	var err error
	withCStrs([]string{method, target, fixref, abcorr, observer}, func(ps []*C.char) {
		C.subslr_c(ps[0], ps[1], C.SpiceDouble(et), ps[2], ps[3], ps[4], &spoint[0], &trgepc, &srfvec[0])
		err = r.checkFailed("subslr")
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return vec3ToSlice(&spoint), float64(trgepc), vec3ToSlice(&srfvec), nil
}

func (r *cspiceRuntime) Sincpt(method, target string, et float64, fixref, abcorr, observer, dref string, dvec []float64) ([]float64, float64, []float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cdvec := sliceToVec3(dvec)
	var spoint, srfvec [3]C.SpiceDouble
	var trgepc C.SpiceDouble
	var found C.SpiceBoolean
	var err error
	withCStrs([]string{method, target, fixref, abcorr, observer, dref}, func(ps []*C.char) {
		C.sincpt_c(ps[0], ps[1], C.SpiceDouble(et), ps[2], ps[3], ps[4], ps[5],
			&cdvec[0], &spoint[0], &trgepc, &srfvec[0], &found)
		err = r.checkFailed("sincpt")
	})
	if err != nil {
		return nil, 0, nil, false, err
	}
	if found == C.SPICEFALSE {
		return nil, 0, nil, false, nil
	}
	return vec3ToSlice(&spoint), float64(trgepc), vec3ToSlice(&srfvec), true, nil
}

func (r *cspiceRuntime) Ilumin(method, target string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cspoint := sliceToVec3(spoint)
	var srfvec [3]C.SpiceDouble
	var trgepc, phase, incdnc, emissn C.SpiceDouble
	var err error
	withCStrs([]string{method, target, fixref, abcorr, observer}, func(ps []*C.char) {
		C.ilumin_c(ps[0], ps[1], C.SpiceDouble(et), ps[2], ps[3], ps[4],
			&cspoint[0], &trgepc, &srfvec[0], &phase, &incdnc, &emissn)
		err = r.checkFailed("ilumin")
	})
	if err != nil {
		return 0, nil, 0, 0, 0, err
	}
	return float64(trgepc), vec3ToSlice(&srfvec), float64(phase), float64(incdnc), float64(emissn), nil
}

func (r *cspiceRuntime) Illumg(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cspoint := sliceToVec3(spoint)
	var srfvec [3]C.SpiceDouble
	var trgepc, phase, incdnc, emissn C.SpiceDouble
	var err error
	withCStrs([]string{method, target, ilusrc, fixref, abcorr, observer}, func(ps []*C.char) {
		C.illumg_c(ps[0], ps[1], ps[2], C.SpiceDouble(et), ps[3], ps[4], ps[5],
			&cspoint[0], &trgepc, &srfvec[0], &phase, &incdnc, &emissn)
		err = r.checkFailed("illumg")
	})
	if err != nil {
		return 0, nil, 0, 0, 0, err
	}
	return float64(trgepc), vec3ToSlice(&srfvec), float64(phase), float64(incdnc), float64(emissn), nil
}

func (r *cspiceRuntime) Illumf(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint []float64) (float64, []float64, float64, float64, float64, bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cspoint := sliceToVec3(spoint)
	var srfvec [3]C.SpiceDouble
	var trgepc, phase, incdnc, emissn C.SpiceDouble
	var visibl, lit C.SpiceBoolean
	var err error
	withCStrs([]string{method, target, ilusrc, fixref, abcorr, observer}, func(ps []*C.char) {
		C.illumf_c(ps[0], ps[1], ps[2], C.SpiceDouble(et), ps[3], ps[4], ps[5],
			&cspoint[0], &trgepc, &srfvec[0], &phase, &incdnc, &emissn, &visibl, &lit)
		err = r.checkFailed("illumf")
	})
	if err != nil {
		return 0, nil, 0, 0, 0, false, false, err
	}
	return float64(trgepc), vec3ToSlice(&srfvec), float64(phase), float64(incdnc), float64(emissn),
		visibl == C.SPICETRUE, lit == C.SPICETRUE, nil
}

func (r *cspiceRuntime) Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer string, et float64) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ocltid C.SpiceInt
	var err error
	withCStrs([]string{targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer}, func(ps []*C.char) {
		C.occult_c(ps[0], ps[1], ps[2], ps[3], ps[4], ps[5], ps[6], ps[7], C.SpiceDouble(et), &ocltid)
		err = r.checkFailed("occult")
	})
	return int32(ocltid), err
}

func (r *cspiceRuntime) Nvc2pl(normal []float64, konst float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cnormal := sliceToVec3(normal)
	var plane C.SpicePlane
	C.nvc2pl_c(&cnormal[0], C.SpiceDouble(konst), &plane)
	if err := r.checkFailed("nvc2pl"); err != nil {
		return nil, err
	}
	return []float64{
		float64(plane.normal[0]), float64(plane.normal[1]), float64(plane.normal[2]),
		float64(plane.constant),
	}, nil
}

func (r *cspiceRuntime) Pl2nvc(plane []float64) ([]float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cplane C.SpicePlane
	for i := 0; i < 3; i++ {
		cplane.normal[i] = C.SpiceDouble(plane[i])
	}
	cplane.constant = C.SpiceDouble(plane[3])
	var normal [3]C.SpiceDouble
	var konst C.SpiceDouble
	C.pl2nvc_c(&cplane, &normal[0], &konst)
	if err := r.checkFailed("pl2nvc"); err != nil {
		return nil, 0, err
	}
	return vec3ToSlice(&normal), float64(konst), nil
}

// ---- 坐标/向量 ----------------------------------------------------------

func (r *cspiceRuntime) Reclat(rect []float64) (float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	crect := sliceToVec3(rect)
	var radius, lon, lat C.SpiceDouble
	C.reclat_c(&crect[0], &radius, &lon, &lat)
	if err := r.checkFailed("reclat"); err != nil {
		return 0, 0, 0, err
	}
	return float64(radius), float64(lon), float64(lat), nil
}

func (r *cspiceRuntime) Latrec(radius, lon, lat float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rect [3]C.SpiceDouble
	C.latrec_c(C.SpiceDouble(radius), C.SpiceDouble(lon), C.SpiceDouble(lat), &rect[0])
	if err := r.checkFailed("latrec"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&rect), nil
}

func (r *cspiceRuntime) Recsph(rect []float64) (float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	crect := sliceToVec3(rect)
	var rr, colat, slon C.SpiceDouble
	C.recsph_c(&crect[0], &rr, &colat, &slon)
	if err := r.checkFailed("recsph"); err != nil {
		return 0, 0, 0, err
	}
	return float64(rr), float64(colat), float64(slon), nil
}

func (r *cspiceRuntime) Sphrec(rr, colat, slon float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rect [3]C.SpiceDouble
	C.sphrec_c(C.SpiceDouble(rr), C.SpiceDouble(colat), C.SpiceDouble(slon), &rect[0])
	if err := r.checkFailed("sphrec"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&rect), nil
}

func (r *cspiceRuntime) Georec(lon, lat, alt, re, f float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rect [3]C.SpiceDouble
	C.georec_c(C.SpiceDouble(lon), C.SpiceDouble(lat), C.SpiceDouble(alt),
		C.SpiceDouble(re), C.SpiceDouble(f), &rect[0])
	if err := r.checkFailed("georec"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&rect), nil
}

func (r *cspiceRuntime) Recgeo(rect []float64, re, f float64) (float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	crect := sliceToVec3(rect)
	var lon, lat, alt C.SpiceDouble
	C.recgeo_c(&crect[0], C.SpiceDouble(re), C.SpiceDouble(f), &lon, &lat, &alt)
	if err := r.checkFailed("recgeo"); err != nil {
		return 0, 0, 0, err
	}
	return float64(lon), float64(lat), float64(alt), nil
}

func (r *cspiceRuntime) Vnorm(v []float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv := sliceToVec3(v)
	out := C.vnorm_c(&cv[0])
	return float64(out), r.checkFailed("vnorm")
}

func (r *cspiceRuntime) Vhat(v []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv := sliceToVec3(v)
	var out [3]C.SpiceDouble
	C.vhat_c(&cv[0], &out[0])
	if err := r.checkFailed("vhat"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Vdot(a, b []float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ca, cb := sliceToVec3(a), sliceToVec3(b)
	out := C.vdot_c(&ca[0], &cb[0])
	return float64(out), r.checkFailed("vdot")
}

func (r *cspiceRuntime) Vcrss(a, b []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ca, cb := sliceToVec3(a), sliceToVec3(b)
	var out [3]C.SpiceDouble
	C.vcrss_c(&ca[0], &cb[0], &out[0])
	if err := r.checkFailed("vcrss"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Vadd(a, b []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ca, cb := sliceToVec3(a), sliceToVec3(b)
	var out [3]C.SpiceDouble
	C.vadd_c(&ca[0], &cb[0], &out[0])
	if err := r.checkFailed("vadd"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Vsub(a, b []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ca, cb := sliceToVec3(a), sliceToVec3(b)
	var out [3]C.SpiceDouble
	C.vsub_c(&ca[0], &cb[0], &out[0])
	if err := r.checkFailed("vsub"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Vminus(v []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv := sliceToVec3(v)
	var out [3]C.SpiceDouble
	C.vminus_c(&cv[0], &out[0])
	if err := r.checkFailed("vminus"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Vscl(s float64, v []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv := sliceToVec3(v)
	var out [3]C.SpiceDouble
	C.vscl_c(C.SpiceDouble(s), &cv[0], &out[0])
	if err := r.checkFailed("vscl"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func sliceToMat3(m []float64) [3][3]C.SpiceDouble {
	var out [3][3]C.SpiceDouble
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = C.SpiceDouble(m[i*3+j])
		}
	}
	return out
}

func mat3ToSlice(m *[3][3]C.SpiceDouble) []float64 {
	out := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = float64(m[i][j])
		}
	}
	return out
}

func (r *cspiceRuntime) Mxv(m, v []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cm := sliceToMat3(m)
	cv := sliceToVec3(v)
	var out [3]C.SpiceDouble
	C.mxv_c(&cm[0], &cv[0], &out[0])
	if err := r.checkFailed("mxv"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Mtxv(m, v []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cm := sliceToMat3(m)
	cv := sliceToVec3(v)
	var out [3]C.SpiceDouble
	C.mtxv_c(&cm[0], &cv[0], &out[0])
	if err := r.checkFailed("mtxv"); err != nil {
		return nil, err
	}
	return vec3ToSlice(&out), nil
}

func (r *cspiceRuntime) Mxm(a, b []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ca := sliceToMat3(a)
	cb := sliceToMat3(b)
	var out [3][3]C.SpiceDouble
	C.mxm_c(&ca[0], &cb[0], &out[0])
	if err := r.checkFailed("mxm"); err != nil {
		return nil, err
	}
	return mat3ToSlice(&out), nil
}

func (r *cspiceRuntime) Rotate(angle float64, iaxis int32) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [3][3]C.SpiceDouble
	C.rotate_c(C.SpiceDouble(angle), C.SpiceInt(iaxis), &out[0])
	if err := r.checkFailed("rotate"); err != nil {
		return nil, err
	}
	return mat3ToSlice(&out), nil
}

func (r *cspiceRuntime) Rotmat(m []float64, angle float64, iaxis int32) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cm := sliceToMat3(m)
	var out [3][3]C.SpiceDouble
	C.rotmat_c(&cm[0], C.SpiceDouble(angle), C.SpiceInt(iaxis), &out[0])
	if err := r.checkFailed("rotmat"); err != nil {
		return nil, err
	}
	return mat3ToSlice(&out), nil
}

func (r *cspiceRuntime) Axisar(axis []float64, angle float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	caxis := sliceToVec3(axis)
	var out [3][3]C.SpiceDouble
	C.axisar_c(&caxis[0], C.SpiceDouble(angle), &out[0])
	if err := r.checkFailed("axisar"); err != nil {
		return nil, err
	}
	return mat3ToSlice(&out), nil
}

// ---- 文件 ---------------------------------------------------------------

func (r *cspiceRuntime) Exists(path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var exists C.SpiceBoolean
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		exists = C.exists_c(ps[0])
		err = r.checkFailed("exists")
	})
	return exists == C.SPICETRUE, err
}

func (r *cspiceRuntime) Getfat(path string) (backend.FileArch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var arch, ftype [outStrLen]C.char
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.getfat_c(ps[0], outStrLen, outStrLen, &arch[0], &ftype[0])
		err = r.checkFailed("getfat")
	})
	if err != nil {
		return backend.FileArch{}, err
	}
	return backend.FileArch{Arch: C.GoString(&arch[0]), Type: C.GoString(&ftype[0])}, nil
}

func (r *cspiceRuntime) Dafopr(path string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handle C.SpiceInt
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.dafopr_c(ps[0], &handle)
		err = r.checkFailed("dafopr")
	})
	return int32(handle), err
}

func (r *cspiceRuntime) Dafcls(handle int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.dafcls_c(C.SpiceInt(handle))
	return r.checkFailed("dafcls")
}

func (r *cspiceRuntime) Dafbfs(handle int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.dafbfs_c(C.SpiceInt(handle))
	return r.checkFailed("dafbfs")
}

func (r *cspiceRuntime) Daffna(handle int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// DAF 搜索状态是全局的，先选中句柄支持交错遍历
	C.dafcs_c(C.SpiceInt(handle))
	if err := r.checkFailed("daffna"); err != nil {
		return false, err
	}
	var found C.SpiceBoolean
	C.daffna_c(&found)
	if err := r.checkFailed("daffna"); err != nil {
		return false, err
	}
	return found == C.SPICETRUE, nil
}

func (r *cspiceRuntime) Dasopr(path string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handle C.SpiceInt
	var err error
	withCStrs([]string{path}, func(ps []*C.char) {
		C.dasopr_c(ps[0], &handle)
		err = r.checkFailed("dasopr")
	})
	return int32(handle), err
}

func (r *cspiceRuntime) Dascls(handle int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.dascls_c(C.SpiceInt(handle))
	return r.checkFailed("dascls")
}

func (r *cspiceRuntime) Dlaopn(path, ftype, ifname string, ncomch int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handle C.SpiceInt
	var err error
	withCStrs([]string{path, ftype, ifname}, func(ps []*C.char) {
		C.dlaopn_c(ps[0], ps[1], ps[2], C.SpiceInt(ncomch), &handle)
		err = r.checkFailed("dlaopn")
	})
	return int32(handle), err
}

func dlaDescrFromC(d *C.SpiceDLADescr) backend.DlaDescriptor {
	return backend.DlaDescriptor{
		Bwdptr: int32(d.bwdptr),
		Fwdptr: int32(d.fwdptr),
		Ibase:  int32(d.ibase),
		Isize:  int32(d.isize),
		Dbase:  int32(d.dbase),
		Dsize:  int32(d.dsize),
		Cbase:  int32(d.cbase),
		Csize:  int32(d.csize),
	}
}

func (r *cspiceRuntime) Dlabfs(handle int32) (backend.DlaDescriptor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var descr C.SpiceDLADescr
	var found C.SpiceBoolean
	C.dlabfs_c(C.SpiceInt(handle), &descr, &found)
	if err := r.checkFailed("dlabfs"); err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	if found == C.SPICEFALSE {
		return backend.DlaDescriptor{}, false, nil
	}
	return dlaDescrFromC(&descr), true, nil
}

func (r *cspiceRuntime) Dlafns(handle int32, descr backend.DlaDescriptor) (backend.DlaDescriptor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cur, next C.SpiceDLADescr
	cur.bwdptr = C.SpiceInt(descr.Bwdptr)
	cur.fwdptr = C.SpiceInt(descr.Fwdptr)
	cur.ibase = C.SpiceInt(descr.Ibase)
	cur.isize = C.SpiceInt(descr.Isize)
	cur.dbase = C.SpiceInt(descr.Dbase)
	cur.dsize = C.SpiceInt(descr.Dsize)
	cur.cbase = C.SpiceInt(descr.Cbase)
	cur.csize = C.SpiceInt(descr.Csize)
	var found C.SpiceBoolean
	C.dlafns_c(C.SpiceInt(handle), &cur, &next, &found)
	if err := r.checkFailed("dlafns"); err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	if found == C.SPICEFALSE {
		return backend.DlaDescriptor{}, false, nil
	}
	return dlaDescrFromC(&next), true, nil
}

func (r *cspiceRuntime) Dlacls(handle int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	C.dascls_c(C.SpiceInt(handle))
	return r.checkFailed("dlacls")
}

// ---- cell/window --------------------------------------------------------

func (r *cspiceRuntime) newCell(dtype C.SpiceDataType, capacity, length int32, what string) (int32, error) {
	id := C.gospice_cell_new(dtype, C.SpiceInt(capacity), C.SpiceInt(length))
	if id < 0 {
		return 0, &backend.SpiceError{
			Kind:    backend.ErrInternal,
			Message: fmt.Sprintf("%s 创建失败（注册表已满或内存不足）", what),
		}
	}
	return int32(id), nil
}

func (r *cspiceRuntime) NewIntCell(capacity int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newCell(C.SPICE_INT, capacity, 0, "int cell")
}

func (r *cspiceRuntime) NewDoubleCell(capacity int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newCell(C.SPICE_DP, capacity, 0, "double cell")
}

func (r *cspiceRuntime) NewCharCell(capacity, length int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newCell(C.SPICE_CHR, capacity, length, "char cell")
}

func (r *cspiceRuntime) cell(id int32, ctx string) (*C.SpiceCell, error) {
	c := C.gospice_cell_get(C.int(id))
	if c == nil {
		return nil, backend.Validation(fmt.Sprintf("%s: 无效 cell 编号 %d", ctx, id))
	}
	return c, nil
}

func (r *cspiceRuntime) Insrti(item int32, cellID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "insrti")
	if err != nil {
		return err
	}
	C.insrti_c(C.SpiceInt(item), c)
	return r.checkFailed("insrti")
}

func (r *cspiceRuntime) Insrtd(item float64, cellID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "insrtd")
	if err != nil {
		return err
	}
	C.insrtd_c(C.SpiceDouble(item), c)
	return r.checkFailed("insrtd")
}

func (r *cspiceRuntime) Insrtc(item string, cellID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "insrtc")
	if err != nil {
		return err
	}
	var callErr error
	withCStrs([]string{item}, func(ps []*C.char) {
		C.insrtc_c(ps[0], c)
		callErr = r.checkFailed("insrtc")
	})
	return callErr
}

func (r *cspiceRuntime) Card(cellID int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "card")
	if err != nil {
		return 0, err
	}
	out := C.card_c(c)
	return int32(out), r.checkFailed("card")
}

func (r *cspiceRuntime) CellSize(cellID int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "size")
	if err != nil {
		return 0, err
	}
	out := C.size_c(c)
	return int32(out), r.checkFailed("size")
}

func (r *cspiceRuntime) CellGetInt(cellID int32, index int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "cellGetInt")
	if err != nil {
		return 0, err
	}
	if index < 0 || C.SpiceInt(index) >= c.card {
		return 0, backend.Validation(fmt.Sprintf("cellGetInt: 下标越界 %d", index))
	}
	data := (*C.SpiceInt)(c.data)
	v := *(*C.SpiceInt)(unsafe.Pointer(uintptr(unsafe.Pointer(data)) + uintptr(index)*unsafe.Sizeof(*data)))
	return int32(v), nil
}

func (r *cspiceRuntime) CellGetDouble(cellID int32, index int32) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "cellGetDouble")
	if err != nil {
		return 0, err
	}
	if index < 0 || C.SpiceInt(index) >= c.card {
		return 0, backend.Validation(fmt.Sprintf("cellGetDouble: 下标越界 %d", index))
	}
	data := (*C.SpiceDouble)(c.data)
	v := *(*C.SpiceDouble)(unsafe.Pointer(uintptr(unsafe.Pointer(data)) + uintptr(index)*unsafe.Sizeof(*data)))
	return float64(v), nil
}

func (r *cspiceRuntime) CellGetChar(cellID int32, index int32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(cellID, "cellGetChar")
	if err != nil {
		return "", err
	}
	if index < 0 || C.SpiceInt(index) >= c.card {
		return "", backend.Validation(fmt.Sprintf("cellGetChar: 下标越界 %d", index))
	}
	p := (*C.char)(unsafe.Pointer(uintptr(c.data) + uintptr(index)*uintptr(c.length)))
	return C.GoString(p), nil
}

func (r *cspiceRuntime) FreeCell(cellID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.cell(cellID, "freeCell"); err != nil {
		return err
	}
	C.gospice_cell_free(C.int(cellID))
	return nil
}

func (r *cspiceRuntime) NewWindow(capacity int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newCell(C.SPICE_DP, capacity, 0, "window")
}

func (r *cspiceRuntime) Wninsd(left, right float64, windowID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(windowID, "wninsd")
	if err != nil {
		return err
	}
	C.wninsd_c(C.SpiceDouble(left), C.SpiceDouble(right), c)
	return r.checkFailed("wninsd")
}

func (r *cspiceRuntime) Wncard(windowID int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(windowID, "wncard")
	if err != nil {
		return 0, err
	}
	out := C.wncard_c(c)
	return int32(out), r.checkFailed("wncard")
}

func (r *cspiceRuntime) Wnfetd(windowID int32, n int32) (float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.cell(windowID, "wnfetd")
	if err != nil {
		return 0, 0, err
	}
	var left, right C.SpiceDouble
	C.wnfetd_c(c, C.SpiceInt(n), &left, &right)
	if err := r.checkFailed("wnfetd"); err != nil {
		return 0, 0, err
	}
	return float64(left), float64(right), nil
}

func (r *cspiceRuntime) FreeWindow(windowID int32) error {
	return r.FreeCell(windowID)
}
