package wasmspice

import (
	"errors"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func TestGdpoolMarshalsWindowAndValues(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_gdpool"] = func(args []uint64) uint64 {
		if got := f.readCStr(uint32(args[0])); got != "BODY399_RADII" {
			t.Fatalf("变量名编组错误: %q", got)
		}
		if args[1] != 1 || args[2] != 8 {
			t.Fatalf("窗口参数编组错误: start=%d room=%d", args[1], args[2])
		}
		f.writeU32(uint32(args[3]), 2)
		if err := codec.WriteF64s(f.mem, uint32(args[4]), []float64{6378.1366, 6356.7519}); err != nil {
			t.Fatalf("写假值失败: %v", err)
		}
		f.writeU32(uint32(args[5]), 1)
		return 0
	}
	b := newReadyBackend(t, f)

	vals, found, err := b.Gdpool("BODY399_RADII", 1, 8)
	if err != nil || !found {
		t.Fatalf("Gdpool 应命中: found=%v err=%v", found, err)
	}
	if len(vals) != 2 || vals[1] != 6356.7519 {
		t.Fatalf("取值不符: %v", vals)
	}
}

func TestGcpoolReadsPackedSlots(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_gcpool"] = func(args []uint64) uint64 {
		if args[3] != outStrLen {
			t.Fatalf("槽位长度编组错误: %d", args[3])
		}
		valsPtr := uint32(args[5])
		f.writeCStr(valsPtr, "CRUISE")
		f.writeCStr(valsPtr+outStrLen, "ORBIT")
		f.writeU32(uint32(args[4]), 2)
		f.writeU32(uint32(args[6]), 1)
		return 0
	}
	b := newReadyBackend(t, f)

	vals, found, err := b.Gcpool("MISSION_PHASES", 0, 4)
	if err != nil || !found {
		t.Fatalf("Gcpool 应命中: found=%v err=%v", found, err)
	}
	if len(vals) != 2 || vals[0] != "CRUISE" || vals[1] != "ORBIT" {
		t.Fatalf("取值不符: %v", vals)
	}
}

func TestPcpoolPacksValues(t *testing.T) {
	f := newFakeModule()
	var packed []string
	f.handlers["tspice_pcpool"] = func(args []uint64) uint64 {
		if args[1] != 2 || args[2] != outStrLen {
			t.Fatalf("打包参数编组错误: n=%d lenvals=%d", args[1], args[2])
		}
		base := uint32(args[3])
		for i := uint32(0); i < uint32(args[1]); i++ {
			s, err := codec.ReadCString(f.mem, base+i*outStrLen, outStrLen)
			if err != nil {
				t.Fatalf("读包失败: %v", err)
			}
			packed = append(packed, s)
		}
		return 0
	}
	b := newReadyBackend(t, f)

	if err := b.Pcpool("MISSION_PHASES", []string{"CRUISE", "ORBIT"}); err != nil {
		t.Fatalf("Pcpool 应成功: %v", err)
	}
	if len(packed) != 2 || packed[0] != "CRUISE" || packed[1] != "ORBIT" {
		t.Fatalf("打包内容不符: %v", packed)
	}
}

func TestDtpoolReadsTypeChar(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_dtpool"] = func(args []uint64) uint64 {
		f.writeU32(uint32(args[1]), 1)
		f.writeU32(uint32(args[2]), 3)
		f.writeCStr(uint32(args[3]), "N")
		return 0
	}
	b := newReadyBackend(t, f)

	info, found, err := b.Dtpool("BODY399_RADII")
	if err != nil || !found {
		t.Fatalf("Dtpool 应命中: found=%v err=%v", found, err)
	}
	if info.N != 3 || info.Type != "N" {
		t.Fatalf("变量属性不符: %+v", info)
	}
}

func TestPoolWindowRejectedBeforeCall(t *testing.T) {
	f := newFakeModule()
	b := newReadyBackend(t, f)

	var sErr *backend.SpiceError
	if _, _, err := b.Gipool("X", -1, 4); !errors.As(err, &sErr) || sErr.Kind != backend.ErrValidation {
		t.Fatalf("负 start 应返回校验错误: %v", err)
	}
	for _, call := range f.calls {
		if call == "tspice_gipool" {
			t.Fatal("校验失败不应触达模块")
		}
	}
}
