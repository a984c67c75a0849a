package backend

// Vector3 三维向量。
type Vector3 [3]float64

// Matrix3x3 行主序 3x3 矩阵。
type Matrix3x3 [9]float64

// Matrix6x6 行主序 6x6 状态变换矩阵。
type Matrix6x6 [36]float64

// State6 位置+速度六元状态。
type State6 [6]float64

// Plane 平面：单位法向量 + 常数项，布局与底层库 SpicePlane 一致。
type Plane [4]float64

// SpkDescriptor SPK 段描述符的 5 双精度打包布局（spkpds/spkuds 约定）。
type SpkDescriptor [5]float64

// DlaDescriptor DLA 段描述符：8 个有符号 32 位字段，32 字节定长布局。
type DlaDescriptor struct {
	Bwdptr int32
	Fwdptr int32
	Ibase  int32
	Isize  int32
	Dbase  int32
	Dsize  int32
	Cbase  int32
	Csize  int32
}

// SpkParts 是 SpkDescriptor 解包后的各字段。
type SpkParts struct {
	Body   int
	Center int
	Frame  int
	Type   int
	First  float64
	Last   float64
	Baddr  int
	Eaddr  int
}

// SpkSegment spksfs 命中的段：DAF 句柄为底层库原生编号（只读信息，不入注册表）。
type SpkSegment struct {
	DafHandle int32
	Descr     SpkDescriptor
	Ident     string
}

// KernelInfo kdata 返回的内核清单项。
// File 是调用方视角的路径：字节内核回写为其虚拟标识。
type KernelInfo struct {
	File   string
	Filtyp string
	Source string
	Handle int32
}

// KernelTag kinfo 返回的单内核信息。
type KernelTag struct {
	Filtyp string
	Source string
	Handle int32
}

// PoolVarInfo dtpool 返回的内核池变量属性。
// Type 为 "C"（字符）或 "N"（数值）。
type PoolVarInfo struct {
	N    int
	Type string
}

// FrameIdent 参考系编号+名称。
type FrameIdent struct {
	Code int
	Name string
}

// FrameInfo frinfo 返回的参考系属性。
type FrameInfo struct {
	Center  int
	Class   int
	ClassID int
}

// FileArch getfat 返回的文件架构/类型。
type FileArch struct {
	Arch string
	Type string
}

// Latitudinal 经纬坐标（半径、经度、纬度，弧度）。
type Latitudinal struct {
	Radius float64
	Lon    float64
	Lat    float64
}

// Spherical 球坐标（半径、余纬、经度，弧度）。
type Spherical struct {
	R     float64
	Colat float64
	Slon  float64
}

// Geodetic 大地坐标（经度、纬度、高程）。
type Geodetic struct {
	Lon float64
	Lat float64
	Alt float64
}

// SubPoint subpnt/subslr 结果。
type SubPoint struct {
	Spoint Vector3
	Trgepc float64
	Srfvec Vector3
}

// SurfaceIntercept sincpt 命中结果。
type SurfaceIntercept struct {
	Spoint Vector3
	Trgepc float64
	Srfvec Vector3
}

// Illumination ilumin/illumg 光照角结果（弧度）。
type Illumination struct {
	Trgepc float64
	Srfvec Vector3
	Phase  float64
	Incdnc float64
	Emissn float64
}

// IlluminationFlags illumf 结果：光照角加可见/受照标志。
type IlluminationFlags struct {
	Illumination
	Visibl bool
	Lit    bool
}

// SpiceErrorDetail 底层库最近一次错误的结构化字段。
type SpiceErrorDetail struct {
	Short string
	Long  string
	Trace string
}
