// Package api 提供喂给查看器的轻量 HTTP 面：状态查询与内核管理。
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/kernelpack"
)

type Response map[string]interface{}

func Success(c *echo.Context, res Response) error {
	res["result"] = true
	return (*c).JSON(http.StatusOK, res)
}

func Error(c *echo.Context, errMsg string, res Response) error {
	res["result"] = false
	res["err"] = errMsg
	return (*c).JSON(http.StatusOK, res)
}

// Options 服务配置。
type Options struct {
	Backend backend.SpiceBackend
	Logger  *zap.SugaredLogger
	Fetcher *kernelpack.Fetcher

	// RefreshPack 非空时按 RefreshCron 的节奏周期性重载该清单。
	RefreshPack *kernelpack.Pack
	RefreshCron string
}

// Server 把一个后端实例挂到 HTTP 上。
// 后端单实例不可重入，所有触达后端的处理器都经 mu 串行；
// 内核池状态是实例级全局的，多个调用方共享同一套装载结果。
type Server struct {
	backend backend.SpiceBackend
	logger  *zap.SugaredLogger
	fetcher *kernelpack.Fetcher

	mu   sync.Mutex
	cron *cron.Cron
}

// NewServer 创建服务并按需启动周期刷新。
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &kernelpack.Fetcher{Logger: logger}
	}
	s := &Server{backend: opts.Backend, logger: logger, fetcher: fetcher}

	if opts.RefreshPack != nil && opts.RefreshCron != "" {
		s.cron = cron.New()
		pack := *opts.RefreshPack
		_, err := s.cron.AddFunc(opts.RefreshCron, func() { s.refreshPack(pack) })
		if err != nil {
			logger.Errorw("周期刷新表达式不合法, 已禁用", "cron", opts.RefreshCron, "err", err)
			s.cron = nil
		} else {
			s.cron.Start()
		}
	}
	return s
}

// Close 停掉周期任务。后端生命周期由调用方管理。
func (s *Server) Close() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Register 挂载路由。
func (s *Server) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/version", s.getVersion)
	g.GET("/state", s.getState)
	g.GET("/kernels", s.getKernels)
	g.POST("/kernels", s.postKernels)
}

func (s *Server) refreshPack(pack kernelpack.Pack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetcher.FetchAndLoad(context.Background(), pack, s.backend); err != nil {
		s.logger.Warnw("内核清单周期刷新失败", "err", err)
		return
	}
	s.logger.Infow("内核清单已刷新", "kernels", len(pack.Kernels))
}

func (s *Server) getVersion(c echo.Context) error {
	s.mu.Lock()
	version, err := s.backend.Tkvrsn()
	s.mu.Unlock()
	if err != nil {
		return Error(&c, err.Error(), Response{})
	}
	return Success(&c, Response{
		"toolkit": version,
		"sdk":     kernelpack.SDKVersion,
		"backend": s.backend.Name(),
	})
}

func (s *Server) getState(c echo.Context) error {
	v := struct {
		Target   string `query:"target"`
		Observer string `query:"observer"`
		Frame    string `query:"frame"`
		Abcorr   string `query:"abcorr"`
		UTC      string `query:"utc"`
	}{}
	if err := c.Bind(&v); err != nil {
		return c.JSON(http.StatusBadRequest, Response{"result": false, "err": err.Error()})
	}
	if v.Target == "" || v.Observer == "" || v.UTC == "" {
		return c.JSON(http.StatusBadRequest, Response{
			"result": false,
			"err":    "target、observer、utc 均为必填",
		})
	}
	if v.Frame == "" {
		v.Frame = "J2000"
	}
	if v.Abcorr == "" {
		v.Abcorr = "NONE"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	et, err := s.backend.Str2et(v.UTC)
	if err != nil {
		return Error(&c, err.Error(), Response{})
	}
	state, lt, err := s.backend.Spkezr(v.Target, et, v.Frame, v.Abcorr, v.Observer)
	if err != nil {
		return Error(&c, err.Error(), Response{})
	}
	return Success(&c, Response{
		"et":    et,
		"state": state,
		"lt":    lt,
	})
}

func (s *Server) getKernels(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.backend.Ktotal("ALL")
	if err != nil {
		return Error(&c, err.Error(), Response{})
	}
	kernels := make([]Response, 0, total)
	for i := 0; i < total; i++ {
		info, ok, err := s.backend.Kdata(i, "ALL")
		if err != nil {
			return Error(&c, err.Error(), Response{})
		}
		if !ok {
			break
		}
		kernels = append(kernels, Response{
			"file":   info.File,
			"type":   info.Filtyp,
			"source": info.Source,
		})
	}
	return Success(&c, Response{"total": total, "kernels": kernels})
}

func (s *Server) postKernels(c echo.Context) error {
	var pack kernelpack.Pack
	if err := c.Bind(&pack); err != nil {
		return c.JSON(http.StatusBadRequest, Response{"result": false, "err": err.Error()})
	}
	if len(pack.Kernels) == 0 {
		return c.JSON(http.StatusBadRequest, Response{"result": false, "err": "内核清单为空"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetcher.FetchAndLoad(c.Request().Context(), pack, s.backend); err != nil {
		return Error(&c, err.Error(), Response{})
	}
	s.logger.Infow("内核清单已装载", "kernels", len(pack.Kernels))
	return Success(&c, Response{"loaded": len(pack.Kernels)})
}
