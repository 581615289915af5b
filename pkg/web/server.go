package web

import (
	"benchlink/cmd/benchlink/config"
	"benchlink/pkg/generic"
	"context"
	"crypto/tls"
	"fmt"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"net/http"
)

type Server struct {
	*generic.Server
	*config.Config
}

func NewServer(router *gin.Engine, port string, config *config.Config) (*Server, error) {
	if config == nil || config.Client == nil {
		return nil, fmt.Errorf("web server needs a modbus client")
	}
	allowMethods := []string{http.MethodPost, http.MethodGet, http.MethodPut}

	s := &generic.Server{
		Router:   router,
		Port:     port,
		Methods:  allowMethods,
		CertFile: config.CertFile,
		KeyFile:  config.KeyFile,
	}

	server := &Server{
		Server: s,
		Config: config,
	}

	server.InstallHandlers()

	return server, nil
}

func (s *Server) InstallHandlers() {
	v1 := s.Router.Group("/api/v1")
	var monitor Monitor
	if s.Config.Poller != nil {
		monitor = s.Config.Poller
	}
	InstallHandler(v1, s.Config.Client, monitor)

	instruments := make([]Instrument, 0, len(s.Config.Instruments))
	for _, i := range s.Config.Instruments {
		instruments = append(instruments, i)
	}
	InstallInstrumentHandler(v1, instruments)
}

// Serve starts listening in the background and returns the function that stops it.
func (s *Server) Serve() (func(ctx context.Context), error) {
	var srv *http.Server
	if len(s.Server.CertFile) != 0 && len(s.Server.KeyFile) != 0 {
		x509KeyPair, err := tls.LoadX509KeyPair(s.Server.CertFile, s.Server.KeyFile)
		if err != nil {
			return nil, err
		}
		c := &tls.Config{
			Certificates: []tls.Certificate{x509KeyPair},
		}

		srv = &http.Server{
			Addr:      fmt.Sprintf(":%s", s.Port),
			Handler:   s.Router,
			TLSConfig: c,
		}
		go func() {
			if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				klog.ErrorS(err, "Failed to serve HTTPS", "port", s.Port)
			}
		}()
	} else {
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%s", s.Port),
			Handler: s.Router,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				klog.ErrorS(err, "Failed to serve HTTP", "port", s.Port)
			}
		}()
	}

	return func(ctx context.Context) {
		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			klog.Error(err)
		}
	}, nil
}
