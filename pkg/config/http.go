package config

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

var _ HTTPConfig = (*HTTP)(nil)

type Middleware func(string, http.Handler) http.Handler

type HTTP struct {
	ListenAddr    string        `default:":8000" desc:"listen address"`
	ListenAddrTLS string        `desc:"TLS listen address"`
	CertFile      string        `desc:"TLS certificate file"`
	KeyFile       string        `desc:"TLS key file"`
	CORS          bool          `default:"true" desc:"add CORS headers"`
	UserName      string        `desc:"basic auth user"`
	Password      string        `desc:"basic auth password"`
	ReadTimeout   time.Duration `desc:"read timeout"`
	WriteTimeout  time.Duration `desc:"write timeout"`
	IdleTimeout   time.Duration `desc:"idle timeout"`
	mux           *http.ServeMux
	middlewares   []Middleware
}

type HTTPConfig interface {
	GetHTTPConfig() *HTTP
}

func (config *HTTP) GetHTTPConfig() *HTTP {
	return config
}

func (config *HTTP) GetHandler() http.Handler {
	return config.mux
}

func (config *HTTP) GetHttpMux() *http.ServeMux {
	return config.mux
}

func (config *HTTP) AddMiddleware(middleware Middleware) {
	config.middlewares = append(config.middlewares, middleware)
}

func (config *HTTP) Handle(path string, f http.Handler) {
	if config.mux == nil {
		config.mux = http.NewServeMux()
	}
	if config.CORS {
		f = CORS(f)
	}
	if config.UserName != "" && config.Password != "" {
		f = BasicAuth(config.UserName, config.Password, f)
	}
	for _, middleware := range config.middlewares {
		f = middleware(path, f)
	}
	config.mux.Handle(path, f)
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Cross-Origin-Resource-Policy", "cross-origin")
		header.Set("Access-Control-Allow-Headers", "Content-Type,Access-Token")
		header.Set("Access-Control-Allow-Private-Network", "true")
		origin := r.Header["Origin"]
		if len(origin) == 0 {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			header.Set("Access-Control-Allow-Origin", origin[0])
		}
		if next != nil && r.Method != "OPTIONS" {
			next.ServeHTTP(w, r)
		}
	})
}

func BasicAuth(u, p string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok {
			// Hash both sides so the constant-time compare sees equal lengths.
			usernameHash := sha256.Sum256([]byte(username))
			passwordHash := sha256.Sum256([]byte(password))
			expectedUsernameHash := sha256.Sum256([]byte(u))
			expectedPasswordHash := sha256.Sum256([]byte(p))
			usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1
			passwordMatch := subtle.ConstantTimeCompare(passwordHash[:], expectedPasswordHash[:]) == 1
			if usernameMatch && passwordMatch {
				if next != nil {
					next.ServeHTTP(w, r)
				}
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (config *HTTP) CreateHTTPWork(logger *slog.Logger) *ListenHTTPWork {
	ret := &ListenHTTPWork{HTTP: config}
	ret.Logger = logger.With("addr", config.ListenAddr)
	return ret
}

func (config *HTTP) CreateHTTPSWork(logger *slog.Logger) *ListenHTTPSWork {
	ret := &ListenHTTPSWork{ListenHTTPWork{HTTP: config}}
	ret.Logger = logger.With("addr", config.ListenAddrTLS)
	return ret
}

type ListenHTTPWork struct {
	task.Task
	*HTTP
	*http.Server
}

func (task *ListenHTTPWork) Start() (err error) {
	task.Server = &http.Server{
		Addr:         task.ListenAddr,
		ReadTimeout:  task.HTTP.ReadTimeout,
		WriteTimeout: task.HTTP.WriteTimeout,
		IdleTimeout:  task.HTTP.IdleTimeout,
		Handler:      task.GetHandler(),
	}
	return
}

func (task *ListenHTTPWork) Go() error {
	task.Info("listen http")
	return task.Server.ListenAndServe()
}

func (task *ListenHTTPWork) Dispose() {
	task.Info("http server stop")
	task.Server.Close()
}

type ListenHTTPSWork struct {
	ListenHTTPWork
}

func (task *ListenHTTPSWork) Start() (err error) {
	task.Server = &http.Server{
		Addr:         task.HTTP.ListenAddrTLS,
		ReadTimeout:  task.HTTP.ReadTimeout,
		WriteTimeout: task.HTTP.WriteTimeout,
		IdleTimeout:  task.HTTP.IdleTimeout,
		Handler:      task.HTTP.GetHandler(),
	}
	return
}

func (task *ListenHTTPSWork) Go() error {
	task.Info("listen https")
	return task.Server.ListenAndServeTLS(task.HTTP.CertFile, task.HTTP.KeyFile)
}
