package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"seatlicense/database"
	"seatlicense/metrics"
	"seatlicense/middleware"
	"seatlicense/services"
)

// DefaultSignatureHeader 결제 웹훅 서명 헤더
const DefaultSignatureHeader = "x-paystack-signature"

// Deps HTTP 계층이 사용하는 서비스 묶음
type Deps struct {
	DB         *database.DB
	Issuer     *services.LicenseIssuer
	Activation *services.ActivationService
	Tokens     *services.TokenService
	Signature  *services.SignatureVerifier
	Metrics    *metrics.Metrics
	Limiter    *middleware.RateLimiter

	SignatureHeader string
	Product         string
	MaxBodyBytes    int64

	// TrustProxyHeaders 리버스 프록시 뒤에서만 켭니다. 켜면 X-Forwarded-For/X-Real-IP가 클라이언트 IP가 됩니다.
	TrustProxyHeaders bool
}

// NewRouter 라우터 구성
func NewRouter(d Deps) http.Handler {
	if d.SignatureHeader == "" {
		d.SignatureHeader = DefaultSignatureHeader
	}

	webhook := &WebhookHandler{
		issuer:   d.Issuer,
		verifier: d.Signature,
		header:   d.SignatureHeader,
		metrics:  d.Metrics,
		maxBody:  d.MaxBodyBytes,
	}
	license := &LicenseHandler{
		activation: d.Activation,
		tokens:     d.Tokens,
		metrics:    d.Metrics,
	}
	health := &HealthHandler{db: d.DB, product: d.Product}

	r := chi.NewRouter()
	if d.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.LoggingMiddleware,
		middleware.Metrics(d.Metrics),
		chimw.Recoverer,
		middleware.CORSMiddleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", health.Home)
	r.Get("/healthz", health.Health)
	r.Handle("/metrics", d.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// 결제 웹훅은 제공자 IP에서 재전송이 몰릴 수 있으므로 속도 제한을 걸지 않는다
	r.Post("/webhook", webhook.Handle)
	r.Post("/paystack/webhook", webhook.Handle)

	// 클라이언트 API (인증 불필요)
	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Handler)
		}
		r.Use(middleware.MaxBodyBytes(d.MaxBodyBytes), middleware.SetJSONHeader)

		r.Post("/activate", license.Activate)
		r.Post("/verify", license.Verify)
		r.Post("/deactivate", license.Deactivate)
	})

	return r
}
