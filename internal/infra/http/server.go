package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"medsupply/internal/config"
	"medsupply/internal/domain"
	"medsupply/internal/infra/authz"
	"medsupply/internal/infra/db"
	"medsupply/internal/infra/memstore"
	"medsupply/internal/infra/pinata"
	"medsupply/internal/infra/policyopa"
	"medsupply/internal/infra/qr"
	"medsupply/internal/infra/ratelimit"
	"medsupply/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	registry      *usecase.RoleRegistry
	ledger        *usecase.TokenLedger
	dispenser     *usecase.Dispenser
	prescriptions *usecase.PrescriptionLedger
	claims        *usecase.ClaimLedger
	pipeline      *usecase.MintPipeline

	dbMode string

	initErr error

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

// NewServer wires the full daemon from config. Without POSTGRES_DSN
// the repositories run in memory, which is enough for local work but
// loses everything on restart.
func NewServer(cfg config.Config) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Tokens        usecase.TokenRepository
	Prescriptions usecase.PrescriptionRepository
	Claims        usecase.ClaimRepository
	Roles         usecase.RoleRepository
	AuditEvents   usecase.AuditEventRepository
	Authorizer    usecase.Authorizer
	Store         usecase.ArtifactStore
	Encoder       usecase.CodeEncoder
	Clock         usecase.Clock
	RateLimiter   domain.RateLimiter
}

// NewServerWithDeps is the test constructor; every collaborator is
// injected.
func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r, dbMode: "injected"}
	s.wire(deps)
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	deps := ServerDeps{}

	if s.cfg.PostgresDSN != "" {
		store, err := db.NewStore(s.cfg.PostgresDSN)
		if err != nil {
			s.initErr = err
			return
		}
		if err := store.Migrate(); err != nil {
			s.initErr = err
			return
		}
		deps.Tokens = db.NewTokenRepository(store.DB)
		deps.Prescriptions = db.NewPrescriptionRepository(store.DB)
		deps.Claims = db.NewClaimRepository(store.DB)
		deps.Roles = db.NewRoleRepository(store.DB)
		deps.AuditEvents = db.NewAuditEventRepository(store.DB)
		s.dbMode = "db"
	} else {
		mem := memstore.New()
		deps.Tokens = mem.Tokens()
		deps.Prescriptions = mem.Prescriptions()
		deps.Claims = mem.Claims()
		deps.Roles = mem.Roles()
		deps.AuditEvents = mem.Audit()
		s.dbMode = "memory"
	}

	switch s.cfg.AuthzMode {
	case "", "static":
		deps.Authorizer = authz.NewStatic(deps.Roles)
	case "opa":
		engine, err := policyopa.NewEngine(context.Background(), s.cfg.AuthzBundlePath)
		if err != nil {
			s.initErr = err
			return
		}
		deps.Authorizer = policyopa.NewAuthorizer(engine, deps.Roles)
	default:
		s.initErr = errors.New("unsupported authz mode")
		return
	}

	deps.Store = pinata.New(
		s.cfg.PinataBaseURL,
		s.cfg.PinataJWT,
		s.cfg.PinataAPIKey,
		s.cfg.PinataSecretKey,
		s.cfg.PinataGateway,
	)
	deps.Encoder = qr.New(s.cfg.QRSize)

	s.wire(deps)
	s.initRateLimit(nil)

	if s.cfg.BootstrapAdmin != "" {
		grant := domain.RoleGrant{
			Identity:  s.cfg.BootstrapAdmin,
			Role:      domain.RoleAdmin,
			GrantedBy: s.cfg.BootstrapAdmin,
		}
		if err := deps.Roles.Grant(context.Background(), grant); err != nil {
			s.initErr = err
		}
	}
}

func (s *Server) wire(deps ServerDeps) {
	audit := usecase.NewAuditEmitter(deps.AuditEvents, deps.Clock)
	s.registry = &usecase.RoleRegistry{Roles: deps.Roles, Audit: audit}
	s.ledger = &usecase.TokenLedger{
		Tokens: deps.Tokens,
		Roles:  deps.Roles,
		Authz:  deps.Authorizer,
		Audit:  audit,
		Clock:  deps.Clock,
	}
	s.dispenser = &usecase.Dispenser{
		Tokens:        deps.Tokens,
		Prescriptions: deps.Prescriptions,
		Authz:         deps.Authorizer,
		Audit:         audit,
		Clock:         deps.Clock,
	}
	s.prescriptions = &usecase.PrescriptionLedger{
		Prescriptions: deps.Prescriptions,
		Authz:         deps.Authorizer,
		Audit:         audit,
		Clock:         deps.Clock,
	}
	s.claims = &usecase.ClaimLedger{
		Claims:        deps.Claims,
		Prescriptions: deps.Prescriptions,
		Authz:         deps.Authorizer,
		Audit:         audit,
		Clock:         deps.Clock,
	}
	s.pipeline = &usecase.MintPipeline{
		Tokens:        deps.Tokens,
		Ledger:        s.ledger,
		Store:         deps.Store,
		Encoder:       deps.Encoder,
		Network:       s.cfg.Network,
		LedgerAddress: s.cfg.LedgerAddress,
		Clock:         deps.Clock,
	}
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": s.dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.GET("/roles/:identity", s.handleListRoles)
		v1.GET("/drugs/:token_id", s.handleVerifyToken)
		v1.POST("/drugs/:token_id_action", s.handleTokenAction)
		v1.GET("/prescriptions", s.handleMyPrescriptions)
		v1.POST("/prescriptions", s.handleCreatePrescription)
		v1.POST("/claims", s.handleCreateClaim)
		v1.GET("/claims/pending", s.handleListPendingClaims)
		v1.POST("/claims/:claim_id_action", s.handleClaimAction)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}
