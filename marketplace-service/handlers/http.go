package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/draftea/nft-marketplace/marketplace-service/application"
	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/circuitbreaker"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type listForSaleUseCase interface {
	Execute(ctx context.Context, cmd *application.ListForSaleCommand) (*application.WorkflowResponse, error)
}

type buyNFTUseCase interface {
	Execute(ctx context.Context, cmd *application.BuyNFTCommand) (*application.WorkflowResponse, error)
}

type getNFTUseCase interface {
	Execute(ctx context.Context, query *application.GetNFTQuery) (*domain.NFT, error)
}

type fetchFromChainUseCase interface {
	Execute(ctx context.Context, query *application.FetchFromChainQuery) (*domain.ChainAsset, error)
}

type mintNFTUseCase interface {
	Execute(ctx context.Context, cmd *application.MintNFTCommand) (*application.WorkflowResponse, error)
}

type searchNFTsUseCase interface {
	Execute(ctx context.Context, query *application.SearchNFTsQuery) (*domain.NFTPage, error)
}

// MarketplaceHandlers contains marketplace HTTP handlers
type MarketplaceHandlers struct {
	listForSale    listForSaleUseCase
	buyNFT         buyNFTUseCase
	getNFT         getNFTUseCase
	fetchFromChain fetchFromChainUseCase
	mintNFT        mintNFTUseCase
	searchNFTs     searchNFTsUseCase
	logger         *zap.Logger
}

// NewMarketplaceHandlers creates new marketplace handlers
func NewMarketplaceHandlers(
	listForSale listForSaleUseCase,
	buyNFT buyNFTUseCase,
	getNFT getNFTUseCase,
	fetchFromChain fetchFromChainUseCase,
	mintNFT mintNFTUseCase,
	searchNFTs searchNFTsUseCase,
	logger *zap.Logger,
) *MarketplaceHandlers {
	return &MarketplaceHandlers{
		listForSale:    listForSale,
		buyNFT:         buyNFT,
		getNFT:         getNFT,
		fetchFromChain: fetchFromChain,
		mintNFT:        mintNFT,
		searchNFTs:     searchNFTs,
		logger:         logging.OrNop(logger),
	}
}

type listRequest struct {
	SellerWallet  string `json:"seller_wallet"`
	PriceLamports int64  `json:"price_lamports"`
	DurationDays  int    `json:"duration_days"`
}

type buyRequest struct {
	BuyerWallet string `json:"buyer_wallet"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Outcome string `json:"outcome,omitempty"`
	SagaID  string `json:"saga_id,omitempty"`
}

// ListForSale handles listing requests
func (h *MarketplaceHandlers) ListForSale(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.listForSale.Execute(r.Context(), &application.ListForSaleCommand{
		NFTID:         chi.URLParam(r, "id"),
		SellerWallet:  req.SellerWallet,
		PriceLamports: req.PriceLamports,
		DurationDays:  req.DurationDays,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response)
}

// BuyNFT handles purchase requests
func (h *MarketplaceHandlers) BuyNFT(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.buyNFT.Execute(r.Context(), &application.BuyNFTCommand{
		NFTID:       chi.URLParam(r, "id"),
		BuyerWallet: req.BuyerWallet,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response)
}

// GetNFT handles nft retrieval requests
func (h *MarketplaceHandlers) GetNFT(w http.ResponseWriter, r *http.Request) {
	nft, err := h.getNFT.Execute(r.Context(), &application.GetNFTQuery{NFTID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nft)
}

// MintNFT handles mint requests
func (h *MarketplaceHandlers) MintNFT(w http.ResponseWriter, r *http.Request) {
	var cmd application.MintNFTCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.mintNFT.Execute(r.Context(), &cmd)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response)
}

// SearchNFTs handles filtered, paginated listing requests
func (h *MarketplaceHandlers) SearchNFTs(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	page, err := h.searchNFTs.Execute(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func parseSearchQuery(values url.Values) (*application.SearchNFTsQuery, error) {
	query := &application.SearchNFTsQuery{
		Owner:         values.Get("owner"),
		CreatorWallet: values.Get("creator_wallet"),
		Status:        values.Get("status"),
	}

	if raw := values.Get("is_listed"); raw != "" {
		listed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Errorf("invalid is_listed %q", raw)
		}
		query.IsListed = &listed
	}
	for name, target := range map[string]*int{"limit": &query.Limit, "page": &query.Page} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Errorf("invalid %s %q", name, raw)
		}
		*target = n
	}
	return query, nil
}

// GetChainAsset handles on-chain asset lookups
func (h *MarketplaceHandlers) GetChainAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.fetchFromChain.Execute(r.Context(), &application.FetchFromChainQuery{Mint: chi.URLParam(r, "mint")})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

// RegisterRoutes registers marketplace routes
func (h *MarketplaceHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/nfts", func(r chi.Router) {
			r.Get("/", h.SearchNFTs)
			r.Post("/", h.MintNFT)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetNFT)
				r.Post("/list", h.ListForSale)
				r.Post("/buy", h.BuyNFT)
			})
		})
		r.Get("/chain/assets/{mint}", h.GetChainAsset)
	})
}

func (h *MarketplaceHandlers) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := errorResponse{Error: err.Error()}

	var werr *application.WorkflowError
	if errors.As(err, &werr) {
		body.Outcome = string(werr.Outcome)
		body.SagaID = werr.SagaID
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, body)
}

// StatusFor maps an application error to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNFTNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConcurrentModification), errors.Is(err, saga.ErrDuplicateSaga):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, outbox.ErrQueueRejected):
		return http.StatusServiceUnavailable
	case errors.Is(err, circuitbreaker.ErrUpstreamFailure), errors.Is(err, circuitbreaker.ErrTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
