package frame

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/frameforge/giftstorage/internal/httputil"
	"github.com/frameforge/giftstorage/internal/identity"
	"github.com/frameforge/giftstorage/internal/logging"
	"github.com/frameforge/giftstorage/internal/metrics"
	"github.com/frameforge/giftstorage/internal/payment"
	"github.com/frameforge/giftstorage/internal/render"

	svcerrors "github.com/frameforge/giftstorage/internal/errors"
)

// One storage unit per gift. Quantity is threaded through the coordinator,
// which enforces the >= 1 bound.
const giftUnits = 1

// Coordinator is the payment surface the state machine drives.
type Coordinator interface {
	CreateIntent(ctx context.Context, payer string, fid uint64, units uint64) (*payment.UnsignedTransaction, error)
	QueryByHash(ctx context.Context, chainID, txHash string) (*payment.Session, error)
	WaitForSettlement(ctx context.Context, sessionID string) (*payment.Session, error)
}

// Config fixes the routes and chain constants the handlers emit.
type Config struct {
	// BasePath is the mount point of the frame route tree, e.g. /api/frame.
	BasePath string
	// PublicURL prefixes image and post URLs when the server sits behind a
	// public host name. Empty means relative URLs.
	PublicURL string
	// PaymentChainID is the chain the payer's transaction lands on.
	PaymentChainID string
	// ExplorerBaseURL links settled transactions out to a block explorer.
	ExplorerBaseURL string
}

// Handler serves the frame route tree.
type Handler struct {
	resolver    identity.Resolver
	coordinator Coordinator
	renderer    render.Renderer
	cfg         Config
	log         *logging.Logger
}

// NewHandler wires the state machine's collaborators.
func NewHandler(resolver identity.Resolver, coordinator Coordinator, renderer render.Renderer, cfg Config, log *logging.Logger) *Handler {
	return &Handler{
		resolver:    resolver,
		coordinator: coordinator,
		renderer:    renderer,
		cfg:         cfg,
		log:         log,
	}
}

// Register mounts the frame routes on r, which is expected to be the
// subrouter for Config.BasePath.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.handleEntry).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/search", h.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/confirm/{fid:[0-9]+}", h.handleConfirm).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/tx/{fid:[0-9]+}", h.handleTransaction).Methods(http.MethodPost)
	r.HandleFunc("/status", h.handleStatus).Methods(http.MethodPost)
	r.HandleFunc("/img/profile/{fid:[0-9]+}", h.handleProfileImage).Methods(http.MethodGet)
	r.HandleFunc("/img/view/{name}", h.handleViewImage).Methods(http.MethodGet)
}

func (h *Handler) route(path string) string {
	return h.cfg.PublicURL + h.cfg.BasePath + path
}

// =============================================================================
// States
// =============================================================================

// handleEntry renders the first frame: a handle input plus the Search action.
// Reset buttons post back here.
func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	metrics.CountFrameRender("entry")
	WriteHTML(w, h.entryFrame(false))
}

// handleSearch resolves the entered handle. Misses and resolver failures are
// recoverable: the entry frame is re-offered with an error view.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := DecodeRequest(r)

	user, err := h.resolver.SearchUser(r.Context(), req.InputText)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			metrics.CountIdentityLookup("miss")
		} else {
			metrics.CountIdentityLookup("error")
			h.log.WithContext(r.Context()).WithError(err).Warn("identity lookup failed")
		}
		metrics.CountFrameRender("search_not_found")
		WriteHTML(w, h.entryFrame(true))
		return
	}

	metrics.CountIdentityLookup("hit")
	metrics.CountFrameRender("confirm")
	WriteHTML(w, h.confirmFrame(user.FID))
}

// handleConfirm re-renders the confirmation frame for a resolved identity
// carried in the route path.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	fid, err := fidFromRoute(r)
	if err != nil {
		httputil.BadRequest(w, "invalid fid")
		return
	}
	metrics.CountFrameRender("confirm")
	WriteHTML(w, h.confirmFrame(fid))
}

// handleTransaction prices the gift and mints the unsigned transaction. The
// response is a chain payload, not a view; a missing payload fails the
// request outright.
func (h *Handler) handleTransaction(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildTransaction(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Post-process the outgoing payload before it reaches the client.
	StampAttribution(resp)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) buildTransaction(r *http.Request) (*TransactionResponse, error) {
	fid, err := fidFromRoute(r)
	if err != nil {
		return nil, svcerrors.BadRequest("invalid fid")
	}

	req := DecodeRequest(r)
	payer := logging.GetVerifiedWallet(r.Context())
	if payer == "" {
		payer = req.Address
	}

	unsigned, err := h.coordinator.CreateIntent(r.Context(), payer, fid, giftUnits)
	if err != nil {
		return nil, err
	}

	return &TransactionResponse{
		ChainID: unsigned.ChainID,
		Method:  "eth_sendTransaction",
		Params: TransactionParams{
			ABI:   []interface{}{},
			To:    unsigned.To,
			Data:  unsigned.Data,
			Value: unsigned.Value,
		},
	}, nil
}

// handleStatus reconciles a submitted payment transaction. Not-found means
// finality has not propagated yet and is re-offered as pending; only a
// missing hash is fatal.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	req := DecodeRequest(r)

	hash := req.TransactionID
	if hash == "" {
		hash = req.ButtonValue
	}
	if hash == "" {
		h.writeError(w, r, svcerrors.BadRequest("no transaction hash available"))
		return
	}

	session, err := h.coordinator.QueryByHash(r.Context(), h.cfg.PaymentChainID, hash)
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		metrics.CountSettlementPoll("not_found")
		h.renderPending(w, hash)
		return
	case err != nil:
		// Transport failures are reported as pending too; the user's Refresh
		// is the retry path. Counted separately for diagnostics.
		metrics.CountSettlementPoll("error")
		h.log.WithContext(r.Context()).WithError(err).Warn("session query failed")
		h.renderPending(w, hash)
		return
	}

	if !session.Settled() {
		settled, err := h.coordinator.WaitForSettlement(r.Context(), session.ID)
		if err != nil {
			metrics.CountSettlementPoll("pending")
			h.renderPending(w, hash)
			return
		}
		session = settled
	}

	if !session.Settled() {
		metrics.CountSettlementPoll("pending")
		h.renderPending(w, hash)
		return
	}

	metrics.CountSettlementPoll("settled")
	metrics.CountFrameRender("success")
	WriteHTML(w, h.successFrame(session.SponsoredTransactionHash))
}

// =============================================================================
// Images
// =============================================================================

// handleProfileImage renders the confirm step's profile preview. Content is
// request-specific, so caching is disabled.
func (h *Handler) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	fid, err := fidFromRoute(r)
	if err != nil {
		httputil.BadRequest(w, "invalid fid")
		return
	}

	user, err := h.resolver.UserByFID(r.Context(), fid)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			metrics.CountIdentityLookup("miss")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "unknown fid", nil)
			return
		}
		metrics.CountIdentityLookup("error")
		h.log.WithContext(r.Context()).WithError(err).Warn("profile fetch failed")
		httputil.InternalError(w, "profile fetch failed")
		return
	}
	metrics.CountIdentityLookup("hit")

	img, contentType, err := h.renderer.Profile(user)
	if err != nil {
		httputil.InternalError(w, "render failed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	_, _ = w.Write(img)
}

func (h *Handler) handleViewImage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	img, contentType, err := h.renderer.View(name)
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "unknown view", nil)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(img)
}

// =============================================================================
// Frames
// =============================================================================

func (h *Handler) entryFrame(notFound bool) *Frame {
	view := "entry"
	title := "Gift Storage"
	if notFound {
		view = "notfound"
		title = "User not found!"
	}
	return &Frame{
		Title:    title,
		ImageURL: h.route("/img/view/" + view),
		PostURL:  h.route("/search"),
		Input:    "Search by username",
		Buttons: []Button{
			{Label: "Search", Action: ActionPost, Target: h.route("/search")},
		},
		NoCache: true,
	}
}

func (h *Handler) confirmFrame(fid uint64) *Frame {
	fidPath := strconv.FormatUint(fid, 10)
	return &Frame{
		Title:    "Confirm gift",
		ImageURL: h.route("/img/profile/" + fidPath),
		Buttons: []Button{
			{
				Label:   "Gift 1 storage unit",
				Action:  ActionTx,
				Target:  h.route("/tx/" + fidPath),
				PostURL: h.route("/status"),
			},
			{Label: "Cancel", Action: ActionPost, Target: h.route("/")},
		},
		NoCache: true,
	}
}

func (h *Handler) renderPending(w http.ResponseWriter, hash string) {
	metrics.CountFrameRender("pending")
	WriteHTML(w, &Frame{
		Title:    "Payment pending",
		ImageURL: h.route("/img/view/pending"),
		PostURL:  h.route("/status"),
		Buttons: []Button{
			// The echoed value is the only continuation state for the polling
			// loop; it must carry the identical hash.
			{Label: "Refresh", Action: ActionPost, Target: h.route("/status"), Value: hash},
		},
		NoCache: true,
	})
}

func (h *Handler) successFrame(settlementHash string) *Frame {
	return &Frame{
		Title:    "Storage gifted!",
		ImageURL: h.route("/img/view/success"),
		Buttons: []Button{
			{Label: "View transaction", Action: ActionLink, Target: h.cfg.ExplorerBaseURL + "/tx/" + settlementHash},
			{Label: "Start over", Action: ActionPost, Target: h.route("/")},
		},
		NoCache: true,
	}
}

// =============================================================================
// Helpers
// =============================================================================

func fidFromRoute(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["fid"], 10, 64)
}

// writeError maps service errors to their HTTP status; anything else is a
// generic request failure with no rendered frame.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	if se := svcerrors.GetServiceError(err); se != nil {
		httputil.WriteErrorResponse(w, se.HTTPStatus, string(se.Code), se.Message, se.Details)
		return
	}
	httputil.InternalError(w, "request failed")
}
