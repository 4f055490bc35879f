package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nutrijus/internal/domain"
	"nutrijus/internal/notify"
	"nutrijus/internal/service"
	"nutrijus/internal/storage"
)

const cartTokenHeader = "X-Cart-Token"

type Handler struct {
	Catalog  *service.CatalogService
	Orders   *service.OrderService
	Users    *service.UserService
	Auth     *service.AuthService
	Carts    *service.CartService
	Reports  *service.ReportService
	Notifier service.Notifier
	QRCache  service.QRCache
	QRGen    service.QRGenerator

	WebhookVerifyToken string
	UploadsDir         string
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck)

	r.HandleFunc("/api/products", h.products)
	r.HandleFunc("/api/orders", h.orders)
	r.HandleFunc("/api/orders/migrate", h.migrateOrders)
	r.HandleFunc("/api/orders/{id}/qrcode", h.orderQRCode)
	r.HandleFunc("/api/users", h.users)

	r.HandleFunc("/api/cart", h.cart)
	r.HandleFunc("/api/cart/items", h.cartItems)

	r.HandleFunc("/api/login", h.login)
	r.HandleFunc("/api/logout", h.logout)

	r.HandleFunc("/api/accounting", h.accounting)
	r.HandleFunc("/api/accounting/export", h.accountingExport)

	r.HandleFunc("/api/upload", h.upload)
	r.HandleFunc("/api/whatsapp", h.whatsappRelay)
	r.HandleFunc("/api/whatsapp-webhook", h.whatsappWebhook)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "nutrijus",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// --- products ---

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := h.Catalog.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if err := h.Catalog.Create(&product); err != nil {
			if errors.Is(err, service.ErrInvalidProduct) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, product)
	case http.MethodPut:
		if !h.requireAdmin(w, r) {
			return
		}
		var body struct {
			ID      string         `json:"id"`
			Index   *int           `json:"index"`
			Product domain.Product `json:"product"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		var (
			updated domain.Product
			err     error
		)
		switch {
		case body.ID != "":
			updated, err = h.Catalog.Update(body.ID, body.Product)
		case body.Index != nil:
			updated, err = h.Catalog.UpdateAt(*body.Index, body.Product)
		default:
			writeError(w, http.StatusBadRequest, "id or index is required")
			return
		}
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "product not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if !h.requireAdmin(w, r) {
			return
		}
		deleted, err := deleteByRef(r, h.Catalog.DeleteByID, h.Catalog.DeleteAt)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, errBadRef) {
				writeError(w, http.StatusBadRequest, "invalid index")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, deleted)
	default:
		methodNotAllowed(w, "GET, POST, PUT, DELETE")
	}
}

// --- orders ---

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		orders, err := h.Orders.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodPost:
		h.createOrder(w, r)
	case http.MethodPut:
		if !h.requireAdmin(w, r) {
			return
		}
		var body struct {
			ID    string       `json:"id"`
			Index *int         `json:"index"`
			Order domain.Order `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		var (
			updated domain.Order
			err     error
		)
		switch {
		case body.ID != "":
			updated, err = h.Orders.UpdateByID(body.ID, body.Order)
		case body.Index != nil:
			updated, err = h.Orders.UpdateAt(*body.Index, body.Order)
		default:
			writeError(w, http.StatusBadRequest, "id or index is required")
			return
		}
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "invalid index")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if !h.requireAdmin(w, r) {
			return
		}
		deleted, err := deleteByRef(r, h.Orders.DeleteByID, h.Orders.DeleteAt)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, errBadRef) {
				writeError(w, http.StatusBadRequest, "invalid index")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, deleted)
	default:
		methodNotAllowed(w, "GET, POST, PUT, DELETE")
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var probe struct {
		Bulk   bool           `json:"bulk"`
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if probe.Bulk {
		if !h.requireAdmin(w, r) {
			return
		}
		count, err := h.Orders.Bulk(r.Context(), probe.Orders)
		if err != nil {
			if errors.Is(err, service.ErrEmptyOrder) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "count": count})
		return
	}

	var draft domain.Order
	if err := json.Unmarshal(body, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	// Total, status and date are back-office fields. Without an admin
	// session the server computes them itself.
	if !h.isAdmin(r) {
		draft.Total = 0
		draft.Status = ""
		draft.Date = ""
	}
	order, err := h.Orders.Place(r.Context(), draft, r.Header.Get(cartTokenHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder),
			errors.Is(err, service.ErrMissingName),
			errors.Is(err, service.ErrMissingPlace),
			errors.Is(err, service.ErrInvalidPhone),
			errors.Is(err, service.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) migrateOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	migrated, err := h.Orders.MigrateLegacyItems()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"migrated": migrated})
}

func (h *Handler) orderQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	orderID := mux.Vars(r)["id"]
	png, err := h.Orders.OrderQR(r.Context(), h.QRCache, h.QRGen, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// --- users ---

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := h.Users.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var body struct {
			Name     string `json:"name"`
			Tel      string `json:"tel"`
			Password string `json:"password"`
			Status   string `json:"statut"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		user, err := h.Users.Create(body.Name, body.Tel, body.Password, body.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrMissingFields):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrDuplicateUser):
				writeError(w, http.StatusConflict, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusCreated, user)
	case http.MethodPut:
		var body struct {
			ID       string `json:"id"`
			Index    *int   `json:"index"`
			Name     string `json:"name"`
			Tel      string `json:"tel"`
			Status   string `json:"statut"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		var (
			user domain.User
			err  error
		)
		switch {
		case body.ID != "":
			user, err = h.Users.Update(body.ID, body.Name, body.Tel, body.Status, body.Password)
		case body.Index != nil:
			user, err = h.Users.UpdateAt(*body.Index, body.Name, body.Tel, body.Status, body.Password)
		default:
			writeError(w, http.StatusBadRequest, "user id is required")
			return
		}
		if err != nil {
			switch {
			case errors.Is(err, service.ErrProtectedUser):
				writeError(w, http.StatusForbidden, err.Error())
			case service.IsNotFound(err):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		var body struct {
			ID    string `json:"id"`
			Index *int   `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		var err error
		switch {
		case body.ID != "":
			err = h.Users.Delete(body.ID)
		case body.Index != nil:
			err = h.Users.DeleteAt(*body.Index)
		default:
			writeError(w, http.StatusBadRequest, "user id is required")
			return
		}
		if err != nil {
			switch {
			case errors.Is(err, service.ErrProtectedUser):
				writeError(w, http.StatusForbidden, err.Error())
			case service.IsNotFound(err):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w, "GET, POST, PUT, DELETE")
	}
}

// --- cart ---

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	cartID := h.cartToken(w, r)
	switch r.Method {
	case http.MethodGet:
		cart, err := h.Carts.Get(r.Context(), cartID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, cart)
	case http.MethodDelete:
		if err := h.Carts.Clear(r.Context(), cartID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w, "GET, DELETE")
	}
}

func (h *Handler) cartItems(w http.ResponseWriter, r *http.Request) {
	cartID := h.cartToken(w, r)
	switch r.Method {
	case http.MethodPost:
		var body struct {
			ProductID string `json:"product_id"`
			Delta     int    `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" {
			writeError(w, http.StatusBadRequest, "product_id is required")
			return
		}
		if body.Delta == 0 {
			body.Delta = 1
		}
		cart, err := h.Carts.Add(r.Context(), cartID, body.ProductID, body.Delta)
		if err != nil {
			if errors.Is(err, service.ErrUnknownProduct) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, cart)
	case http.MethodDelete:
		var body struct {
			ProductID string `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" {
			writeError(w, http.StatusBadRequest, "product_id is required")
			return
		}
		cart, err := h.Carts.Remove(r.Context(), cartID, body.ProductID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, cart)
	default:
		methodNotAllowed(w, "POST, DELETE")
	}
}

// cartToken returns the caller's cart token, minting one when absent. The
// token is always echoed back so clients can persist it.
func (h *Handler) cartToken(w http.ResponseWriter, r *http.Request) string {
	token := r.Header.Get(cartTokenHeader)
	if token == "" {
		token = uuid.NewString()
	}
	w.Header().Set(cartTokenHeader, token)
	return token
}

// --- auth ---

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var body struct {
		Tel      string `json:"tel"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	user, token, err := h.Auth.Login(r.Context(), body.Tel, body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := h.Auth.Logout(r.Context(), sessionToken(r)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- accounting ---

func (h *Handler) accounting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	report, err := h.Reports.Build(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) accountingExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	report, err := h.Reports.Build(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	csvData, err := service.ExportCSV(report)
	if err != nil {
		if errors.Is(err, service.ErrNothingToExport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFilename()+`"`)
	w.Write(csvData)
}

// --- uploads ---

var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true,
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		h.handleUpload(w, r)
	case http.MethodDelete:
		if !h.requireAdmin(w, r) {
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !strings.HasPrefix(body.URL, "/uploads/") {
			writeError(w, http.StatusBadRequest, "invalid url")
			return
		}
		path := filepath.Join(h.UploadsDir, filepath.Base(body.URL))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			writeError(w, http.StatusInternalServerError, "failed to delete file")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w, "POST, DELETE")
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file received")
		return
	}
	defer file.Close()

	productID := r.FormValue("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "invalid file type, only PNG, JPEG, WebP and GIF are allowed")
		return
	}

	// Deterministic names so a re-upload overwrites instead of accumulating.
	base := "product_" + productID
	if r.FormValue("ingredient") != "" && r.FormValue("ingredientIndex") != "" {
		base = "ingredient_" + productID + "_" + r.FormValue("ingredientIndex")
	}

	if err := os.MkdirAll(h.UploadsDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create upload directory")
		return
	}
	// Prune stale files with the same base but another extension.
	for stale := range allowedExtensions {
		if stale == ext {
			continue
		}
		os.Remove(filepath.Join(h.UploadsDir, base+stale))
	}

	dst, err := os.Create(filepath.Join(h.UploadsDir, base+ext))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + base + ext})
}

// --- whatsapp ---

func (h *Handler) whatsappRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	var body struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.To == "" || body.Message == "" {
		writeError(w, http.StatusBadRequest, "to and message are required")
		return
	}
	if h.Notifier == nil {
		writeError(w, http.StatusInternalServerError, "whatsapp api credentials missing")
		return
	}
	if err := h.Notifier.Send(r.Context(), body.To, body.Message); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) whatsappWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		challenge, ok := notify.VerifyChallenge(h.WebhookVerifyToken,
			q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
		if !ok {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		for _, msg := range notify.ParseWebhook(body) {
			if h.Notifier == nil {
				break
			}
			if err := h.Notifier.Send(r.Context(), msg.From, notify.AutoReply(msg.Text)); err != nil {
				log.Printf("[whatsapp] auto-reply to %s failed: %v", msg.From, err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// --- helpers ---

var errBadRef = errors.New("id or index is required")

// deleteByRef dispatches a DELETE body holding either an id or an index to
// the matching repository operation.
func deleteByRef[T any](r *http.Request, byID func(string) (T, error), at func(int) (T, error)) (T, error) {
	var zero T
	var body struct {
		ID    string `json:"id"`
		Index *int   `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return zero, errBadRef
	}
	switch {
	case body.ID != "":
		return byID(body.ID)
	case body.Index != nil:
		return at(*body.Index)
	default:
		return zero, errBadRef
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
