// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	caterrors "github.com/pharmacart/backend/internal/catalog/errors"
	"github.com/pharmacart/backend/internal/catalog/query"
	"github.com/pharmacart/backend/internal/catalog/service"
	"github.com/pharmacart/backend/pkg/web"
)

// maxUploadMemory bounds the in-memory part of multipart parsing. It is
// deliberately larger than the photo limit so oversized uploads reach
// the validation pipeline and fail with the documented error.
const maxUploadMemory = 8 << 20

// maxRequestBytes caps the whole request body before multipart parsing
// begins, so an oversized upload is rejected instead of spooled to a
// temp file. Larger than maxUploadMemory so in-bounds photos still
// reach the validation pipeline.
const maxRequestBytes = 10 << 20

type Handler struct {
	service  service.MedicineService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the catalog API with the provided service.
func NewHandler(service service.MedicineService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the catalog routes on the medicine subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-medicine", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Use(web.AdminMiddleware)
		r.Put("/update-medicine/{id}", h.Update)
	})
	r.Delete("/delete-medicine/{id}", h.Delete)
	r.Get("/get-medicine", h.FindLatest)
	r.Get("/get-medicine/{slug}", h.FindBySlug)
	r.Get("/medicine-photo/{id}", h.Photo)
	r.Post("/medicine-filters", h.Filter)
	r.Get("/medicine-count", h.Count)
	r.Get("/medicine-list", h.Page)
	r.Get("/medicine-list/{page}", h.Page)
	r.Get("/search/{keyword}", h.Search)
	r.Get("/medicine-category/{slug}", h.ByCategory)
}

// Create handles the creation of a new medicine from a multipart form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	in, photo, ok := h.parseMedicineForm(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create medicine", "name", in.Name)
	created, err := h.service.Create(r.Context(), in, photo)
	if err != nil {
		h.respondMedicineError(w, r, mLogger, err, "Error in creating medicine")
		return
	}
	mLogger.InfoContext(r.Context(), "Medicine created successfully", "ID", created.ID, "slug", created.Slug)
	web.RespondData(w, mLogger, http.StatusCreated, "Medicine Created Successfully", created)
}

// Update handles the full-field update of a medicine from a multipart form.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	in, photo, ok := h.parseMedicineForm(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update medicine", "ID", id)
	updated, err := h.service.Update(r.Context(), id, in, photo)
	if err != nil {
		h.respondMedicineError(w, r, mLogger, err, "Error in updating medicine")
		return
	}
	mLogger.InfoContext(r.Context(), "Medicine updated successfully", "ID", updated.ID)
	web.RespondData(w, mLogger, http.StatusCreated, "Medicine Updated Successfully", updated)
}

// Delete removes a medicine; deleting an absent ID still reports success.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete medicine", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting medicine", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while deleting medicine", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Medicine Deleted Successfully", nil)
}

// FindLatest returns the newest medicines for the landing listing.
func (h *Handler) FindLatest(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.FindLatest(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving medicine list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error in getting medicines", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "All Medicines", list)
}

// FindBySlug returns a single medicine by its slug.
func (h *Handler) FindBySlug(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	medicineSlug := chi.URLParam(r, "slug")

	found, err := h.service.FindBySlug(r.Context(), medicineSlug)
	if err != nil {
		if errors.Is(err, caterrors.ErrMedicineNotFound) {
			mLogger.WarnContext(r.Context(), "Medicine not found", "slug", medicineSlug)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with slug %q not found", medicineSlug), err)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving medicine", "slug", medicineSlug, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while getting single medicine", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Single Medicine Fetched", found)
}

// Photo streams the raw photo bytes of a medicine. A medicine without a
// photo yields an empty 200 response.
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	photo, err := h.service.Photo(r.Context(), id)
	if err != nil {
		if errors.Is(err, caterrors.ErrMedicineNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %s not found", id), err)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving photo", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while getting photo", err)
		return
	}
	if len(photo.Data) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", photo.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo.Data)
}

// FilterRequest is the body of the filtered-listing endpoint. Radio is
// the inclusive [min, max] price range; empty means unrestricted.
type FilterRequest struct {
	Checked []uuid.UUID `json:"checked"`
	Radio   []int64     `json:"radio" validate:"omitempty,len=2"`
}

// Filter returns medicines matching the posted category/price filter.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		mLogger.WarnContext(r.Context(), "Invalid filter request", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Price range must have exactly two bounds", err)
		return
	}

	f := query.Filter{Categories: req.Checked}
	if len(req.Radio) == 2 {
		f.Price = &query.PriceRange{Min: req.Radio[0], Max: req.Radio[1]}
	}
	list, err := h.service.Filter(r.Context(), f)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error filtering medicines", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while filtering medicines", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Filtered Medicines", list)
}

// Count returns the total number of medicines.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	total, err := h.service.Count(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error counting medicines", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error in medicine count", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Medicine Count", map[string]int64{"total": total})
}

// Page returns one fixed-size page of the listing; the page number
// defaults to 1 when the path carries none.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page := int32(1)
	if raw := chi.URLParam(r, "page"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid page number: %s", raw), err)
			return
		}
		page = int32(parsed)
	}
	list, err := h.service.Page(r.Context(), page)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving medicine page", "page", page, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error in per-page listing", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Medicine Page", list)
}

// Search returns medicines matching the free-text keyword.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	keyword := chi.URLParam(r, "keyword")
	list, err := h.service.Search(r.Context(), keyword)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching medicines", "keyword", keyword, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error in search medicine API", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Search Results", list)
}

// byCategoryPayload pairs the resolved category with its medicines.
type byCategoryPayload struct {
	Category *service.CategoryDto  `json:"category"`
	Medicine []service.MedicineDto `json:"medicine"`
}

// ByCategory lists the medicines of the category with the given slug.
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	categorySlug := chi.URLParam(r, "slug")

	category, list, err := h.service.ByCategory(r.Context(), categorySlug)
	if err != nil {
		if errors.Is(err, caterrors.ErrCategoryNotFound) {
			mLogger.WarnContext(r.Context(), "Category not found", "slug", categorySlug)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Category with slug %q not found", categorySlug), err)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving medicines by category", "slug", categorySlug, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while getting medicines", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Category Medicines", byCategoryPayload{Category: category, Medicine: list})
}

// parseMedicineForm extracts the medicine fields and the optional photo
// from a multipart form. Absent numeric fields stay nil so the
// validation pipeline can name the first missing one.
func (h *Handler) parseMedicineForm(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (service.MedicineInput, *service.PhotoUpload, bool) {
	var in service.MedicineInput
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		mLogger.ErrorContext(r.Context(), "Error parsing multipart form", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid form data", err)
		return in, nil, false
	}

	in.Name = r.FormValue("name")
	in.Description = r.FormValue("description")
	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid price: %s", raw), err)
			return in, nil, false
		}
		in.Price = &price
	}
	if raw := r.FormValue("category"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid category: %s", raw), err)
			return in, nil, false
		}
		in.Category = &categoryID
	}
	if raw := r.FormValue("quantity"); raw != "" {
		quantity, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid quantity: %s", raw), err)
			return in, nil, false
		}
		q := int32(quantity)
		in.Quantity = &q
	}
	if raw := r.FormValue("shipping"); raw != "" {
		shipping, err := strconv.ParseBool(raw)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid shipping flag: %s", raw), err)
			return in, nil, false
		}
		in.Shipping = shipping
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, true
		}
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid photo upload", err)
		return in, nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error reading photo upload", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid photo upload", err)
		return in, nil, false
	}
	return in, &service.PhotoUpload{Data: data, ContentType: header.Header.Get("Content-Type")}, true
}

// respondMedicineError maps create/update failures onto the error taxonomy.
func (h *Handler) respondMedicineError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	if ve, ok := caterrors.IsValidation(err); ok {
		mLogger.WarnContext(r.Context(), "Validation failed", "field", ve.Field, "reason", ve.Reason)
		web.RespondError(w, mLogger, http.StatusBadRequest, ve.Reason, err)
		return
	}
	if errors.Is(err, caterrors.ErrMedicineNotFound) {
		mLogger.WarnContext(r.Context(), "Medicine not found", "error", err)
		web.RespondError(w, mLogger, http.StatusNotFound, "Medicine not found", err)
		return
	}
	mLogger.ErrorContext(r.Context(), fallback, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, fallback, err)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
