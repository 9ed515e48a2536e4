package report

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MiguelCarapaz/mingafixbackend/internal/response"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxUploadMemory = 32 << 20

// Handler holds HTTP handlers for report endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new report Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the report endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Post("/upload", h.Upload)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/image-url", h.SignedImageURL)
	})
}

type signedURLData struct {
	URL string `json:"url" example:"http://localhost:9000/reports-images/images/uuid.jpg?X-Amz-..."`
}

// Create godoc
//
//	@Summary		Create a report
//	@Description	Creates a report. If a `file` part is present it is uploaded to storage first and the resulting public URL is stored in `image_url`.
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	false	"Report image"
//	@Param			category	formData	string	true	"Category"
//	@Param			longitude	formData	number	false	"Longitude"
//	@Param			latitude	formData	number	false	"Latitude"
//	@Param			description	formData	string	false	"Description"
//	@Param			status		formData	string	false	"Status (defaults to pending)"
//	@Success		201	{object}	Report
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := parseReportForm(w, r)
	if !ok {
		return
	}
	file, ok := parseOptionalFile(w, r)
	if !ok {
		return
	}

	rep, err := h.svc.Create(r.Context(), in, file)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	response.Created(w, rep)
}

// List godoc
//
//	@Summary		List reports
//	@Description	Returns every report, newest first.
//	@Tags			reports
//	@Produce		json
//	@Success		200	{array}		Report
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	response.OK(w, reports)
}

// Get godoc
//
//	@Summary		Get a report
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		string	true	"Report ID"
//	@Success		200	{object}	Report
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rep, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "report not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}
	response.OK(w, rep)
}

// Delete godoc
//
//	@Summary		Delete a report
//	@Description	Removes the report row. Its stored image, if any, is deleted best-effort: a storage failure never blocks the row deletion.
//	@Tags			reports
//	@Param			id	path	string	true	"Report ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "report not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}
	response.NoContent(w)
}

// Upload godoc
//
//	@Summary		Create or replace a report with an image
//	@Description	Always uploads the file first. With `report_id` the existing report is updated and its previous image removed best-effort; without it a new report is created.
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			report_id	formData	string	false	"Existing report ID"
//	@Param			file		formData	file	true	"Report image"
//	@Param			category	formData	string	true	"Category"
//	@Param			longitude	formData	number	false	"Longitude"
//	@Param			latitude	formData	number	false	"Latitude"
//	@Param			description	formData	string	false	"Description"
//	@Param			status		formData	string	false	"Status (defaults to pending)"
//	@Success		201	{object}	Report
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	in, ok := parseReportForm(w, r)
	if !ok {
		return
	}
	file, ok := parseOptionalFile(w, r)
	if !ok {
		return
	}
	if file == nil {
		response.BadRequest(w, "file is required")
		return
	}
	reportID := r.FormValue("report_id")

	rep, err := h.svc.Replace(r.Context(), reportID, in, *file)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "report not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}
	response.Created(w, rep)
}

// SignedImageURL godoc
//
//	@Summary		Get a time-limited image URL
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		string	true	"Report ID"
//	@Success		200	{object}	signedURLData
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/reports/{id}/image-url [get]
func (h *Handler) SignedImageURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	url, err := h.svc.SignedImageURL(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "report not found")
			return
		}
		if errors.Is(err, ErrNoImage) {
			response.NotFound(w, "report has no image")
			return
		}
		response.InternalError(w, err.Error())
		return
	}
	response.OK(w, signedURLData{URL: url})
}

// parseReportForm parses the multipart form and validates the shared report
// fields. On failure it writes a 400 and returns ok=false; no side effects
// have happened by then.
func parseReportForm(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return Input{}, false
	}

	in := Input{
		Category: r.FormValue("category"),
		Status:   r.FormValue("status"),
	}
	if in.Category == "" {
		response.BadRequest(w, "category is required")
		return Input{}, false
	}

	var ok bool
	if in.Longitude, ok = parseOptionalFloat(w, r, "longitude"); !ok {
		return Input{}, false
	}
	if in.Latitude, ok = parseOptionalFloat(w, r, "latitude"); !ok {
		return Input{}, false
	}
	if desc := r.FormValue("description"); desc != "" {
		in.Description = &desc
	}
	return in, true
}

// parseOptionalFloat reads a numeric form field. Absent fields yield nil;
// unparseable values write a 400 and return ok=false.
func parseOptionalFloat(w http.ResponseWriter, r *http.Request, name string) (*float64, bool) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		response.BadRequest(w, name+" must be a number")
		return nil, false
	}
	return &v, true
}

// parseOptionalFile reads the full content of the "file" part into memory.
// A missing part yields a nil Upload; read errors write an error response
// and return ok=false.
func parseOptionalFile(w http.ResponseWriter, r *http.Request) (*Upload, bool) {
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		response.BadRequest(w, "invalid file part")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.InternalError(w, "read file: "+err.Error())
		return nil, false
	}
	return &Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
