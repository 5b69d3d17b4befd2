package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kalyonekenobe/funders-sub000/internal/middleware"
	"github.com/kalyonekenobe/funders-sub000/internal/services"
)

type PostHandler struct {
	service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// CreatePost handles multipart post creation. Binary parts: "image" (single,
// optional cover) and "attachments" (repeated). "attachment_filenames" values
// pair with attachment parts by position.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	authorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	funds := 0.0
	if v := r.FormValue("funds_to_be_raised"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid funds_to_be_raised", http.StatusBadRequest)
			return
		}
		funds = parsed
	}
	isDraft := r.FormValue("is_draft") == "true"

	req := &services.CreatePostRequest{
		AuthorID:        authorID,
		Title:           title,
		Content:         r.FormValue("content"),
		FundsToBeRaised: funds,
		IsDraft:         isDraft,
	}

	if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
		if len(headers) > 1 {
			http.Error(w, "At most one image part is allowed", http.StatusBadRequest)
			return
		}
		image, err := readIncomingFile(headers[0])
		if err != nil {
			http.Error(w, "Error reading image: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Image = &image
	}

	attachments, err := readIncomingFiles(r.MultipartForm.File["attachments"])
	if err != nil {
		http.Error(w, "Error reading attachments: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Attachments = attachments
	req.AttachmentNames = r.MultipartForm.Value["attachment_filenames"]

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		log.Printf("CreatePost failed: %v", err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost handles multipart post updates. Scalar fields are optional and
// untouched when absent. "remove_image" clears the cover image without a
// replacement; "clear_attachments" replaces the attachment set with an empty
// one. Supplying attachment parts always replaces the whole previous set.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := &services.UpdatePostRequest{
		Title:       formValuePtr(r, "title"),
		Content:     formValuePtr(r, "content"),
		RemoveImage: r.FormValue("remove_image") == "true",
	}

	if v := formValuePtr(r, "funds_to_be_raised"); v != nil {
		parsed, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			http.Error(w, "Invalid funds_to_be_raised", http.StatusBadRequest)
			return
		}
		req.FundsToBeRaised = &parsed
	}
	if v := formValuePtr(r, "is_draft"); v != nil {
		parsed, err := strconv.ParseBool(*v)
		if err != nil {
			http.Error(w, "Invalid is_draft", http.StatusBadRequest)
			return
		}
		req.IsDraft = &parsed
	}

	if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
		if len(headers) > 1 {
			http.Error(w, "At most one image part is allowed", http.StatusBadRequest)
			return
		}
		image, err := readIncomingFile(headers[0])
		if err != nil {
			http.Error(w, "Error reading image: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Image = &image
	}

	attachments, err := readIncomingFiles(r.MultipartForm.File["attachments"])
	if err != nil {
		http.Error(w, "Error reading attachments: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Attachments = attachments
	req.ReplaceAttachments = len(attachments) > 0 || r.FormValue("clear_attachments") == "true"
	req.AttachmentNames = r.MultipartForm.Value["attachment_filenames"]

	post, err := h.service.UpdatePost(r.Context(), id, req)
	if err != nil {
		log.Printf("UpdatePost %s failed: %v", id, err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// DeletePost removes the post; stale media objects are reclaimed in the
// background after the delete commits.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	post, err := h.service.RemovePost(r.Context(), id)
	if err != nil {
		if err != services.ErrPostNotFound {
			log.Printf("DeletePost %s failed: %v", id, err)
		}
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	posts, err := h.service.ListPosts(r.Context(), limit, offset)
	if err != nil {
		log.Printf("ListPosts failed: %v", err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}
